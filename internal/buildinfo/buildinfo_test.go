package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextValues(t *testing.T) {
	tests := []struct {
		name      string
		ctx       *Context
		version   string
		buildDate string
		str       string
	}{
		{
			name:      "nil context",
			ctx:       nil,
			version:   UnknownValue,
			buildDate: UnknownValue,
			str:       "esc50 unknown (built unknown)",
		},
		{
			name:      "empty values",
			ctx:       NewContext("", "", ""),
			version:   UnknownValue,
			buildDate: UnknownValue,
			str:       "esc50 unknown (built unknown)",
		},
		{
			name:      "release build",
			ctx:       NewContext("v1.0.0", "2024-05-01", "go1.26.0"),
			version:   "v1.0.0",
			buildDate: "2024-05-01",
			str:       "esc50 v1.0.0 (built 2024-05-01), go1.26.0",
		},
		{
			name:      "pre-release tag",
			ctx:       NewContext("v1.1.0-beta.1", "", ""),
			version:   "v1.1.0-beta.1",
			buildDate: UnknownValue,
			str:       "esc50 v1.1.0-beta.1 (built unknown)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.version, tt.ctx.GetVersion())
			assert.Equal(t, tt.buildDate, tt.ctx.GetBuildDate())
			assert.Equal(t, tt.str, tt.ctx.String())
		})
	}
}

func TestCurrentReportsGoVersion(t *testing.T) {
	assert.NotEmpty(t, Current().GoVersion)
}
