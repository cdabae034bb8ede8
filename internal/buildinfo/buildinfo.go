// Package buildinfo holds build-time metadata injected with -ldflags.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

// UnknownValue is reported for metadata that was not injected at build time.
const UnknownValue = "unknown"

// Set at build time:
//
//	go build -ldflags "-X github.com/tphakala/esc50-go/internal/buildinfo.version=v1.2.0 -X github.com/tphakala/esc50-go/internal/buildinfo.buildDate=2024-05-01"
var (
	version   string
	buildDate string
)

// Context contains build metadata that is not user-configurable.
type Context struct {
	Version   string
	BuildDate string
	GoVersion string
}

// NewContext creates a build context from explicit values.
func NewContext(version, buildDate, goVersion string) *Context {
	return &Context{Version: version, BuildDate: buildDate, GoVersion: goVersion}
}

// Current returns the metadata of the running binary. When no version was
// injected, the module version recorded by the Go toolchain is used.
func Current() *Context {
	ctx := NewContext(version, buildDate, "")
	if info, ok := debug.ReadBuildInfo(); ok {
		ctx.GoVersion = info.GoVersion
		if ctx.Version == "" && info.Main.Version != "(devel)" {
			ctx.Version = info.Main.Version
		}
	}
	return ctx
}

// GetVersion returns the build version or UnknownValue.
func (c *Context) GetVersion() string {
	return orUnknown(c, func(c *Context) string { return c.Version })
}

// GetBuildDate returns the build date or UnknownValue.
func (c *Context) GetBuildDate() string {
	return orUnknown(c, func(c *Context) string { return c.BuildDate })
}

// String formats the context for the version command.
func (c *Context) String() string {
	s := fmt.Sprintf("esc50 %s (built %s)", c.GetVersion(), c.GetBuildDate())
	if c != nil && c.GoVersion != "" {
		s += ", " + c.GoVersion
	}
	return s
}

func orUnknown(c *Context, field func(*Context) string) string {
	if c == nil {
		return UnknownValue
	}
	if v := field(c); v != "" {
		return v
	}
	return UnknownValue
}
