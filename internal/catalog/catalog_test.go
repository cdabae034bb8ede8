package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/esc50-go/internal/errors"
)

const header = "filename,fold,target,category,esc10,src_file,take\n"

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFileName), []byte(header+body), 0o644))
	return dir
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Record
		wantErr bool
	}{
		{
			name: "valid line",
			line: "1-100032-A-0.wav,1,0,dog,True,100032,A\n",
			want: Record{Filename: "1-100032-A-0.wav", Fold: 1, Target: 0, Category: "dog", ESC10: true, SourceFileID: "100032", Take: "A"},
		},
		{
			name: "crlf and underscore category",
			line: "5-9032-A-12.wav,5,12,crackling_fire,False,9032,A\r\n",
			want: Record{Filename: "5-9032-A-12.wav", Fold: 5, Target: 12, Category: "crackling_fire", ESC10: false, SourceFileID: "9032", Take: "A"},
		},
		{name: "too few fields", line: "a.wav,1,0,dog", wantErr: true},
		{name: "too many fields", line: "a.wav,1,0,dog,True,1,A,extra", wantErr: true},
		{name: "blank line", line: "", wantErr: true},
		{name: "non numeric target", line: "a.wav,1,x,dog,True,1,A", wantErr: true},
		{name: "non numeric fold", line: "a.wav,one,0,dog,True,1,A", wantErr: true},
		{name: "negative target", line: "a.wav,1,-1,dog,True,1,A", wantErr: true},
		{name: "bad esc10", line: "a.wav,1,0,dog,maybe,1,A", wantErr: true},
		{name: "empty category", line: "a.wav,1,0,,True,1,A", wantErr: true},
		{name: "empty filename", line: ",1,0,dog,True,1,A", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecordsSkipsHeaderAndKeepsOrder(t *testing.T) {
	dir := writeCatalog(t,
		"a.wav,1,0,dog,True,1,A\n"+
			"broken,line\n"+
			"b.wav,1,5,cat,False,2,B\n")

	r, err := Open(dir, "")
	require.NoError(t, err)
	defer r.Close()

	var records []Record
	var lineErrs []*LineError
	for rec, err := range r.Records() {
		if err != nil {
			var le *LineError
			require.True(t, errors.As(err, &le))
			lineErrs = append(lineErrs, le)
			continue
		}
		records = append(records, rec)
	}

	require.Len(t, records, 2)
	assert.Equal(t, "a.wav", records[0].Filename)
	assert.Equal(t, "b.wav", records[1].Filename)
	assert.Equal(t, 5, records[1].Target)

	require.Len(t, lineErrs, 1)
	assert.Equal(t, 3, lineErrs[0].Line)
	assert.Equal(t, "broken,line", lineErrs[0].Text)
	assert.Equal(t, errors.CategoryCatalog, lineErrs[0].ErrorCategory())
}

func TestRecordsStopsWhenConsumerStops(t *testing.T) {
	dir := writeCatalog(t,
		"a.wav,1,0,dog,True,1,A\n"+
			"b.wav,1,5,cat,False,2,B\n")

	r, err := Open(dir, DefaultFileName)
	require.NoError(t, err)
	defer r.Close()

	count := 0
	for range r.Records() {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestOpenMissingCatalog(t *testing.T) {
	_, err := Open(t.TempDir(), "")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryCatalog))
}

func TestRecordsOversizedLineIsMalformed(t *testing.T) {
	// longer than the 64 KiB default token limit of bufio.Scanner
	long := strings.Repeat("x", 70*1024)
	dir := writeCatalog(t,
		long+"\n"+
			"b.wav,1,5,cat,False,2,A") // no trailing newline

	r, err := Open(dir, "")
	require.NoError(t, err)
	defer r.Close()

	var records []Record
	var lineErrs []*LineError
	for rec, err := range r.Records() {
		if err != nil {
			var le *LineError
			require.True(t, errors.As(err, &le), "unexpected error: %v", err)
			lineErrs = append(lineErrs, le)
			continue
		}
		records = append(records, rec)
	}

	require.Len(t, lineErrs, 1)
	assert.Equal(t, 2, lineErrs[0].Line)
	assert.Len(t, lineErrs[0].Text, len(long))

	require.Len(t, records, 1)
	assert.Equal(t, "b.wav", records[0].Filename)
	assert.Equal(t, "A", records[0].Take)
}
