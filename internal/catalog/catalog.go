// Package catalog reads the ESC-50 metadata catalog.
//
// The catalog is a comma separated file with a header line followed by one
// line per clip:
//
//	filename,fold,target,category,esc10,src_file,take
//	1-100032-A-0.wav,1,0,dog,True,100032,A
//
// Reading is best-effort: every line yields either a Record or an error and
// the caller decides whether to skip the error.
package catalog

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tphakala/esc50-go/internal/errors"
)

// DefaultFileName is the catalog file name inside the ESC-50 meta directory.
const DefaultFileName = "esc50.csv"

// fieldCount is the number of comma separated fields in a catalog line.
const fieldCount = 7

// Record is one parsed catalog line.
type Record struct {
	Filename     string // source clip file name, e.g. 1-100032-A-0.wav
	Fold         int    // cross-validation fold
	Target       int    // class index
	Category     string // class name, e.g. chirping_birds
	ESC10        bool   // member of the ESC-10 subset
	SourceFileID string // freesound clip id
	Take         string // take letter
}

// LineError reports a catalog line that could not be parsed.
type LineError struct {
	Line int    // 1-based line number in the file
	Text string // raw line
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("catalog line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// ErrorCategory implements errors.CategorizedError
func (e *LineError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryCatalog
}

// ParseLine parses a single catalog line into a Record.
// The line must split into exactly seven comma separated fields.
func ParseLine(line string) (Record, error) {
	line = strings.TrimRight(line, "\r\n")
	fields := strings.Split(line, ",")
	if len(fields) != fieldCount {
		return Record{}, fmt.Errorf("expected %d fields, got %d", fieldCount, len(fields))
	}

	filename := strings.TrimSpace(fields[0])
	if filename == "" {
		return Record{}, fmt.Errorf("empty filename")
	}

	fold, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return Record{}, fmt.Errorf("invalid fold %q: %w", fields[1], err)
	}

	target, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil {
		return Record{}, fmt.Errorf("invalid target %q: %w", fields[2], err)
	}
	if target < 0 {
		return Record{}, fmt.Errorf("negative target %d", target)
	}

	category := strings.TrimSpace(fields[3])
	if category == "" {
		return Record{}, fmt.Errorf("empty category")
	}

	esc10, err := strconv.ParseBool(strings.TrimSpace(fields[4]))
	if err != nil {
		return Record{}, fmt.Errorf("invalid esc10 flag %q: %w", fields[4], err)
	}

	return Record{
		Filename:     filename,
		Fold:         fold,
		Target:       target,
		Category:     category,
		ESC10:        esc10,
		SourceFileID: strings.TrimSpace(fields[5]),
		Take:         strings.TrimSpace(fields[6]),
	}, nil
}

// Reader reads records from an open catalog file.
type Reader struct {
	file *os.File
	path string
}

// Open opens the catalog file name inside metaDir.
// An empty name selects DefaultFileName.
func Open(metaDir, name string) (*Reader, error) {
	if name == "" {
		name = DefaultFileName
	}
	path := filepath.Join(metaDir, name)

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Component("catalog").
			Category(errors.CategoryCatalog).
			FileContext(path).
			Build()
	}

	return &Reader{file: file, path: path}, nil
}

// Path returns the catalog file path.
func (r *Reader) Path() string {
	return r.path
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Records returns a lazy sequence over the catalog lines after the header.
// Each line yields either a Record or a *LineError. Lines have no length
// limit, so an oversized line is reported as malformed like any other. A
// read failure ends the sequence with a final error carrying the catalog path.
func (r *Reader) Records() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		br := bufio.NewReader(r.file)
		lineNo := 0

		for {
			text, readErr := br.ReadString('\n')
			if readErr != nil && !errors.Is(readErr, io.EOF) {
				yield(Record{}, errors.Newf("reading catalog: %w", readErr).
					Component("catalog").
					Category(errors.CategoryCatalog).
					FileContext(r.path).
					Build())
				return
			}
			if text == "" && readErr != nil {
				return
			}

			lineNo++
			if lineNo > 1 && !r.yieldLine(yield, lineNo, text) {
				return
			}
			if readErr != nil {
				return
			}
		}
	}
}

// yieldLine parses one line and hands the result to yield; line 1 is the header
func (r *Reader) yieldLine(yield func(Record, error) bool, lineNo int, text string) bool {
	text = strings.TrimRight(text, "\r\n")
	rec, err := ParseLine(text)
	if err != nil {
		return yield(Record{}, &LineError{Line: lineNo, Text: text, Err: err})
	}
	return yield(rec, nil)
}
