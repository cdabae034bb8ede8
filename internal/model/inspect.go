package model

import (
	"os"

	"github.com/antonholmquist/jason"
	"github.com/tphakala/esc50-go/internal/errors"
)

// Info summarises a model file without decoding its payload.
type Info struct {
	Format string
	Attrs  map[string]string
	Size   int64
}

// Inspect reads the format and attributes of any model file, including
// payloads this build cannot load.
func Inspect(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.FileError(err, path)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, errors.FileError(err, path)
	}

	root, err := jason.NewObjectFromReader(f)
	if err != nil {
		return nil, errors.New(err).
			Component("model").
			Category(errors.CategoryModelLoad).
			FileContext(path).
			Build()
	}

	info := &Info{Attrs: map[string]string{}, Size: stat.Size()}
	if format, err := root.GetString("format"); err == nil {
		info.Format = format
	}

	attrs, err := root.GetObject("attrs")
	if err != nil {
		return info, nil
	}
	for key, value := range attrs.Map() {
		if s, err := value.String(); err == nil {
			info.Attrs[key] = s
		}
	}
	return info, nil
}
