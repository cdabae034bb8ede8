// Package model persists trained classifiers together with their class
// label list and provides the load-or-train Model Store.
package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tphakala/esc50-go/internal/errors"
)

// Artifact is the on-disk model file: the classifier payload plus string
// attributes attached to it.
type Artifact struct {
	Format string            `json:"format"`
	Attrs  map[string]string `json:"attrs"`
	Model  json.RawMessage   `json:"model"`
}

// ReadArtifact reads the model file at path.
func ReadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(err).
			Component("model").
			Category(errors.CategoryModelLoad).
			FileContext(path).
			Build()
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, errors.New(fmt.Errorf("invalid model file: %w", err)).
			Component("model").
			Category(errors.CategoryModelLoad).
			FileContext(path).
			Build()
	}
	if a.Attrs == nil {
		a.Attrs = map[string]string{}
	}
	return &a, nil
}

// WriteArtifact writes a to path, replacing any existing file atomically.
func WriteArtifact(path string, a *Artifact) error {
	if a.Attrs == nil {
		a.Attrs = map[string]string{}
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return errors.New(err).
			Component("model").
			Category(errors.CategoryModelSave).
			FileContext(path).
			Build()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.FileError(err, dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.FileError(err, path)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.New(err).
			Component("model").
			Category(errors.CategoryModelSave).
			FileContext(path).
			Build()
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.FileError(err, path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return errors.FileError(err, path)
	}
	return nil
}

// SetAttr adds or replaces one attribute of an existing model file,
// keeping the payload and every other attribute.
func SetAttr(path, key, value string) error {
	a, err := ReadArtifact(path)
	if err != nil {
		return err
	}
	a.Attrs[key] = value
	return WriteArtifact(path, a)
}

// Attr returns one attribute of the model file and whether it is present.
func Attr(path, key string) (string, bool, error) {
	a, err := ReadArtifact(path)
	if err != nil {
		return "", false, err
	}
	v, ok := a.Attrs[key]
	return v, ok, nil
}
