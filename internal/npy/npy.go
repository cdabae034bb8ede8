// Package npy reads and writes the feature and label caches as NumPy .npy files.
package npy

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sbinet/npyio"
	"github.com/tphakala/esc50-go/internal/errors"
	"gonum.org/v1/gonum/mat"
)

// WriteMatrix stores rows as a 2-D float64 array. All rows must have the
// same, non-zero length.
func WriteMatrix(path string, rows [][]float64) error {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return errors.New(fmt.Errorf("cannot write empty feature matrix")).
			Component("npy").
			Category(errors.CategoryValidation).
			FileContext(path).
			Build()
	}

	cols := len(rows[0])
	flat := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return errors.New(fmt.Errorf("row %d has %d columns, expected %d", i, len(row), cols)).
				Component("npy").
				Category(errors.CategoryValidation).
				FileContext(path).
				Build()
		}
		flat = append(flat, row...)
	}

	return writeAtomic(path, mat.NewDense(len(rows), cols, flat))
}

// ReadMatrix loads a 2-D float64 array written by WriteMatrix or numpy.
func ReadMatrix(path string) ([][]float64, error) {
	var m mat.Dense
	if err := readFile(path, &m); err != nil {
		return nil, err
	}

	r, c := m.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = mat.Row(make([]float64, c), i, &m)
	}
	return rows, nil
}

// WriteLabels stores labels as a 1-D int64 array.
func WriteLabels(path string, labels []int) error {
	data := make([]int64, len(labels))
	for i, l := range labels {
		data[i] = int64(l)
	}
	return writeAtomic(path, data)
}

// ReadLabels loads a 1-D int64 array written by WriteLabels or numpy.
func ReadLabels(path string) ([]int, error) {
	var data []int64
	if err := readFile(path, &data); err != nil {
		return nil, err
	}

	labels := make([]int, len(data))
	for i, v := range data {
		labels[i] = int(v)
	}
	return labels, nil
}

func readFile(path string, ptr any) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.FileError(err, path)
	}
	defer f.Close()

	if err := npyio.Read(f, ptr); err != nil {
		return errors.New(err).
			Component("npy").
			Category(errors.CategoryFeatureCache).
			FileContext(path).
			Build()
	}
	return nil
}

// writeAtomic encodes val into a temporary file next to path and renames it into place
func writeAtomic(path string, val any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.FileError(err, dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.FileError(err, path)
	}
	tmpName := tmp.Name()

	if err := npyio.Write(tmp, val); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.New(err).
			Component("npy").
			Category(errors.CategoryFeatureCache).
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
