// Package dataset reorganises the ESC-50 clips into one directory per class.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tphakala/esc50-go/internal/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ClassDirName returns the class directory name for a catalog target,
// e.g. (100, 0, "dog") -> "100 - Dog" and (100, 1, "chirping_birds") -> "101 - Chirping Birds".
func ClassDirName(baseIndex, target int, category string) string {
	humanized := strings.ReplaceAll(category, "_", " ")
	return fmt.Sprintf("%d - %s", baseIndex+target, cases.Title(language.English).String(humanized))
}

// ClipName returns the normalized clip file name: the base name of filename
// with its extension replaced by format.
func ClipName(filename, format string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "." + strings.TrimPrefix(format, ".")
}

// ClassDirectories returns the sorted names of the class directories in
// dataDir. Hidden entries and plain files are ignored. The order defines
// the class index used by the feature labels and the model label list.
func ClassDirectories(dataDir string) ([]string, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, errors.New(err).
			Component("dataset").
			Category(errors.CategoryFileIO).
			Context("data_dir", dataDir).
			Build()
	}

	// os.ReadDir sorts by file name
	dirs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		dirs = append(dirs, entry.Name())
	}
	return dirs, nil
}

// ensureDir creates dir unless it already exists. It reports whether the
// directory was created by this call.
func ensureDir(dir string) (bool, error) {
	if info, err := os.Stat(dir); err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%s exists and is not a directory", dir)
		}
		return false, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, err
	}
	return true, nil
}

// fileExists reports whether path names an existing file or directory.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
