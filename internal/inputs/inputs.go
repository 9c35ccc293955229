// Package inputs resolves command-line input arguments to distribution CSV files.
package inputs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is wrapped by Expand when an argument does not exist.
var ErrNotFound = errors.New("input not found")

// FileInfo describes one input CSV file.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// Expand checks that every path exists before returning anything, so a
// missing file fails the run before any work is done. A directory expands
// to the *.csv files directly inside it, in name order. Argument order is
// kept otherwise.
func Expand(paths []string) ([]FileInfo, error) {
	if len(paths) == 0 {
		return nil, errors.New("no input files")
	}

	var files []FileInfo
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
			}
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, FileInfo{Name: info.Name(), Path: p, Size: info.Size()})
			continue
		}
		found, err := Scan(p)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

// Scan returns the CSV files in dir. os.ReadDir already sorts by name.
func Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// Paths returns the Path of each file.
func Paths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}
