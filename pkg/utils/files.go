package utils

import "path/filepath"

// SourcePath splits a source path given on the command line into the
// directory that relative .include and .copy names are read from and the
// file name reported in diagnostics.
func SourcePath(relPath string) (root string, name string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err := filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	return filepath.Dir(fullPath), filepath.Base(fullPath), nil
}
