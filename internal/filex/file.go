// Package filex provides small filesystem helpers.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureParentDir creates the parent directory of path (and any ancestors)
// if it does not exist yet, and returns the cleaned path.
func EnsureParentDir(path string) (string, error) {
	cleaned := filepath.Clean(path)

	dir := filepath.Dir(cleaned)
	if dir == "." {
		return cleaned, nil
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return cleaned, nil
}
