package session

import (
	"os"
	"path/filepath"

	"github.com/wagiedev/claude-session-go/internal/errors"
)

// ValidateProjectPath checks that path is absolute, exists and is a
// directory, and returns its canonical form with symlinks resolved.
func ValidateProjectPath(path string) (string, error) {
	if path == "" || !filepath.IsAbs(path) {
		return "", &errors.InvalidPathError{Path: path, Reason: "path must be absolute"}
	}

	info, err := os.Stat(path)
	if err != nil {
		reason := "cannot access path"
		if os.IsNotExist(err) {
			reason = "path does not exist"
		}

		return "", &errors.InvalidPathError{Path: path, Reason: reason, Err: err}
	}

	if !info.IsDir() {
		return "", &errors.InvalidPathError{Path: path, Reason: "path is not a directory"}
	}

	canonical, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", &errors.InvalidPathError{Path: path, Reason: "cannot canonicalize path", Err: err}
	}

	return filepath.Clean(canonical), nil
}
