package infra

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
)

// EnsureDir expands a leading ~ in the joined path and creates the directory tree.
func EnsureDir(path ...string) (string, error) {
	dir, err := homedir.Expand(filepath.Join(path...))
	if err != nil {
		return "", errors.WithMessage(err, "expand path")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", errors.WithMessagef(err, "create %s", dir)
	}
	return dir, nil
}

// EnsureParent creates the directory holding the given file.
func EnsureParent(file string) (string, error) {
	file, err := homedir.Expand(file)
	if err != nil {
		return "", errors.WithMessage(err, "expand path")
	}
	if _, err := EnsureDir(filepath.Dir(file)); err != nil {
		return "", err
	}
	return file, nil
}
