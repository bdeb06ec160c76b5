package dupes

import (
	"errors"
	"fmt"
)

var (
	// ErrPathNotFound is returned when the scan root does not exist.
	ErrPathNotFound = errors.New("path not found")
	// ErrNotADirectory is returned when the scan root is not a directory.
	ErrNotADirectory = errors.New("not a directory")
)

// Kind classifies a recoverable per-file error.
type Kind string

const (
	// KindUnreadable marks a file whose size or content could not be read.
	KindUnreadable Kind = "unreadable"
	// KindTraversal marks a directory that could not be listed.
	KindTraversal Kind = "traversal"
)

// FileError is a per-file failure. It excludes the file from the result
// without aborting the scan.
type FileError struct {
	Kind Kind
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %q: %v", e.Kind, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

func unreadable(path string, err error) *FileError {
	return &FileError{Kind: KindUnreadable, Path: path, Err: err}
}

// skipOf converts a per-file error into a Skip. It reports false for any
// other error, which the caller must propagate.
func skipOf(err error) (Skip, bool) {
	var fe *FileError
	if !errors.As(err, &fe) {
		return Skip{}, false
	}

	return Skip{Path: fe.Path, Kind: fe.Kind, Err: fe.Err}, true
}
