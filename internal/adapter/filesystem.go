package adapter

import (
	"io"
	"os"
)

// FileSystem defines an interface for file system operations to enable
// mocking in handler tests. The image upload path is the only writer.
type FileSystem interface {
	// Create creates or truncates the named file
	Create(name string) (File, error)

	// Remove removes the named file or directory
	Remove(name string) error

	// MkdirAll creates the named directory and any missing parents
	MkdirAll(path string, perm os.FileMode) error
}

// File defines an interface for file operations
type File interface {
	io.Writer
	io.Closer
}

// RealFileSystem implements FileSystem using the standard os package
type RealFileSystem struct{}

// NewFileSystem creates a new real file system
func NewFileSystem() FileSystem {
	return &RealFileSystem{}
}

// Create creates or truncates the named file
func (fs *RealFileSystem) Create(name string) (File, error) {
	return os.Create(name) //nolint:gosec,G304
}

// Remove removes the named file or directory
func (fs *RealFileSystem) Remove(name string) error {
	return os.Remove(name)
}

// MkdirAll creates the named directory and any missing parents
func (fs *RealFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}
