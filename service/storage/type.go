package storage

import "io"

type IService interface {
	// StoreFile copies r under the storage root and returns the path relative to it.
	StoreFile(fileName string, r io.Reader) (string, int64, error)
	// ResolvePath turns a stored relative path into an absolute one.
	ResolvePath(relPath string) (string, error)
	Exists(absPath string) bool
}
