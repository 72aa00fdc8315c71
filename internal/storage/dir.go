package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// DirFetcher reads assets from a local directory.
type DirFetcher struct {
	root string
}

func NewDirFetcher(root string) *DirFetcher {
	return &DirFetcher{root: root}
}

func (f *DirFetcher) Fetch(_ context.Context, objectName string) ([]byte, error) {
	b, err := os.ReadFile(filepath.Join(f.root, filepath.Clean("/"+objectName)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrObjectNotFound
	}
	return b, err
}
