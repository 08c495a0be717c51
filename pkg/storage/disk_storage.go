package storage

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/errors"
)

// DiskStorage stores files in a local directory that is served under PublicPrefix
type DiskStorage struct {
	Directory    string
	PublicPrefix string
}

// NewDiskStorage creates the directory if needed
func NewDiskStorage(directory string, publicPrefix string) (*DiskStorage, error) {
	err := os.MkdirAll(directory, 0o755)
	if err != nil {
		return nil, err
	}

	return &DiskStorage{Directory: directory, PublicPrefix: publicPrefix}, nil
}

// Save writes the file, never reading more than MaxImageSize bytes
func (s *DiskStorage) Save(_ context.Context, name string, _ string, content io.Reader) (string, error) {
	name = filepath.Base(name)
	target := filepath.Join(s.Directory, name)

	file, err := os.Create(target)
	if err != nil {
		return "", err
	}

	written, err := io.Copy(file, io.LimitReader(content, MaxImageSize+1))
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written > MaxImageSize {
		err = errors.New("file exceeds size limit")
	}
	if err != nil {
		_ = os.Remove(target)
		return "", err
	}

	return path.Join(s.PublicPrefix, name), nil
}
