package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Backend persists the encoded snapshot document.
type Backend interface {
	// Load returns the last saved document, or nil if nothing was saved yet.
	Load(ctx context.Context) ([]byte, error)
	// Save replaces the stored document.
	Save(ctx context.Context, data []byte) error
	Close() error
}

// FileBackend keeps the snapshot in a single text file that is rewritten in
// full on every save.
type FileBackend struct {
	path string
}

// NewFileBackend creates a backend for the file at path. The file does not
// need to exist yet.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Path returns the location of the backing file.
func (b *FileBackend) Path() string {
	return b.path
}

// Load reads the whole file. A missing file yields no data.
func (b *FileBackend) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", b.path, err)
	}
	return data, nil
}

// Save truncates the file and writes data. The file is closed on every path.
func (b *FileBackend) Save(ctx context.Context, data []byte) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.OpenFile(b.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", b.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", b.path, cerr)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", b.path, err)
	}
	return nil
}

// Close is a no-op; the file is only held open during Save.
func (b *FileBackend) Close() error {
	return nil
}

var _ Backend = (*FileBackend)(nil)
