package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileBackend persists partitions as JSON files under a memory root
// directory: <root>/<scope-dir>/<partition-file>, with the scope directory
// record at <root>/<directory-file>.
type FileBackend struct {
	root          string
	directoryFile string
}

// NewFileBackend creates a file backend rooted at dir. The directory is
// created lazily on first write.
func NewFileBackend(dir string, layout Layout) *FileBackend {
	return &FileBackend{root: dir, directoryFile: layout.DirectoryFile}
}

// Root returns the memory root directory.
func (b *FileBackend) Root() string { return b.root }

// ReadPartition implements Backend.
func (b *FileBackend) ReadPartition(ctx context.Context, scope Scope, file string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.read(filepath.Join(b.root, scope.Dir(), file))
}

// WritePartition implements Backend.
func (b *FileBackend) WritePartition(ctx context.Context, scope Scope, file string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.write(filepath.Join(b.root, scope.Dir(), file), data)
}

// ReadDirectory implements Backend.
func (b *FileBackend) ReadDirectory(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.read(filepath.Join(b.root, b.directoryFile))
}

// WriteDirectory implements Backend.
func (b *FileBackend) WriteDirectory(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.write(filepath.Join(b.root, b.directoryFile), data)
}

func (b *FileBackend) read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrStorageFailed, path, err)
	}
	return data, nil
}

func (b *FileBackend) write(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrStorageFailed, filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrStorageFailed, path, err)
	}
	return nil
}
