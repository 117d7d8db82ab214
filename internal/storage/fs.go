package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FSStore archives images under a local directory, partitioned by the first
// two characters of the name to keep directories small.
type FSStore struct {
	dir string
}

func NewFSStore(dir string) (*FSStore, error) {
	if dir == "" {
		dir = "./archive"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

func (s *FSStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	sub := s.dir
	if len(name) >= 2 {
		sub = filepath.Join(s.dir, name[:2])
	}
	if err := os.MkdirAll(sub, 0o755); err != nil {
		return "", fmt.Errorf("create shard dir: %w", err)
	}
	path := filepath.Join(sub, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path, nil
}
