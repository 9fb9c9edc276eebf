package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Sink delivers a produced file to the user and reports where it went.
type Sink interface {
	Deliver(ctx context.Context, name string, data []byte) (string, error)
}

// DirSink "downloads" into a directory, replacing any previous export.
type DirSink struct {
	Dir string
}

func (d DirSink) Deliver(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(d.Dir, name)
	tmp, err := os.CreateTemp(d.Dir, "."+name+".*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	// no partial file is ever visible under the final name
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("rename export: %w", err)
	}
	return path, nil
}
