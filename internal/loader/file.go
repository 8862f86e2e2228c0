package loader

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

func existsFile(ctx context.Context, path string) (bool, error) {
	if path == "" {
		return false, errors.New("loader: file path is required")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	info, err := os.Stat(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

func loadFile(ctx context.Context, path string) ([]byte, error) {
	if path == "" {
		return nil, errors.New("loader: file path is required")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	return data, nil
}
