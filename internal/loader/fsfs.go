package loader

import (
	"context"
	"errors"
	"io/fs"
	"path"
	"strings"
)

func existsInFS(ctx context.Context, files fs.FS, name string) (bool, error) {
	name, err := fsName(files, name)
	if err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	info, err := fs.Stat(files, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

func loadFromFS(ctx context.Context, files fs.FS, name string) ([]byte, error) {
	name, err := fsName(files, name)
	if err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := fs.ReadFile(files, name)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// fsName normalises name to the slash-separated, unrooted form fs.FS expects.
func fsName(files fs.FS, name string) (string, error) {
	if name == "" {
		return "", errors.New("loader: fs path is required")
	}
	if files == nil {
		return "", errors.New("loader: fs is nil")
	}
	cleaned := strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(name, "\\", "/")), "/")
	if cleaned == "" {
		return ".", nil
	}
	return cleaned, nil
}
