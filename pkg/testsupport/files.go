package testsupport

import (
	"context"
	"io/fs"
	"sync"
)

// MemoryFiles is an in-memory file system for composer tests. It records
// every call so tests can assert which paths were touched.
type MemoryFiles struct {
	mu    sync.Mutex
	files map[string]string
	calls []string

	// ReadErr, when set, is returned by Read for existing files.
	ReadErr error
}

// NewMemoryFiles returns a MemoryFiles seeded with path -> contents pairs.
func NewMemoryFiles(files map[string]string) *MemoryFiles {
	copied := make(map[string]string, len(files))
	for path, contents := range files {
		copied[path] = contents
	}
	return &MemoryFiles{files: copied}
}

// Exists reports whether path was seeded.
func (m *MemoryFiles) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, "exists:"+path)
	_, ok := m.files[path]
	return ok, nil
}

// Read returns the seeded contents of path.
func (m *MemoryFiles) Read(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, "read:"+path)
	contents, ok := m.files[path]
	if !ok {
		return "", &fs.PathError{Op: "read", Path: path, Err: fs.ErrNotExist}
	}
	if m.ReadErr != nil {
		return "", m.ReadErr
	}
	return contents, nil
}

// Calls returns the recorded operations in order, e.g. "read:layout.html".
func (m *MemoryFiles) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}
