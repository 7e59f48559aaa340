package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
)

// Local stores files in a directory on disk
type Local struct {
	dir string
}

// NewLocal returns a Local rooted at dir. The directory is created on first save.
func NewLocal(dir string) *Local {
	return &Local{dir: dir}
}

// Dir returns the storage root
func (l *Local) Dir() string {
	return l.dir
}

// Save writes src to filename, refusing to overwrite an existing file
func (l *Local) Save(_ context.Context, filename string, src io.Reader) error {
	if err := checkFilename(filename); err != nil {
		return err
	}
	// concurrent first uploads may race here, MkdirAll tolerates an existing dir
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(l.dir, filename)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err = io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// Delete removes filename from disk
func (l *Local) Delete(_ context.Context, filename string) error {
	if err := checkFilename(filename); err != nil {
		return err
	}
	return os.Remove(filepath.Join(l.dir, filename))
}

// Serve writes the raw file, 404 when it is missing
func (l *Local) Serve(w http.ResponseWriter, r *http.Request, filename string) {
	if checkFilename(filename) != nil {
		http.NotFound(w, r)
		return
	}
	path := filepath.Join(l.dir, filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

// List returns the regular files in the storage root. A root that does not exist yet
// holds no files.
func (l *Local) List(_ context.Context) ([]FileInfo, error) {
	entries, err := os.ReadDir(l.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{Name: e.Name(), ModTime: info.ModTime()})
	}
	return files, nil
}
