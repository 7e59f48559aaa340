package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSaveServeDelete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	l := NewLocal(dir)
	ctx := context.Background()

	require.NoError(t, l.Save(ctx, "1-2-pothole.png", strings.NewReader("png-bytes")))

	b, err := os.ReadFile(filepath.Join(dir, "1-2-pothole.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(b))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/uploads/1-2-pothole.png", nil)
	l.Serve(rr, req, "1-2-pothole.png")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "png-bytes", rr.Body.String())

	require.NoError(t, l.Delete(ctx, "1-2-pothole.png"))
	_, err = os.Stat(filepath.Join(dir, "1-2-pothole.png"))
	assert.True(t, os.IsNotExist(err))

	rr = httptest.NewRecorder()
	l.Serve(rr, req, "1-2-pothole.png")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLocalSaveRefusesOverwrite(t *testing.T) {
	l := NewLocal(t.TempDir())
	ctx := context.Background()

	require.NoError(t, l.Save(ctx, "a.png", strings.NewReader("first")))
	assert.Error(t, l.Save(ctx, "a.png", strings.NewReader("second")))

	b, err := os.ReadFile(filepath.Join(l.Dir(), "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(b))
}

func TestLocalRejectsTraversal(t *testing.T) {
	l := NewLocal(t.TempDir())
	ctx := context.Background()

	assert.ErrorIs(t, l.Save(ctx, "../escape.png", strings.NewReader("x")), ErrInvalidFilename)
	assert.ErrorIs(t, l.Delete(ctx, "../escape.png"), ErrInvalidFilename)

	rr := httptest.NewRecorder()
	l.Serve(rr, httptest.NewRequest(http.MethodGet, "/uploads/x", nil), "..")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLocalDeleteMissing(t *testing.T) {
	l := NewLocal(t.TempDir())
	assert.Error(t, l.Delete(context.Background(), "missing.png"))
}

func TestLocalList(t *testing.T) {
	l := NewLocal(filepath.Join(t.TempDir(), "not-yet"))
	ctx := context.Background()

	files, err := l.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, files)

	require.NoError(t, l.Save(ctx, "a.png", strings.NewReader("a")))
	require.NoError(t, l.Save(ctx, "b.gif", strings.NewReader("b")))
	require.NoError(t, os.Mkdir(filepath.Join(l.Dir(), "nested"), 0o755))

	files, err = l.List(ctx)
	require.NoError(t, err)
	names := []string{}
	for _, f := range files {
		names = append(names, f.Name)
		assert.False(t, f.ModTime.IsZero())
	}
	assert.ElementsMatch(t, []string{"a.png", "b.gif"}, names)
}
