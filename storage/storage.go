// Package storage keeps the images attached to reports. Files are addressed by the
// generated filename stored on the report document.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

// MaxImageSize is the largest accepted upload, 5 MiB
const MaxImageSize int64 = 5 << 20

var (
	// ErrInvalidImage is returned for uploads that are not jpeg, png or gif
	ErrInvalidImage = errors.New("only jpeg, jpg, png and gif images are allowed")
	// ErrImageTooLarge is returned for uploads above MaxImageSize
	ErrImageTooLarge = errors.New("image exceeds the 5MB limit")
	// ErrInvalidFilename is returned for names that would escape the storage root
	ErrInvalidFilename = errors.New("invalid filename")
)

var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
}

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
}

// FileStorage persists uploaded images
type FileStorage interface {
	Save(ctx context.Context, filename string, src io.Reader) error
	Delete(ctx context.Context, filename string) error
	// Serve writes the stored file to w, or a 404 when it does not exist
	Serve(w http.ResponseWriter, r *http.Request, filename string)
}

// FileInfo describes a stored file
type FileInfo struct {
	Name    string
	ModTime time.Time
}

// Lister is implemented by backends that can enumerate their files
type Lister interface {
	List(ctx context.Context) ([]FileInfo, error)
}

// ValidateImage checks an upload against the size limit and the image whitelist. Both
// the extension and the declared media type have to be allowed.
func ValidateImage(filename, contentType string, size int64) error {
	if size > MaxImageSize {
		return ErrImageTooLarge
	}
	ext := strings.ToLower(filepath.Ext(filename))
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if !allowedExtensions[ext] || !allowedContentTypes[mediaType] {
		return ErrInvalidImage
	}
	return nil
}

// GenerateFilename returns "<epoch-ms>-<random-int>-<original-name>". The original
// name is reduced to its base and slugged so it is safe to use as a path element.
func GenerateFilename(original string, now time.Time) string {
	base := filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	ext := strings.ToLower(filepath.Ext(base))
	stem := slug.Make(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem == "" {
		stem = "image"
	}
	return fmt.Sprintf("%d-%d-%s%s", now.UnixMilli(), rand.Int63n(1e9), stem, ext)
}

func checkFilename(name string) error {
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return ErrInvalidFilename
	}
	return nil
}
