package storage

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateImage(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		size        int64
		want        error
	}{
		{"jpeg", "pothole.jpeg", "image/jpeg", 1024, nil},
		{"jpg upper case", "POTHOLE.JPG", "image/jpeg", 1024, nil},
		{"png", "sign.png", "image/png", 1024, nil},
		{"gif with params", "anim.gif", "image/gif; charset=binary", 1024, nil},
		{"exactly the limit", "big.png", "image/png", MaxImageSize, nil},
		{"over the limit", "big.png", "image/png", MaxImageSize + 1, ErrImageTooLarge},
		{"bad extension", "notes.txt", "image/png", 10, ErrInvalidImage},
		{"bad media type", "photo.png", "application/octet-stream", 10, ErrInvalidImage},
		{"no extension", "photo", "image/png", 10, ErrInvalidImage},
		{"webp", "photo.webp", "image/webp", 10, ErrInvalidImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateImage(tt.filename, tt.contentType, tt.size))
		})
	}
}

func TestGenerateFilename(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	name := GenerateFilename("My Pothole.JPG", now)

	assert.Regexp(t, regexp.MustCompile(`^1700000000123-\d+-my-pothole\.jpg$`), name)
}

func TestGenerateFilenameStripsDirectories(t *testing.T) {
	now := time.UnixMilli(1)
	for _, original := range []string{"../../etc/passwd.png", `..\..\win.png`, "/abs/path/x.png"} {
		name := GenerateFilename(original, now)
		assert.NoError(t, checkFilename(name), original)
		assert.False(t, strings.Contains(name, ".."), original)
	}
}

func TestGenerateFilenameFallsBackWhenNameIsEmpty(t *testing.T) {
	name := GenerateFilename("!!!.png", time.UnixMilli(5))
	assert.Regexp(t, regexp.MustCompile(`^5-\d+-image\.png$`), name)
}

func TestGenerateFilenameIsUniqueEnough(t *testing.T) {
	now := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		seen[GenerateFilename("a.png", now)] = true
	}
	assert.Greater(t, len(seen), 95)
}

func TestCloudinaryPublicID(t *testing.T) {
	c, err := NewCloudinary("demo", "key", "secret", "reports")
	assert.NoError(t, err)
	assert.Equal(t, "reports/1700000000123-42-pothole", c.publicID("1700000000123-42-pothole.jpg"))
}
