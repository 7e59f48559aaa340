package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

// Cloudinary stores files as image assets in a Cloudinary folder. The public id is the
// generated filename without its extension.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinary builds a Cloudinary backend from account credentials
func NewCloudinary(cloudName, apiKey, apiSecret, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	return &Cloudinary{cld: cld, folder: folder}, nil
}

func (c *Cloudinary) publicID(filename string) string {
	return path.Join(c.folder, strings.TrimSuffix(filename, path.Ext(filename)))
}

// Save uploads src under the public id derived from filename
func (c *Cloudinary) Save(ctx context.Context, filename string, src io.Reader) error {
	if err := checkFilename(filename); err != nil {
		return err
	}
	res, err := c.cld.Upload.Upload(ctx, src, uploader.UploadParams{PublicID: c.publicID(filename)})
	if err != nil {
		return err
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	return nil
}

// Delete destroys the asset behind filename
func (c *Cloudinary) Delete(ctx context.Context, filename string) error {
	if err := checkFilename(filename); err != nil {
		return err
	}
	res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: c.publicID(filename)})
	if err != nil {
		return err
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", res.Error.Message)
	}
	if res.Result != "ok" {
		return fmt.Errorf("cloudinary destroy: %s", res.Result)
	}
	return nil
}

// Serve redirects to the delivery URL of the asset
func (c *Cloudinary) Serve(w http.ResponseWriter, r *http.Request, filename string) {
	if checkFilename(filename) != nil {
		http.NotFound(w, r)
		return
	}
	url, err := c.URL(filename)
	if err != nil {
		zap.S().Errorw("failed to build cloudinary url", "filename", filename, "error", err)
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// URL returns the delivery URL of filename
func (c *Cloudinary) URL(filename string) (string, error) {
	img, err := c.cld.Image(c.publicID(filename))
	if err != nil {
		return "", err
	}
	return img.String()
}
