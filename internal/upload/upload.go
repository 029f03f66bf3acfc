// Package upload stores post images on local disk.
package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pulseboard/pulse/internal/apperrors"
)

// MaxImageSize caps uploads at 5 MB.
const MaxImageSize = 5 << 20

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// ImageStore saves validated image files under a base directory.
type ImageStore struct {
	dir string
}

// NewImageStore creates an ImageStore rooted at dir, creating it if needed.
func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &ImageStore{dir: dir}, nil
}

// Save validates and writes the uploaded image, returning the stored file
// name. Oversized or non-image files fail with a ValidationError.
func (s *ImageStore) Save(header *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		return "", apperrors.NewValidationError("image", "unsupported image type")
	}
	if header.Size > MaxImageSize {
		return "", apperrors.NewValidationError("image", "image exceeds the 5 MB limit")
	}

	src, err := header.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	fileName := fmt.Sprintf("%d%s", time.Now().UnixNano(), ext)
	dst, err := os.Create(filepath.Join(s.dir, fileName))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	// LimitReader guards against a header lying about its size.
	if _, err := io.Copy(dst, io.LimitReader(src, MaxImageSize+1)); err != nil {
		return "", err
	}
	return fileName, nil
}

// Dir returns the base directory images are stored in.
func (s *ImageStore) Dir() string {
	return s.dir
}
