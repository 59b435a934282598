package services

import (
	"fmt"
	"io"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/akinalp/blogme/models"
	"github.com/akinalp/blogme/pkg"
)

// allowedImageTypes are the formats accepted for post images and avatars.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ImageService validates uploaded images.
type ImageService interface {
	// Read consumes r and returns the image when it is a supported format
	// within the size limit.
	Read(filename string, r io.Reader) (*models.ImageFile, error)
}

type imageService struct {
	maxSize int64
}

// NewImageService creates an image validator with a maxSize byte limit.
func NewImageService(maxSize int64) ImageService {
	return &imageService{maxSize: maxSize}
}

func (s *imageService) Read(filename string, r io.Reader) (*models.ImageFile, error) {
	// One byte past the limit tells "exactly max" from "too large".
	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, pkg.WithParams(pkg.ErrBadRequest, MsgImageTooLarge, map[string]string{
			"max": humanize.Bytes(uint64(s.maxSize)),
		})
	}

	// The client-declared type is ignored, the bytes decide.
	contentType := http.DetectContentType(data)
	if !allowedImageTypes[contentType] {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, MsgImageInvalid)
	}

	return &models.ImageFile{
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}
