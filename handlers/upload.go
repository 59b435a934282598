package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/akinalp/blogme/models"
	"github.com/akinalp/blogme/pkg"
	"github.com/akinalp/blogme/services"
)

// multipartOverhead is room for the form fields around the image.
const multipartOverhead = 1 << 20

// parseMultipart parses a form whose image may be up to maxImage bytes.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxImage int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxImage+multipartOverhead)
	if err := r.ParseMultipartForm(maxImage); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return pkg.WithParams(pkg.ErrBadRequest, services.MsgImageTooLarge, map[string]string{
				"max": humanize.Bytes(uint64(maxImage)),
			})
		}
		return fmt.Errorf("%w: invalid form", pkg.ErrBadRequest)
	}
	return nil
}

// readImagePart reads the "image" part of a multipart request, falling
// back to "file".
func readImagePart(w http.ResponseWriter, r *http.Request, images services.ImageService, maxImage int64) (*models.ImageFile, error) {
	if err := parseMultipart(w, r, maxImage); err != nil {
		return nil, err
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		file, header, err = r.FormFile("file")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, services.MsgImageInvalid)
	}
	defer file.Close()

	return images.Read(header.Filename, file)
}
