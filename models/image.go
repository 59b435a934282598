package models

import (
	"encoding/base64"
)

// ImageFile is an image attached to a post or used as an avatar, already
// validated and held in memory.
type ImageFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DataURI embeds the image as a data: URI, the way offline posts keep
// their pictures.
func (f *ImageFile) DataURI() string {
	return "data:" + f.ContentType + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
}
