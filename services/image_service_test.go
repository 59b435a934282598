package services

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/blogme/pkg"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestImageReadAcceptsPNG(t *testing.T) {
	svc := NewImageService(1024)

	img, err := svc.Read("cat.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, "cat.png", img.Filename)
	assert.Equal(t, pngHeader, img.Data)
}

func TestImageReadRejectsOtherTypes(t *testing.T) {
	svc := NewImageService(1024)

	_, err := svc.Read("notes.txt", strings.NewReader("hello there"))
	require.ErrorIs(t, err, pkg.ErrBadRequest)
	assert.Equal(t, MsgImageInvalid, pkg.UserMessage(err))
}

func TestImageReadSizeLimit(t *testing.T) {
	data := append(append([]byte{}, pngHeader...), make([]byte, 100)...)

	_, err := NewImageService(int64(len(data))).Read("ok.png", bytes.NewReader(data))
	require.NoError(t, err, "exactly the limit is accepted")

	_, err = NewImageService(int64(len(data)-1)).Read("big.png", bytes.NewReader(data))
	require.ErrorIs(t, err, pkg.ErrBadRequest)

	var msgErr *pkg.MessageError
	require.True(t, errors.As(err, &msgErr))
	assert.Equal(t, MsgImageTooLarge, msgErr.Key)
	assert.NotEmpty(t, msgErr.Params["max"])
}
