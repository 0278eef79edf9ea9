package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectImage(t *testing.T) {
	png := pngFrame(t)
	jpg := jpegFrame(t)

	mt, err := DetectImage(png, "")
	require.NoError(t, err)
	assert.Equal(t, MediaTypePNG, mt)

	mt, err = DetectImage(jpg, "night.JPG")
	require.NoError(t, err)
	assert.Equal(t, MediaTypeJPEG, mt)

	mt, err = DetectImage(jpg, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, MediaTypeJPEG, mt)

	mt, err = DetectImage(png, ".png")
	require.NoError(t, err)
	assert.Equal(t, MediaTypePNG, mt)
}

func TestDetectImage_Rejects(t *testing.T) {
	_, err := DetectImage(nil, "")
	assert.ErrorIs(t, err, ErrUnsupportedImageFormat)

	_, err = DetectImage([]byte("GIF89a\x01\x00\x01\x00"), "")
	assert.ErrorIs(t, err, ErrUnsupportedImageFormat)

	_, err = DetectImage(pngFrame(t), "frame.jpg")
	assert.ErrorIs(t, err, ErrUnsupportedImageFormat)

	_, err = DetectImage(pngFrame(t), "frame.webp")
	assert.ErrorIs(t, err, ErrUnsupportedImageFormat)
}
