package vision

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var ErrUnsupportedImageFormat = errors.New("unsupported image format")

const (
	MediaTypeJPEG = "image/jpeg"
	MediaTypePNG  = "image/png"
)

// DetectImage sniffs frame bytes and returns their media type. Only JPEG and
// PNG are accepted. A non-empty declared type (filename, extension or media
// type) must agree with the content.
func DetectImage(frame []byte, declared string) (string, error) {
	if len(frame) == 0 {
		return "", fmt.Errorf("%w: empty frame", ErrUnsupportedImageFormat)
	}

	var sniffed string
	mt := mimetype.Detect(frame)
	switch {
	case mt.Is(MediaTypeJPEG):
		sniffed = MediaTypeJPEG
	case mt.Is(MediaTypePNG):
		sniffed = MediaTypePNG
	default:
		return "", fmt.Errorf("%w: content is %s", ErrUnsupportedImageFormat, mt.String())
	}

	if declared == "" {
		return sniffed, nil
	}
	want, ok := declaredMediaType(declared)
	if !ok {
		return "", fmt.Errorf("%w: %q (expected .jpg, .jpeg or .png)", ErrUnsupportedImageFormat, declared)
	}
	if want != sniffed {
		return "", fmt.Errorf("%w: declared %s but content is %s", ErrUnsupportedImageFormat, want, sniffed)
	}
	return sniffed, nil
}

func declaredMediaType(declared string) (string, bool) {
	d := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(d, ';'); i >= 0 {
		d = strings.TrimSpace(d[:i])
	}
	switch d {
	case MediaTypeJPEG, "image/jpg", "jpeg", "jpg":
		return MediaTypeJPEG, true
	case MediaTypePNG, "png":
		return MediaTypePNG, true
	}
	switch filepath.Ext(d) {
	case ".jpg", ".jpeg":
		return MediaTypeJPEG, true
	case ".png":
		return MediaTypePNG, true
	}
	return "", false
}
