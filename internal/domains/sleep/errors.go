package sleep

import "github.com/xpanvictor/somniatrack/pkg/io/audio"

// Classification errors. They alias the decoder's sentinels so callers only
// need this package for errors.Is checks.
var (
	ErrUnsupportedFormat = audio.ErrUnsupportedFormat
	ErrDecode            = audio.ErrDecode
	ErrEmptyAudio        = audio.ErrEmptyAudio
)
