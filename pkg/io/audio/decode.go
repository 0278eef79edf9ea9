package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrDecode            = errors.New("audio decode failed")
	ErrEmptyAudio        = errors.New("audio contains no samples")
)

type Format string

const (
	FormatWAV  Format = "wav"
	FormatFLAC Format = "flac"
	FormatOGG  Format = "ogg"
)

// WAVE_FORMAT_IEEE_FLOAT
const wavFormatFloat = 3

const oggChunkFrames = 4096

// maxSamples caps the decoded interleaved samples of one clip. It is well
// above what the upload limit allows for PCM.
var maxSamples = 1 << 25

// FormatFromName resolves a filename, extension or bare format name
// (".wav", "clip.FLAC", "ogg") to a supported container.
func FormatFromName(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = "." + strings.ToLower(strings.TrimPrefix(name, "."))
	}
	switch ext {
	case ".wav", ".wave":
		return FormatWAV, nil
	case ".flac":
		return FormatFLAC, nil
	case ".ogg", ".oga":
		return FormatOGG, nil
	}
	return "", fmt.Errorf("%w: %q (expected .wav, .flac or .ogg)", ErrUnsupportedFormat, name)
}

// Decode reads raw container bytes declared as the given format and returns
// a mono signal.
func Decode(raw []byte, declared string) (AudioSignal, error) {
	sig, err := DecodeInterleaved(raw, declared)
	if err != nil {
		return AudioSignal{}, err
	}
	return sig.Mono(), nil
}

// DecodeInterleaved is Decode without the mono downmix.
func DecodeInterleaved(raw []byte, declared string) (AudioSignal, error) {
	format, err := FormatFromName(declared)
	if err != nil {
		return AudioSignal{}, err
	}
	if len(raw) == 0 {
		return AudioSignal{}, fmt.Errorf("%w: empty %s stream", ErrDecode, format)
	}

	var sig AudioSignal
	switch format {
	case FormatWAV:
		sig, err = decodeWAV(raw)
	case FormatFLAC:
		sig, err = decodeFLAC(raw)
	case FormatOGG:
		sig, err = decodeOGG(raw)
	}
	if err != nil {
		return AudioSignal{}, err
	}
	if len(sig.Samples) == 0 {
		return AudioSignal{}, ErrEmptyAudio
	}
	return sig, nil
}

func decodeWAV(raw []byte) (AudioSignal, error) {
	d := wav.NewDecoder(bytes.NewReader(raw))
	d.ReadInfo()
	if err := d.Err(); err != nil {
		return AudioSignal{}, fmt.Errorf("%w: wav header: %v", ErrDecode, err)
	}
	if d.NumChans < 1 || d.BitDepth < 8 {
		return AudioSignal{}, fmt.Errorf("%w: wav header missing fmt chunk", ErrDecode)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return AudioSignal{}, fmt.Errorf("%w: wav pcm: %v", ErrDecode, err)
	}
	if buf == nil {
		return AudioSignal{}, fmt.Errorf("%w: wav pcm chunk not found", ErrDecode)
	}

	depth := int(d.BitDepth)
	samples := make([]float64, len(buf.Data))
	switch {
	case d.WavAudioFormat == wavFormatFloat && depth == 32:
		for i, v := range buf.Data {
			samples[i] = float64(math.Float32frombits(uint32(int32(v))))
		}
	case depth == 8:
		// 8-bit WAV is unsigned, centred on 128
		for i, v := range buf.Data {
			samples[i] = (float64(v) - 128) / 128
		}
	default:
		scale := float64(int64(1) << (depth - 1))
		for i, v := range buf.Data {
			samples[i] = float64(v) / scale
		}
	}

	return AudioSignal{
		Samples:    samples,
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
	}, nil
}

func decodeFLAC(raw []byte) (AudioSignal, error) {
	stream, err := flac.New(bytes.NewReader(raw))
	if err != nil {
		return AudioSignal{}, fmt.Errorf("%w: flac header: %v", ErrDecode, err)
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	if channels < 1 {
		return AudioSignal{}, fmt.Errorf("%w: flac stream has no channels", ErrDecode)
	}

	// NSamples is only a claim from the header, so it never sizes a buffer.
	var samples []float64
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return AudioSignal{}, fmt.Errorf("%w: flac frame: %v", ErrDecode, err)
		}
		if len(frame.Subframes) != channels {
			return AudioSignal{}, fmt.Errorf("%w: flac frame has %d subframes, want %d", ErrDecode, len(frame.Subframes), channels)
		}
		n := int(frame.BlockSize)
		if len(samples)+n*channels > maxSamples {
			return AudioSignal{}, fmt.Errorf("%w: flac stream exceeds %d samples", ErrDecode, maxSamples)
		}

		bps := frame.BitsPerSample
		if bps == 0 {
			bps = stream.Info.BitsPerSample
		}
		scale := float64(int64(1) << (bps - 1))
		for i := 0; i < n; i++ {
			for c := 0; c < channels; c++ {
				samples = append(samples, float64(frame.Subframes[c].Samples[i])/scale)
			}
		}
	}

	if decoded := uint64(len(samples) / channels); stream.Info.NSamples != 0 && decoded < stream.Info.NSamples {
		return AudioSignal{}, fmt.Errorf("%w: flac stream truncated, header claims %d samples, found %d", ErrDecode, stream.Info.NSamples, decoded)
	}

	return AudioSignal{
		Samples:    samples,
		SampleRate: int(stream.Info.SampleRate),
		Channels:   channels,
	}, nil
}

func decodeOGG(raw []byte) (AudioSignal, error) {
	r, err := oggvorbis.NewReader(bytes.NewReader(raw))
	if err != nil {
		return AudioSignal{}, fmt.Errorf("%w: ogg: %v", ErrDecode, err)
	}
	channels := r.Channels()
	if channels < 1 {
		return AudioSignal{}, fmt.Errorf("%w: ogg stream has no channels", ErrDecode)
	}

	// Read in chunks rather than trusting the granule position of the last page.
	buf := make([]float32, oggChunkFrames*channels)
	var samples []float64
	for {
		n, err := r.Read(buf)
		if len(samples)+n > maxSamples {
			return AudioSignal{}, fmt.Errorf("%w: ogg stream exceeds %d samples", ErrDecode, maxSamples)
		}
		for _, v := range buf[:n] {
			samples = append(samples, float64(v))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return AudioSignal{}, fmt.Errorf("%w: ogg: %v", ErrDecode, err)
		}
		if n == 0 {
			return AudioSignal{}, fmt.Errorf("%w: ogg: %v", ErrDecode, io.ErrNoProgress)
		}
	}

	return AudioSignal{
		Samples:    samples,
		SampleRate: r.SampleRate(),
		Channels:   channels,
	}, nil
}
