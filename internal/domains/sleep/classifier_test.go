package sleep

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/somniatrack/pkg/io/audio"
)

// monoWAV16 encodes float samples in [-1, 1] as a 16-bit mono wav file.
func monoWAV16(samples []float64, rate int) []byte {
	var data bytes.Buffer
	for _, s := range samples {
		_ = binary.Write(&data, binary.LittleEndian, int16(math.Round(s*32767)))
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+data.Len()))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rate*2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(data.Len()))
	buf.Write(data.Bytes())
	return buf.Bytes()
}

func constantSignal(level float64, n int) audio.AudioSignal {
	samples := make([]float64, n)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = level
		} else {
			samples[i] = -level
		}
	}
	return audio.AudioSignal{Samples: samples, SampleRate: 16000, Channels: 1}
}

func TestClassifyRMS_QuietClipIsAsleep(t *testing.T) {
	res := ClassifyRMS(0.01)

	assert.Equal(t, Asleep, res.State)
	assert.Equal(t, 60.0, res.Score)
	assert.Equal(t, "Avg RMS=0.0100. Lower RMS indicates quieter periods (more likely asleep).", res.Notes)
}

func TestClassifyRMS_LoudClipIsAwakeWithZeroScore(t *testing.T) {
	res := ClassifyRMS(0.05)

	assert.Equal(t, Awake, res.State)
	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, "Avg RMS=0.0500. Lower RMS indicates quieter periods (more likely asleep).", res.Notes)
}

func TestClassifyRMS_ThresholdIsExclusive(t *testing.T) {
	assert.Equal(t, Awake, ClassifyRMS(AsleepRMSThreshold).State)
	assert.Equal(t, Asleep, ClassifyRMS(0.0199).State)
	assert.Equal(t, Awake, ClassifyRMS(0.025).State)
}

func TestScore_MonotonicAndClamped(t *testing.T) {
	prev := Score(0)
	assert.Equal(t, 100.0, prev)

	for rms := 0.0005; rms < 0.1; rms += 0.0005 {
		s := Score(rms)
		assert.LessOrEqual(t, s, prev, "score must not increase with rms (rms=%f)", rms)
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 100.0)
		prev = s
	}

	assert.Equal(t, 0.0, Score(0.025))
	assert.Equal(t, 0.0, Score(1))
}

func TestScore_RoundsToOneDecimal(t *testing.T) {
	assert.Equal(t, 95.1, Score(0.001234))
}

func TestClassifySignal_SilenceScoresFull(t *testing.T) {
	sig := audio.AudioSignal{Samples: make([]float64, 4000), SampleRate: 8000, Channels: 1}

	res, err := ClassifySignal(sig)
	require.NoError(t, err)
	assert.Equal(t, Asleep, res.State)
	assert.Equal(t, 100.0, res.Score)
	assert.Equal(t, "Avg RMS=0.0000. Lower RMS indicates quieter periods (more likely asleep).", res.Notes)
}

func TestClassifySignal_ConstantAmplitude(t *testing.T) {
	res, err := ClassifySignal(constantSignal(0.01, 16000))
	require.NoError(t, err)
	assert.Equal(t, Asleep, res.State)
	assert.Equal(t, 60.0, res.Score)
}

func TestClassifySignal_Empty(t *testing.T) {
	_, err := ClassifySignal(audio.AudioSignal{SampleRate: 16000, Channels: 1})
	assert.True(t, errors.Is(err, ErrEmptyAudio))
}

func TestClassify_DecodesWAV(t *testing.T) {
	samples := make([]float64, 8000)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/8000)
	}

	res, err := Classify(monoWAV16(samples, 8000), "night.wav")
	require.NoError(t, err)
	assert.Equal(t, Awake, res.State)
	assert.Equal(t, 0.0, res.Score)
	assert.Contains(t, res.Notes, "Avg RMS=0.35")
}

func TestClassify_QuietWAVIsAsleep(t *testing.T) {
	samples := make([]float64, 8000)
	for i := range samples {
		samples[i] = 0.005 * math.Sin(2*math.Pi*220*float64(i)/8000)
	}

	res, err := Classify(monoWAV16(samples, 8000), "wav")
	require.NoError(t, err)
	assert.Equal(t, Asleep, res.State)
	assert.InDelta(t, 100-0.005/math.Sqrt2*4000, res.Score, 0.2)
}

func TestClassify_Fixtures(t *testing.T) {
	cases := []struct {
		file  string
		state State
		score float64
		notes string
	}{
		// +/-328 on both channels: rms 0.0100, score 100-40.04
		{"quiet_stereo16.flac", Asleep, 60.0, "Avg RMS=0.0100."},
		{"loud_mono16.flac", Awake, 0, "Avg RMS=0.1000."},
		{"tone_mono.ogg", Awake, 0, "Avg RMS=0.288"},
	}
	for _, tc := range cases {
		t.Run(tc.file, func(t *testing.T) {
			raw, err := os.ReadFile(filepath.Join("testdata", tc.file))
			require.NoError(t, err)

			res, err := Classify(raw, tc.file)
			require.NoError(t, err)
			assert.Equal(t, tc.state, res.State)
			assert.Equal(t, tc.score, res.Score)
			assert.Contains(t, res.Notes, tc.notes)
		})
	}
}

func TestClassify_Errors(t *testing.T) {
	_, err := Classify([]byte("not audio at all"), "clip.mp3")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = Classify([]byte("RIFF garbage"), "clip.wav")
	assert.True(t, errors.Is(err, ErrDecode))

	_, err = Classify(monoWAV16(nil, 8000), "clip.wav")
	assert.True(t, errors.Is(err, ErrEmptyAudio))
}

func TestDemoResult(t *testing.T) {
	res := DemoResult()
	assert.Equal(t, Asleep, res.State)
	assert.Equal(t, 83.0, res.Score)
	assert.Equal(t, "Low RMS and minimal spikes suggest sustained rest.", res.Notes)
}
