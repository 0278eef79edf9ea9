package audio

import "math"

// AudioSignal is a decoded clip. Samples are interleaved when Channels > 1
// and normalised to [-1, 1].
type AudioSignal struct {
	Samples    []float64
	SampleRate int
	Channels   int
}

// Frames returns the number of sample frames (samples per channel).
func (s AudioSignal) Frames() int {
	if s.Channels <= 1 {
		return len(s.Samples)
	}
	return len(s.Samples) / s.Channels
}

// Mono collapses the signal to a single channel by averaging every frame.
// A trailing partial frame is dropped.
func (s AudioSignal) Mono() AudioSignal {
	if s.Channels <= 1 {
		return AudioSignal{Samples: s.Samples, SampleRate: s.SampleRate, Channels: 1}
	}

	frames := s.Frames()
	mono := make([]float64, frames)
	for f := 0; f < frames; f++ {
		var sum float64
		base := f * s.Channels
		for c := 0; c < s.Channels; c++ {
			sum += s.Samples[base+c]
		}
		mono[f] = sum / float64(s.Channels)
	}

	return AudioSignal{Samples: mono, SampleRate: s.SampleRate, Channels: 1}
}

// RMS is the root-mean-square amplitude over every sample. Zero for an
// empty signal.
func (s AudioSignal) RMS() float64 {
	if len(s.Samples) == 0 {
		return 0
	}
	var sumSq float64
	for _, v := range s.Samples {
		sumSq += v * v
	}
	return math.Sqrt(sumSq / float64(len(s.Samples)))
}

// Duration in seconds, zero when the sample rate is unknown.
func (s AudioSignal) Duration() float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	return float64(s.Frames()) / float64(s.SampleRate)
}
