// Package audio holds the in-memory signal type shared by the pipeline.
package audio

import "github.com/gopxl/beep"

// Signal is a mono audio buffer. It is treated as immutable: components slice
// it but never write through it.
type Signal struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the signal length in seconds.
func (s Signal) Duration() float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	return float64(len(s.Samples)) / float64(s.SampleRate)
}

// Slice returns the sub-signal covering [start, end) seconds. Bounds are
// clamped to the signal, so the last segment of a partition can safely ask
// for an end past the final sample.
func (s Signal) Slice(start, end float64) Signal {
	lo := int(start * float64(s.SampleRate))
	hi := int(end * float64(s.SampleRate))
	if lo < 0 {
		lo = 0
	}
	if hi > len(s.Samples) {
		hi = len(s.Samples)
	}
	if lo > hi {
		lo = hi
	}
	return Signal{Samples: s.Samples[lo:hi], SampleRate: s.SampleRate}
}

// Streamer adapts the signal to a beep.Streamer so it can be re-encoded,
// e.g. when shipping one segment to the transcription service.
func (s Signal) Streamer() beep.Streamer {
	return &monoStreamer{samples: s.Samples}
}

type monoStreamer struct {
	samples []float64
	pos     int
}

func (m *monoStreamer) Stream(buf [][2]float64) (int, bool) {
	if m.pos >= len(m.samples) {
		return 0, false
	}
	n := 0
	for ; n < len(buf) && m.pos < len(m.samples); n++ {
		v := m.samples[m.pos]
		buf[n][0] = v
		buf[n][1] = v
		m.pos++
	}
	return n, true
}

func (m *monoStreamer) Err() error { return nil }
