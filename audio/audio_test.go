package audio

import (
	"math"
	"testing"
)

func TestSignalDuration(t *testing.T) {
	s := Signal{Samples: make([]float64, 48000), SampleRate: 16000}
	if got := s.Duration(); math.Abs(got-3.0) > 1e-9 {
		t.Errorf("Duration = %v, want 3.0", got)
	}
	if got := (Signal{}).Duration(); got != 0 {
		t.Errorf("empty Duration = %v, want 0", got)
	}
}

func TestSignalSlice(t *testing.T) {
	samples := make([]float64, 10000)
	for i := range samples {
		samples[i] = float64(i)
	}
	s := Signal{Samples: samples, SampleRate: 1000}

	seg := s.Slice(2, 4)
	if len(seg.Samples) != 2000 {
		t.Fatalf("slice length = %d, want 2000", len(seg.Samples))
	}
	if seg.Samples[0] != 2000 {
		t.Errorf("slice starts at sample %v, want 2000", seg.Samples[0])
	}

	// End past the signal is clamped, not an error.
	tail := s.Slice(9, 11)
	if len(tail.Samples) != 1000 {
		t.Errorf("clamped slice length = %d, want 1000", len(tail.Samples))
	}

	if empty := s.Slice(5, 5); len(empty.Samples) != 0 {
		t.Errorf("empty slice length = %d, want 0", len(empty.Samples))
	}
}

func TestStreamerRoundTrip(t *testing.T) {
	s := Signal{Samples: []float64{0.1, -0.2, 0.3}, SampleRate: 1000}
	st := s.Streamer()

	buf := make([][2]float64, 2)
	n, ok := st.Stream(buf)
	if n != 2 || !ok {
		t.Fatalf("Stream = (%d, %v), want (2, true)", n, ok)
	}
	if buf[0][0] != 0.1 || buf[0][1] != 0.1 {
		t.Errorf("frame 0 = %v, want duplicated mono sample 0.1", buf[0])
	}

	n, _ = st.Stream(buf)
	if n != 1 {
		t.Fatalf("second Stream n = %d, want 1", n)
	}
	if n, ok := st.Stream(buf); n != 0 || ok {
		t.Errorf("drained Stream = (%d, %v), want (0, false)", n, ok)
	}
}
