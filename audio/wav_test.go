package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDecodeScale(t *testing.T) {
	// 16-bit: full range 65535 over half range 32767.
	if got, want := decodeScale(2), 65535.0/32767.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("decodeScale(2) = %v, want %v", got, want)
	}
	if got := decodeScale(0); got != 1 {
		t.Errorf("decodeScale(0) = %v, want 1", got)
	}
}

func TestWAVRoundTrip(t *testing.T) {
	in := Signal{
		Samples:    []float64{0.5, -0.5, 0.25, 0, -0.25, 0.8, -0.8, 0.1},
		SampleRate: 16000,
	}

	path := filepath.Join(t.TempDir(), "roundtrip.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := EncodeWAV(f, in); err != nil {
		f.Close()
		t.Fatalf("EncodeWAV: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	out, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if out.SampleRate != in.SampleRate {
		t.Errorf("sample rate = %d, want %d", out.SampleRate, in.SampleRate)
	}
	if len(out.Samples) != len(in.Samples) {
		t.Fatalf("got %d samples, want %d", len(out.Samples), len(in.Samples))
	}
	// Only 16-bit quantization error should remain; amplitude must survive.
	for i := range in.Samples {
		if diff := math.Abs(out.Samples[i] - in.Samples[i]); diff > 1e-3 {
			t.Errorf("sample %d = %v, want %v (diff %v)", i, out.Samples[i], in.Samples[i], diff)
		}
	}
}

func TestWAVRoundTripPreservesPeak(t *testing.T) {
	// A 440Hz burst at 0.8 peak: if the decode convention halved amplitude,
	// the recovered peak would sit near 0.4.
	in := Signal{Samples: make([]float64, 1600), SampleRate: 16000}
	for i := range in.Samples {
		in.Samples[i] = 0.8 * math.Sin(2*math.Pi*440*float64(i)/16000)
	}

	path := filepath.Join(t.TempDir(), "sine.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := EncodeWAV(f, in); err != nil {
		f.Close()
		t.Fatalf("EncodeWAV: %v", err)
	}
	f.Close()

	out, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	peak := 0.0
	for _, v := range out.Samples {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if math.Abs(peak-0.8) > 0.01 {
		t.Errorf("decoded peak = %v, want ~0.8", peak)
	}
}
