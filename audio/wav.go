package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// decodeScale corrects beep's PCM normalization convention: its wav decoder
// divides samples by the full unsigned range ((1<<bits)-1) while Encode
// scales by the signed half range ((1<<(bits-1))-1), which would otherwise
// leave decoded audio at half amplitude.
func decodeScale(precision int) float64 {
	if precision <= 0 || precision >= 8 {
		return 1
	}
	bits := uint(precision * 8)
	return float64(uint64(1)<<bits-1) / float64(uint64(1)<<(bits-1)-1)
}

// DecodeFile loads a WAV file into a mono Signal. Stereo input is downmixed
// by averaging the channels. Any decode failure is an environment error for
// the caller; the analysis never starts.
func DecodeFile(path string) (Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return Signal{}, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a WAV stream into a mono Signal.
func Decode(r io.ReadCloser) (Signal, error) {
	streamer, format, err := wav.Decode(r)
	if err != nil {
		return Signal{}, fmt.Errorf("decode wav: %w", err)
	}
	defer streamer.Close()

	scale := decodeScale(format.Precision)
	buf := make([][2]float64, 2048)
	samples := make([]float64, 0, streamer.Len())
	for {
		n, ok := streamer.Stream(buf)
		for _, fr := range buf[:n] {
			samples = append(samples, scale*(fr[0]+fr[1])/2)
		}
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return Signal{}, fmt.Errorf("decode wav: %w", err)
	}

	return Signal{Samples: samples, SampleRate: int(format.SampleRate)}, nil
}

// EncodeWAV writes the signal as 16-bit mono WAV.
func EncodeWAV(w io.WriteSeeker, s Signal) error {
	format := beep.Format{
		SampleRate:  beep.SampleRate(s.SampleRate),
		NumChannels: 1,
		Precision:   2,
	}
	if err := wav.Encode(w, s.Streamer(), format); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	return nil
}
