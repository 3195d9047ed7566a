package analysis

import (
	"context"
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/leadme-speech/fatigue-pipeline/audio"
	"github.com/leadme-speech/fatigue-pipeline/clients"
	"github.com/leadme-speech/fatigue-pipeline/vad"
)

const testRate = 1000 // low rate keeps synthetic signals small

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testSignal(seconds float64) audio.Signal {
	return audio.Signal{
		Samples:    make([]float64, int(seconds*testRate)),
		SampleRate: testRate,
	}
}

// fracDetector reports the leading fraction of whatever buffer it is given
// as one voiced interval.
type fracDetector struct{ frac float64 }

func (d fracDetector) DetectVoiced(samples []float64, _ int) []vad.Interval {
	n := int(d.frac * float64(len(samples)))
	if n <= 0 {
		return nil
	}
	return []vad.Interval{{Start: 0, End: n}}
}

// silentDetector finds nothing voiced.
type silentDetector struct{}

func (silentDetector) DetectVoiced([]float64, int) []vad.Interval { return nil }

// fixedTranscriber always returns the same transcript.
type fixedTranscriber struct {
	status string
	text   string
}

func (t fixedTranscriber) Transcribe(context.Context, audio.Signal) (*clients.Transcript, error) {
	return &clients.Transcript{Status: t.status, Text: t.text, Confidence: 0.9}, nil
}

// failingTranscriber simulates an unreachable transcription service.
type failingTranscriber struct{}

func (failingTranscriber) Transcribe(context.Context, audio.Signal) (*clients.Transcript, error) {
	return nil, errors.New("stt unavailable")
}

func newTestSegmenter(d vad.Detector, tr clients.Transcriber) *Segmenter {
	return &Segmenter{
		Detector:           d,
		Transcriber:        tr,
		Log:                testLogger(),
		SyllablesPerSecond: 4.5,
		MinVoicedPercent:   10,
	}
}

// declineMeasurements builds n valid segments of segDur seconds with the
// given SPM values.
func declineMeasurements(spms []int, segDur float64) []Measurement {
	ms := make([]Measurement, len(spms))
	for i, spm := range spms {
		start := float64(i) * segDur
		ms[i] = Measurement{
			Segment:        i + 1,
			Start:          start,
			End:            start + segDur,
			Duration:       segDur,
			VoicedDuration: segDur * 0.8,
			VoicedFraction: 80,
			Syllables:      spm * int(segDur) / 60,
			SPM:            spm,
			Valid:          spm > 0,
		}
	}
	return ms
}
