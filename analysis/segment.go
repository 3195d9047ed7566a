package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/leadme-speech/fatigue-pipeline/audio"
	"github.com/leadme-speech/fatigue-pipeline/clients"
	"github.com/leadme-speech/fatigue-pipeline/hangul"
	"github.com/leadme-speech/fatigue-pipeline/vad"
)

var (
	ErrEmptyAudio      = errors.New("audio signal is empty")
	ErrBadSegmentCount = errors.New("segment count must be positive")
)

// Segmenter partitions a signal into equal-duration segments and estimates a
// syllables-per-minute value for each.
type Segmenter struct {
	Detector    vad.Detector
	Transcriber clients.Transcriber // optional; nil forces the duration estimate
	Log         *logrus.Logger

	// SyllablesPerSecond is the estimate used when no transcript is
	// available (empirical Korean speech rate).
	SyllablesPerSecond float64
	// MinVoicedPercent is the validity floor; validity requires the voiced
	// fraction to be strictly above it.
	MinVoicedPercent float64
	// Concurrency bounds the per-segment fan-out; values <= 1 run
	// segments sequentially.
	Concurrency int
}

// Segment splits sig into n equal segments and measures each one. The returned
// slice always has exactly n entries, invalid segments included; the only
// errors are input validation and context cancellation.
func (s *Segmenter) Segment(ctx context.Context, sig audio.Signal, n int) ([]Measurement, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadSegmentCount, n)
	}
	if len(sig.Samples) == 0 || sig.SampleRate <= 0 {
		return nil, ErrEmptyAudio
	}

	total := sig.Duration()
	segDur := total / float64(n)
	out := make([]Measurement, n)

	if s.Concurrency > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.Concurrency)
		for i := 0; i < n; i++ {
			i := i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				out[i] = s.measure(gctx, sig, i, n, segDur, total)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return out, nil
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = s.measure(ctx, sig, i, n, segDur, total)
	}
	return out, nil
}

// measure runs the rate estimator for segment i. It never fails: any panic in
// detection or counting degrades this one segment to an invalid measurement.
func (s *Segmenter) measure(ctx context.Context, sig audio.Signal, i, n int, segDur, total float64) (m Measurement) {
	start := float64(i) * segDur
	end := float64(i+1) * segDur
	if i == n-1 {
		end = total
	}

	m = Measurement{Segment: i + 1, Start: start, End: end, Duration: end - start}
	defer func() {
		if r := recover(); r != nil {
			s.logf().WithField("segment", i+1).Warnf("segment measurement panicked: %v", r)
			m = Measurement{Segment: i + 1, Start: start, End: end, Duration: end - start}
		}
	}()

	if m.Duration <= 0 {
		return m
	}

	seg := sig.Slice(start, end)
	intervals := s.Detector.DetectVoiced(seg.Samples, seg.SampleRate)
	m.VoicedDuration = vad.VoicedDuration(intervals, seg.SampleRate)
	m.VoicedFraction = m.VoicedDuration / m.Duration * 100

	m.Syllables = s.countSyllables(ctx, seg, i+1, m.VoicedDuration)
	m.SPM = int(float64(m.Syllables) / m.Duration * 60)
	m.Valid = m.SPM > 0 && m.VoicedFraction > s.MinVoicedPercent

	s.logf().WithFields(logrus.Fields{
		"segment": i + 1,
		"window":  fmt.Sprintf("%.1f-%.1fs", start, end),
		"spm":     m.SPM,
		"voiced":  fmt.Sprintf("%.1f%%", m.VoicedFraction),
		"valid":   m.Valid,
	}).Info("segment measured")
	return m
}

// countSyllables prefers an actual transcript and falls back to the voiced
// duration estimate when transcription is unavailable or fails. The fallback
// is the documented degradation path, not an error.
func (s *Segmenter) countSyllables(ctx context.Context, seg audio.Signal, num int, voiced float64) int {
	if s.Transcriber != nil {
		tr, err := s.Transcriber.Transcribe(ctx, seg)
		if err == nil && tr.Status == clients.TranscriptSuccess {
			return hangul.CountSyllables(tr.Text)
		}
		if err != nil {
			s.logf().WithField("segment", num).Warnf("transcription failed, using duration estimate: %v", err)
		}
	}
	return int(voiced * s.SyllablesPerSecond)
}

func (s *Segmenter) logf() *logrus.Logger {
	if s.Log != nil {
		return s.Log
	}
	return logrus.StandardLogger()
}
