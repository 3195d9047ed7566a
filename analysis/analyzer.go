package analysis

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/leadme-speech/fatigue-pipeline/audio"
)

// Analyzer composes segmentation, model fitting and indicator calculation
// into one call. Expected degenerate inputs (short recordings, silence-only
// recordings) come back as statuses on the Result; only input validation and
// cancellation surface as errors.
type Analyzer struct {
	Segmenter *Segmenter
	Fitter    *Fitter
	Log       *logrus.Logger

	// SegmentCount is the number of equal segments to partition into.
	SegmentCount int
	// MinDurationSeconds is the shortest recording the segmented analysis
	// accepts; shorter input yields the insufficient-duration outcome.
	MinDurationSeconds float64
}

// Analyze runs the full pipeline over one recording. The result is
// deterministic for a given signal and collaborator responses.
func (a *Analyzer) Analyze(ctx context.Context, sig audio.Signal) (*Result, error) {
	if len(sig.Samples) == 0 || sig.SampleRate <= 0 {
		return nil, ErrEmptyAudio
	}
	if a.SegmentCount <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadSegmentCount, a.SegmentCount)
	}

	total := sig.Duration()
	a.logf().WithFields(logrus.Fields{
		"duration": fmt.Sprintf("%.2fs", total),
		"segments": a.SegmentCount,
	}).Info("starting vocal fatigue analysis")

	if total < a.MinDurationSeconds {
		return a.shortRecording(ctx, sig, total)
	}

	segments, err := a.Segmenter.Segment(ctx, sig, a.SegmentCount)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Segments: segments,
		Audio: AudioInfo{
			TotalDuration:   total,
			SampleRate:      sig.SampleRate,
			SegmentCount:    a.SegmentCount,
			SegmentDuration: total / float64(a.SegmentCount),
			ValidSegments:   countValid(segments),
		},
	}

	model := a.Fitter.Fit(segments)
	res.Model = model
	res.Indicators = ComputeIndicators(segments, model)
	res.TimePoints, res.ObservedSPM = validSeries(segments)
	if model.Kind != ModelNone {
		res.PredictedSPM = make([]float64, len(res.TimePoints))
		for i, t := range res.TimePoints {
			res.PredictedSPM[i] = model.At(t)
		}
	}

	if model.Kind == ModelNone {
		res.Status = StatusModelUnfittable
		res.Message = "not enough valid segments to fit a decline model"
	} else {
		res.Status = StatusSuccess
	}

	a.logf().WithFields(logrus.Fields{
		"status": res.Status,
		"valid":  res.Audio.ValidSegments,
		"model":  model.Kind,
	}).Info("analysis complete")
	return res, nil
}

// shortRecording handles input below the minimum duration: the whole signal
// is measured as a single segment so the caller still gets a rate estimate,
// but no segmentation or model fit is attempted.
func (a *Analyzer) shortRecording(ctx context.Context, sig audio.Signal, total float64) (*Result, error) {
	segments, err := a.Segmenter.Segment(ctx, sig, 1)
	if err != nil {
		return nil, err
	}
	a.logf().WithField("duration", fmt.Sprintf("%.2fs", total)).
		Warn("recording below minimum duration, reporting single whole-signal measurement")
	return &Result{
		Status:  StatusInsufficientDuration,
		Message: fmt.Sprintf("recording of %.1fs is below the %.0fs minimum for segmented analysis", total, a.MinDurationSeconds),
		Audio: AudioInfo{
			TotalDuration:   total,
			SampleRate:      sig.SampleRate,
			SegmentCount:    1,
			SegmentDuration: total,
			ValidSegments:   countValid(segments),
		},
		Segments: segments,
	}, nil
}

func (a *Analyzer) logf() *logrus.Logger {
	if a.Log != nil {
		return a.Log
	}
	return logrus.StandardLogger()
}
