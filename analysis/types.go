// Package analysis implements the segmented speech-rate decline analyzer.
package analysis

import "math"

// Status is the terminal state of one analysis. Only StatusError means the
// operation failed; the other non-success statuses are valid outcomes that
// carry partial data.
type Status string

const (
	StatusSuccess              Status = "success"
	StatusInsufficientDuration Status = "insufficient_duration"
	StatusModelUnfittable      Status = "model_unfittable"
	StatusError                Status = "error"
)

// Measurement is one segment's rate estimate. Created once by the estimator
// and never mutated. VoicedFraction is a percentage of the segment duration.
type Measurement struct {
	Segment        int     `json:"segment"`
	Start          float64 `json:"start_time"`
	End            float64 `json:"end_time"`
	Duration       float64 `json:"duration"`
	VoicedDuration float64 `json:"voiced_duration"`
	VoicedFraction float64 `json:"voiced_fraction"`
	Syllables      int     `json:"syllables"`
	SPM            int     `json:"spm"`
	Valid          bool    `json:"is_valid"`
}

// ModelKind tags the fitted model variant.
type ModelKind string

const (
	ModelHyperbolic ModelKind = "hyperbolic"
	ModelLinear     ModelKind = "linear"
	ModelNone       ModelKind = "none"
)

// Quality reports how well a fitted model explains the observed series.
type Quality struct {
	RSquared float64 `json:"r_squared"`
	RMSE     float64 `json:"rmse"`
	Points   int     `json:"data_points"`
}

// Hyperbolic is the decline model SPM(t) = SPM0 / (1 + b·Di·t)^(1/b),
// with t in minutes of elapsed segment start time.
type Hyperbolic struct {
	SPM0        float64 `json:"spm0"`
	DeclineRate float64 `json:"initial_decline_rate"`
	Exponent    float64 `json:"hyperbolic_exponent"`
}

// At evaluates the model at t minutes. The denominator is floored at a small
// positive value so out-of-range parameters cannot produce a division by zero
// or a negative base under the fractional power.
func (h Hyperbolic) At(t float64) float64 {
	den := 1 + h.Exponent*h.DeclineRate*t
	if den < 1e-10 {
		den = 1e-10
	}
	return h.SPM0 / math.Pow(den, 1/h.Exponent)
}

// Linear is the fallback model SPM(t) = Intercept + Slope·t, t in minutes,
// so Slope is directly the SPM change per minute.
type Linear struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

func (l Linear) At(t float64) float64 { return l.Intercept + l.Slope*t }

// Model is the tagged union over the fit outcomes. Exactly one of Hyperbolic
// and Linear is set unless Kind is ModelNone.
type Model struct {
	Kind       ModelKind   `json:"model_type"`
	Hyperbolic *Hyperbolic `json:"hyperbolic,omitempty"`
	Linear     *Linear     `json:"linear,omitempty"`
	Quality    *Quality    `json:"model_quality,omitempty"`
}

// At evaluates whichever model was fitted; ModelNone yields 0.
func (m *Model) At(t float64) float64 {
	switch m.Kind {
	case ModelHyperbolic:
		return m.Hyperbolic.At(t)
	case ModelLinear:
		return m.Linear.At(t)
	}
	return 0
}

// Indicators is the derived fatigue summary over the valid rate series.
type Indicators struct {
	DeclinePercentage float64  `json:"total_decline_percentage"`
	AverageSPM        float64  `json:"average_spm"`
	Variability       float64  `json:"spm_variability"`
	Severity          float64  `json:"fatigue_severity"`
	StabilizationTime *float64 `json:"stabilization_time,omitempty"`
	Interpretation    string   `json:"interpretation"`

	// Period grouping over the first/middle/last third of segments.
	EarlySPM           float64 `json:"early_spm"`
	MiddleSPM          float64 `json:"middle_spm"`
	LateSPM            float64 `json:"late_spm"`
	EarlyToLateDecline float64 `json:"decline_early_to_late"`
}

// AudioInfo describes the analyzed recording.
type AudioInfo struct {
	TotalDuration   float64 `json:"total_duration"`
	SampleRate      int     `json:"sample_rate"`
	SegmentCount    int     `json:"segment_count"`
	SegmentDuration float64 `json:"segment_duration"`
	ValidSegments   int     `json:"valid_segments"`
}

// Result is the terminal aggregate of one analysis. It is deterministic for
// a given signal and collaborator responses; session identity and timestamps
// are attached at persistence time, not here.
type Result struct {
	Status  Status    `json:"status"`
	Message string    `json:"message,omitempty"`
	Audio   AudioInfo `json:"audio_info"`

	// All segments, invalid ones included, for observability.
	Segments []Measurement `json:"segments"`

	Model      *Model      `json:"model,omitempty"`
	Indicators *Indicators `json:"fatigue_indicators,omitempty"`

	// Valid-series view used by the fit, for external charting.
	TimePoints   []float64 `json:"time_points,omitempty"`
	ObservedSPM  []float64 `json:"observed_spm,omitempty"`
	PredictedSPM []float64 `json:"predicted_spm,omitempty"`
}

// validSeries extracts the (t, spm) pairs of valid segments, t in minutes.
func validSeries(ms []Measurement) (times, spms []float64) {
	for _, m := range ms {
		if m.Valid {
			times = append(times, m.Start/60)
			spms = append(spms, float64(m.SPM))
		}
	}
	return times, spms
}

func countValid(ms []Measurement) int {
	n := 0
	for _, m := range ms {
		if m.Valid {
			n++
		}
	}
	return n
}
