package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	// A 50%-or-greater decline saturates severity at 1.0.
	severitySaturationPct = 50.0
	// Stabilization search: the fitted curve is forward-sampled over twice
	// the observed span at this resolution.
	stabilizationSamples = 1000
	stabilizationTarget  = 0.8
)

// ComputeIndicators derives the fatigue summary from the measurements and the
// fitted model. Returns nil when no segment is valid.
func ComputeIndicators(ms []Measurement, model *Model) *Indicators {
	times, spms := validSeries(ms)
	if len(spms) == 0 {
		return nil
	}

	ind := &Indicators{
		AverageSPM:  round1(stat.Mean(spms, nil)),
		Variability: round1(stat.PopStdDev(spms, nil)),
	}
	if spms[0] != 0 {
		ind.DeclinePercentage = round1((spms[0] - spms[len(spms)-1]) / spms[0] * 100)
	}

	early, middle, late := periodAverages(ms)
	ind.EarlySPM, ind.MiddleSPM, ind.LateSPM = early, middle, late
	if early > 0 {
		ind.EarlyToLateDecline = round1((early - late) / early * 100)
	}

	switch {
	case model != nil && model.Kind == ModelHyperbolic:
		ind.Severity = round3(math.Min(1.0, math.Abs(ind.DeclinePercentage)/severitySaturationPct))
		ind.StabilizationTime = stabilizationTime(*model.Hyperbolic, times[len(times)-1])
		ind.Interpretation = interpretSeverity(ind.Severity)
	case model != nil && model.Kind == ModelLinear:
		ind.Interpretation = interpretLinear(model.Linear.Slope, ind.Variability)
	default:
		ind.Interpretation = "insufficient data for model interpretation"
	}
	return ind
}

// periodAverages splits the segment index range into first/middle/last thirds
// and averages the valid SPM values of each. The three index ranges partition
// 1..N with no gaps or overlaps.
func periodAverages(ms []Measurement) (early, middle, late float64) {
	n := len(ms)
	a, b := n/3, 2*n/3
	return averageSPM(ms[:a]), averageSPM(ms[a:b]), averageSPM(ms[b:])
}

func averageSPM(ms []Measurement) float64 {
	sum, n := 0.0, 0
	for _, m := range ms {
		if m.Valid && m.SPM > 0 {
			sum += float64(m.SPM)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return round1(sum / float64(n))
}

// stabilizationTime forward-samples the fitted curve and returns the earliest
// time (minutes) at which it drops to 80% of SPM0, or nil if that never
// happens within twice the observed span.
func stabilizationTime(h Hyperbolic, lastTime float64) *float64 {
	if lastTime <= 0 {
		return nil
	}
	target := h.SPM0 * stabilizationTarget
	horizon := lastTime * 2
	step := horizon / float64(stabilizationSamples-1)
	for i := 0; i < stabilizationSamples; i++ {
		t := float64(i) * step
		if h.At(t) <= target {
			v := round1(t)
			return &v
		}
	}
	return nil
}

// interpretSeverity maps the 0..1 severity score to an ordered category table.
func interpretSeverity(severity float64) string {
	switch {
	case severity < 0.2:
		return "normal range - little sign of fatigue"
	case severity < 0.4:
		return "mild fatigue - slight rate decline observed"
	case severity < 0.6:
		return "moderate fatigue - clear rate decline pattern"
	default:
		return "severe fatigue - pronounced speech rate drop"
	}
}

// interpretLinear maps the slope (SPM change per minute, since the fit's time
// basis is minutes) to ordered, non-overlapping categories, signed by the
// direction of change.
func interpretLinear(slope, variability float64) string {
	perMin := math.Abs(slope)
	switch {
	case perMin < 2 && variability < 8:
		return "very stable - consistent speech rate"
	case perMin < 2:
		return "stable - no meaningful rate change"
	case perMin < 5:
		if slope < 0 {
			return "mild decline - slight sign of fatigue"
		}
		return "mild increase - speech rate improving"
	case perMin < 10:
		if slope < 0 {
			return "moderate decline - distinct fatigue pattern"
		}
		return "moderate increase - warm-up effect"
	default:
		if slope < 0 {
			return "severe decline - significant fatigue"
		}
		return "severe increase - atypical pattern"
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
