package analysis

import (
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// Parameter bounds for the hyperbolic fit: SPM0, decline rate, exponent.
var (
	fitLower = [3]float64{50, 0.001, 0.1}
	fitUpper = [3]float64{500, 1.0, 1.0}
)

const (
	// Below these the series is too flat for the hyperbolic shape to be
	// estimable; the fitter goes straight to the linear fallback.
	flatRangeSPM  = 20.0
	flatStdDevSPM = 8.0

	// A converged fit explaining under 30% of variance is discarded.
	minRSquared = 0.3
)

// Fitter fits the hyperbolic decline model to the valid rate series, falling
// back to an ordinary least-squares line when the hyperbolic fit is
// inappropriate, fails, or explains too little variance.
type Fitter struct {
	Log *logrus.Logger

	// MinPoints is the required number of valid segments; values below 3
	// are raised to 3.
	MinPoints int
	// MaxIterations caps the optimizer.
	MaxIterations int
}

// Fit picks the model for the valid segments' integer SPM series. It never
// returns an error: too few valid points yield the ModelNone outcome, and
// every fit failure falls back to the linear model.
func (f *Fitter) Fit(ms []Measurement) *Model {
	times, spms := validSeries(ms)
	return f.FitSeries(times, spms)
}

// FitSeries fits the decline model to explicit (time, rate) pairs, t in
// minutes. Callers with unrounded rates use this directly so the fit is not
// limited to integer SPM resolution.
func (f *Fitter) FitSeries(times, spms []float64) *Model {
	minPts := f.MinPoints
	if minPts < 3 {
		minPts = 3
	}

	if len(spms) < minPts {
		f.logf().WithField("valid_points", len(spms)).Warn("too few valid segments for a model fit")
		return &Model{Kind: ModelNone}
	}

	spmRange := rangeOf(spms)
	spmStd := stat.PopStdDev(spms, nil)
	if spmRange < flatRangeSPM || spmStd < flatStdDevSPM {
		f.logf().WithFields(logrus.Fields{
			"range":   spmRange,
			"std_dev": spmStd,
		}).Info("series too flat for hyperbolic model, fitting linear")
		return f.fitLinear(times, spms)
	}

	model, ok := f.fitHyperbolic(times, spms)
	if !ok {
		return f.fitLinear(times, spms)
	}
	return model
}

// fitHyperbolic runs a bounded nonlinear least-squares fit. The second return
// value is false when the optimizer fails or the fit quality gate rejects it.
func (f *Fitter) fitHyperbolic(times, spms []float64) (*Model, bool) {
	x0 := []float64{
		maxOf(spms),
		initialDeclineRate(spms[0], spms[len(spms)-1], times[len(times)-1]-times[0]),
		0.5,
	}

	obj := func(x []float64) float64 {
		h := Hyperbolic{SPM0: clamp(x[0], 0), DeclineRate: clamp(x[1], 1), Exponent: clamp(x[2], 2)}
		sse := 0.0
		for i, t := range times {
			d := spms[i] - h.At(t)
			sse += d * d
		}
		// Quadratic penalty keeps the simplex near the feasible box.
		for j, v := range x {
			if v < fitLower[j] {
				sse += 1e6 * (fitLower[j] - v) * (fitLower[j] - v)
			} else if v > fitUpper[j] {
				sse += 1e6 * (v - fitUpper[j]) * (v - fitUpper[j])
			}
		}
		return sse
	}

	iters := f.MaxIterations
	if iters <= 0 {
		iters = 2000
	}
	settings := &optimize.Settings{MajorIterations: iters}
	res, err := optimize.Minimize(optimize.Problem{Func: obj}, x0, settings, &optimize.NelderMead{})
	if err != nil {
		f.logf().Warnf("hyperbolic fit did not converge, falling back to linear: %v", err)
		return nil, false
	}

	h := Hyperbolic{
		SPM0:        clamp(res.Location.X[0], 0),
		DeclineRate: clamp(res.Location.X[1], 1),
		Exponent:    clamp(res.Location.X[2], 2),
	}
	pred := make([]float64, len(times))
	for i, t := range times {
		pred[i] = h.At(t)
	}
	q := quality(spms, pred)

	if q.RSquared < minRSquared {
		f.logf().WithField("r_squared", q.RSquared).Warn("hyperbolic fit quality too low, falling back to linear")
		return nil, false
	}

	f.logf().WithFields(logrus.Fields{
		"spm0":      h.SPM0,
		"di":        h.DeclineRate,
		"b":         h.Exponent,
		"r_squared": q.RSquared,
		"rmse":      q.RMSE,
	}).Info("hyperbolic model fitted")
	return &Model{Kind: ModelHyperbolic, Hyperbolic: &h, Quality: &q}, true
}

// fitLinear is the ordinary least-squares fallback. It still reports R² and
// RMSE even when the line fits poorly.
func (f *Fitter) fitLinear(times, spms []float64) *Model {
	if len(spms) < 2 {
		return &Model{Kind: ModelNone}
	}

	intercept, slope := stat.LinearRegression(times, spms, nil, false)
	l := Linear{Slope: slope, Intercept: intercept}

	pred := make([]float64, len(times))
	for i, t := range times {
		pred[i] = l.At(t)
	}
	q := quality(spms, pred)

	f.logf().WithFields(logrus.Fields{
		"slope":     slope,
		"r_squared": q.RSquared,
	}).Info("linear model fitted")
	return &Model{Kind: ModelLinear, Linear: &l, Quality: &q}
}

// initialDeclineRate derives the starting guess Di = (SPM0 - SPM1)/(SPM0·Δt),
// floored at a small positive value so degenerate series cannot zero it out.
func initialDeclineRate(first, last, dt float64) float64 {
	if first <= 0 || dt <= 0 {
		return 0.01
	}
	return math.Max(0.001, (first-last)/(first*dt))
}

func quality(obs, pred []float64) Quality {
	return Quality{
		RSquared: rSquared(obs, pred),
		RMSE:     rmse(obs, pred),
		Points:   len(obs),
	}
}

func rSquared(obs, pred []float64) float64 {
	mean := stat.Mean(obs, nil)
	ssRes, ssTot := 0.0, 0.0
	for i := range obs {
		ssRes += (obs[i] - pred[i]) * (obs[i] - pred[i])
		ssTot += (obs[i] - mean) * (obs[i] - mean)
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

func rmse(obs, pred []float64) float64 {
	sum := 0.0
	for i := range obs {
		sum += (obs[i] - pred[i]) * (obs[i] - pred[i])
	}
	return math.Sqrt(sum / float64(len(obs)))
}

func clamp(v float64, j int) float64 {
	if v < fitLower[j] {
		return fitLower[j]
	}
	if v > fitUpper[j] {
		return fitUpper[j]
	}
	return v
}

func rangeOf(xs []float64) float64 {
	lo, hi := xs[0], xs[0]
	for _, v := range xs[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return hi - lo
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, v := range xs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func (f *Fitter) logf() *logrus.Logger {
	if f.Log != nil {
		return f.Log
	}
	return logrus.StandardLogger()
}
