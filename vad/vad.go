// Package vad classifies voiced (non-silent) spans of an audio buffer.
package vad

import "math"

// Interval is a half-open range of sample indices classified as voiced.
type Interval struct {
	Start int
	End   int
}

// Detector finds voiced intervals in a mono buffer. Implementations must
// return non-overlapping intervals in ascending order and have no side
// effects; the rest of the pipeline depends only on this contract.
type Detector interface {
	DetectVoiced(samples []float64, sampleRate int) []Interval
}

// EnergyDetector marks frames whose RMS energy sits within ThresholdDB of the
// loudest frame as voiced, then merges adjacent voiced frames into intervals.
type EnergyDetector struct {
	ThresholdDB float64 // dB below peak treated as silence, e.g. 20
	FrameLength int     // samples per analysis frame
	HopLength   int     // samples between frame starts
}

// NewEnergyDetector returns a detector with the usual frame geometry.
func NewEnergyDetector(thresholdDB float64) *EnergyDetector {
	return &EnergyDetector{ThresholdDB: thresholdDB, FrameLength: 2048, HopLength: 512}
}

func (d *EnergyDetector) DetectVoiced(samples []float64, _ int) []Interval {
	frameLen := d.FrameLength
	if frameLen <= 0 {
		frameLen = 2048
	}
	hop := d.HopLength
	if hop <= 0 {
		hop = 512
	}
	if len(samples) == 0 {
		return nil
	}

	nFrames := 1 + (len(samples)-1)/hop
	rms := make([]float64, 0, nFrames)
	peak := 0.0
	for start := 0; start < len(samples); start += hop {
		end := start + frameLen
		if end > len(samples) {
			end = len(samples)
		}
		sum := 0.0
		for _, v := range samples[start:end] {
			sum += v * v
		}
		r := math.Sqrt(sum / float64(end-start))
		rms = append(rms, r)
		if r > peak {
			peak = r
		}
	}
	if peak == 0 {
		return nil // digital silence
	}

	// A frame is voiced when its level is within ThresholdDB of the peak.
	var out []Interval
	inRun := false
	runStart := 0
	for i, r := range rms {
		db := -math.Inf(1)
		if r > 0 {
			db = 20 * math.Log10(r/peak)
		}
		voiced := db > -d.ThresholdDB
		switch {
		case voiced && !inRun:
			inRun = true
			runStart = i
		case !voiced && inRun:
			inRun = false
			out = appendInterval(out, runStart, i, hop, frameLen, len(samples))
		}
	}
	if inRun {
		out = appendInterval(out, runStart, len(rms), hop, frameLen, len(samples))
	}
	return out
}

// appendInterval converts a frame run [startFrame, endFrame) to sample indices
// and merges it into the previous interval when frame overlap makes them touch.
func appendInterval(out []Interval, startFrame, endFrame, hop, frameLen, total int) []Interval {
	start := startFrame * hop
	end := (endFrame-1)*hop + frameLen
	if end > total {
		end = total
	}
	if n := len(out); n > 0 && start <= out[n-1].End {
		if end > out[n-1].End {
			out[n-1].End = end
		}
		return out
	}
	return append(out, Interval{Start: start, End: end})
}

// VoicedDuration sums interval lengths in seconds.
func VoicedDuration(intervals []Interval, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	total := 0
	for _, iv := range intervals {
		total += iv.End - iv.Start
	}
	return float64(total) / float64(sampleRate)
}
