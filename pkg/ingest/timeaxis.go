package ingest

import (
	"gonum.org/v1/gonum/floats"
)

// SynthesizeTimeAxis returns n evenly spaced values covering [0, duration]
// inclusive. It returns an empty slice for n <= 0 and [0] for n == 1.
func SynthesizeTimeAxis(duration float64, n int) []float64 {
	switch {
	case n <= 0:
		return []float64{}
	case n == 1:
		return []float64{0}
	}
	return floats.Span(make([]float64, n), 0, duration)
}
