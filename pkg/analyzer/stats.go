package analyzer

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ccollicutt/ncplot/pkg/ingest"
)

// ChannelStats summarises one channel: the static and dynamic error figures
// used to judge a gantry.
type ChannelStats struct {
	Group      ingest.Group
	Channel    string
	Count      int
	Min        float64
	Max        float64
	Mean       float64
	StdDev     float64
	RMS        float64
	PeakToPeak float64
}

// ComputeStats returns the statistics of values. An empty slice yields a
// zero summary; StdDev is zero for fewer than two samples.
func ComputeStats(group ingest.Group, channel string, values []float64) ChannelStats {
	s := ChannelStats{Group: group, Channel: channel, Count: len(values)}
	if len(values) == 0 {
		return s
	}

	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	s.PeakToPeak = s.Max - s.Min
	s.RMS = math.Sqrt(floats.Dot(values, values) / float64(len(values)))

	if len(values) < 2 {
		s.Mean = values[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(values, nil)

	return s
}

// SummarizeGroup returns stats for every data channel of g, in name order.
func SummarizeGroup(group ingest.Group, g ingest.ChannelGroup) []ChannelStats {
	names := g.Names()
	out := make([]ChannelStats, 0, len(names))
	for _, name := range names {
		out = append(out, ComputeStats(group, name, g[name]))
	}
	return out
}
