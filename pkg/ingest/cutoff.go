package ingest

// GantryRatio is the number of NC-rate samples per PLC-rate sample.
const GantryRatio = 5

// GantryCutoffLen returns the number of valid slow samples for a fast group
// of fastLen samples.
func GantryCutoffLen(fastLen int) int {
	if fastLen <= 0 {
		return 0
	}
	return fastLen / GantryRatio
}

// ApplyGantryCutoff truncates every slow channel to fastLen/5 samples (floor),
// keeping the head of each array. The controller keeps writing the PLC-rate
// buffer past the end of the measurement, so everything after that index is
// stale. Channels already shorter than the cutoff are left as they are.
func ApplyGantryCutoff(slow ChannelGroup, fastLen int) ChannelGroup {
	n := GantryCutoffLen(fastLen)
	out := make(ChannelGroup, len(slow))
	for name, v := range slow {
		if len(v) > n {
			v = v[:n:n]
		}
		out[name] = v
	}
	return out
}
