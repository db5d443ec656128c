package ingest

import (
	"errors"
	"fmt"
	"sort"
)

// Group identifies a sampling-rate class of channels.
type Group string

const (
	// GroupFast holds channels sampled at the NC (controller) rate.
	GroupFast Group = "fast"
	// GroupSlow holds channels sampled at the PLC (gantry) rate, 1/5 of the NC rate.
	GroupSlow Group = "slow"
)

// TimeKey is the synthetic channel holding a group's time axis.
const TimeKey = "time"

// Channel names used by the built-in layouts.
const (
	ActPos       = "act_pos"
	SetPos       = "set_pos"
	ActVelo      = "act_velo"
	SetVelo      = "set_velo"
	PosDiff      = "pos_diff"
	XGantry      = "x_gantry"
	YGantry      = "y_gantry"
	ActPosSlave  = "act_pos_slave"
	SetPosSlave  = "set_pos_slave"
	ActVeloSlave = "act_velo_slave"
	SetVeloSlave = "set_velo_slave"
	PosDiffSlave = "pos_diff_slave"
)

// Channel maps one whitespace token of a body row to a named channel.
type Channel struct {
	Group Group  `yaml:"group" json:"group"`
	Name  string `yaml:"name" json:"name"`
	Token int    `yaml:"token" json:"token"`
}

// Layout declares which tokens of a body row feed which channels.
type Layout struct {
	Name     string    `yaml:"name" json:"name"`
	Channels []Channel `yaml:"channels" json:"channels"`
}

// Standard is the scope export with the slave axis recorded at the NC rate
// and no slave set-points.
var Standard = Layout{
	Name: "standard",
	Channels: []Channel{
		{GroupFast, ActPos, 1},
		{GroupFast, SetPos, 3},
		{GroupFast, ActVelo, 5},
		{GroupFast, SetVelo, 7},
		{GroupFast, PosDiff, 9},
		{GroupSlow, XGantry, 11},
		{GroupSlow, YGantry, 13},
		{GroupFast, ActPosSlave, 15},
		{GroupFast, ActVeloSlave, 17},
		{GroupFast, PosDiffSlave, 19},
	},
}

// Mirror is the scope export used for mirror gantries: the slave axis,
// including its set-points, is recorded at the PLC rate.
var Mirror = Layout{
	Name: "mirror",
	Channels: []Channel{
		{GroupFast, ActPos, 1},
		{GroupFast, SetPos, 3},
		{GroupFast, ActVelo, 5},
		{GroupFast, SetVelo, 7},
		{GroupFast, PosDiff, 9},
		{GroupSlow, XGantry, 11},
		{GroupSlow, YGantry, 13},
		{GroupSlow, ActPosSlave, 15},
		{GroupSlow, SetPosSlave, 17},
		{GroupSlow, ActVeloSlave, 19},
		{GroupSlow, SetVeloSlave, 21},
		{GroupSlow, PosDiffSlave, 23},
	},
}

// Builtin returns the built-in layouts.
func Builtin() []Layout {
	return []Layout{Standard, Mirror}
}

// LookupLayout returns the built-in layout with the given name.
func LookupLayout(name string) (Layout, error) {
	for _, l := range Builtin() {
		if l.Name == name {
			return l, nil
		}
	}
	return Layout{}, fmt.Errorf("unknown layout %q (built-in: standard, mirror)", name)
}

// Width returns the number of tokens a row of this layout carries:
// one past the highest referenced token index.
func (l Layout) Width() int {
	width := 0
	for _, ch := range l.Channels {
		if ch.Token+1 > width {
			width = ch.Token + 1
		}
	}
	return width
}

// Names returns the channel names of a group in declaration order.
func (l Layout) Names(g Group) []string {
	var names []string
	for _, ch := range l.Channels {
		if ch.Group == g {
			names = append(names, ch.Name)
		}
	}
	return names
}

// Lookup returns the channel with the given name.
func (l Layout) Lookup(name string) (Channel, bool) {
	for _, ch := range l.Channels {
		if ch.Name == name {
			return ch, true
		}
	}
	return Channel{}, false
}

// Validate checks that the layout is usable for parsing.
func (l Layout) Validate() error {
	if l.Name == "" {
		return errors.New("name is required")
	}
	if len(l.Channels) == 0 {
		return errors.New("at least one channel is required")
	}

	names := make(map[string]bool)
	tokens := make(map[int]string)
	hasFast := false

	for i, ch := range l.Channels {
		switch ch.Group {
		case GroupFast:
			hasFast = true
		case GroupSlow:
		default:
			return fmt.Errorf("channels[%d]: invalid group %q (must be fast or slow)", i, ch.Group)
		}

		if ch.Name == "" {
			return fmt.Errorf("channels[%d]: name is required", i)
		}
		if ch.Name == TimeKey {
			return fmt.Errorf("channels[%d]: name %q is reserved", i, TimeKey)
		}
		if names[ch.Name] {
			return fmt.Errorf("channels[%d]: duplicate channel name %q", i, ch.Name)
		}
		names[ch.Name] = true

		if ch.Token < 0 {
			return fmt.Errorf("channels[%d] (%s): token must be >= 0", i, ch.Name)
		}
		if other, ok := tokens[ch.Token]; ok {
			return fmt.Errorf("channels[%d] (%s): token %d already used by %s", i, ch.Name, ch.Token, other)
		}
		tokens[ch.Token] = ch.Name
	}

	if !hasFast {
		return errors.New("at least one fast channel is required")
	}

	return nil
}

// ChannelGroup maps channel names to their sample arrays. After ingestion it
// also carries the group's time axis under TimeKey.
type ChannelGroup map[string][]float64

// Len returns the number of samples in the group's channels.
func (g ChannelGroup) Len() int {
	n := 0
	for name, v := range g {
		if name == TimeKey {
			continue
		}
		if len(v) > n {
			n = len(v)
		}
	}
	return n
}

// Time returns the group's time axis, or nil before it is synthesized.
func (g ChannelGroup) Time() []float64 {
	return g[TimeKey]
}

// Names returns the data channel names in sorted order, without TimeKey.
func (g ChannelGroup) Names() []string {
	names := make([]string, 0, len(g))
	for name := range g {
		if name != TimeKey {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
