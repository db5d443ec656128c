package parser

import (
	"testing"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    float64
		wantErr bool
	}{
		{name: "midnight", in: "00:00:00", want: 0},
		{name: "morning", in: "10:00:05", want: 36005},
		{name: "fractional seconds", in: "10:00:05.5", want: 36005.5},
		{name: "single digits", in: "1:2:3", want: 3723},
		{name: "missing component", in: "10:00", wantErr: true},
		{name: "extra component", in: "10:00:00:00", wantErr: true},
		{name: "non-numeric", in: "10:xx:00", wantErr: true},
		{name: "empty", in: "", wantErr: true},
		{name: "nan hours", in: "NaN:00:00", wantErr: true},
		{name: "infinite minutes", in: "10:inf:00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseClock(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseClock(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestClockExtractor_Extract(t *testing.T) {
	extractor := NewClockExtractor(6)

	tests := []struct {
		name    string
		line    string
		want    float64
		wantErr bool
	}{
		{
			name: "scope export start line",
			line: "Start Time : Friday , 01.03.2019 10:00:00",
			want: 36000,
		},
		{
			name: "extra trailing tokens",
			line: "End Time : Friday , 01.03.2019 10:00:10 CET",
			want: 36010,
		},
		{
			name:    "too few tokens",
			line:    "Start Time : Friday",
			wantErr: true,
		},
		{
			name:    "empty line",
			line:    "",
			wantErr: true,
		},
		{
			name:    "date in clock position",
			line:    "a b c d e f 2019-03-01",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractor.Extract(tt.line)
			if (err != nil) != tt.wantErr {
				t.Errorf("Extract() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Extract() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClockExtractor_NegativeIndex(t *testing.T) {
	if _, err := NewClockExtractor(-1).Extract("10:00:00"); err == nil {
		t.Error("Extract() expected error for negative token index")
	}
}
