package domain

import (
	"math"
	"testing"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{0.0004, "<0.001"},
		{0.012345, "0.0123"},
		{0.5, "0.5"},
		{1, "1"},
		{12.345, "12.35"},
		{999.5, "999.5"},
		{1234, "1.23K"},
		{1500000, "1.5M"},
		{2_340_000_000, "2.34B"},
		{7e12, "7T"},
		{-1234, "-1.23K"},
		{math.NaN(), "-"},
	}

	for _, tt := range tests {
		if got := FormatAmount(tt.in); got != tt.want {
			t.Errorf("FormatAmount(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestFormatUSD(t *testing.T) {
	if got := FormatUSD(1000); got != "$1K" {
		t.Errorf("FormatUSD(1000) = %s, want $1K", got)
	}
}

func TestFeeTierPercent(t *testing.T) {
	tests := map[int]string{
		FeeTierLowest: "0.01%",
		FeeTierLow:    "0.05%",
		FeeTierMedium: "0.25%",
		FeeTierHigh:   "1%",
	}
	for fee, want := range tests {
		if got := FeeTierPercent(fee); got != want {
			t.Errorf("FeeTierPercent(%d) = %s, want %s", fee, got, want)
		}
	}
}

func TestNewToken_MissingStats(t *testing.T) {
	tok := NewToken(&TokenInfo{Address: "0xabc", Symbol: "CAKE", Name: "PancakeSwap Token"}, nil)
	if tok.VolumeUSD != 0 || tok.PriceUSD != 0 || tok.TVLUSD != 0 {
		t.Errorf("expected zero stats, got %+v", tok)
	}
	if tok.Symbol != "CAKE" {
		t.Errorf("symbol mismatch: %s", tok.Symbol)
	}
}
