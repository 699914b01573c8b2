package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// amountThreshold is the smallest non-zero amount shown as a number.
const amountThreshold = 0.001

var compactUnits = []struct {
	size   float64
	suffix string
}{
	{1e12, "T"},
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
}

// FormatAmount renders an amount in compact notation: 1234567 -> "1.23M",
// 12.345 -> "12.35", 0.012345 -> "0.0123", 0.0004 -> "<0.001".
func FormatAmount(v float64) string {
	if v == 0 {
		return "0"
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}

	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	if v < amountThreshold {
		return sign + "<0.001"
	}

	if v < 1 {
		// three significant digits
		places := int32(2 - math.Floor(math.Log10(v)))
		return sign + decimal.NewFromFloat(v).Round(places).String()
	}

	for _, u := range compactUnits {
		if v >= u.size {
			return sign + decimal.NewFromFloat(v/u.size).Round(2).String() + u.suffix
		}
	}
	return sign + decimal.NewFromFloat(v).Round(2).String()
}

// FormatUSD renders a USD amount with a dollar sign.
func FormatUSD(v float64) string {
	return "$" + FormatAmount(v)
}

// FeeTierPercent renders a fee tier as a percentage: 2500 -> "0.25%".
func FeeTierPercent(feeTier int) string {
	return decimal.New(int64(feeTier), -4).String() + "%"
}
