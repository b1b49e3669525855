package domain

import "math"

// Monetary values are stored as floats, matching the accounting source
// data. User-entered net amounts are normalized to kopecks on write;
// derived VAT and totals are persisted as computed, and Round2 is applied
// again at the display/export boundary.

// Round2 rounds a monetary amount to 2 decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CalcVAT returns the VAT amount for a net amount and a rate in percent
func CalcVAT(net, rate float64) float64 {
	return net * rate / 100
}

// CalcTotal returns net plus VAT for a net amount and a rate in percent
func CalcTotal(net, rate float64) float64 {
	return net + CalcVAT(net, rate)
}
