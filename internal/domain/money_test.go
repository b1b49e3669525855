package domain

import "testing"

func TestRound2(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{name: "already rounded", input: 100.50, expected: 100.50},
		{name: "rounds up", input: 100.505, expected: 100.51},
		{name: "rounds down", input: 100.504, expected: 100.50},
		{name: "negative", input: -0.005, expected: -0.01},
		{name: "zero", input: 0, expected: 0},
		{name: "float artifacts", input: 0.1 + 0.2, expected: 0.3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := Round2(tc.input)
			if result != tc.expected {
				t.Errorf("Round2(%v) = %v, want %v", tc.input, result, tc.expected)
			}
		})
	}
}

func TestCalcVAT(t *testing.T) {
	tests := []struct {
		name     string
		net      float64
		rate     float64
		expected float64
	}{
		{name: "standard 20 percent", net: 1000, rate: 20, expected: 200},
		{name: "reduced 10 percent", net: 500, rate: 10, expected: 50},
		{name: "zero rate", net: 1000, rate: 0, expected: 0},
		{name: "fractional net", net: 999.99, rate: 20, expected: 199.998},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := CalcVAT(tc.net, tc.rate)
			if result != tc.expected {
				t.Errorf("CalcVAT(%v, %v) = %v, want %v", tc.net, tc.rate, result, tc.expected)
			}
		})
	}
}

func TestCalcTotal(t *testing.T) {
	if got := CalcTotal(1000, 20); got != 1200 {
		t.Errorf("CalcTotal(1000, 20) = %v, want 1200", got)
	}
	if got := CalcTotal(1000, 0); got != 1000 {
		t.Errorf("CalcTotal(1000, 0) = %v, want 1000", got)
	}
}
