package backtest

import (
	"fmt"
	"strconv"
	"strings"
)

// Percent is a ratio expressed in percent: Percent(1.5) is 1.5%.
type Percent float64

// PercentOf converts a fraction (0.015) into a Percent (1.5%).
func PercentOf(fraction float64) Percent { return Percent(100 * fraction) }

// ParsePercent parses strings like "1.23%", " -0.5 % " or "2" (percent sign optional).
func ParsePercent(s string) (Percent, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid percent %q: %w", s, err)
	}
	return Percent(f), nil
}

// Fraction returns the ratio as a fraction: 1.5% is 0.015.
func (p Percent) Fraction() float64 { return float64(p) / 100 }

func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 0.0001
	diff := p - q
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", float64(p))
}

func (p Percent) SignedString() string {
	res := fmt.Sprintf("%+.2f%%", float64(p))
	if res == "+0.00%" {
		return "-"
	}
	return res
}
