package indices

import (
	"fmt"
	"math"
	"strings"
)

// formatValue renders a price as a dollar label, e.g. "$150.00" or
// "$43,250.12".
func formatValue(price float64) string {
	return "$" + groupThousands(fmt.Sprintf("%.2f", price))
}

// formatChange renders a signed percent label, e.g. "+1.69%" or "-0.42%".
func formatChange(changePct float64) string {
	return fmt.Sprintf("%+.2f%%", changePct)
}

// formatVolume renders a compact volume label, e.g. "1.0M" or "250.3K".
func formatVolume(volume float64) string {
	switch {
	case volume <= 0:
		return "—"
	case volume >= 1e9:
		return fmt.Sprintf("%.1fB", volume/1e9)
	case volume >= 1e6:
		return fmt.Sprintf("%.1fM", volume/1e6)
	case volume >= 1e3:
		return fmt.Sprintf("%.1fK", volume/1e3)
	default:
		return fmt.Sprintf("%.0f", volume)
	}
}

// scaledValue converts a price to integer cents for drift-free display math.
func scaledValue(price float64) int64 {
	return int64(math.Round(price * 100))
}

// groupThousands inserts comma separators into the integer part of a
// formatted number.
func groupThousands(s string) string {
	intPart := s
	frac := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart, frac = s[:idx], s[idx:]
	}

	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}

	if len(intPart) <= 3 {
		if neg {
			intPart = "-" + intPart
		}
		return intPart + frac
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}

	out := b.String()
	if neg {
		out = "-" + out
	}
	return out + frac
}
