package indices

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "$150.00", formatValue(150))
	assert.Equal(t, "$43,250.12", formatValue(43250.12))
	assert.Equal(t, "$1,234,567.89", formatValue(1234567.89))
	assert.Equal(t, "$0.00", formatValue(0))
}

func TestFormatChange(t *testing.T) {
	assert.Equal(t, "+1.69%", formatChange(1.6949))
	assert.Equal(t, "-0.42%", formatChange(-0.42))
	assert.Equal(t, "+0.00%", formatChange(0))
}

func TestFormatVolume(t *testing.T) {
	assert.Equal(t, "—", formatVolume(0))
	assert.Equal(t, "500", formatVolume(500))
	assert.Equal(t, "250.3K", formatVolume(250300))
	assert.Equal(t, "1.0M", formatVolume(1000000))
	assert.Equal(t, "2.5B", formatVolume(2.5e9))
}

func TestScaledValue(t *testing.T) {
	assert.Equal(t, int64(15000), scaledValue(150))
	assert.Equal(t, int64(4325012), scaledValue(43250.12))
}

func TestGroupThousands(t *testing.T) {
	assert.Equal(t, "150.00", groupThousands("150.00"))
	assert.Equal(t, "1,000", groupThousands("1000"))
	assert.Equal(t, "-1,234.50", groupThousands("-1234.50"))
	assert.Equal(t, "12,345,678", groupThousands("12345678"))
}
