package num

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 2.35, Round2(2.346))
	assert.Equal(t, 2.34, Round2(2.344))
	assert.Equal(t, -1.06, Round2(-1.056))
	assert.Equal(t, 0.0, Round2(0))
}

func TestRoundTick(t *testing.T) {
	assert.Equal(t, 2.35, RoundTick(2.347, 0.05))
	assert.Equal(t, 2.3, RoundTick(2.32, 0.05))
	// Zero tick falls back to cents.
	assert.Equal(t, 2.35, RoundTick(2.348, 0))
}

func TestFormatUSD(t *testing.T) {
	assert.Equal(t, "+$210.00", FormatUSD(210))
	assert.Equal(t, "-$92.76", FormatUSD(-92.76))
	assert.Equal(t, "+$0.00", FormatUSD(0))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "+4.02%", FormatPercent(0.0402))
	assert.Equal(t, "-0.67%", FormatPercent(-0.0067))
}
