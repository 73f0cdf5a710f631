package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCeilToQuarter(t *testing.T) {
	t.Run("rounds up to next quarter", func(t *testing.T) {
		assert.Equal(t, 15, CeilToQuarter(1))
		assert.Equal(t, 15, CeilToQuarter(14))
		assert.Equal(t, 30, CeilToQuarter(16))
		assert.Equal(t, 75, CeilToQuarter(64))
	})

	t.Run("boundary values unchanged", func(t *testing.T) {
		assert.Equal(t, 0, CeilToQuarter(0))
		assert.Equal(t, 15, CeilToQuarter(15))
		assert.Equal(t, 60, CeilToQuarter(60))
	})
}

func TestComputePrice(t *testing.T) {
	t.Run("64 min at 6.0/h", func(t *testing.T) {
		billable, price := ComputePrice(64, 6.0)
		assert.Equal(t, 75, billable)
		assert.Equal(t, 7.50, price)
	})

	t.Run("60 min at 4.0/h", func(t *testing.T) {
		billable, price := ComputePrice(60, 4.0)
		assert.Equal(t, 60, billable)
		assert.Equal(t, 4.00, price)
	})

	t.Run("negative duration clamps to zero", func(t *testing.T) {
		billable, price := ComputePrice(-30, 6.0)
		assert.Equal(t, 0, billable)
		assert.Equal(t, 0.0, price)
	})

	t.Run("zero rate prices at zero", func(t *testing.T) {
		_, price := ComputePrice(120, 0)
		assert.Equal(t, 0.0, price)
	})

	t.Run("billable is a multiple of the quantum and within one block", func(t *testing.T) {
		for d := 0; d <= 200; d++ {
			billable, _ := ComputePrice(float64(d), 3.0)
			assert.Equal(t, 0, billable%QuarterMin)
			assert.GreaterOrEqual(t, billable, d)
			if d%QuarterMin == 0 {
				assert.Equal(t, d, billable)
			} else {
				assert.Less(t, billable, d+QuarterMin)
			}
		}
	})
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.50, Round2(1.4999999999))
	assert.Equal(t, 7.50, Round2(7.5))
	assert.Equal(t, 0.13, Round2(0.125))
	assert.Equal(t, 6.85, Round2(8.5-1.65))
}
