package money

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiply(t *testing.T) {
	tests := []struct {
		name string
		unit Money
		qty  int64
		want Money
	}{
		{"simple", 10000, 3, 30000},
		{"zero unit", 0, 5, 0},
		{"zero qty", 500, 0, 0},
		{"one", 12345, 1, 12345},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Multiply(tt.unit, tt.qty)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMultiplyOverflow(t *testing.T) {
	_, err := Multiply(Money(math.MaxInt64), 2)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Multiply(Money(math.MaxInt64/2+1), 2)
	assert.ErrorIs(t, err, ErrOverflow)

	// Boundary case that still fits.
	got, err := Multiply(Money(math.MaxInt64/2), 2)
	assert.NoError(t, err)
	assert.Equal(t, Money(math.MaxInt64-1), got)
}

func TestRateToBasisPoints(t *testing.T) {
	assert.Equal(t, BasisPoints(2000), RateToBasisPoints(20))
	assert.Equal(t, BasisPoints(750), RateToBasisPoints(7.5))
	assert.Equal(t, BasisPoints(1225), RateToBasisPoints(12.25))
	assert.Equal(t, BasisPoints(0), RateToBasisPoints(0))
	assert.Equal(t, BasisPoints(10000), RateToBasisPoints(100))
}

func TestPercentOf(t *testing.T) {
	tests := []struct {
		name   string
		amount Money
		rate   float64
		want   Money
	}{
		{"20 percent of 10000", 10000, 20, 2000},
		{"rounds down", 999, 10, 99},
		{"fractional rate", 10000, 7.5, 750},
		{"zero rate", 10000, 0, 0},
		{"zero amount", 0, 20, 0},
		{"100 percent", 500, 100, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PercentOf(tt.amount, RateToBasisPoints(tt.rate))
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInclusivePortion(t *testing.T) {
	// floor(10000 * 20 / 120) per the inclusive-tax convention.
	got, err := InclusivePortion(10000, RateToBasisPoints(20))
	assert.NoError(t, err)
	assert.Equal(t, Money(1666), got)

	got, err = InclusivePortion(12000, RateToBasisPoints(20))
	assert.NoError(t, err)
	assert.Equal(t, Money(2000), got)

	got, err = InclusivePortion(10000, 0)
	assert.NoError(t, err)
	assert.Equal(t, Money(0), got)
}

func TestSubtractCapped(t *testing.T) {
	assert.Equal(t, Money(300), SubtractCapped(500, 200))
	assert.Equal(t, Money(0), SubtractCapped(500, 500))
	assert.Equal(t, Money(0), SubtractCapped(500, 1000))
}

func TestAddOverflow(t *testing.T) {
	got, err := Add(100, 200)
	assert.NoError(t, err)
	assert.Equal(t, Money(300), got)

	_, err = Add(Money(math.MaxInt64), 1)
	assert.ErrorIs(t, err, ErrOverflow)
}
