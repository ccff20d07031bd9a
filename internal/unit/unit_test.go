package unit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestParseUnits(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expectErr bool
		dim       Dims
		factor    float64
	}{
		{name: "empty is dimensionless", raw: "", dim: Dims{}, factor: 1},
		{name: "base meter", raw: "m", dim: dim(Length, 1), factor: 1},
		{name: "long name", raw: "meter", dim: dim(Length, 1), factor: 1},
		{name: "scaled", raw: "km", dim: dim(Length, 1), factor: 1e3},
		{name: "derived newton", raw: "N", dim: Dims{1, 1, -2}, factor: 1},
		{name: "quotient", raw: "m/s", dim: Dims{1, 0, -1}, factor: 1},
		{name: "product with exponent", raw: "kg*m/s^2", dim: Dims{1, 1, -2}, factor: 1},
		{name: "scaled quotient", raw: "km/h", dim: Dims{1, 0, -1}, factor: 1000.0 / 3600.0},
		{name: "squared", raw: "m^2", dim: dim(Length, 2), factor: 1},
		{name: "error - unknown", raw: "furlong", expectErr: true},
		{name: "error - dangling separator", raw: "m/", expectErr: true},
		{name: "error - big exponent", raw: "m^9", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			u, err := Parse(tc.raw)

			if tc.expectErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.dim, u.Dim)
			assert.InDelta(t, tc.factor, u.Factor, 1e-12)
		})
	}
}

func TestRender(t *testing.T) {
	assert.Equal(t, "m/s", Unit{Dim: Dims{1, 0, -1}}.String())
	assert.Equal(t, "kg*m/s^2", Unit{Dim: Dims{1, 1, -2}}.String())
	assert.Equal(t, "1/s", Unit{Dim: dim(Time, -1)}.String())
	assert.Equal(t, "m^2", Unit{Dim: dim(Length, 2)}.String())
	assert.Equal(t, "", Dimensionless.String())
}

func TestSICombine(t *testing.T) {
	r := NewResolver()
	m, err := Parse("m")
	require.NoError(t, err)
	s, err := Parse("s")
	require.NoError(t, err)

	t.Run("add requires same dimension", func(t *testing.T) {
		assert.True(t, r.Compatible(m, m, OpAdd))
		assert.False(t, r.Compatible(m, s, OpAdd))

		_, err := r.Combine(m, s, OpAdd)
		require.ErrorIs(t, err, ErrIncompatible)
	})

	t.Run("division composes", func(t *testing.T) {
		u, err := r.Combine(m, s, OpDiv)
		require.NoError(t, err)
		assert.Equal(t, Dims{1, 0, -1}, u.Dim)
		assert.Equal(t, "m/s", u.String())
	})

	t.Run("multiplication cancels", func(t *testing.T) {
		hz, err := Parse("Hz")
		require.NoError(t, err)
		u, err := r.Combine(s, hz, OpMul)
		require.NoError(t, err)
		assert.True(t, u.IsDimensionless())
	})
}

func TestSIConvert(t *testing.T) {
	r := NewResolver()
	m, err := Parse("m")
	require.NoError(t, err)
	km, err := Parse("km")
	require.NoError(t, err)

	// 2500 base meters is 2.5 km.
	got, err := r.Convert(cty.NumberIntVal(2500), m, km)
	require.NoError(t, err)
	f, _ := got.AsBigFloat().Float64()
	assert.InDelta(t, 2.5, f, 1e-12)

	s, err := Parse("s")
	require.NoError(t, err)
	_, err = r.Convert(cty.NumberIntVal(1), m, s)
	require.ErrorIs(t, err, ErrIncompatible)
}

func TestDimsHelpers(t *testing.T) {
	area := dim(Length, 2)
	assert.True(t, area.Even())
	assert.Equal(t, dim(Length, 1), area.Halve())
	assert.False(t, dim(Length, 1).Even())
	assert.True(t, Dims{}.IsZero())
}
