package exactpoly_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	exactpoly "github.com/njchilds90/exactpoly"
)

// ============================================================
// Poly arithmetic
// ============================================================

func TestPoly_String(t *testing.T) {
	tests := []struct {
		p    exactpoly.Poly
		want string
	}{
		{exactpoly.PolyFromInts(1, 0, -10, 0, 1), "x^4 - 10x^2 + 1"},
		{exactpoly.PolyFromInts(-2, 0, 1), "x^2 - 2"},
		{exactpoly.PolyFromInts(0, -1), "-x"},
		{exactpoly.PolyFromInts(3), "3"},
		{exactpoly.PolyFromInts(0, 0, 0), "0"},
		{exactpoly.NewPoly(big.NewRat(1, 2), big.NewRat(-3, 4)), "-3/4x + 1/2"},
	}
	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("want %s, got %s", tt.want, got)
		}
	}
}

func TestPoly_MulDivMod(t *testing.T) {
	a := exactpoly.PolyFromInts(1, 1)    // x + 1
	b := exactpoly.PolyFromInts(-1, 0, 1) // x^2 - 1
	prod := a.Mul(b)
	assert.Equal(t, "x^3 + x^2 - x - 1", prod.String())

	q, r, err := prod.Add(exactpoly.PolyFromInts(5)).DivMod(b)
	require.NoError(t, err)
	assert.Equal(t, "x + 1", q.String())
	assert.Equal(t, "5", r.String())

	_, _, err = prod.DivMod(exactpoly.Poly{})
	assert.True(t, errors.Is(err, exactpoly.ErrDivisionByZero))
}

func TestPoly_GCD(t *testing.T) {
	a := exactpoly.PolyFromInts(-1, 0, 1).Mul(exactpoly.PolyFromInts(2, 1)) // (x^2-1)(x+2)
	b := exactpoly.PolyFromInts(2, 2)                                      // 2(x+1)
	assert.Equal(t, "x + 1", a.GCD(b).String())
	assert.Equal(t, "1", exactpoly.PolyFromInts(-2, 0, 1).GCD(exactpoly.PolyFromInts(0, 2)).String())
}

func TestPoly_DerivEval(t *testing.T) {
	p := exactpoly.PolyFromInts(1, 0, -10, 0, 1)
	assert.Equal(t, "4x^3 - 20x", p.Deriv().String())
	assert.Equal(t, "-23", p.Eval(big.NewRat(2, 1)).RatString())
	assert.Equal(t, 4, p.Degree())
	assert.Equal(t, -1, exactpoly.Poly{}.Degree())
	assert.Equal(t, []string{"1", "0", "-10", "0", "1"}, ratsToStrings(p.HighFirst()))
}

func ratsToStrings(v []*big.Rat) []string {
	out := make([]string, len(v))
	for i, c := range v {
		out[i] = c.RatString()
	}
	return out
}

// ============================================================
// Sturm sequences
// ============================================================

func TestPoly_CountRoots(t *testing.T) {
	p := exactpoly.PolyFromInts(1, 0, -10, 0, 1) // roots ±0.3178, ±3.1462
	tests := []struct {
		lo, hi *big.Rat
		want   int
	}{
		{big.NewRat(-4, 1), big.NewRat(4, 1), 4},
		{big.NewRat(0, 1), big.NewRat(4, 1), 2},
		{big.NewRat(3, 1), big.NewRat(4, 1), 1},
		{big.NewRat(1, 1), big.NewRat(3, 1), 0},
		{big.NewRat(-1, 2), big.NewRat(1, 2), 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.CountRoots(tt.lo, tt.hi), "[%s, %s]", tt.lo, tt.hi)
	}
}

func TestPoly_CountRootsClosedInterval(t *testing.T) {
	p := exactpoly.PolyFromInts(-4, 0, 1) // roots ±2
	assert.Equal(t, 1, p.CountRoots(big.NewRat(2, 1), big.NewRat(3, 1)))
	assert.Equal(t, 1, p.CountRoots(big.NewRat(1, 1), big.NewRat(2, 1)))
	assert.Equal(t, 2, p.CountRoots(big.NewRat(-2, 1), big.NewRat(2, 1)))
}
