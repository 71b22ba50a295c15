package exactpoly_test

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	exactpoly "github.com/njchilds90/exactpoly"
)

func simplify(t *testing.T, src string) exactpoly.Radical {
	t.Helper()
	e, err := exactpoly.ParseExpr(src)
	require.NoError(t, err, src)
	r, err := exactpoly.Simplify(e)
	require.NoError(t, err, src)
	return r
}

// ============================================================
// Simplify
// ============================================================

func TestSimplify_NormalForm(t *testing.T) {
	tests := map[string]string{
		"1/2 + 1/3":                       "5/6",
		"sqrt(8)":                         "2*sqrt(2)",
		"sqrt(2)*sqrt(6)":                 "2*sqrt(3)",
		"sqrt(2)/4":                       "1/4*sqrt(2)",
		"1/(2*sqrt(2))":                   "1/4*sqrt(2)",
		"1/(1 + sqrt(2))":                 "-1 + sqrt(2)",
		"(1 + sqrt(5))/4 - sqrt(5)/4":     "1/4",
		"sqrt(3/4)":                       "1/2*sqrt(3)",
		"0.25*sqrt(12)":                   "1/2*sqrt(3)",
		"1/(sqrt(2) + sqrt(3) + sqrt(5))": "1/4*sqrt(2) + 1/6*sqrt(3) - 1/12*sqrt(30)",
		"sqrt(2) - sqrt(2)":               "0",
		"cbrt(-27/8)":                     "-3/2",
	}
	for src, want := range tests {
		if got := simplify(t, src).String(); got != want {
			t.Errorf("%s: want %s, got %s", src, want, got)
		}
	}
}

func TestSimplify_Denesting(t *testing.T) {
	assert.Equal(t, "1 + sqrt(2)", simplify(t, "sqrt(3 + 2*sqrt(2))").String())
	assert.Equal(t, "-1 + sqrt(2)", simplify(t, "sqrt(3 - 2*sqrt(2))").String())
	assert.Equal(t, "1/2*sqrt(2) + 1/2*sqrt(6)", simplify(t, "sqrt(2 + sqrt(3))").String())
}

func TestSimplify_EqualityIsExact(t *testing.T) {
	a := simplify(t, "sqrt(2)/4")
	b := simplify(t, "1/(2*sqrt(2))")
	c := simplify(t, "0.353553390593273762200422181052")
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestSimplify_Errors(t *testing.T) {
	tests := []struct {
		src  string
		want error
	}{
		{"sqrt(-1)", exactpoly.ErrUnsupportedRadical},
		{"cbrt(2)", exactpoly.ErrUnsupportedRadical},
		{"sqrt(5 + 2*sqrt(5))", exactpoly.ErrUnsupportedRadical},
		{"1/(sqrt(2) - sqrt(2))", exactpoly.ErrDivisionByZero},
		{"C0 + 1", exactpoly.ErrUnresolvedSymbol},
	}
	for _, tt := range tests {
		e, err := exactpoly.ParseExpr(tt.src)
		require.NoError(t, err)
		_, err = exactpoly.Simplify(e)
		assert.True(t, errors.Is(err, tt.want), "%s: want %v, got %v", tt.src, tt.want, err)
	}
}

// ============================================================
// Radical arithmetic
// ============================================================

func TestRadical_InverseRoundTrip(t *testing.T) {
	a := simplify(t, "2 - sqrt(3) + 3*sqrt(7) - sqrt(21)/2")
	inv, err := a.Inv()
	require.NoError(t, err)
	one, err := a.Mul(inv)
	require.NoError(t, err)
	assert.True(t, one.Equal(exactpoly.RadicalFromInt(1)), "got %s", one)
}

func TestRadical_Accessors(t *testing.T) {
	a := simplify(t, "3/2 + 5*sqrt(10) - sqrt(2)")
	assert.Equal(t, []int64{1, 2, 10}, a.Radicands())
	assert.Equal(t, []int64{2, 10}, a.Irrationals())
	assert.Equal(t, "3/2", a.Rat().RatString())
	assert.Equal(t, "5", a.Coeff(10).RatString())
	assert.Equal(t, "0", a.Coeff(3).RatString())
	assert.False(t, a.IsRational())
	assert.InDelta(t, 1.5+5*math.Sqrt(10)-math.Sqrt(2), a.Float64(), 1e-12)
}

func TestRadical_ExprRoundTrip(t *testing.T) {
	a := simplify(t, "-1/3 + 2*sqrt(2) - sqrt(15)/7")
	back, err := exactpoly.Simplify(a.Expr())
	require.NoError(t, err)
	assert.True(t, a.Equal(back))
	assert.Equal(t, "0", exactpoly.Radical{}.Expr().String())
}

func TestRadical_Scale(t *testing.T) {
	a := exactpoly.SqrtRadicand(5).Scale(big.NewRat(-2, 3))
	assert.Equal(t, "-2/3*sqrt(5)", a.String())
	assert.True(t, a.Scale(new(big.Rat)).IsZero())
}

// ============================================================
// Generator bases
// ============================================================

func TestGeneratorBasis(t *testing.T) {
	tests := []struct {
		in   []int64
		want []int64
	}{
		{nil, nil},
		{[]int64{1}, nil},
		{[]int64{2}, []int64{2}},
		{[]int64{3, 2, 2}, []int64{2, 3}},
		{[]int64{2, 3, 6}, []int64{2, 3}},
		{[]int64{6, 10, 15}, []int64{6, 10}},
		{[]int64{2, 3, 5, 30}, []int64{2, 3, 5}},
		{[]int64{5, 10}, []int64{5, 10}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exactpoly.GeneratorBasis(tt.in), "%v", tt.in)
	}
}
