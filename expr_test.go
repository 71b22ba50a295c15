package exactpoly_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	exactpoly "github.com/njchilds90/exactpoly"
)

// ============================================================
// Num / Float tests
// ============================================================

func TestNum_Integer(t *testing.T) {
	n := exactpoly.N(42)
	if n.String() != "42" {
		t.Errorf("want 42, got %s", n.String())
	}
}

func TestNum_Rational(t *testing.T) {
	n := exactpoly.F(2, 6)
	if n.String() != "1/3" {
		t.Errorf("want 1/3, got %s", n.String())
	}
}

func TestFloat_ExactValue(t *testing.T) {
	f := exactpoly.FloatLit("0.125")
	r, ok := f.Rat()
	require.True(t, ok)
	assert.Equal(t, "1/8", r.RatString())
	assert.Equal(t, "0.125", f.String())
}

// ============================================================
// Rendering
// ============================================================

func TestExpr_StringParenthesization(t *testing.T) {
	x, y, z := exactpoly.S("x"), exactpoly.S("y"), exactpoly.S("z")
	tests := []struct {
		e    exactpoly.Expr
		want string
	}{
		{exactpoly.SubOf(x, exactpoly.AddOf(y, z)), "x - (y + z)"},
		{exactpoly.AddOf(exactpoly.SubOf(x, y), z), "x - y + z"},
		{exactpoly.MulOf(exactpoly.AddOf(x, y), z), "(x + y)*z"},
		{exactpoly.DivOf(exactpoly.SqrtOf(exactpoly.N(2)), exactpoly.N(4)), "sqrt(2)/4"},
		{exactpoly.DivOf(x, exactpoly.MulOf(y, z)), "x/(y*z)"},
		{exactpoly.NegOf(exactpoly.AddOf(x, y)), "-(x + y)"},
		{exactpoly.NegOf(x), "-x"},
	}
	for _, tt := range tests {
		if got := tt.e.String(); got != tt.want {
			t.Errorf("want %s, got %s", tt.want, got)
		}
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "<nil>", exactpoly.String(nil))
	assert.Equal(t, "sqrt(2)/4", exactpoly.String(exactpoly.DivOf(exactpoly.SqrtOf(exactpoly.N(2)), exactpoly.N(4))))
}

// ============================================================
// Substitution and symbols
// ============================================================

func TestExpr_Subs(t *testing.T) {
	e := exactpoly.MulOf(exactpoly.S("C0"), exactpoly.SqrtOf(exactpoly.S("C1")))
	got := e.Subs("C0", exactpoly.N(3)).Subs("C1", exactpoly.N(2))
	assert.Equal(t, "3*sqrt(2)", got.String())
	// the original is untouched
	assert.Equal(t, "C0*sqrt(C1)", e.String())
}

func TestExpr_FreeSymbols(t *testing.T) {
	e, err := exactpoly.ParseExpr("C1 * sqrt(C0 + d) - C1")
	require.NoError(t, err)
	assert.Equal(t, []string{"C0", "C1", "d"}, exactpoly.SortedSymbols(e))
}

func TestExpr_Approx(t *testing.T) {
	e, err := exactpoly.ParseExpr("(1 + sqrt(5)) / 2")
	require.NoError(t, err)
	v, ok := e.Approx()
	require.True(t, ok)
	assert.InDelta(t, (1+math.Sqrt(5))/2, v, 1e-12)

	_, ok = exactpoly.S("x").Approx()
	assert.False(t, ok)
}

func TestExpr_Equal(t *testing.T) {
	a, _ := exactpoly.ParseExpr("sqrt(2)/4")
	b, _ := exactpoly.ParseExpr("sqrt( 2 ) / 4")
	c, _ := exactpoly.ParseExpr("1/(2*sqrt(2))")
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c), "Equal is structural")
}

// ============================================================
// JSON
// ============================================================

func TestJSON_RoundTrip(t *testing.T) {
	for _, src := range []string{
		"sqrt(2)/4",
		"-(C0 + 1/3)*cbrt(8)",
		"0.5 - C1",
	} {
		e, err := exactpoly.ParseExpr(src)
		require.NoError(t, err)
		js, err := exactpoly.ToJSON(e)
		require.NoError(t, err)
		back, err := exactpoly.FromJSONString(js)
		require.NoError(t, err)
		assert.True(t, e.Equal(back), "%s -> %s", src, js)
	}
}

func TestJSON_Errors(t *testing.T) {
	_, err := exactpoly.FromJSON(nil)
	assert.Error(t, err)
	_, err = exactpoly.FromJSON(map[string]interface{}{"type": "pow"})
	assert.ErrorContains(t, err, "unknown expression type")
	_, err = exactpoly.FromJSON(map[string]interface{}{"type": "num", "value": "abc"})
	assert.ErrorContains(t, err, "invalid value")
	_, err = exactpoly.FromJSON(map[string]interface{}{"type": "add", "left": map[string]interface{}{"type": "num", "value": "1"}})
	assert.ErrorContains(t, err, "right")
}
