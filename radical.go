package exactpoly

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"
)

// ============================================================
// Radical — sum of rational multiples of square roots
// ============================================================

// Radical is the canonical normal form of an expression over square roots
// of integers: a finite sum of q_i*sqrt(r_i) with rational q_i != 0 and
// distinct squarefree r_i >= 1. Two radicals are equal as real numbers iff
// they are equal as maps, because square roots of distinct squarefree
// integers are linearly independent over the rationals.
type Radical struct {
	terms map[int64]*big.Rat
}

func RadicalFromRat(r *big.Rat) Radical {
	if r.Sign() == 0 {
		return Radical{}
	}
	return Radical{terms: map[int64]*big.Rat{1: new(big.Rat).Set(r)}}
}

func RadicalFromInt(n int64) Radical { return RadicalFromRat(new(big.Rat).SetInt64(n)) }

// SqrtRadicand returns sqrt(r) for a squarefree r >= 1.
func SqrtRadicand(r int64) Radical {
	return Radical{terms: map[int64]*big.Rat{r: big.NewRat(1, 1)}}
}

func (a Radical) IsZero() bool     { return len(a.terms) == 0 }
func (a Radical) IsRational() bool { _, ok := a.terms[1]; return len(a.terms) == 0 || (ok && len(a.terms) == 1) }

// Rat returns the rational part (the coefficient of sqrt(1)).
func (a Radical) Rat() *big.Rat {
	if c, ok := a.terms[1]; ok {
		return new(big.Rat).Set(c)
	}
	return new(big.Rat)
}

// Coeff returns the coefficient of sqrt(r).
func (a Radical) Coeff(r int64) *big.Rat {
	if c, ok := a.terms[r]; ok {
		return new(big.Rat).Set(c)
	}
	return new(big.Rat)
}

// Radicands returns the radicands with nonzero coefficient, ascending.
func (a Radical) Radicands() []int64 {
	out := make([]int64, 0, len(a.terms))
	for r := range a.terms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Irrationals returns the radicands other than 1.
func (a Radical) Irrationals() []int64 {
	var out []int64
	for _, r := range a.Radicands() {
		if r != 1 {
			out = append(out, r)
		}
	}
	return out
}

func (a Radical) Equal(b Radical) bool {
	if len(a.terms) != len(b.terms) {
		return false
	}
	for r, c := range a.terms {
		d, ok := b.terms[r]
		if !ok || c.Cmp(d) != 0 {
			return false
		}
	}
	return true
}

func (a Radical) add(r int64, c *big.Rat) {
	if c.Sign() == 0 {
		return
	}
	if cur, ok := a.terms[r]; ok {
		cur.Add(cur, c)
		if cur.Sign() == 0 {
			delete(a.terms, r)
		}
		return
	}
	a.terms[r] = new(big.Rat).Set(c)
}

func (a Radical) clone() Radical {
	out := Radical{terms: make(map[int64]*big.Rat, len(a.terms))}
	for r, c := range a.terms {
		out.terms[r] = new(big.Rat).Set(c)
	}
	return out
}

func (a Radical) Add(b Radical) Radical {
	out := a.clone()
	for r, c := range b.terms {
		out.add(r, c)
	}
	return out
}

func (a Radical) Neg() Radical {
	out := Radical{terms: make(map[int64]*big.Rat, len(a.terms))}
	for r, c := range a.terms {
		out.terms[r] = new(big.Rat).Neg(c)
	}
	return out
}

func (a Radical) Sub(b Radical) Radical { return a.Add(b.Neg()) }

func (a Radical) Scale(q *big.Rat) Radical {
	if q.Sign() == 0 {
		return Radical{}
	}
	out := Radical{terms: make(map[int64]*big.Rat, len(a.terms))}
	for r, c := range a.terms {
		out.terms[r] = new(big.Rat).Mul(c, q)
	}
	return out
}

func (a Radical) Mul(b Radical) (Radical, error) {
	out := Radical{terms: map[int64]*big.Rat{}}
	for ra, ca := range a.terms {
		for rb, cb := range b.terms {
			g, r, err := mulRadicands(ra, rb)
			if err != nil {
				return Radical{}, err
			}
			c := new(big.Rat).Mul(ca, cb)
			c.Mul(c, new(big.Rat).SetInt64(g))
			out.add(r, c)
		}
	}
	return out, nil
}

// Inv rationalizes 1/a by multiplying through by conjugates, one prime at
// a time, until the denominator is rational.
func (a Radical) Inv() (Radical, error) {
	if a.IsZero() {
		return Radical{}, ErrDivisionByZero
	}
	if a.IsRational() {
		return RadicalFromRat(new(big.Rat).Inv(a.Rat())), nil
	}
	p := a.smallestPrime()
	conj := Radical{terms: make(map[int64]*big.Rat, len(a.terms))}
	for r, c := range a.terms {
		if r%p == 0 {
			conj.terms[r] = new(big.Rat).Neg(c)
		} else {
			conj.terms[r] = new(big.Rat).Set(c)
		}
	}
	norm, err := a.Mul(conj)
	if err != nil {
		return Radical{}, err
	}
	inv, err := norm.Inv()
	if err != nil {
		return Radical{}, err
	}
	return conj.Mul(inv)
}

func (a Radical) smallestPrime() int64 {
	best := int64(0)
	for r := range a.terms {
		if r == 1 {
			continue
		}
		if p := primeFactors(r)[0]; best == 0 || p < best {
			best = p
		}
	}
	return best
}

func (a Radical) Quo(b Radical) (Radical, error) {
	inv, err := b.Inv()
	if err != nil {
		return Radical{}, err
	}
	return a.Mul(inv)
}

// ============================================================
// Roots
// ============================================================

// Sqrt returns the nonnegative square root of a when it is expressible as
// a Radical: rationals always are, and a + b*sqrt(m) is when a^2 - b^2*m
// is a rational square.
func (a Radical) Sqrt() (Radical, error) {
	if a.IsZero() {
		return Radical{}, nil
	}
	if a.IsRational() {
		return sqrtRat(a.Rat())
	}
	irr := a.Irrationals()
	if len(irr) != 1 {
		return Radical{}, fmt.Errorf("%w: sqrt(%s)", ErrUnsupportedRadical, a)
	}
	m := irr[0]
	ra, b := a.Rat(), a.Coeff(m)
	// a^2 - b^2*m
	disc := new(big.Rat).Mul(ra, ra)
	disc.Sub(disc, new(big.Rat).Mul(new(big.Rat).Mul(b, b), new(big.Rat).SetInt64(m)))
	c, ok := ratSqrt(disc)
	if !ok || ra.Sign() <= 0 {
		return Radical{}, fmt.Errorf("%w: sqrt(%s) does not denest", ErrUnsupportedRadical, a)
	}
	half := big.NewRat(1, 2)
	x, err := sqrtRat(new(big.Rat).Mul(new(big.Rat).Add(ra, c), half))
	if err != nil {
		return Radical{}, err
	}
	y, err := sqrtRat(new(big.Rat).Mul(new(big.Rat).Sub(ra, c), half))
	if err != nil {
		return Radical{}, err
	}
	if b.Sign() < 0 {
		y = y.Neg()
	}
	root := x.Add(y)
	sq, err := root.Mul(root)
	if err != nil {
		return Radical{}, err
	}
	if !sq.Equal(a) {
		return Radical{}, fmt.Errorf("%w: sqrt(%s) does not denest", ErrUnsupportedRadical, a)
	}
	return root, nil
}

// sqrtRat returns sqrt(q) = (s/d)*sqrt(f) where q*d^2 = s^2*f.
func sqrtRat(q *big.Rat) (Radical, error) {
	switch q.Sign() {
	case 0:
		return Radical{}, nil
	case -1:
		return Radical{}, fmt.Errorf("%w: sqrt of negative %s", ErrUnsupportedRadical, q.RatString())
	}
	n := new(big.Int).Mul(q.Num(), q.Denom())
	s, f, err := splitSquare(n)
	if err != nil {
		return Radical{}, err
	}
	coeff := new(big.Rat).SetFrac(s, q.Denom())
	return Radical{terms: map[int64]*big.Rat{f: coeff}}, nil
}

// ratSqrt returns the rational square root of q when q is a square.
func ratSqrt(q *big.Rat) (*big.Rat, bool) {
	if q.Sign() < 0 {
		return nil, false
	}
	n, d := new(big.Int).Sqrt(q.Num()), new(big.Int).Sqrt(q.Denom())
	if new(big.Int).Mul(n, n).Cmp(q.Num()) != 0 || new(big.Int).Mul(d, d).Cmp(q.Denom()) != 0 {
		return nil, false
	}
	return new(big.Rat).SetFrac(n, d), true
}

// Cbrt returns the real cube root of a rational perfect cube.
func (a Radical) Cbrt() (Radical, error) {
	if !a.IsRational() {
		return Radical{}, fmt.Errorf("%w: cbrt(%s)", ErrUnsupportedRadical, a)
	}
	q := a.Rat()
	neg := q.Sign() < 0
	if neg {
		q.Neg(q)
	}
	n, ok1 := icbrt(q.Num())
	d, ok2 := icbrt(q.Denom())
	if !ok1 || !ok2 {
		return Radical{}, fmt.Errorf("%w: cbrt(%s) is irrational", ErrUnsupportedRadical, a)
	}
	root := new(big.Rat).SetFrac(n, d)
	if neg {
		root.Neg(root)
	}
	return RadicalFromRat(root), nil
}

// ============================================================
// Simplify — expression to normal form
// ============================================================

// Simplify reduces an expression to its radical normal form: like radical
// terms collected, denominators rationalized. Symbols must already be
// substituted away.
func Simplify(e Expr) (Radical, error) {
	switch v := e.(type) {
	case *Num:
		return RadicalFromRat(v.val), nil
	case *Float:
		r, ok := v.Rat()
		if !ok {
			return Radical{}, fmt.Errorf("invalid decimal literal %q", v.lit)
		}
		return RadicalFromRat(r), nil
	case *Sym:
		return Radical{}, fmt.Errorf("%w: %s", ErrUnresolvedSymbol, v.name)
	case *Neg:
		x, err := Simplify(v.x)
		if err != nil {
			return Radical{}, err
		}
		return x.Neg(), nil
	case *Add, *Sub, *Mul, *Div:
		return simplifyBinary(e)
	case *Sqrt:
		x, err := Simplify(v.arg)
		if err != nil {
			return Radical{}, err
		}
		return x.Sqrt()
	case *Cbrt:
		x, err := Simplify(v.arg)
		if err != nil {
			return Radical{}, err
		}
		return x.Cbrt()
	}
	return Radical{}, fmt.Errorf("unknown expression %T", e)
}

func simplifyBinary(e Expr) (Radical, error) {
	var b binary
	switch v := e.(type) {
	case *Add:
		b = v.binary
	case *Sub:
		b = v.binary
	case *Mul:
		b = v.binary
	case *Div:
		b = v.binary
	}
	l, err := Simplify(b.l)
	if err != nil {
		return Radical{}, err
	}
	r, err := Simplify(b.r)
	if err != nil {
		return Radical{}, err
	}
	switch e.(type) {
	case *Add:
		return l.Add(r), nil
	case *Sub:
		return l.Sub(r), nil
	case *Mul:
		return l.Mul(r)
	}
	return l.Quo(r)
}

// ============================================================
// Rendering
// ============================================================

// Expr renders the radical back into an expression tree: a left-folded
// sum of q*sqrt(r) terms in ascending radicand order.
func (a Radical) Expr() Expr {
	var terms []Expr
	for _, r := range a.Radicands() {
		c := a.terms[r]
		if r == 1 {
			terms = append(terms, NumFromRat(c))
			continue
		}
		root := SqrtOf(N(r))
		if c.Cmp(big.NewRat(1, 1)) == 0 {
			terms = append(terms, root)
		} else {
			terms = append(terms, MulOf(NumFromRat(c), root))
		}
	}
	return SumOf(terms...)
}

func (a Radical) String() string {
	if a.IsZero() {
		return "0"
	}
	var sb strings.Builder
	for i, r := range a.Radicands() {
		c := a.terms[r]
		abs := new(big.Rat).Abs(c)
		switch {
		case i == 0 && c.Sign() < 0:
			sb.WriteString("-")
		case i > 0 && c.Sign() < 0:
			sb.WriteString(" - ")
		case i > 0:
			sb.WriteString(" + ")
		}
		one := abs.Cmp(big.NewRat(1, 1)) == 0
		if r == 1 || !one {
			sb.WriteString(ratString(abs))
		}
		if r != 1 {
			if !one {
				sb.WriteString("*")
			}
			fmt.Fprintf(&sb, "sqrt(%d)", r)
		}
	}
	return sb.String()
}

// Float64 evaluates the radical in floating point.
func (a Radical) Float64() float64 {
	sum := 0.0
	for r, c := range a.terms {
		f, _ := c.Float64()
		sum += f * math.Sqrt(float64(r))
	}
	return sum
}

func ratString(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	return r.RatString()
}
