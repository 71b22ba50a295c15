package exactpoly

import (
	"fmt"
	"math/big"
	"strings"
)

// ============================================================
// Poly — univariate polynomial over the rationals
// ============================================================

// Poly holds coefficients lowest degree first; Poly[i] multiplies x^i.
// Trailing zero coefficients are trimmed, so the zero polynomial is empty.
type Poly []*big.Rat

func NewPoly(coeffs ...*big.Rat) Poly {
	out := make(Poly, len(coeffs))
	for i, c := range coeffs {
		out[i] = new(big.Rat).Set(c)
	}
	return out.trim()
}

// PolyFromInts builds a polynomial from integer coefficients, lowest first.
func PolyFromInts(coeffs ...int64) Poly {
	out := make(Poly, len(coeffs))
	for i, c := range coeffs {
		out[i] = new(big.Rat).SetInt64(c)
	}
	return out.trim()
}

func (p Poly) trim() Poly {
	n := len(p)
	for n > 0 && p[n-1].Sign() == 0 {
		n--
	}
	return p[:n]
}

// Degree returns -1 for the zero polynomial.
func (p Poly) Degree() int  { return len(p) - 1 }
func (p Poly) IsZero() bool { return len(p) == 0 }

// Lead returns the leading coefficient; zero for the zero polynomial.
func (p Poly) Lead() *big.Rat {
	if p.IsZero() {
		return new(big.Rat)
	}
	return p[len(p)-1]
}

func (p Poly) coeff(i int) *big.Rat {
	if i < len(p) {
		return p[i]
	}
	return new(big.Rat)
}

func (p Poly) Equal(q Poly) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i].Cmp(q[i]) != 0 {
			return false
		}
	}
	return true
}

func (p Poly) Add(q Poly) Poly {
	n := max(len(p), len(q))
	out := make(Poly, n)
	for i := 0; i < n; i++ {
		out[i] = new(big.Rat).Add(p.coeff(i), q.coeff(i))
	}
	return out.trim()
}

func (p Poly) Neg() Poly {
	out := make(Poly, len(p))
	for i, c := range p {
		out[i] = new(big.Rat).Neg(c)
	}
	return out
}

func (p Poly) Sub(q Poly) Poly { return p.Add(q.Neg()) }

func (p Poly) Scale(c *big.Rat) Poly {
	out := make(Poly, len(p))
	for i, a := range p {
		out[i] = new(big.Rat).Mul(a, c)
	}
	return out.trim()
}

func (p Poly) Mul(q Poly) Poly {
	if p.IsZero() || q.IsZero() {
		return Poly{}
	}
	out := make(Poly, len(p)+len(q)-1)
	for i := range out {
		out[i] = new(big.Rat)
	}
	t := new(big.Rat)
	for i, a := range p {
		for j, b := range q {
			out[i+j].Add(out[i+j], t.Mul(a, b))
		}
	}
	return out.trim()
}

// DivMod returns q, r with p = q*d + r and deg r < deg d.
func (p Poly) DivMod(d Poly) (Poly, Poly, error) {
	if d.IsZero() {
		return nil, nil, ErrDivisionByZero
	}
	rem := NewPoly(p...)
	if rem.Degree() < d.Degree() {
		return Poly{}, rem, nil
	}
	quo := make(Poly, rem.Degree()-d.Degree()+1)
	for i := range quo {
		quo[i] = new(big.Rat)
	}
	lead := d.Lead()
	for k := len(rem) - 1; k >= d.Degree(); k-- {
		q := new(big.Rat).Quo(rem[k], lead)
		quo[k-d.Degree()] = q
		if q.Sign() == 0 {
			continue
		}
		for j, c := range d {
			idx := k - d.Degree() + j
			rem[idx].Sub(rem[idx], new(big.Rat).Mul(q, c))
		}
	}
	return quo.trim(), rem.trim(), nil
}

func (p Poly) Rem(d Poly) (Poly, error) {
	_, r, err := p.DivMod(d)
	return r, err
}

func (p Poly) Monic() Poly {
	if p.IsZero() {
		return p
	}
	return p.Scale(new(big.Rat).Inv(p.Lead()))
}

func (p Poly) Deriv() Poly {
	if len(p) <= 1 {
		return Poly{}
	}
	out := make(Poly, len(p)-1)
	for i := 1; i < len(p); i++ {
		out[i-1] = new(big.Rat).Mul(p[i], new(big.Rat).SetInt64(int64(i)))
	}
	return out.trim()
}

// GCD returns the monic greatest common divisor.
func (p Poly) GCD(q Poly) Poly {
	a, b := p, q
	for !b.IsZero() {
		_, r, _ := a.DivMod(b) // b is nonzero
		a, b = b, r
	}
	return a.Monic()
}

// Eval evaluates p at x with Horner's rule.
func (p Poly) Eval(x *big.Rat) *big.Rat {
	sum := new(big.Rat)
	for i := len(p) - 1; i >= 0; i-- {
		sum.Mul(sum, x)
		sum.Add(sum, p[i])
	}
	return sum
}

// EvalFloat evaluates p at x in big.Float arithmetic of x's precision.
func (p Poly) EvalFloat(x *big.Float) *big.Float {
	sum := new(big.Float).SetPrec(x.Prec())
	for i := len(p) - 1; i >= 0; i-- {
		sum.Mul(sum, x)
		sum.Add(sum, new(big.Float).SetPrec(x.Prec()).SetRat(p[i]))
	}
	return sum
}

// HighFirst returns copies of the coefficients highest degree first.
func (p Poly) HighFirst() []*big.Rat {
	out := make([]*big.Rat, len(p))
	for i, c := range p {
		out[len(p)-1-i] = new(big.Rat).Set(c)
	}
	return out
}

// ============================================================
// Sturm sequences
// ============================================================

// Sturm returns the Sturm sequence p, p', -rem(p, p'), ...
func (p Poly) Sturm() []Poly {
	seq := []Poly{p}
	if p.IsZero() {
		return seq
	}
	p0, p1 := p, p.Deriv()
	for !p1.IsZero() {
		seq = append(seq, p1)
		r, _ := p0.Rem(p1) // p1 is nonzero
		p0, p1 = p1, r.Neg()
	}
	return seq
}

func signChanges(seq []Poly, x *big.Rat) int {
	changes, prev := 0, 0
	for _, q := range seq {
		s := q.Eval(x).Sign()
		if s == 0 {
			continue
		}
		if prev != 0 && s != prev {
			changes++
		}
		prev = s
	}
	return changes
}

// CountRoots returns the number of distinct real roots in [lo, hi].
func (p Poly) CountRoots(lo, hi *big.Rat) int {
	return p.countRoots(p.Sturm(), lo, hi)
}

func (p Poly) countRoots(seq []Poly, lo, hi *big.Rat) int {
	n := signChanges(seq, lo) - signChanges(seq, hi)
	if p.Eval(lo).Sign() == 0 {
		n++
	}
	return n
}

// ============================================================
// Rendering
// ============================================================

func (p Poly) String() string {
	if p.IsZero() {
		return "0"
	}
	var sb strings.Builder
	first := true
	for i := len(p) - 1; i >= 0; i-- {
		c := p[i]
		if c.Sign() == 0 {
			continue
		}
		abs := new(big.Rat).Abs(c)
		switch {
		case first && c.Sign() < 0:
			sb.WriteString("-")
		case !first && c.Sign() < 0:
			sb.WriteString(" - ")
		case !first:
			sb.WriteString(" + ")
		}
		first = false
		if i == 0 || abs.Cmp(big.NewRat(1, 1)) != 0 {
			sb.WriteString(ratString(abs))
		}
		switch {
		case i == 1:
			sb.WriteString("x")
		case i > 1:
			fmt.Fprintf(&sb, "x^%d", i)
		}
	}
	return sb.String()
}
