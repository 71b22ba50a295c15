package exactpoly

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// DefaultMaxDegree caps field construction unless configured otherwise.
const DefaultMaxDegree = 16

// maxIsolationBits bounds the precision used to isolate the primitive
// element among the real roots of its minimal polynomial.
const maxIsolationBits = 512

// maxWeightAttempts bounds the search for a primitive element
// sum(w_i*sqrt(g_i)) with squarefree minimal polynomial.
const maxWeightAttempts = 8

// ============================================================
// Vector — coordinates over the power basis 1, θ, θ², …
// ============================================================

// Vector holds rational coordinates of a field element over the power
// basis of the primitive element θ; Vector[i] multiplies θ^i.
type Vector []*big.Rat

func (v Vector) String() string {
	parts := make([]string, len(v))
	for i, c := range v {
		parts[i] = ratString(c)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (v Vector) clone() Vector {
	out := make(Vector, len(v))
	for i, c := range v {
		out[i] = new(big.Rat).Set(c)
	}
	return out
}

// ============================================================
// NumberField — Q(θ) with θ = Σ w_i·sqrt(g_i)
// ============================================================

// NumberField is Q(θ) for a primitive element θ of a multiquadratic
// extension. The minimal polynomial, θ and its isolating interval never
// change after construction; Embed only records derived generator vectors.
type NumberField struct {
	generators []int64
	weights    []int64
	minPoly    Poly
	sturm      []Poly
	lower      *big.Rat
	upper      *big.Rat
	approx     *big.Rat

	// basis lists the squarefree radicands r with sqrt(r) spanning the
	// field over Q; toPower maps radical coordinates to power coordinates.
	basis      []int64
	basisIndex map[int64]int
	toPower    [][]*big.Rat

	vectors map[int64]Vector
}

// BuildField constructs the minimal field containing the square roots of
// the given radicands. Dependent radicands are reduced to a GF(2) basis
// first, so the degree is 2^rank.
func BuildField(radicands []int64, maxDegree int) (*NumberField, error) {
	if maxDegree <= 0 {
		maxDegree = DefaultMaxDegree
	}
	gens := GeneratorBasis(radicands)
	if len(gens) >= 31 || 1<<len(gens) > maxDegree {
		deg := 0
		if len(gens) < 31 {
			deg = 1 << len(gens)
		}
		return nil, &DegreeError{Degree: deg, Max: maxDegree}
	}

	basis, err := multiquadraticBasis(gens)
	if err != nil {
		return nil, err
	}
	f := &NumberField{
		generators: gens,
		basis:      basis,
		basisIndex: make(map[int64]int, len(basis)),
		vectors:    map[int64]Vector{},
	}
	for i, r := range basis {
		f.basisIndex[r] = i
	}

	var lastErr error
	for attempt := 0; attempt < maxWeightAttempts; attempt++ {
		weights := make([]int64, len(gens))
		for i := range weights {
			weights[i] = int64(1 + attempt*(i+1))
		}
		if lastErr = f.setPrimitive(weights); lastErr == nil {
			break
		}
		if !errors.Is(lastErr, errNotPrimitive) {
			return nil, lastErr
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}

	if err := f.isolate(); err != nil {
		return nil, err
	}
	if err := f.seed(); err != nil {
		return nil, err
	}
	for _, g := range gens {
		f.vectors[g] = f.basisVector(g)
	}
	return f, nil
}

var errNotPrimitive = errors.New("candidate is not a primitive element")

// multiquadraticBasis lists the squarefree parts of all subset products of
// the generators, in subset-mask order.
func multiquadraticBasis(gens []int64) ([]int64, error) {
	basis := make([]int64, 1<<len(gens))
	basis[0] = 1
	for i, g := range gens {
		step := 1 << i
		for m := 0; m < step; m++ {
			_, r, err := mulRadicands(basis[m], g)
			if err != nil {
				return nil, err
			}
			basis[m+step] = r
		}
	}
	return basis, nil
}

// setPrimitive installs θ = Σ w_i·sqrt(g_i): its minimal polynomial is the
// product of (x - Σ ±w_i·sqrt(g_i)) over all sign choices, and the change
// of basis from radical to power coordinates.
func (f *NumberField) setPrimitive(weights []int64) error {
	theta := Radical{}
	for i, g := range f.generators {
		term := SqrtRadicand(g).Scale(new(big.Rat).SetInt64(weights[i]))
		theta = theta.Add(term)
	}

	minPoly, err := conjugateProduct(f.generators, weights)
	if err != nil {
		return err
	}
	if minPoly.GCD(minPoly.Deriv()).Degree() > 0 {
		return errNotPrimitive
	}

	d := len(f.basis)
	m := make([][]*big.Rat, d)
	for i := range m {
		m[i] = make([]*big.Rat, d)
	}
	pow := RadicalFromInt(1)
	for j := 0; j < d; j++ {
		for i, r := range f.basis {
			m[i][j] = pow.Coeff(r)
		}
		if pow, err = pow.Mul(theta); err != nil {
			return err
		}
	}
	inv, ok := invertMatrix(m)
	if !ok {
		return errNotPrimitive
	}

	f.weights = weights
	f.minPoly = minPoly
	f.sturm = minPoly.Sturm()
	f.toPower = inv
	return nil
}

// conjugateProduct multiplies out Π (x - Σ ε_i·w_i·sqrt(g_i)) with radical
// coefficients; the result has rational coefficients.
func conjugateProduct(gens, weights []int64) (Poly, error) {
	if len(gens) == 0 {
		return PolyFromInts(0, 1), nil
	}
	prod := []Radical{RadicalFromInt(1)}
	for mask := 0; mask < 1<<len(gens); mask++ {
		root := Radical{}
		for i, g := range gens {
			w := weights[i]
			if mask&(1<<i) != 0 {
				w = -w
			}
			root = root.Add(SqrtRadicand(g).Scale(new(big.Rat).SetInt64(w)))
		}
		// prod *= (x - root)
		next := make([]Radical, len(prod)+1)
		for k := range next {
			next[k] = Radical{}
		}
		for k, c := range prod {
			next[k+1] = next[k+1].Add(c)
			t, err := c.Mul(root)
			if err != nil {
				return nil, err
			}
			next[k] = next[k].Sub(t)
		}
		prod = next
	}
	out := make(Poly, len(prod))
	for k, c := range prod {
		if !c.IsRational() {
			return nil, fmt.Errorf("conjugate product has irrational coefficient %s", c)
		}
		out[k] = c.Rat()
	}
	return out.trim(), nil
}

// invertMatrix inverts a square rational matrix by Gauss-Jordan
// elimination.
func invertMatrix(m [][]*big.Rat) ([][]*big.Rat, bool) {
	n := len(m)
	a := make([][]*big.Rat, n)
	for i := range m {
		a[i] = make([]*big.Rat, 2*n)
		for j := 0; j < n; j++ {
			a[i][j] = new(big.Rat).Set(m[i][j])
			a[i][n+j] = new(big.Rat)
		}
		a[i][n+i].SetInt64(1)
	}
	for col := 0; col < n; col++ {
		pivot := -1
		for r := col; r < n; r++ {
			if a[r][col].Sign() != 0 {
				pivot = r
				break
			}
		}
		if pivot < 0 {
			return nil, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		inv := new(big.Rat).Inv(a[col][col])
		for j := range a[col] {
			a[col][j].Mul(a[col][j], inv)
		}
		for r := 0; r < n; r++ {
			if r == col || a[r][col].Sign() == 0 {
				continue
			}
			factor := new(big.Rat).Set(a[r][col])
			for j := range a[r] {
				a[r][j].Sub(a[r][j], new(big.Rat).Mul(factor, a[col][j]))
			}
		}
	}
	out := make([][]*big.Rat, n)
	for i := range a {
		out[i] = a[i][n:]
	}
	return out, true
}

// isolate finds rational bounds on θ narrow enough that θ is the only root
// of the minimal polynomial inside them.
func (f *NumberField) isolate() error {
	if len(f.generators) == 0 {
		f.lower, f.upper = big.NewRat(-1, 2), big.NewRat(1, 2)
		return nil
	}
	var lo, hi *big.Rat
	roots := 0
	for k := uint(2); k <= maxIsolationBits; k += 2 {
		lo, hi = new(big.Rat), new(big.Rat)
		for i, g := range f.generators {
			w := new(big.Rat).SetInt64(f.weights[i])
			l, h := sqrtBounds(g, k)
			lo.Add(lo, l.Mul(l, w))
			hi.Add(hi, h.Mul(h, w))
		}
		roots = f.minPoly.countRoots(f.sturm, lo, hi)
		if roots == 1 {
			f.lower, f.upper = lo, hi
			return nil
		}
		if roots == 0 {
			break
		}
	}
	return &AmbiguousRootError{Poly: f.minPoly.String(), Lower: lo, Upper: hi, Roots: roots}
}

// seed picks the approximation handed to consumers that re-isolate θ from
// a float x by testing the dyadic cells [⌊x·2^k⌋/2^k, (⌊x·2^k⌋+1)/2^k] for
// k = 0, 1, … until one holds a single root. It walks the cells that hold θ
// itself and returns the midpoint of the first isolating one, so every
// coarser cell around the seed is one of θ's cells too.
func (f *NumberField) seed() error {
	if len(f.generators) == 0 {
		f.approx = new(big.Rat)
		return nil
	}
	lo, hi := f.Interval()
	var cell, scale *big.Int
	for k := uint(0); k <= maxIsolationBits; k++ {
		scale = new(big.Int).Lsh(big.NewInt(1), k)
		for {
			cell = floorScaled(lo, scale)
			if cell.Cmp(floorScaled(hi, scale)) == 0 {
				break
			}
			lo, hi = f.refine(lo, hi)
		}
		lower := new(big.Rat).SetFrac(cell, scale)
		upper := new(big.Rat).SetFrac(new(big.Int).Add(cell, big.NewInt(1)), scale)
		switch f.minPoly.countRoots(f.sturm, lower, upper) {
		case 0:
			return &AmbiguousRootError{Poly: f.minPoly.String(), Lower: lower, Upper: upper}
		case 1:
			num := new(big.Int).Lsh(cell, 1)
			num.Add(num, big.NewInt(1))
			// The seed travels as a float64 and must stay exact.
			if num.BitLen() > 53 {
				return &AmbiguousRootError{Poly: f.minPoly.String(), Lower: lower, Upper: upper, Roots: 1}
			}
			f.approx = new(big.Rat).SetFrac(num, new(big.Int).Lsh(scale, 1))
			return nil
		}
	}
	return &AmbiguousRootError{Poly: f.minPoly.String(), Lower: lo, Upper: hi}
}

// floorScaled returns ⌊r·scale⌋ for a positive scale.
func floorScaled(r *big.Rat, scale *big.Int) *big.Int {
	n := new(big.Int).Mul(r.Num(), scale)
	return n.Div(n, r.Denom())
}

// basisVector returns the power coordinates of sqrt(r) for a radicand r in
// the multiquadratic basis.
func (f *NumberField) basisVector(r int64) Vector {
	col := f.basisIndex[r]
	out := make(Vector, len(f.basis))
	for i := range out {
		out[i] = new(big.Rat).Set(f.toPower[i][col])
	}
	return out
}

// ============================================================
// Accessors
// ============================================================

func (f *NumberField) Degree() int { return len(f.basis) }

// Generators returns the squarefree radicands whose square roots θ was
// built from.
func (f *NumberField) Generators() []int64 { return append([]int64(nil), f.generators...) }

// Weights returns w with θ = Σ w_i·sqrt(g_i).
func (f *NumberField) Weights() []int64 { return append([]int64(nil), f.weights...) }

// MinimalPolynomial returns the monic minimal polynomial of θ.
func (f *NumberField) MinimalPolynomial() Poly { return NewPoly(f.minPoly...) }

// Interval returns the isolating interval of θ.
func (f *NumberField) Interval() (lower, upper *big.Rat) {
	return new(big.Rat).Set(f.lower), new(big.Rat).Set(f.upper)
}

// Approx returns a dyadic approximation of θ, exact as a float64, from
// which re-isolating θ by halving dyadic cells never loses the root.
func (f *NumberField) Approx() *big.Rat { return new(big.Rat).Set(f.approx) }

// Primitive renders θ, e.g. "sqrt(2) + sqrt(3)".
func (f *NumberField) Primitive() string {
	if len(f.generators) == 0 {
		return "0"
	}
	theta := Radical{}
	for i, g := range f.generators {
		theta = theta.Add(SqrtRadicand(g).Scale(new(big.Rat).SetInt64(f.weights[i])))
	}
	return theta.String()
}

func (f *NumberField) String() string {
	if len(f.generators) == 0 {
		return "Q"
	}
	parts := make([]string, len(f.generators))
	for i, g := range f.generators {
		parts[i] = fmt.Sprintf("sqrt(%d)", g)
	}
	return "Q(" + strings.Join(parts, ", ") + ")"
}

// GeneratorVector returns the recorded coordinates of sqrt(r).
func (f *NumberField) GeneratorVector(r int64) (Vector, bool) {
	v, ok := f.vectors[r]
	if !ok {
		return nil, false
	}
	return v.clone(), true
}

// GeneratorVectors returns all recorded generator coordinates, keyed by
// radicand.
func (f *NumberField) GeneratorVectors() map[int64]Vector {
	out := make(map[int64]Vector, len(f.vectors))
	for r, v := range f.vectors {
		out[r] = v.clone()
	}
	return out
}

// ============================================================
// Embedding
// ============================================================

// Embed tests whether every radicand's square root lies in the field and
// records its coordinates. It is all-or-nothing: on false nothing is
// recorded.
func (f *NumberField) Embed(radicands []int64) bool {
	staged := map[int64]Vector{}
	for _, r := range radicands {
		if r <= 1 {
			continue
		}
		if _, ok := f.vectors[r]; ok {
			continue
		}
		if _, ok := f.basisIndex[r]; !ok {
			return false
		}
		staged[r] = f.basisVector(r)
	}
	for r, v := range staged {
		f.vectors[r] = v
	}
	return true
}

// Contains reports whether sqrt(r) lies in the field, without recording it.
func (f *NumberField) Contains(r int64) bool {
	if r <= 1 {
		return true
	}
	_, ok := f.basisIndex[r]
	return ok
}

// ============================================================
// Translate
// ============================================================

// Translate maps an expression into power coordinates. Square roots must
// reduce to radicands inside the field.
func (f *NumberField) Translate(e Expr) (Vector, error) {
	switch v := e.(type) {
	case *Num:
		return f.FromRat(v.val), nil
	case *Float:
		r, ok := v.Rat()
		if !ok {
			return nil, fmt.Errorf("invalid decimal literal %q", v.lit)
		}
		return f.FromRat(r), nil
	case *Sym:
		return nil, fmt.Errorf("%w: %s", ErrUnresolvedSymbol, v.name)
	case *Neg:
		x, err := f.Translate(v.x)
		if err != nil {
			return nil, err
		}
		return f.Neg(x), nil
	case *Add:
		return f.translateBinary(v.binary, func(a, b Vector) (Vector, error) { return f.Add(a, b), nil })
	case *Sub:
		return f.translateBinary(v.binary, func(a, b Vector) (Vector, error) { return f.Sub(a, b), nil })
	case *Mul:
		return f.translateBinary(v.binary, func(a, b Vector) (Vector, error) { return f.Mul(a, b), nil })
	case *Div:
		return f.translateBinary(v.binary, f.Quo)
	case *Sqrt, *Cbrt:
		r, err := Simplify(e)
		if err != nil {
			return nil, err
		}
		out, err := f.TranslateRadical(r)
		if err != nil {
			var fm *FieldMembershipError
			if errors.As(err, &fm) {
				fm.Expr = e.String()
			}
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown expression %T", e)
}

func (f *NumberField) translateBinary(b binary, op func(a, b Vector) (Vector, error)) (Vector, error) {
	l, err := f.Translate(b.l)
	if err != nil {
		return nil, err
	}
	r, err := f.Translate(b.r)
	if err != nil {
		return nil, err
	}
	return op(l, r)
}

// TranslateRadical maps a radical normal form into power coordinates.
func (f *NumberField) TranslateRadical(a Radical) (Vector, error) {
	out := f.Zero()
	for _, r := range a.Radicands() {
		c := a.terms[r]
		if r == 1 {
			out[0].Add(out[0], c)
			continue
		}
		v, ok := f.vectors[r]
		if !ok {
			if _, inBasis := f.basisIndex[r]; !inBasis {
				return nil, &FieldMembershipError{Field: f.String(), Radicand: r}
			}
			v = f.basisVector(r)
		}
		for i := range out {
			out[i].Add(out[i], new(big.Rat).Mul(c, v[i]))
		}
	}
	return out, nil
}

// ============================================================
// Arithmetic
// ============================================================

func (f *NumberField) Zero() Vector {
	out := make(Vector, f.Degree())
	for i := range out {
		out[i] = new(big.Rat)
	}
	return out
}

func (f *NumberField) One() Vector { return f.FromRat(big.NewRat(1, 1)) }

// FromRat embeds a rational as (r, 0, …, 0).
func (f *NumberField) FromRat(r *big.Rat) Vector {
	out := f.Zero()
	out[0].Set(r)
	return out
}

func (f *NumberField) fromPoly(p Poly) Vector {
	out := f.Zero()
	for i, c := range p {
		out[i].Set(c)
	}
	return out
}

func (f *NumberField) Add(a, b Vector) Vector {
	out := f.Zero()
	for i := range out {
		out[i].Add(a[i], b[i])
	}
	return out
}

func (f *NumberField) Neg(a Vector) Vector {
	out := f.Zero()
	for i := range out {
		out[i].Neg(a[i])
	}
	return out
}

func (f *NumberField) Sub(a, b Vector) Vector { return f.Add(a, f.Neg(b)) }

// Mul multiplies as polynomials in θ and reduces modulo the minimal
// polynomial.
func (f *NumberField) Mul(a, b Vector) Vector {
	prod := NewPoly(a...).Mul(NewPoly(b...))
	r, _ := prod.Rem(f.minPoly) // the minimal polynomial is never zero
	return f.fromPoly(r)
}

// Inv returns 1/a via the extended Euclidean algorithm against the
// minimal polynomial.
func (f *NumberField) Inv(a Vector) (Vector, error) {
	b := NewPoly(a...)
	if b.IsZero() {
		return nil, ErrDivisionByZero
	}
	r0, r1 := f.minPoly, b
	t0, t1 := Poly{}, PolyFromInts(1)
	for !r1.IsZero() {
		q, r2, err := r0.DivMod(r1)
		if err != nil {
			return nil, err
		}
		r0, r1 = r1, r2
		t0, t1 = t1, t0.Sub(q.Mul(t1))
	}
	if r0.Degree() > 0 {
		return nil, fmt.Errorf("no inverse in %s: gcd %s", f, r0)
	}
	inv := t0.Scale(new(big.Rat).Inv(r0[0]))
	rem, err := inv.Rem(f.minPoly)
	if err != nil {
		return nil, err
	}
	return f.fromPoly(rem), nil
}

func (f *NumberField) Quo(a, b Vector) (Vector, error) {
	inv, err := f.Inv(b)
	if err != nil {
		return nil, err
	}
	return f.Mul(a, inv), nil
}

func (f *NumberField) Equal(a, b Vector) bool {
	for i := range a {
		if a[i].Cmp(b[i]) != 0 {
			return false
		}
	}
	return true
}

func (f *NumberField) IsZero(a Vector) bool {
	for _, c := range a {
		if c.Sign() != 0 {
			return false
		}
	}
	return true
}

// IsRational reports whether only the θ^0 coordinate is nonzero.
func (f *NumberField) IsRational(a Vector) bool {
	for _, c := range a[1:] {
		if c.Sign() != 0 {
			return false
		}
	}
	return true
}

// ============================================================
// Ordering and approximation
// ============================================================

// refine halves [lo, hi] keeping θ inside, by the sign of the minimal
// polynomial at the midpoint.
func (f *NumberField) refine(lo, hi *big.Rat) (*big.Rat, *big.Rat) {
	mid := new(big.Rat).Add(lo, hi)
	mid.Mul(mid, big.NewRat(1, 2))
	sl := f.minPoly.Eval(lo).Sign()
	sm := f.minPoly.Eval(mid).Sign()
	switch {
	case sl == 0:
		return lo, lo
	case sm == 0:
		return mid, mid
	case sm == sl:
		return mid, hi
	}
	return lo, mid
}

// Refine returns an isolating interval of width at most 2^-bits.
func (f *NumberField) Refine(bits uint) (lower, upper *big.Rat) {
	lo, hi := f.Interval()
	width := new(big.Rat).SetFrac(big.NewInt(1), new(big.Int).Lsh(big.NewInt(1), bits))
	for new(big.Rat).Sub(hi, lo).Cmp(width) > 0 {
		lo, hi = f.refine(lo, hi)
	}
	return lo, hi
}

// Sign returns the sign of the element a as a real number.
func (f *NumberField) Sign(a Vector) int {
	p := NewPoly(a...)
	if p.IsZero() {
		return 0
	}
	if p.Degree() == 0 {
		return p[0].Sign()
	}
	seq := p.Sturm()
	lo, hi := f.Interval()
	for p.countRoots(seq, lo, hi) > 0 {
		lo, hi = f.refine(lo, hi)
	}
	return p.Eval(lo).Sign()
}

// Cmp compares a and b as real numbers.
func (f *NumberField) Cmp(a, b Vector) int { return f.Sign(f.Sub(a, b)) }

// Float64 approximates a by evaluating it at a refined θ.
func (f *NumberField) Float64(a Vector) float64 {
	lo, hi := f.Refine(80)
	mid := new(big.Rat).Add(lo, hi)
	mid.Mul(mid, big.NewRat(1, 2))
	x := new(big.Float).SetPrec(160).SetRat(mid)
	v, _ := NewPoly(a...).EvalFloat(x).Float64()
	return v
}
