// Package exactpoly derives exact face-plane equations of polyhedra.
//
// Design goals:
//   - Exact arithmetic only (math/big.Rat), no floating-point accumulation
//   - Square roots handled as a radical normal form, then embedded into the
//     smallest algebraic number field that holds a whole polyhedron
//   - Deterministic output: same definitions in, same declarations out
//   - Batch, single-threaded pipeline with explicit error returns
package exactpoly

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"
)

// ============================================================
// Core Interface
// ============================================================

// Expr is an immutable arithmetic expression tree built from one
// definition line.
type Expr interface {
	String() string
	Equal(other Expr) bool
	Subs(name string, value Expr) Expr
	Approx() (float64, bool)
	exprType() string
	prec() int
	toJSON() map[string]interface{}
}

const (
	precAdd = iota + 1
	precMul
	precUnary
	precAtom
)

// ============================================================
// Num — exact rational literal
// ============================================================

type Num struct{ val *big.Rat }

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }
func F(p, q int64) *Num {
	if q == 0 {
		panic("exactpoly: denominator is zero")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}
func NumFromRat(r *big.Rat) *Num { return &Num{val: new(big.Rat).Set(r)} }

func (n *Num) Subs(string, Expr) Expr { return n }
func (n *Num) Equal(other Expr) bool  { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) exprType() string       { return "num" }
func (n *Num) Rat() *big.Rat          { return new(big.Rat).Set(n.val) }
func (n *Num) IsZero() bool           { return n.val.Sign() == 0 }
func (n *Num) Approx() (float64, bool) {
	f, _ := n.val.Float64()
	return f, true
}

func (n *Num) prec() int {
	switch {
	case n.val.Sign() < 0:
		return precUnary
	case !n.val.IsInt():
		return precMul
	}
	return precAtom
}

func (n *Num) String() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

func (n *Num) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "num", "value": n.String()}
}

// ============================================================
// Float — decimal literal, kept verbatim
// ============================================================

// Float is a decimal literal such as 0.353553390593273762200422181052.
// Constant candidates of this kind are approximations and get dropped;
// inside vertex coordinates the literal is read exactly.
type Float struct{ lit string }

func FloatLit(lit string) *Float { return &Float{lit: lit} }

func (f *Float) Subs(string, Expr) Expr { return f }
func (f *Float) Equal(other Expr) bool  { o, ok := other.(*Float); return ok && f.lit == o.lit }
func (f *Float) exprType() string       { return "float" }
func (f *Float) prec() int              { return precAtom }
func (f *Float) String() string         { return f.lit }
func (f *Float) Literal() string        { return f.lit }

// Rat returns the exact value of the decimal literal.
func (f *Float) Rat() (*big.Rat, bool) { return new(big.Rat).SetString(f.lit) }

func (f *Float) Approx() (float64, bool) {
	r, ok := f.Rat()
	if !ok {
		return 0, false
	}
	v, _ := r.Float64()
	return v, true
}

func (f *Float) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "float", "value": f.lit}
}

// ============================================================
// Sym — named constant or scale variable
// ============================================================

type Sym struct{ name string }

func S(name string) *Sym               { return &Sym{name: name} }
func (s *Sym) String() string          { return s.name }
func (s *Sym) Name() string            { return s.name }
func (s *Sym) Approx() (float64, bool) { return 0, false }
func (s *Sym) Equal(other Expr) bool   { o, ok := other.(*Sym); return ok && s.name == o.name }
func (s *Sym) exprType() string        { return "sym" }
func (s *Sym) prec() int               { return precAtom }
func (s *Sym) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "sym", "name": s.name}
}
func (s *Sym) Subs(name string, value Expr) Expr {
	if s.name == name {
		return value
	}
	return s
}

// ============================================================
// Neg — unary minus
// ============================================================

type Neg struct{ x Expr }

func NegOf(x Expr) Expr { return &Neg{x: x} }

func (n *Neg) Arg() Expr        { return n.x }
func (n *Neg) exprType() string { return "neg" }
func (n *Neg) prec() int        { return precUnary }
func (n *Neg) Subs(name string, value Expr) Expr {
	return &Neg{x: n.x.Subs(name, value)}
}
func (n *Neg) Equal(other Expr) bool {
	o, ok := other.(*Neg)
	return ok && n.x.Equal(o.x)
}
func (n *Neg) String() string { return "-" + wrap(n.x, n.x.prec() < precAtom) }
func (n *Neg) Approx() (float64, bool) {
	v, ok := n.x.Approx()
	return -v, ok
}
func (n *Neg) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "neg", "arg": n.x.toJSON()}
}

// ============================================================
// Binary operators — Add, Sub, Mul, Div
// ============================================================

type binary struct{ l, r Expr }

func (b binary) Left() Expr  { return b.l }
func (b binary) Right() Expr { return b.r }

type Add struct{ binary }
type Sub struct{ binary }
type Mul struct{ binary }
type Div struct{ binary }

func AddOf(l, r Expr) Expr { return &Add{binary{l, r}} }
func SubOf(l, r Expr) Expr { return &Sub{binary{l, r}} }
func MulOf(l, r Expr) Expr { return &Mul{binary{l, r}} }
func DivOf(l, r Expr) Expr { return &Div{binary{l, r}} }

// SumOf folds terms left to right with Add; an empty sum is 0.
func SumOf(terms ...Expr) Expr {
	if len(terms) == 0 {
		return N(0)
	}
	acc := terms[0]
	for _, t := range terms[1:] {
		acc = AddOf(acc, t)
	}
	return acc
}

func (a *Add) exprType() string { return "add" }
func (s *Sub) exprType() string { return "sub" }
func (m *Mul) exprType() string { return "mul" }
func (d *Div) exprType() string { return "div" }

func (a *Add) prec() int { return precAdd }
func (s *Sub) prec() int { return precAdd }
func (m *Mul) prec() int { return precMul }
func (d *Div) prec() int { return precMul }

func (a *Add) String() string { return infix(a.l, " + ", a.r, precAdd, false) }
func (s *Sub) String() string { return infix(s.l, " - ", s.r, precAdd, true) }
func (m *Mul) String() string { return infix(m.l, "*", m.r, precMul, false) }
func (d *Div) String() string { return infix(d.l, "/", d.r, precMul, true) }

func (a *Add) Subs(name string, value Expr) Expr {
	return AddOf(a.l.Subs(name, value), a.r.Subs(name, value))
}
func (s *Sub) Subs(name string, value Expr) Expr {
	return SubOf(s.l.Subs(name, value), s.r.Subs(name, value))
}
func (m *Mul) Subs(name string, value Expr) Expr {
	return MulOf(m.l.Subs(name, value), m.r.Subs(name, value))
}
func (d *Div) Subs(name string, value Expr) Expr {
	return DivOf(d.l.Subs(name, value), d.r.Subs(name, value))
}

func (a *Add) Equal(other Expr) bool { o, ok := other.(*Add); return ok && a.eq(o.binary) }
func (s *Sub) Equal(other Expr) bool { o, ok := other.(*Sub); return ok && s.eq(o.binary) }
func (m *Mul) Equal(other Expr) bool { o, ok := other.(*Mul); return ok && m.eq(o.binary) }
func (d *Div) Equal(other Expr) bool { o, ok := other.(*Div); return ok && d.eq(o.binary) }

func (b binary) eq(o binary) bool { return b.l.Equal(o.l) && b.r.Equal(o.r) }

func (a *Add) Approx() (float64, bool) { return a.approx(func(x, y float64) float64 { return x + y }) }
func (s *Sub) Approx() (float64, bool) { return s.approx(func(x, y float64) float64 { return x - y }) }
func (m *Mul) Approx() (float64, bool) { return m.approx(func(x, y float64) float64 { return x * y }) }
func (d *Div) Approx() (float64, bool) {
	v, ok := d.approx(func(x, y float64) float64 { return x / y })
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, ok
}

func (b binary) approx(op func(x, y float64) float64) (float64, bool) {
	x, ok1 := b.l.Approx()
	y, ok2 := b.r.Approx()
	if !ok1 || !ok2 {
		return 0, false
	}
	return op(x, y), true
}

func (a *Add) toJSON() map[string]interface{} { return a.json("add") }
func (s *Sub) toJSON() map[string]interface{} { return s.json("sub") }
func (m *Mul) toJSON() map[string]interface{} { return m.json("mul") }
func (d *Div) toJSON() map[string]interface{} { return d.json("div") }

func (b binary) json(typ string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "left": b.l.toJSON(), "right": b.r.toJSON()}
}

func infix(l Expr, op string, r Expr, p int, strictRight bool) string {
	rp := r.prec() < p || (strictRight && r.prec() == p)
	return wrap(l, l.prec() < p) + op + wrap(r, rp)
}

func wrap(e Expr, paren bool) string {
	if paren {
		return "(" + e.String() + ")"
	}
	return e.String()
}

// ============================================================
// Sqrt, Cbrt — prefix function calls
// ============================================================

type Sqrt struct{ arg Expr }
type Cbrt struct{ arg Expr }

func SqrtOf(arg Expr) Expr { return &Sqrt{arg: arg} }
func CbrtOf(arg Expr) Expr { return &Cbrt{arg: arg} }

func (s *Sqrt) Arg() Expr        { return s.arg }
func (c *Cbrt) Arg() Expr        { return c.arg }
func (s *Sqrt) exprType() string { return "sqrt" }
func (c *Cbrt) exprType() string { return "cbrt" }
func (s *Sqrt) prec() int        { return precAtom }
func (c *Cbrt) prec() int        { return precAtom }
func (s *Sqrt) String() string   { return "sqrt(" + s.arg.String() + ")" }
func (c *Cbrt) String() string   { return "cbrt(" + c.arg.String() + ")" }

func (s *Sqrt) Subs(name string, value Expr) Expr { return SqrtOf(s.arg.Subs(name, value)) }
func (c *Cbrt) Subs(name string, value Expr) Expr { return CbrtOf(c.arg.Subs(name, value)) }

func (s *Sqrt) Equal(other Expr) bool { o, ok := other.(*Sqrt); return ok && s.arg.Equal(o.arg) }
func (c *Cbrt) Equal(other Expr) bool { o, ok := other.(*Cbrt); return ok && c.arg.Equal(o.arg) }

func (s *Sqrt) Approx() (float64, bool) {
	v, ok := s.arg.Approx()
	if !ok || v < 0 {
		return 0, false
	}
	return math.Sqrt(v), true
}
func (c *Cbrt) Approx() (float64, bool) {
	v, ok := c.arg.Approx()
	return math.Cbrt(v), ok
}

func (s *Sqrt) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "sqrt", "arg": s.arg.toJSON()}
}
func (c *Cbrt) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "cbrt", "arg": c.arg.toJSON()}
}

// ============================================================
// Free Symbols
// ============================================================

func FreeSymbols(e Expr) map[string]struct{} {
	result := map[string]struct{}{}
	collectSymbols(e, result)
	return result
}

// SortedSymbols returns the free symbols of e in lexical order.
func SortedSymbols(e Expr) []string {
	set := FreeSymbols(e)
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func collectSymbols(e Expr, out map[string]struct{}) {
	switch v := e.(type) {
	case *Sym:
		out[v.name] = struct{}{}
	case *Neg:
		collectSymbols(v.x, out)
	case *Add:
		collectSymbols(v.l, out)
		collectSymbols(v.r, out)
	case *Sub:
		collectSymbols(v.l, out)
		collectSymbols(v.r, out)
	case *Mul:
		collectSymbols(v.l, out)
		collectSymbols(v.r, out)
	case *Div:
		collectSymbols(v.l, out)
		collectSymbols(v.r, out)
	case *Sqrt:
		collectSymbols(v.arg, out)
	case *Cbrt:
		collectSymbols(v.arg, out)
	}
}

// isDecimalLiteral reports whether e is a plain decimal literal, optionally
// negated, i.e. an approximate constant candidate.
func isDecimalLiteral(e Expr) bool {
	switch v := e.(type) {
	case *Float:
		return true
	case *Neg:
		return isDecimalLiteral(v.x)
	}
	return false
}

// ============================================================
// JSON Serialization
// ============================================================

func ToJSON(e Expr) (string, error) {
	b, err := json.Marshal(e.toJSON())
	return string(b), err
}

func FromJSON(data map[string]interface{}) (Expr, error) {
	if data == nil {
		return nil, fmt.Errorf("expression must be an object")
	}
	typ, ok := data["type"].(string)
	if !ok || typ == "" {
		return nil, fmt.Errorf("field 'type' must be a non-empty string")
	}

	sub := func(field string) (Expr, error) {
		m, ok := data[field].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an object", typ, field)
		}
		return FromJSON(m)
	}
	str := func(field string) (string, error) {
		s, ok := data[field].(string)
		if !ok || s == "" {
			return "", fmt.Errorf("%s: %q must be a non-empty string", typ, field)
		}
		return s, nil
	}

	switch typ {
	case "num":
		s, err := str("value")
		if err != nil {
			return nil, err
		}
		r, ok := new(big.Rat).SetString(s)
		if !ok {
			return nil, fmt.Errorf("num: invalid value %q", s)
		}
		return &Num{val: r}, nil
	case "float":
		s, err := str("value")
		if err != nil {
			return nil, err
		}
		return FloatLit(s), nil
	case "sym":
		s, err := str("name")
		if err != nil {
			return nil, err
		}
		return S(s), nil
	case "neg", "sqrt", "cbrt":
		arg, err := sub("arg")
		if err != nil {
			return nil, err
		}
		switch typ {
		case "neg":
			return NegOf(arg), nil
		case "sqrt":
			return SqrtOf(arg), nil
		}
		return CbrtOf(arg), nil
	case "add", "sub", "mul", "div":
		l, err := sub("left")
		if err != nil {
			return nil, err
		}
		r, err := sub("right")
		if err != nil {
			return nil, err
		}
		switch typ {
		case "add":
			return AddOf(l, r), nil
		case "sub":
			return SubOf(l, r), nil
		case "mul":
			return MulOf(l, r), nil
		}
		return DivOf(l, r), nil
	}
	return nil, fmt.Errorf("unknown expression type %q", typ)
}

// FromJSONString parses the output of ToJSON.
func FromJSONString(s string) (Expr, error) {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(s), &data); err != nil {
		return nil, err
	}
	return FromJSON(data)
}

// String renders e, or "<nil>" for a nil expression.
func String(e Expr) string {
	if e == nil {
		return "<nil>"
	}
	return strings.TrimSpace(e.String())
}
