package exactpoly

import (
	"fmt"
	"log/slog"
)

// BackendKind names a Backend implementation.
type BackendKind string

const (
	BackendField    BackendKind = "field"
	BackendSymbolic BackendKind = "symbolic"
)

// Number is one translated plane coordinate.
type Number interface {
	String() string
	Float64() float64
}

// Backend turns simplified expressions into output numbers. Bind is called
// once per shape with the irrational radicands its planes mention, before
// any Translate for that shape.
type Backend interface {
	Name() BackendKind
	Bind(radicands []int64) error
	Translate(e Expr) (Number, error)
	Equal(a, b Number) bool
}

// NewBackend returns the backend of the given kind.
func NewBackend(kind BackendKind, maxDegree int, logger *slog.Logger) (Backend, error) {
	switch kind {
	case BackendField, "":
		return NewFieldBackend(NewFieldRegistry(maxDegree, logger)), nil
	case BackendSymbolic:
		return SymbolicBackend{}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", kind)
}

// ============================================================
// FieldBackend — compile-time embedding into number fields
// ============================================================

// FieldNumber is an element of a registry field in power coordinates.
type FieldNumber struct {
	Field  int
	Coords Vector
	field  *NumberField
}

func (n FieldNumber) String() string {
	return fmt.Sprintf("K%d%s", n.Field, n.Coords)
}

func (n FieldNumber) Float64() float64 { return n.field.Float64(n.Coords) }

// Sign returns the exact sign of the number.
func (n FieldNumber) Sign() int { return n.field.Sign(n.Coords) }

// FieldBackend embeds every shape into a registry field: the first field
// that already holds the shape's radicands, or a new one.
type FieldBackend struct {
	registry *FieldRegistry
	index    int
	field    *NumberField
}

func NewFieldBackend(reg *FieldRegistry) *FieldBackend {
	return &FieldBackend{registry: reg, index: -1}
}

func (b *FieldBackend) Name() BackendKind          { return BackendField }
func (b *FieldBackend) Registry() *FieldRegistry   { return b.registry }
func (b *FieldBackend) Bound() (int, *NumberField) { return b.index, b.field }

func (b *FieldBackend) Bind(radicands []int64) error {
	i, f, err := b.registry.LookupOrInsert(radicands)
	if err != nil {
		return err
	}
	b.index, b.field = i, f
	return nil
}

func (b *FieldBackend) Translate(e Expr) (Number, error) {
	if b.field == nil {
		return nil, fmt.Errorf("field backend: Translate before Bind")
	}
	v, err := b.field.Translate(e)
	if err != nil {
		return nil, err
	}
	return FieldNumber{Field: b.index, Coords: v, field: b.field}, nil
}

// Equal compares two numbers of the same field coordinate-wise.
func (b *FieldBackend) Equal(x, y Number) bool {
	a, ok1 := x.(FieldNumber)
	c, ok2 := y.(FieldNumber)
	if !ok1 || !ok2 || a.Field != c.Field {
		return false
	}
	return a.field.Equal(a.Coords, c.Coords)
}

// ============================================================
// SymbolicBackend — deferred radical form
// ============================================================

// SymbolicNumber keeps a coordinate in radical normal form for run-time
// evaluation downstream.
type SymbolicNumber struct {
	Value Radical
}

func (n SymbolicNumber) String() string   { return n.Value.String() }
func (n SymbolicNumber) Float64() float64 { return n.Value.Float64() }

// SymbolicBackend emits every coordinate as a radical expression.
type SymbolicBackend struct{}

func (SymbolicBackend) Name() BackendKind  { return BackendSymbolic }
func (SymbolicBackend) Bind([]int64) error { return nil }

func (SymbolicBackend) Translate(e Expr) (Number, error) {
	r, err := Simplify(e)
	if err != nil {
		return nil, err
	}
	return SymbolicNumber{Value: r}, nil
}

func (SymbolicBackend) Equal(x, y Number) bool {
	a, ok1 := x.(SymbolicNumber)
	c, ok2 := y.(SymbolicNumber)
	return ok1 && ok2 && a.Value.Equal(c.Value)
}
