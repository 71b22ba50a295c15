package exactpoly

import (
	"fmt"
	"sort"
	"strings"
)

// Normalization selects how derived planes are scaled.
type Normalization string

const (
	// NormalizeOffset divides the normal by n·v0 so every plane reads
	// n'·x = scale.
	NormalizeOffset Normalization = "offset"
	// NormalizeRaw keeps the cross-product normal and n·v0 as derived.
	NormalizeRaw Normalization = "raw"
)

// PlaneOptions configures DerivePlanes.
type PlaneOptions struct {
	ScaleSymbol string
	Normalize   Normalization
}

func (o PlaneOptions) withDefaults() PlaneOptions {
	if o.ScaleSymbol == "" {
		o.ScaleSymbol = DefaultScaleSymbol
	}
	if o.Normalize == "" {
		o.Normalize = NormalizeOffset
	}
	return o
}

// ============================================================
// FacePlane — exact plane of one face in radical normal form
// ============================================================

// FacePlane is the derived plane of one face. Normal·x = Offset·scale
// holds for every point x of the face at the given scale.
type FacePlane struct {
	Face     int
	Vertices []int

	// NormalExpr and OffsetExpr are the symbolic cross product
	// (v1-v0)×(v2-v1) and -n·v0 over the raw vertex coordinates, before
	// constants are substituted.
	NormalExpr [3]Expr
	OffsetExpr Expr

	RawNormal [3]Radical
	RawOffset Radical // n·v0 for the raw normal

	Normal [3]Radical
	Offset Radical

	edges []Radical
}

// Radicands lists the irrational radicands mentioned by the normal and
// offset, ascending.
func (fp FacePlane) Radicands() []int64 {
	seen := map[int64]bool{}
	for _, c := range append(fp.Normal[:], fp.Offset) {
		for _, r := range c.Irrationals() {
			seen[r] = true
		}
	}
	return sortedKeys(seen)
}

// Equation renders the plane as "a*x + b*y + c*z = k*d".
func (fp FacePlane) Equation(scaleSymbol string) string {
	axes := [3]string{"x", "y", "z"}
	var terms []string
	for i, c := range fp.Normal {
		if c.IsZero() {
			continue
		}
		terms = append(terms, fmt.Sprintf("(%s)*%s", c, axes[i]))
	}
	return fmt.Sprintf("%s = (%s)*%s", strings.Join(terms, " + "), fp.Offset, scaleSymbol)
}

// ShapeRadicands unions the radicands of all planes of one shape.
func ShapeRadicands(planes []FacePlane) []int64 {
	seen := map[int64]bool{}
	for _, fp := range planes {
		for _, r := range fp.Radicands() {
			seen[r] = true
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(m map[int64]bool) []int64 {
	out := make([]int64, 0, len(m))
	for r := range m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ============================================================
// Derivation
// ============================================================

// DerivePlanes computes the exact plane of every face. The plane is taken
// through the first three vertices of the face; any further vertices must
// lie on it.
func DerivePlanes(shape *ShapeDefinition, opts PlaneOptions) ([]FacePlane, error) {
	opts = opts.withDefaults()
	resolved, err := shape.ResolvedVertices(opts.ScaleSymbol)
	if err != nil {
		return nil, shapeErrorf(shape.Code, -1, err)
	}
	points := make([][3]Radical, len(resolved))
	for i, v := range resolved {
		for k, c := range v {
			r, err := Simplify(c)
			if err != nil {
				return nil, &ShapeError{Code: shape.Code, Face: -1, Expr: fmt.Sprintf("V%d = %s", i, shape.Vertices[i][k]), Err: err}
			}
			points[i][k] = r
		}
	}

	planes := make([]FacePlane, 0, len(shape.Faces))
	for fi, face := range shape.Faces {
		fp, err := derivePlane(shape, resolved, points, fi, face, opts)
		if err != nil {
			return nil, err
		}
		planes = append(planes, fp)
	}
	return planes, nil
}

func derivePlane(shape *ShapeDefinition, resolved [][3]Expr, points [][3]Radical, fi int, face []int, opts PlaneOptions) (FacePlane, error) {
	fail := func(expr string, err error) (FacePlane, error) {
		return FacePlane{}, &ShapeError{Code: shape.Code, Face: fi, Expr: expr, Err: err}
	}

	v0, v1, v2 := shape.Vertices[face[0]], shape.Vertices[face[1]], shape.Vertices[face[2]]
	normalExpr := crossExpr(subExpr(v1, v0), subExpr(v2, v1))
	offsetExpr := NegOf(dotExpr(normalExpr, v0))

	fp := FacePlane{
		Face:       fi,
		Vertices:   append([]int(nil), face...),
		NormalExpr: normalExpr,
		OffsetExpr: offsetExpr,
	}

	r0, r1, r2 := resolved[face[0]], resolved[face[1]], resolved[face[2]]
	subst := crossExpr(subExpr(r1, r0), subExpr(r2, r1))
	for k := range subst {
		n, err := Simplify(subst[k])
		if err != nil {
			return fail(normalExpr[k].String(), err)
		}
		fp.RawNormal[k] = n
	}
	if fp.RawNormal[0].IsZero() && fp.RawNormal[1].IsZero() && fp.RawNormal[2].IsZero() {
		return fail("", fmt.Errorf("%w: vertices %d, %d, %d are collinear", ErrDegenerateFace, face[0], face[1], face[2]))
	}
	negOffset, err := Simplify(NegOf(dotExpr(subst, r0)))
	if err != nil {
		return fail(offsetExpr.String(), err)
	}
	fp.RawOffset = negOffset.Neg()

	for _, vi := range face[3:] {
		d, err := dotRadical(fp.RawNormal, subRadical(points[vi], points[face[0]]))
		if err != nil {
			return fail("", err)
		}
		if !d.IsZero() {
			return fail("", fmt.Errorf("%w: vertex %d is off the plane by %s", ErrNonPlanarFace, vi, d))
		}
	}

	switch opts.Normalize {
	case NormalizeRaw:
		fp.Normal = fp.RawNormal
		fp.Offset = fp.RawOffset
	case NormalizeOffset:
		if fp.RawOffset.IsZero() {
			return fail("", fmt.Errorf("%w: plane passes through the origin", ErrDegenerateFace))
		}
		inv, err := fp.RawOffset.Inv()
		if err != nil {
			return fail(offsetExpr.String(), err)
		}
		for k, c := range fp.RawNormal {
			if fp.Normal[k], err = c.Mul(inv); err != nil {
				return fail(normalExpr[k].String(), err)
			}
		}
		fp.Offset = RadicalFromInt(1)
	default:
		return fail("", fmt.Errorf("unknown normalization %q", opts.Normalize))
	}

	for i := range face {
		e := subRadical(points[face[(i+1)%len(face)]], points[face[i]])
		sq, err := dotRadical(e, e)
		if err != nil {
			return fail("", err)
		}
		fp.edges = append(fp.edges, sq)
	}
	return fp, nil
}

func subExpr(a, b [3]Expr) [3]Expr {
	return [3]Expr{SubOf(a[0], b[0]), SubOf(a[1], b[1]), SubOf(a[2], b[2])}
}

func crossExpr(a, b [3]Expr) [3]Expr {
	return [3]Expr{
		SubOf(MulOf(a[1], b[2]), MulOf(a[2], b[1])),
		SubOf(MulOf(a[2], b[0]), MulOf(a[0], b[2])),
		SubOf(MulOf(a[0], b[1]), MulOf(a[1], b[0])),
	}
}

func dotExpr(a, b [3]Expr) Expr {
	return SumOf(MulOf(a[0], b[0]), MulOf(a[1], b[1]), MulOf(a[2], b[2]))
}

func subRadical(a, b [3]Radical) [3]Radical {
	return [3]Radical{a[0].Sub(b[0]), a[1].Sub(b[1]), a[2].Sub(b[2])}
}

func dotRadical(a, b [3]Radical) (Radical, error) {
	sum := Radical{}
	for k := range a {
		t, err := a[k].Mul(b[k])
		if err != nil {
			return Radical{}, err
		}
		sum = sum.Add(t)
	}
	return sum, nil
}

// ============================================================
// Embedding
// ============================================================

// PlaneEquation is a face plane with every coordinate translated by a
// Backend: Normal·x = Offset·scale.
type PlaneEquation struct {
	Face     int
	Vertices []int
	Normal   [3]Number
	Offset   Number
}

// EmbedPlanes translates every plane through the backend, which must
// already be bound to the shape's radicands.
func EmbedPlanes(code string, planes []FacePlane, b Backend) ([]PlaneEquation, error) {
	out := make([]PlaneEquation, 0, len(planes))
	for _, fp := range planes {
		eq := PlaneEquation{Face: fp.Face, Vertices: fp.Vertices}
		for k, c := range fp.Normal {
			n, err := b.Translate(c.Expr())
			if err != nil {
				return nil, &ShapeError{Code: code, Face: fp.Face, Expr: c.String(), Err: err}
			}
			eq.Normal[k] = n
		}
		off, err := b.Translate(fp.Offset.Expr())
		if err != nil {
			return nil, &ShapeError{Code: code, Face: fp.Face, Expr: fp.Offset.String(), Err: err}
		}
		eq.Offset = off
		out = append(out, eq)
	}
	return out, nil
}

// ============================================================
// Diagnostics
// ============================================================

type DiagnosticKind string

const (
	// DiagSymmetry flags congruent faces whose raw normals differ in
	// length, i.e. whose edge pairs were chosen differently.
	DiagSymmetry DiagnosticKind = "symmetry"
	// DiagDuplicate flags two faces with equal plane equations.
	DiagDuplicate DiagnosticKind = "duplicate"
)

// Diagnostic reports a face that disagrees with an earlier reference face.
type Diagnostic struct {
	Kind      DiagnosticKind
	Shape     string
	Face      int
	Reference int
	Message   string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: shape %s face %d vs face %d: %s", d.Kind, d.Shape, d.Face, d.Reference, d.Message)
}

// Err returns the sentinel matching the diagnostic kind.
func (d Diagnostic) Err() error {
	if d.Kind == DiagDuplicate {
		return fmt.Errorf("%w: %s", ErrDuplicatePlane, d)
	}
	return fmt.Errorf("%w: %s", ErrSymmetryMismatch, d)
}

type symmetryClass struct {
	rep      int
	vertices int
	edges    []Radical
	unitNorm Number
	rawNorm  Radical
}

// Diagnose compares faces after embedding. Faces are grouped into classes
// of congruent faces by vertex count, squared edge lengths and the
// backend-equal squared length of the normalized normal; within a class the
// squared lengths of the raw normals are compared exactly in radical normal
// form, since they may leave the bound field. Equal plane equations are
// reported as duplicates. Nothing is corrected.
func Diagnose(code string, planes []FacePlane, eqs []PlaneEquation, b Backend) ([]Diagnostic, error) {
	var diags []Diagnostic
	var classes []*symmetryClass

	for i, fp := range planes {
		unit, err := normSquared(fp.Normal, fp.Offset, b)
		if err != nil {
			return nil, &ShapeError{Code: code, Face: fp.Face, Err: err}
		}
		raw, err := dotRadical(fp.RawNormal, fp.RawNormal)
		if err != nil {
			return nil, &ShapeError{Code: code, Face: fp.Face, Err: err}
		}
		edges := sortedRadicals(fp.edges)

		var class *symmetryClass
		for _, c := range classes {
			if c.vertices == len(fp.Vertices) && radicalsEqual(c.edges, edges) && b.Equal(c.unitNorm, unit) {
				class = c
				break
			}
		}
		if class == nil {
			classes = append(classes, &symmetryClass{rep: fp.Face, vertices: len(fp.Vertices), edges: edges, unitNorm: unit, rawNorm: raw})
		} else if !class.rawNorm.Equal(raw) {
			diags = append(diags, Diagnostic{
				Kind:      DiagSymmetry,
				Shape:     code,
				Face:      fp.Face,
				Reference: class.rep,
				Message:   fmt.Sprintf("raw |n|^2 %s differs from %s", raw, class.rawNorm),
			})
		}

		for j := 0; j < i; j++ {
			if equationsEqual(eqs[j], eqs[i], b) {
				diags = append(diags, Diagnostic{
					Kind:      DiagDuplicate,
					Shape:     code,
					Face:      fp.Face,
					Reference: eqs[j].Face,
					Message:   "same plane",
				})
				break
			}
		}
	}
	return diags, nil
}

// normSquared translates |n|^2 divided by offset^2 when offset is nonzero,
// which makes it invariant under rescaling of the plane equation.
func normSquared(n [3]Radical, offset Radical, b Backend) (Number, error) {
	sq, err := dotRadical(n, n)
	if err != nil {
		return nil, err
	}
	if !offset.IsZero() {
		o2, err := offset.Mul(offset)
		if err != nil {
			return nil, err
		}
		if sq, err = sq.Quo(o2); err != nil {
			return nil, err
		}
	}
	return b.Translate(sq.Expr())
}

func sortedRadicals(rs []Radical) []Radical {
	out := append([]Radical(nil), rs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func radicalsEqual(a, b []Radical) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func equationsEqual(a, b PlaneEquation, be Backend) bool {
	for k := range a.Normal {
		if !be.Equal(a.Normal[k], b.Normal[k]) {
			return false
		}
	}
	return be.Equal(a.Offset, b.Offset)
}
