package exactpoly_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	exactpoly "github.com/njchilds90/exactpoly"
)

func emit(t *testing.T, res *exactpoly.Result, format exactpoly.Format) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, exactpoly.Emit(&buf, res, format))
	return buf.String()
}

// ============================================================
// TypeScript
// ============================================================

func TestEmit_TypeScriptFieldBackend(t *testing.T) {
	out := emit(t, run(t, exactpoly.DefaultConfig(), "T", "C"), exactpoly.FormatTS)

	assert.True(t, strings.HasPrefix(out, "// Code generated by polyplanes. DO NOT EDIT.\n"))
	assert.Contains(t, out, "import { algebraicNumberField } from './exact';")
	assert.Contains(t, out, "export const fields = [\n")
	assert.Contains(t, out, "  algebraicNumberField([-2, 0, 1], ")
	assert.Equal(t, 1, strings.Count(out, "algebraicNumberField(["))

	assert.Contains(t, out, "/* Tetrahedron */\nexport function tetrahedron(d: number) {\n  const K = fields[0];\n  return [\n")
	assert.Contains(t, out, "    // {0, 1, 2}\n")
	twoRootTwo := "polynomial([fraction(0, 1), fraction(2, 1)])"
	assert.Contains(t, out, "{ normal: ["+twoRootTwo+", "+twoRootTwo+", "+twoRootTwo+"], "+
		"offset: K.multiply(polynomial([fraction(1, 1), fraction(0, 1)]), polynomial([d])) },")
	assert.Contains(t, out, "export function cube(d: number) {")
}

var fieldDecl = regexp.MustCompile(`algebraicNumberField\(\[([^\]]*)\], ([^)]*)\)`)

// dyadicIsolate narrows [⌊x·2^k⌋/2^k, (⌊x·2^k⌋+1)/2^k] around x until the
// cell holds exactly one root of p, as the TypeScript runtime does when it
// loads a field.
func dyadicIsolate(p exactpoly.Poly, x float64) (lo, hi *big.Rat, err error) {
	for k := 0; k <= 200; k++ {
		scale := math.Ldexp(1, k)
		n := math.Floor(x * scale)
		lo = new(big.Rat).SetFloat64(math.Ldexp(n, -k))
		hi = new(big.Rat).SetFloat64(math.Ldexp(n+1, -k))
		switch p.CountRoots(lo, hi) {
		case 0:
			return nil, nil, fmt.Errorf("no root in [%s, %s]", lo.RatString(), hi.RatString())
		case 1:
			return lo, hi, nil
		}
	}
	return nil, nil, fmt.Errorf("no isolating cell around %v", x)
}

func TestEmit_TypeScriptFieldsReisolateTheta(t *testing.T) {
	gens := []int64{2, 3, 5, 6, 7}
	var fields []*exactpoly.NumberField
	for mask := 1; mask < 1<<len(gens); mask++ {
		var set []int64
		for i, g := range gens {
			if mask&(1<<i) != 0 {
				set = append(set, g)
			}
		}
		fields = append(fields, buildField(t, set...))
	}
	out := emit(t, &exactpoly.Result{Backend: exactpoly.BackendField, Fields: fields}, exactpoly.FormatTS)

	decls := fieldDecl.FindAllStringSubmatch(out, -1)
	require.Len(t, decls, len(fields))
	for i, d := range decls {
		f := fields[i]
		var coeffs []*big.Rat
		for _, c := range strings.Split(d[1], ", ") {
			r, ok := new(big.Rat).SetString(c)
			require.True(t, ok, "coefficient %q of %s", c, f)
			coeffs = append(coeffs, r)
		}
		p := exactpoly.NewPoly(coeffs...)
		require.Equal(t, f.MinimalPolynomial().String(), p.String())

		x, err := strconv.ParseFloat(d[2], 64)
		require.NoError(t, err)
		lo, hi, err := dyadicIsolate(p, x)
		require.NoError(t, err, "%s from %v", f, x)

		// The runtime's cell and a tight interval around θ share θ.
		rlo, rhi := f.Refine(64)
		if rlo.Cmp(lo) < 0 {
			rlo = lo
		}
		if rhi.Cmp(hi) > 0 {
			rhi = hi
		}
		require.True(t, rlo.Cmp(rhi) <= 0, "%s: [%s, %s] misses theta", f, lo.RatString(), hi.RatString())
		assert.Equal(t, 1, p.CountRoots(rlo, rhi), "%s", f)
	}
}

func TestEmit_TypeScriptSymbolicBackend(t *testing.T) {
	cfg := exactpoly.DefaultConfig()
	cfg.Backend = exactpoly.BackendSymbolic
	cfg.ScaleSymbol = "s"
	out := emit(t, run(t, cfg, "T"), exactpoly.FormatTS)

	assert.NotContains(t, out, "fields")
	assert.NotContains(t, out, "const K")
	assert.Contains(t, out, "export function tetrahedron(s: number) {")
	assert.Contains(t, out, "{ normal: [2*Math.sqrt(2), -2*Math.sqrt(2), -2*Math.sqrt(2)], offset: (1) * s },")
}

// ============================================================
// Structured documents
// ============================================================

func TestEmit_JSON(t *testing.T) {
	out := emit(t, run(t, exactpoly.DefaultConfig(), "T", "F"), exactpoly.FormatJSON)

	var doc exactpoly.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "field", doc.Backend)
	assert.Equal(t, "offset", doc.Normalize)

	require.Len(t, doc.Fields, 1)
	f := doc.Fields[0]
	assert.Equal(t, "Q(sqrt(2))", f.Name)
	assert.Equal(t, 2, f.Degree)
	assert.Equal(t, []string{"1", "0", "-2"}, f.MinimalPolynomial)
	assert.Equal(t, []exactpoly.GeneratorDoc{{Radicand: 2, Vector: []string{"0", "1"}}}, f.Generators)
	assert.InDelta(t, 1.4142, f.Approx, 0.5)

	require.Len(t, doc.Shapes, 2)
	tet := doc.Shapes[0]
	require.NotNil(t, tet.Field)
	assert.Equal(t, 0, *tet.Field)
	assert.Equal(t, []int{0, 1, 2}, tet.Planes[0].Face)
	assert.Equal(t, []string{"0", "2"}, tet.Planes[0].Normal[0].Vector)
	assert.Equal(t, []string{"1", "0"}, tet.Planes[0].Offset.Vector)
	assert.InDelta(t, 2.8284271247461903, tet.Planes[0].Normal[0].Approx, 1e-12)
	assert.Empty(t, tet.Diagnostics)

	assert.Len(t, doc.Shapes[1].Diagnostics, 3)
	assert.Contains(t, doc.Shapes[1].Diagnostics[0], "symmetry: shape F face 3 vs face 2")
}

func TestEmit_YAMLSymbolic(t *testing.T) {
	cfg := exactpoly.DefaultConfig()
	cfg.Backend = exactpoly.BackendSymbolic
	out := emit(t, run(t, cfg, "T"), exactpoly.FormatYAML)

	assert.Contains(t, out, "backend: symbolic\n")
	assert.Contains(t, out, "face: [0, 1, 2]")
	assert.NotContains(t, out, "fields:")

	var doc exactpoly.Document
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Shapes, 1)
	assert.Nil(t, doc.Shapes[0].Field)
	assert.Equal(t, "2*sqrt(2)", doc.Shapes[0].Planes[0].Normal[0].Expr)
	assert.Equal(t, "1", doc.Shapes[0].Planes[0].Offset.Expr)
	assert.Empty(t, doc.Shapes[0].Planes[0].Normal[0].Vector)
}

func TestEmit_UnknownFormat(t *testing.T) {
	err := exactpoly.Emit(&bytes.Buffer{}, &exactpoly.Result{}, "xml")
	assert.ErrorContains(t, err, "unknown format")
}

// ============================================================
// AST dump
// ============================================================

func TestDumpAST(t *testing.T) {
	s := parseShape(t, "T", tetrahedronDoc)
	var buf bytes.Buffer
	require.NoError(t, exactpoly.DumpAST(&buf, []*exactpoly.ShapeDefinition{s}))

	var doc struct {
		Code      string                       `json:"code"`
		Name      string                       `json:"name"`
		Constants map[string][]json.RawMessage `json:"constants"`
		Vertices  [][3]json.RawMessage         `json:"vertices"`
		Faces     [][]int                      `json:"faces"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "T", doc.Code)
	assert.Equal(t, "Tetrahedron", doc.Name)
	require.Len(t, doc.Constants["C0"], 1)
	require.Len(t, doc.Vertices, 4)
	assert.Len(t, doc.Faces, 4)

	c0, err := exactpoly.FromJSONString(string(doc.Constants["C0"][0]))
	require.NoError(t, err)
	assert.Equal(t, "sqrt(2)/4", c0.String())
	v, err := exactpoly.FromJSONString(string(doc.Vertices[0][1]))
	require.NoError(t, err)
	assert.Equal(t, "-C0", v.String())
}
