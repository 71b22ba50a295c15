package exactpoly_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	exactpoly "github.com/njchilds90/exactpoly"
)

const tetrahedronDoc = `Tetrahedron

C0 = 0.353553390593273762200422181052 = sqrt(2) / 4

V0 = ( C0, -C0,  C0)
V1 = ( C0,  C0, -C0)
V2 = (-C0,  C0,  C0)
V3 = (-C0, -C0, -C0)

Faces:
{ 0, 1, 2 }
{ 1, 0, 3 }
{ 2, 3, 0 }
{ 3, 2, 1 }
`

func parseShape(t *testing.T, code, doc string) *exactpoly.ShapeDefinition {
	t.Helper()
	s, err := exactpoly.ParseShape(code, strings.NewReader(doc))
	require.NoError(t, err)
	return s
}

// ============================================================
// Parsing
// ============================================================

func TestParseShape_Tetrahedron(t *testing.T) {
	s := parseShape(t, "T", tetrahedronDoc)
	assert.Equal(t, "T", s.Code)
	assert.Equal(t, "Tetrahedron", s.FullName)
	assert.Equal(t, []string{"C0"}, s.ConstantOrder)
	require.Len(t, s.Constants["C0"], 1)
	assert.Equal(t, "sqrt(2)/4", s.Constants["C0"][0].String())
	require.Len(t, s.Vertices, 4)
	assert.Equal(t, "-C0", s.Vertices[0][1].String())
	assert.Equal(t, [][]int{{0, 1, 2}, {1, 0, 3}, {2, 3, 0}, {3, 2, 1}}, s.Faces)
	assert.Empty(t, s.Comments)
	assert.Equal(t, "tetrahedron", s.FunctionName())
}

func TestParseShape_CommentsAndMergedConstants(t *testing.T) {
	doc := `Truncated Cube (laevo)
C1 = 1 + sqrt(2)
C0 = 0.5
Edge length 2, scale d
C0 = 1/2
V0 = (C0, C1, d)
V2 = (C1, C0, 0)
V1 = (0, C0, C1)
Faces:
{ 0, 1, 2 }
`
	s := parseShape(t, "tC", doc)
	assert.Equal(t, "truncatedCubeLaevo", s.FunctionName())
	assert.Equal(t, []string{"C1", "C0"}, s.ConstantOrder)
	assert.Equal(t, []string{"C0", "C1"}, s.ConstantNames())
	require.Len(t, s.Constants["C0"], 1, "decimal candidates are dropped")
	assert.Equal(t, []string{"Edge length 2, scale d"}, s.Comments)
	assert.Equal(t, "C1", s.Vertices[2][0].String())
}

func TestParseShape_Errors(t *testing.T) {
	tests := map[string]string{
		"missing faces": "X\nV0 = (1, 0, 0)\n",
		"no faces":      "X\nV0 = (1, 0, 0)\nFaces:\n",
		"repeated faces marker": "X\nV0 = (1, 0, 0)\nV1 = (0, 1, 0)\nV2 = (0, 0, 1)\n" +
			"Faces:\n{0, 1, 2}\nFaces:\n",
		"duplicate vertex": "X\nV0 = (1, 0, 0)\nV0 = (0, 1, 0)\nV1 = (0, 0, 1)\nFaces:\n{0, 1, 0}\n",
		"gap in vertices":  "X\nV0 = (1, 0, 0)\nV1 = (0, 1, 0)\nV3 = (0, 0, 1)\nFaces:\n{0, 1, 3}\n",
		"face out of range": "X\nV0 = (1, 0, 0)\nV1 = (0, 1, 0)\nV2 = (0, 0, 1)\n" +
			"Faces:\n{0, 1, 5}\n",
		"unused vertex": "X\nV0 = (1, 0, 0)\nV1 = (0, 1, 0)\nV2 = (0, 0, 1)\nV3 = (1, 1, 1)\n" +
			"Faces:\n{0, 1, 2}\n",
	}
	for name, doc := range tests {
		_, err := exactpoly.ParseShape("X", strings.NewReader(doc))
		assert.True(t, errors.Is(err, exactpoly.ErrInvalidShape), "%s: want ErrInvalidShape, got %v", name, err)
	}
}

func TestParseShape_ParseErrorCarriesLocation(t *testing.T) {
	doc := "X\n\nV0 = (1, 0)\nFaces:\n{0, 0, 0}\n"
	_, err := exactpoly.ParseShape("X", strings.NewReader(doc))
	var pe *exactpoly.ParseError
	require.True(t, errors.As(err, &pe), "want ParseError, got %v", err)
	assert.Equal(t, "X", pe.Shape)
	assert.Equal(t, 3, pe.Line)
	assert.Contains(t, pe.Error(), "shape X line 3")

	_, err = exactpoly.ParseShape("X", strings.NewReader("X\nV0 = (1, 0, 0)\nFaces:\n{0, a}\n"))
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 4, pe.Line)
}

// ============================================================
// Constant resolution
// ============================================================

func TestResolveConstants_Nested(t *testing.T) {
	doc := `Nested
C2 = C1 * C0
C0 = sqrt(2) / 2
C1 = (1 + C0) / d
V0 = (C2, 0, 0)
V1 = (0, C1, 0)
V2 = (0, 0, C0)
Faces:
{ 0, 1, 2 }
`
	s := parseShape(t, "N", doc)
	consts, err := s.ResolveConstants("d")
	require.NoError(t, err)
	require.Len(t, consts, 3)

	c2, err := exactpoly.Simplify(consts["C2"])
	require.NoError(t, err)
	assert.Equal(t, "1/2 + 1/2*sqrt(2)", c2.String())
	assert.Empty(t, exactpoly.SortedSymbols(consts["C1"]), "scale symbol is bound")

	verts, err := s.ResolvedVertices("d")
	require.NoError(t, err)
	v1, err := exactpoly.Simplify(verts[1][1])
	require.NoError(t, err)
	assert.Equal(t, "1 + 1/2*sqrt(2)", v1.String())
}

func TestResolveConstants_ConsistentCandidates(t *testing.T) {
	doc := "X\nC0 = sqrt(2)/4 = 1/(2*sqrt(2)) = sqrt(8)/8\nV0 = (C0, 0, 0)\nV1 = (0, C0, 0)\nV2 = (0, 0, C0)\nFaces:\n{0, 1, 2}\n"
	s := parseShape(t, "X", doc)
	consts, err := s.ResolveConstants("")
	require.NoError(t, err)
	assert.Equal(t, "sqrt(2)/4", consts["C0"].String(), "the first candidate is chosen")
}

func TestResolveConstants_SkipsUnsupportedCandidates(t *testing.T) {
	resolve := func(defs string) (map[string]exactpoly.Expr, error) {
		doc := "X\n" + defs + "V0 = (C0, 0, 0)\nV1 = (0, C0, 0)\nV2 = (0, 0, C0)\nFaces:\n{0, 1, 2}\n"
		return parseShape(t, "X", doc).ResolveConstants("d")
	}

	consts, err := resolve("C0 = cbrt(2 + sqrt(2)) = sqrt(2)/4\n")
	require.NoError(t, err)
	assert.Equal(t, "sqrt(2)/4", consts["C0"].String())

	_, err = resolve("C0 = cbrt(2 + sqrt(2)) = sqrt(2) = sqrt(3)\n")
	assert.True(t, errors.Is(err, exactpoly.ErrInvalidShape), "got %v", err)
	assert.ErrorContains(t, err, "sqrt(2) and sqrt(3)")

	consts, err = resolve("C0 = cbrt(2 + sqrt(2))\n")
	require.NoError(t, err, "the radical error belongs to the plane that uses it")
	_, err = exactpoly.Simplify(consts["C0"])
	assert.ErrorIs(t, err, exactpoly.ErrUnsupportedRadical)
}

func TestResolveConstants_Errors(t *testing.T) {
	tests := []struct {
		name string
		defs string
		want error
	}{
		{"cycle", "C0 = C1 + 1\nC1 = 2*C0\n", exactpoly.ErrUnresolvedSymbol},
		{"self", "C0 = C0\n", exactpoly.ErrUnresolvedSymbol},
		{"undefined", "C0 = C7 + 1\n", exactpoly.ErrUnresolvedSymbol},
		{"decimal only", "C1 = 0.5\nC0 = C1\n", exactpoly.ErrUnresolvedSymbol},
		{"inconsistent", "C0 = sqrt(2) = sqrt(3)\n", exactpoly.ErrInvalidShape},
	}
	for _, tt := range tests {
		doc := "X\n" + tt.defs + "V0 = (1, 0, 0)\nV1 = (0, 1, 0)\nV2 = (0, 0, 1)\nFaces:\n{0, 1, 2}\n"
		s := parseShape(t, "X", doc)
		_, err := s.ResolveConstants("d")
		assert.True(t, errors.Is(err, tt.want), "%s: want %v, got %v", tt.name, tt.want, err)
	}
}

func TestResolvedVertices_UnknownSymbol(t *testing.T) {
	doc := "X\nV0 = (1, 0, 0)\nV1 = (0, q, 0)\nV2 = (0, 0, 1)\nFaces:\n{0, 1, 2}\n"
	s := parseShape(t, "X", doc)
	_, err := s.ResolvedVertices("d")
	assert.True(t, errors.Is(err, exactpoly.ErrUnresolvedSymbol))
	assert.ErrorContains(t, err, "V1")
}

func TestFunctionName(t *testing.T) {
	tests := map[string]string{
		"Triakis Tetrahedron":         "triakisTetrahedron",
		"Snub Cube (laevo)":           "snubCubeLaevo",
		"5-gonal Trapezohedron":       "gonalTrapezohedron",
		"Pentagonal Hexecontahedron2": "pentagonalHexecontahedron2",
	}
	for name, want := range tests {
		s := &exactpoly.ShapeDefinition{Code: "X", FullName: name}
		assert.Equal(t, want, s.FunctionName(), name)
	}
	s := &exactpoly.ShapeDefinition{Code: "tT", FullName: "???"}
	assert.Equal(t, "shapeTT", s.FunctionName())
}
