package exactpoly

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the output representation.
type Format string

const (
	FormatTS   Format = "ts"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Emit writes the declarations of a finished run.
func Emit(w io.Writer, res *Result, format Format) error {
	switch format {
	case FormatTS:
		return emitTS(w, res)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(NewDocument(res))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewDocument(res)); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q", format)
}

// ============================================================
// Structured document (JSON, YAML)
// ============================================================

// Document is the structured form of a run. Rationals are strings in
// big.Rat notation so they survive any serializer exactly.
type Document struct {
	Backend     string     `json:"backend" yaml:"backend"`
	Normalize   string     `json:"normalize" yaml:"normalize"`
	ScaleSymbol string     `json:"scale_symbol" yaml:"scale_symbol"`
	Fields      []FieldDoc `json:"fields,omitempty" yaml:"fields,omitempty"`
	Shapes      []ShapeDoc `json:"shapes" yaml:"shapes"`
}

// FieldDoc describes one registry field. MinimalPolynomial lists
// coefficients highest degree first.
type FieldDoc struct {
	Index             int            `json:"index" yaml:"index"`
	Name              string         `json:"name" yaml:"name"`
	Degree            int            `json:"degree" yaml:"degree"`
	Primitive         string         `json:"primitive" yaml:"primitive"`
	MinimalPolynomial []string       `json:"minimal_polynomial" yaml:"minimal_polynomial"`
	Lower             string         `json:"lower" yaml:"lower"`
	Upper             string         `json:"upper" yaml:"upper"`
	Approx            float64        `json:"approx" yaml:"approx"`
	Generators        []GeneratorDoc `json:"generators,omitempty" yaml:"generators,omitempty"`
}

type GeneratorDoc struct {
	Radicand int64    `json:"radicand" yaml:"radicand"`
	Vector   []string `json:"vector" yaml:"vector"`
}

type ShapeDoc struct {
	Code        string     `json:"code" yaml:"code"`
	Name        string     `json:"name" yaml:"name"`
	Field       *int       `json:"field,omitempty" yaml:"field,omitempty"`
	Planes      []PlaneDoc `json:"planes" yaml:"planes"`
	Diagnostics []string   `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

type PlaneDoc struct {
	Face   []int        `json:"face" yaml:"face,flow"`
	Normal [3]NumberDoc `json:"normal" yaml:"normal"`
	Offset NumberDoc    `json:"offset" yaml:"offset"`
}

// NumberDoc carries either power-basis coordinates or a radical
// expression, plus a float approximation.
type NumberDoc struct {
	Vector []string `json:"vector,omitempty" yaml:"vector,omitempty,flow"`
	Expr   string   `json:"expr,omitempty" yaml:"expr,omitempty"`
	Approx float64  `json:"approx" yaml:"approx"`
}

// NewDocument converts a run result into its structured form.
func NewDocument(res *Result) Document {
	doc := Document{
		Backend:     string(res.Backend),
		Normalize:   string(res.Normalize),
		ScaleSymbol: res.ScaleSymbol,
	}
	for i, f := range res.Fields {
		doc.Fields = append(doc.Fields, fieldDoc(i, f))
	}
	for _, sr := range res.Shapes {
		sd := ShapeDoc{Code: sr.Code, Name: sr.Name, Planes: []PlaneDoc{}}
		if sr.Field >= 0 {
			idx := sr.Field
			sd.Field = &idx
		}
		for _, eq := range sr.Planes {
			pd := PlaneDoc{Face: eq.Vertices, Offset: numberDoc(eq.Offset)}
			for k, n := range eq.Normal {
				pd.Normal[k] = numberDoc(n)
			}
			sd.Planes = append(sd.Planes, pd)
		}
		for _, d := range sr.Diagnostics {
			sd.Diagnostics = append(sd.Diagnostics, d.String())
		}
		doc.Shapes = append(doc.Shapes, sd)
	}
	return doc
}

func fieldDoc(i int, f *NumberField) FieldDoc {
	lo, hi := f.Interval()
	approx, _ := f.Approx().Float64()
	fd := FieldDoc{
		Index:     i,
		Name:      f.String(),
		Degree:    f.Degree(),
		Primitive: f.Primitive(),
		Lower:     lo.RatString(),
		Upper:     hi.RatString(),
		Approx:    approx,
	}
	for _, c := range f.MinimalPolynomial().HighFirst() {
		fd.MinimalPolynomial = append(fd.MinimalPolynomial, c.RatString())
	}
	vecs := f.GeneratorVectors()
	radicands := make([]int64, 0, len(vecs))
	for r := range vecs {
		radicands = append(radicands, r)
	}
	sort.Slice(radicands, func(a, b int) bool { return radicands[a] < radicands[b] })
	for _, r := range radicands {
		fd.Generators = append(fd.Generators, GeneratorDoc{Radicand: r, Vector: ratStrings(vecs[r])})
	}
	return fd
}

func numberDoc(n Number) NumberDoc {
	nd := NumberDoc{Approx: n.Float64()}
	switch v := n.(type) {
	case FieldNumber:
		nd.Vector = ratStrings(v.Coords)
	default:
		nd.Expr = n.String()
	}
	return nd
}

func ratStrings(v []*big.Rat) []string {
	out := make([]string, len(v))
	for i, c := range v {
		out[i] = c.RatString()
	}
	return out
}

// ============================================================
// TypeScript module
// ============================================================

func emitTS(w io.Writer, res *Result) error {
	var sb strings.Builder
	sb.WriteString("// Code generated by polyplanes. DO NOT EDIT.\n\n")
	if res.Backend == BackendField {
		sb.WriteString("import { fraction } from './fraction';\n")
		sb.WriteString("import { polynomial } from './polynomial';\n")
		sb.WriteString("import { algebraicNumberField } from './exact';\n\n")
		sb.WriteString("export const fields = [\n")
		for _, f := range res.Fields {
			lo, hi := f.Interval()
			approx, _ := f.Approx().Float64()
			fmt.Fprintf(&sb, "  // %s, theta = %s in [%s, %s]\n", f, f.Primitive(), lo.RatString(), hi.RatString())
			fmt.Fprintf(&sb, "  algebraicNumberField([%s], %v),\n", tsCoeffs(f.MinimalPolynomial()), approx)
		}
		sb.WriteString("];\n")
	}

	for _, sr := range res.Shapes {
		fmt.Fprintf(&sb, "\n/* %s */\n", sr.Name)
		fmt.Fprintf(&sb, "export function %s(%s: number) {\n", sr.Function, res.ScaleSymbol)
		if sr.Field >= 0 {
			fmt.Fprintf(&sb, "  const K = fields[%d];\n", sr.Field)
		}
		sb.WriteString("  return [\n")
		for _, eq := range sr.Planes {
			fmt.Fprintf(&sb, "    // {%s}\n", joinInts(eq.Vertices))
			normal := make([]string, 3)
			for k, n := range eq.Normal {
				normal[k] = tsNumber(n)
			}
			fmt.Fprintf(&sb, "    { normal: [%s], offset: %s },\n",
				strings.Join(normal, ", "), tsScaled(eq.Offset, res.ScaleSymbol))
		}
		sb.WriteString("  ];\n}\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// tsCoeffs renders minimal polynomial coefficients lowest degree first.
func tsCoeffs(p Poly) string {
	parts := make([]string, len(p))
	for i, c := range p {
		if c.IsInt() {
			parts[i] = c.Num().String()
		} else {
			parts[i] = fmt.Sprintf("fraction(%s, %s)", c.Num(), c.Denom())
		}
	}
	return strings.Join(parts, ", ")
}

func tsNumber(n Number) string {
	switch v := n.(type) {
	case FieldNumber:
		parts := make([]string, len(v.Coords))
		for i, c := range v.Coords {
			parts[i] = fmt.Sprintf("fraction(%s, %s)", c.Num(), c.Denom())
		}
		return "polynomial([" + strings.Join(parts, ", ") + "])"
	case SymbolicNumber:
		return tsRadical(v.Value)
	}
	return n.String()
}

func tsScaled(n Number, scale string) string {
	if _, ok := n.(FieldNumber); ok {
		return fmt.Sprintf("K.multiply(%s, polynomial([%s]))", tsNumber(n), scale)
	}
	return fmt.Sprintf("(%s) * %s", tsNumber(n), scale)
}

// tsRadical renders a radical as a JavaScript arithmetic expression.
func tsRadical(a Radical) string {
	if a.IsZero() {
		return "0"
	}
	var sb strings.Builder
	for i, r := range a.Radicands() {
		c := a.Coeff(r)
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
			fmt.Fprintf(&sb, "Math.sqrt(%d)", r)
		}
	}
	return sb.String()
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}

// ============================================================
// AST dump
// ============================================================

type astDoc struct {
	Code      string                       `json:"code"`
	Name      string                       `json:"name"`
	Constants map[string][]json.RawMessage `json:"constants"`
	Vertices  [][3]json.RawMessage         `json:"vertices"`
	Faces     [][]int                      `json:"faces"`
}

// DumpAST writes the parsed expression trees of each shape as JSON, one
// document per shape.
func DumpAST(w io.Writer, shapes []*ShapeDefinition) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	for _, s := range shapes {
		doc := astDoc{
			Code:      s.Code,
			Name:      s.FullName,
			Constants: map[string][]json.RawMessage{},
			Faces:     s.Faces,
		}
		for _, name := range s.ConstantNames() {
			for _, e := range s.Constants[name] {
				raw, err := ToJSON(e)
				if err != nil {
					return err
				}
				doc.Constants[name] = append(doc.Constants[name], json.RawMessage(raw))
			}
		}
		for _, v := range s.Vertices {
			var row [3]json.RawMessage
			for k, e := range v {
				raw, err := ToJSON(e)
				if err != nil {
					return err
				}
				row[k] = json.RawMessage(raw)
			}
			doc.Vertices = append(doc.Vertices, row)
		}
		if err := enc.Encode(doc); err != nil {
			return err
		}
	}
	return nil
}
