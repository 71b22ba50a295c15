package exactpoly

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"
)

// DefaultScaleSymbol names the free scale variable of vertex expressions.
const DefaultScaleSymbol = "d"

const facesMarker = "Faces:"

// ============================================================
// ShapeDefinition
// ============================================================

// ShapeDefinition is one parsed polyhedron: display name, constant
// candidates, vertex coordinate triples indexed 0..n-1 and faces as
// vertex-index lists.
type ShapeDefinition struct {
	Code     string
	FullName string

	// Constants maps each constant name to its symbolic candidates in
	// source order; ConstantOrder lists names in order of first definition.
	Constants     map[string][]Expr
	ConstantOrder []string

	Vertices [][3]Expr
	Faces    [][]int

	// Comments holds the lines before "Faces:" that define nothing.
	Comments []string
}

// ParseShape reads one definition document. The first non-blank line is
// the display name; constant and vertex definitions follow until a
// "Faces:" line, after which every line is a face.
func ParseShape(code string, r io.Reader) (*ShapeDefinition, error) {
	shape := &ShapeDefinition{Code: code, Constants: map[string][]Expr{}}
	vertices := map[int][3]Expr{}
	vertexLine := map[int]int{}

	const (
		stateName = iota
		stateDefs
		stateFaces
	)
	state := stateName

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		switch {
		case state == stateName:
			shape.FullName = line
			state = stateDefs
		case line == facesMarker:
			if state == stateFaces {
				return nil, fmt.Errorf("%w: shape %s line %d: repeated %q", ErrInvalidShape, code, lineNo, facesMarker)
			}
			state = stateFaces
		case state == stateDefs:
			if !IsDefinitionLine(line) {
				shape.Comments = append(shape.Comments, line)
				continue
			}
			def, err := ParseDefinition(line)
			if err != nil {
				return nil, locate(err, code, lineNo)
			}
			if def.Kind == DefVertex {
				if prev, dup := vertexLine[def.Index]; dup {
					return nil, fmt.Errorf("%w: shape %s line %d: vertex %s already defined on line %d",
						ErrInvalidShape, code, lineNo, def.Name, prev)
				}
				vertices[def.Index] = def.Coords
				vertexLine[def.Index] = lineNo
				continue
			}
			if _, seen := shape.Constants[def.Name]; !seen {
				shape.ConstantOrder = append(shape.ConstantOrder, def.Name)
			}
			shape.Constants[def.Name] = append(shape.Constants[def.Name], def.Candidates...)
		default:
			face, err := ParseFace(line)
			if err != nil {
				return nil, locate(err, code, lineNo)
			}
			shape.Faces = append(shape.Faces, face)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("shape %s: %w", code, err)
	}

	if state != stateFaces {
		return nil, fmt.Errorf("%w: shape %s: missing %q section", ErrInvalidShape, code, facesMarker)
	}
	if len(shape.Faces) == 0 {
		return nil, fmt.Errorf("%w: shape %s: no faces", ErrInvalidShape, code)
	}
	shape.Vertices = make([][3]Expr, len(vertices))
	for i := range shape.Vertices {
		v, ok := vertices[i]
		if !ok {
			return nil, fmt.Errorf("%w: shape %s: vertex indices are not contiguous, V%d missing", ErrInvalidShape, code, i)
		}
		shape.Vertices[i] = v
	}
	if err := shape.checkFaces(); err != nil {
		return nil, err
	}
	return shape, nil
}

func locate(err error, code string, line int) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		pe.Shape = code
		pe.Line = line
	}
	return err
}

// checkFaces verifies that face indices exactly cover the vertex range.
func (s *ShapeDefinition) checkFaces() error {
	used := make([]bool, len(s.Vertices))
	for fi, face := range s.Faces {
		for _, idx := range face {
			if idx < 0 || idx >= len(s.Vertices) {
				return fmt.Errorf("%w: shape %s face %d: vertex %d out of range [0, %d)",
					ErrInvalidShape, s.Code, fi, idx, len(s.Vertices))
			}
			used[idx] = true
		}
	}
	for i, ok := range used {
		if !ok {
			return fmt.Errorf("%w: shape %s: vertex %d belongs to no face", ErrInvalidShape, s.Code, i)
		}
	}
	return nil
}

// ============================================================
// Constant resolution
// ============================================================

// ResolveConstants picks, for every constant, the first symbolic candidate
// that simplifies to a radical and substitutes constants it references,
// recursively. The scale symbol is
// bound to 1: vertex coordinates are taken at unit scale and the scale is
// carried separately by each plane. Every other candidate that simplifies
// must have the same value as the chosen one.
func (s *ShapeDefinition) ResolveConstants(scaleSymbol string) (map[string]Expr, error) {
	r := s.newResolver(scaleSymbol)
	for _, name := range s.ConstantOrder {
		if len(s.Constants[name]) == 0 {
			// Only decimal approximations; an error only if referenced.
			continue
		}
		if _, err := r.resolve(name); err != nil {
			return nil, err
		}
	}
	return r.resolved, nil
}

func (s *ShapeDefinition) newResolver(scaleSymbol string) *resolver {
	if scaleSymbol == "" {
		scaleSymbol = DefaultScaleSymbol
	}
	return &resolver{
		shape:    s,
		scale:    scaleSymbol,
		resolved: map[string]Expr{},
		visiting: map[string]bool{},
	}
}

type resolver struct {
	shape    *ShapeDefinition
	scale    string
	resolved map[string]Expr
	visiting map[string]bool
}

func (r *resolver) resolve(name string) (Expr, error) {
	if e, ok := r.resolved[name]; ok {
		return e, nil
	}
	cands := r.shape.Constants[name]
	if len(cands) == 0 {
		return nil, fmt.Errorf("%w: %s has no symbolic definition", ErrUnresolvedSymbol, name)
	}
	if r.visiting[name] {
		return nil, fmt.Errorf("%w: %s is defined in terms of itself", ErrUnresolvedSymbol, name)
	}
	r.visiting[name] = true
	defer delete(r.visiting, name)

	// The first candidate that simplifies wins; the others that simplify
	// must agree with it. With none simplifying the first is kept and the
	// radical error surfaces where the value is used.
	var (
		chosen, chosenSrc Expr
		want              Radical
	)
	for _, cand := range cands {
		e, err := r.substitute(cand)
		if err != nil {
			return nil, fmt.Errorf("constant %s: %w", name, err)
		}
		got, err := Simplify(e)
		if err != nil {
			continue
		}
		if chosen == nil {
			chosen, chosenSrc, want = e, cand, got
			continue
		}
		if !got.Equal(want) {
			return nil, fmt.Errorf("%w: constant %s has inconsistent definitions %s and %s",
				ErrInvalidShape, name, chosenSrc, cand)
		}
	}
	if chosen == nil {
		e, err := r.substitute(cands[0])
		if err != nil {
			return nil, fmt.Errorf("constant %s: %w", name, err)
		}
		chosen = e
	}
	r.resolved[name] = chosen
	return chosen, nil
}

// substitute replaces every free symbol of e by its resolved value.
func (r *resolver) substitute(e Expr) (Expr, error) {
	for _, sym := range SortedSymbols(e) {
		if sym == r.scale {
			e = e.Subs(sym, N(1))
			continue
		}
		if _, ok := r.shape.Constants[sym]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnresolvedSymbol, sym)
		}
		val, err := r.resolve(sym)
		if err != nil {
			return nil, err
		}
		e = e.Subs(sym, val)
	}
	return e, nil
}

// ResolvedVertices returns the vertex coordinates with every constant and
// the scale symbol substituted away. Only constants the vertices reference
// are resolved.
func (s *ShapeDefinition) ResolvedVertices(scaleSymbol string) ([][3]Expr, error) {
	r := s.newResolver(scaleSymbol)
	out := make([][3]Expr, len(s.Vertices))
	for i, v := range s.Vertices {
		for k, c := range v {
			e, err := r.substitute(c)
			if err != nil {
				return nil, fmt.Errorf("V%d: %w", i, err)
			}
			out[i][k] = e
		}
	}
	return out, nil
}

// ============================================================
// Helpers
// ============================================================

// FunctionName turns the display name into a lower-camel identifier,
// e.g. "Triakis Tetrahedron" becomes "triakisTetrahedron".
func (s *ShapeDefinition) FunctionName() string {
	return identifier(s.FullName, s.Code)
}

func identifier(name, fallback string) string {
	var sb strings.Builder
	upper := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9' && sb.Len() > 0:
			if sb.Len() == 0 {
				r = unicode.ToLower(r)
			} else if upper {
				r = unicode.ToUpper(r)
			}
			sb.WriteRune(r)
			upper = false
		default:
			upper = sb.Len() > 0
		}
	}
	if sb.Len() == 0 {
		return identifier("shape "+fallback, "shape")
	}
	return sb.String()
}

// ConstantNames returns the constant names sorted lexically.
func (s *ShapeDefinition) ConstantNames() []string {
	out := append([]string(nil), s.ConstantOrder...)
	sort.Strings(out)
	return out
}
