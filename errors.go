package exactpoly

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ============================================================
// Sentinels
// ============================================================

var (
	ErrDivisionByZero     = errors.New("division by zero")
	ErrUnsupportedRadical = errors.New("unsupported radical")
	ErrUnresolvedSymbol   = errors.New("unresolved symbol")
	ErrDegenerateFace     = errors.New("degenerate face")
	ErrNonPlanarFace      = errors.New("face vertices are not coplanar")
	ErrRadicandTooLarge   = errors.New("radicand too large")
	ErrInvalidShape       = errors.New("invalid shape")
	ErrSymmetryMismatch   = errors.New("symmetry mismatch")
	ErrDuplicatePlane     = errors.New("duplicate plane")
)

// ============================================================
// ParseError
// ============================================================

// ParseError reports a malformed definition line. Pos and End are byte
// offsets of the offending token span within Text.
type ParseError struct {
	Shape string
	Line  int
	Text  string
	Pos   int
	End   int
	Msg   string
}

func (e *ParseError) Error() string {
	var sb strings.Builder
	sb.WriteString("parse error")
	if e.Shape != "" {
		fmt.Fprintf(&sb, ": shape %s", e.Shape)
	}
	if e.Line > 0 {
		fmt.Fprintf(&sb, " line %d", e.Line)
	}
	fmt.Fprintf(&sb, " col %d-%d: %s", e.Pos+1, e.End+1, e.Msg)
	if e.Text != "" {
		fmt.Fprintf(&sb, " in %q", e.Text)
	}
	return sb.String()
}

func parseErrorAt(tok Token, format string, args ...interface{}) *ParseError {
	end := tok.Pos + len(tok.Literal)
	if end == tok.Pos {
		end = tok.Pos + 1
	}
	return &ParseError{Pos: tok.Pos, End: end, Msg: fmt.Sprintf(format, args...)}
}

// ============================================================
// Field errors
// ============================================================

// FieldMembershipError means an expression mentions a square root that the
// field it was handed cannot represent. It indicates a builder defect.
type FieldMembershipError struct {
	Field    string
	Radicand int64
	Expr     string
}

func (e *FieldMembershipError) Error() string {
	if e.Expr != "" {
		return fmt.Sprintf("sqrt(%d) is not in field %s (expression %s)", e.Radicand, e.Field, e.Expr)
	}
	return fmt.Sprintf("sqrt(%d) is not in field %s", e.Radicand, e.Field)
}

// AmbiguousRootError means no isolating interval separating the primitive
// element from the other real roots of its minimal polynomial was found.
type AmbiguousRootError struct {
	Poly  string
	Lower *big.Rat
	Upper *big.Rat
	Roots int
}

func (e *AmbiguousRootError) Error() string {
	return fmt.Sprintf("cannot isolate root of %s: [%s, %s] holds %d roots",
		e.Poly, e.Lower.RatString(), e.Upper.RatString(), e.Roots)
}

// DegreeError means a generator set needs a field larger than allowed.
type DegreeError struct {
	Degree int
	Max    int
}

func (e *DegreeError) Error() string {
	return fmt.Sprintf("field degree %d exceeds maximum %d", e.Degree, e.Max)
}

// ============================================================
// ShapeError
// ============================================================

// ShapeError attaches shape and face context to a derivation failure.
// Face is -1 when the failure is not tied to one face.
type ShapeError struct {
	Code string
	Face int
	Expr string
	Err  error
}

func (e *ShapeError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "shape %s", e.Code)
	if e.Face >= 0 {
		fmt.Fprintf(&sb, " face %d", e.Face)
	}
	if e.Expr != "" {
		fmt.Fprintf(&sb, " (%s)", e.Expr)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Err.Error())
	return sb.String()
}

func (e *ShapeError) Unwrap() error { return e.Err }

func shapeErrorf(code string, face int, err error) error {
	var se *ShapeError
	if errors.As(err, &se) {
		return err
	}
	return &ShapeError{Code: code, Face: face, Err: err}
}
