package exactpoly

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ============================================================
// Sources
// ============================================================

// Source yields the definition document of a shape.
type Source interface {
	Open(entry ShapeEntry) (io.ReadCloser, error)
}

// DirSource reads <Dir>/<Name>.txt, the layout of a download cache.
type DirSource struct {
	Dir string
}

func (s DirSource) Open(entry ShapeEntry) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.Dir, entry.Name+".txt"))
}

// MapSource serves documents from memory, keyed by shape code.
type MapSource map[string]string

func (s MapSource) Open(entry ShapeEntry) (io.ReadCloser, error) {
	doc, ok := s[entry.Code]
	if !ok {
		return nil, fmt.Errorf("shape %s: %w", entry.Code, os.ErrNotExist)
	}
	return io.NopCloser(strings.NewReader(doc)), nil
}

// ============================================================
// Pipeline
// ============================================================

// ShapeResult is the embedded plane set of one shape. Field is the
// registry index, or -1 for the symbolic backend.
type ShapeResult struct {
	Code        string
	Name        string
	Function    string
	Field       int
	Planes      []PlaneEquation
	Diagnostics []Diagnostic
}

// Result is the output of a complete run.
type Result struct {
	Backend     BackendKind
	Normalize   Normalization
	ScaleSymbol string
	Shapes      []ShapeResult
	Fields      []*NumberField
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithBackend replaces the backend chosen by the configuration.
func WithBackend(b Backend) Option {
	return func(p *Pipeline) { p.backend = b }
}

// Pipeline derives and embeds the planes of a list of shapes, one shape at
// a time, sharing one backend.
type Pipeline struct {
	cfg     Config
	src     Source
	logger  *slog.Logger
	backend Backend
}

func NewPipeline(cfg Config, src Source, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{cfg: cfg, src: src, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.backend == nil {
		b, err := NewBackend(cfg.Backend, cfg.MaxDegree, p.logger)
		if err != nil {
			return nil, err
		}
		p.backend = b
	}
	return p, nil
}

// Run processes the given shapes in order and stops at the first error;
// on error no result is returned.
func (p *Pipeline) Run(shapes []ShapeEntry) (*Result, error) {
	res := &Result{
		Backend:     p.backend.Name(),
		Normalize:   p.cfg.Normalize,
		ScaleSymbol: p.cfg.ScaleSymbol,
	}
	for _, entry := range shapes {
		sr, err := p.runShape(entry)
		if err != nil {
			p.logger.Error("shape failed", "code", entry.Code, "name", entry.Name, "err", err)
			return nil, err
		}
		res.Shapes = append(res.Shapes, sr)
	}
	if fb, ok := p.backend.(*FieldBackend); ok {
		res.Fields = fb.Registry().Fields()
	}
	p.logger.Info("run complete", "shapes", len(res.Shapes), "fields", len(res.Fields))
	return res, nil
}

// LoadShape opens and parses one shape.
func (p *Pipeline) LoadShape(entry ShapeEntry) (*ShapeDefinition, error) {
	rc, err := p.src.Open(entry)
	if err != nil {
		return nil, &ShapeError{Code: entry.Code, Face: -1, Err: err}
	}
	defer rc.Close()
	shape, err := ParseShape(entry.Code, rc)
	if err != nil {
		return nil, err
	}
	for _, c := range shape.Comments {
		p.logger.Debug("skipped line", "code", entry.Code, "line", c)
	}
	return shape, nil
}

func (p *Pipeline) runShape(entry ShapeEntry) (ShapeResult, error) {
	log := p.logger.With("code", entry.Code)
	shape, err := p.LoadShape(entry)
	if err != nil {
		return ShapeResult{}, err
	}
	log.Debug("shape parsed", "name", shape.FullName, "vertices", len(shape.Vertices), "faces", len(shape.Faces))

	planes, err := DerivePlanes(shape, PlaneOptions{ScaleSymbol: p.cfg.ScaleSymbol, Normalize: p.cfg.Normalize})
	if err != nil {
		return ShapeResult{}, err
	}
	for _, fp := range planes {
		log.Debug("plane derived", "face", fp.Face, "plane", fp.Equation(p.cfg.ScaleSymbol))
	}

	radicands := ShapeRadicands(planes)
	if err := p.backend.Bind(radicands); err != nil {
		return ShapeResult{}, shapeErrorf(entry.Code, -1, err)
	}
	eqs, err := EmbedPlanes(entry.Code, planes, p.backend)
	if err != nil {
		return ShapeResult{}, err
	}

	diags, err := Diagnose(entry.Code, planes, eqs, p.backend)
	if err != nil {
		return ShapeResult{}, err
	}
	for _, d := range diags {
		log.Warn("plane diagnostic", "kind", d.Kind, "face", d.Face, "reference", d.Reference, "msg", d.Message)
	}
	if p.cfg.StrictSymmetry && len(diags) > 0 {
		return ShapeResult{}, &ShapeError{Code: entry.Code, Face: diags[0].Face, Err: diags[0].Err()}
	}

	sr := ShapeResult{
		Code:        entry.Code,
		Name:        shape.FullName,
		Function:    shape.FunctionName(),
		Field:       -1,
		Planes:      eqs,
		Diagnostics: diags,
	}
	if fb, ok := p.backend.(*FieldBackend); ok {
		i, f := fb.Bound()
		sr.Field = i
		log.Debug("shape embedded", "field", i, "degree", f.Degree(), "radicands", radicands)
	}
	return sr, nil
}
