package exactpoly

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// ShapeEntry maps a short polyhedron code to the name of its definition
// document.
type ShapeEntry struct {
	Code string `toml:"code"`
	Name string `toml:"name"`
}

// Config drives one batch run.
type Config struct {
	InputDir       string        `toml:"input_dir"`
	Format         Format        `toml:"format"`
	Backend        BackendKind   `toml:"backend"`
	Normalize      Normalization `toml:"normalize"`
	MaxDegree      int           `toml:"max_degree"`
	ScaleSymbol    string        `toml:"scale_symbol"`
	StrictSymmetry bool          `toml:"strict_symmetry"`
	ExtendedShapes bool          `toml:"extended_shapes"`
	Shapes         []ShapeEntry  `toml:"shapes"`
}

// DefaultShapes is the built-in code to name table: the Platonic solids
// and the Catalan solids whose coordinates lie in multiquadratic fields
// over sqrt(2), sqrt(3) and sqrt(5).
func DefaultShapes() []ShapeEntry {
	return []ShapeEntry{
		// Platonic
		{"T", "Tetrahedron"},
		{"C", "Cube"},
		{"O", "Octahedron"},
		{"D", "Dodecahedron"},
		{"I", "Icosahedron"},
		// Catalan
		{"kT", "TriakisTetrahedron"},
		{"jC", "RhombicDodecahedron"},
		{"kC", "TetrakisHexahedron"},
		{"kO", "TriakisOctahedron"},
		{"oC", "DeltoidalIcositetrahedron"},
		{"jD", "RhombicTriacontahedron"},
		{"mC", "DisdyakisDodecahedron"},
		{"kD", "PentakisDodecahedron"},
		{"kI", "TriakisIcosahedron"},
		{"oD", "DeltoidalHexecontahedron"},
		{"mD", "DisdyakisTriacontahedron"},
	}
}

// ExtendedShapes lists further shapes with published definitions. Several
// need radicals outside the multiquadratic model: the pentagonal families
// use sqrt(50 + 10*sqrt(5)) and the snub dual uses irrational cube roots,
// so a run that includes them stops with ErrUnsupportedRadical.
func ExtendedShapes() []ShapeEntry {
	return []ShapeEntry{
		{"gD", "RpentagonalHexecontahedron"},
		// Prisms and antiprisms
		{"P3", "TriangularPrism"},
		{"P5", "PentagonalPrism"},
		{"P6", "HexagonalPrism"},
		{"A4", "SquareAntiprism"},
		{"A5", "PentagonalAntiprism"},
		{"A6", "HexagonalAntiprism"},
		// Dipyramids and trapezohedra
		{"dP3", "TriangularDipyramid"},
		{"dP5", "PentagonalDipyramid"},
		{"dP6", "HexagonalDipyramid"},
		{"dA4", "TetragonalTrapezohedron"},
		{"dA5", "PentagonalTrapezohedron"},
		{"dA6", "HexagonalTrapezohedron"},
	}
}

func DefaultConfig() Config {
	return Config{
		InputDir:    ".",
		Format:      FormatTS,
		Backend:     BackendField,
		Normalize:   NormalizeOffset,
		MaxDegree:   DefaultMaxDegree,
		ScaleSymbol: DefaultScaleSymbol,
		Shapes:      DefaultShapes(),
	}
}

// LoadConfig reads a TOML file over the defaults. Unknown keys are an
// error. A file without [[shapes]] keeps the built-in table, and
// extended_shapes = true appends ExtendedShapes to either.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	cfg.Shapes = nil
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if len(cfg.Shapes) == 0 {
		cfg.Shapes = DefaultShapes()
	}
	if cfg.ExtendedShapes {
		cfg = cfg.WithExtendedShapes()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerated fields and the shape table.
func (c Config) Validate() error {
	switch c.Format {
	case FormatTS, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("config: unknown format %q", c.Format)
	}
	switch c.Backend {
	case BackendField, BackendSymbolic:
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	switch c.Normalize {
	case NormalizeOffset, NormalizeRaw:
	default:
		return fmt.Errorf("config: unknown normalization %q", c.Normalize)
	}
	if c.MaxDegree < 1 {
		return fmt.Errorf("config: max_degree must be positive, got %d", c.MaxDegree)
	}
	if c.ScaleSymbol == "" {
		return fmt.Errorf("config: scale_symbol must not be empty")
	}
	seen := map[string]bool{}
	for i, s := range c.Shapes {
		if s.Code == "" || s.Name == "" {
			return fmt.Errorf("config: shapes[%d] needs both code and name", i)
		}
		if seen[s.Code] {
			return fmt.Errorf("config: duplicate shape code %q", s.Code)
		}
		seen[s.Code] = true
	}
	return nil
}

// WithExtendedShapes appends the ExtendedShapes entries whose codes are
// not in the table yet.
func (c Config) WithExtendedShapes() Config {
	c.ExtendedShapes = true
	seen := make(map[string]bool, len(c.Shapes))
	for _, s := range c.Shapes {
		seen[s.Code] = true
	}
	shapes := append([]ShapeEntry(nil), c.Shapes...)
	for _, s := range ExtendedShapes() {
		if !seen[s.Code] {
			shapes = append(shapes, s)
		}
	}
	c.Shapes = shapes
	return c
}

// Select returns the table entries for the given codes in table order; no
// codes selects every entry.
func (c Config) Select(codes []string) ([]ShapeEntry, error) {
	if len(codes) == 0 {
		return append([]ShapeEntry(nil), c.Shapes...), nil
	}
	want := map[string]bool{}
	for _, code := range codes {
		want[code] = true
	}
	var out []ShapeEntry
	for _, s := range c.Shapes {
		if want[s.Code] {
			out = append(out, s)
			delete(want, s.Code)
		}
	}
	if len(want) > 0 {
		missing := make([]string, 0, len(want))
		for code := range want {
			missing = append(missing, code)
		}
		sort.Strings(missing)
		return nil, fmt.Errorf("unknown shape codes: %s", strings.Join(missing, ", "))
	}
	return out, nil
}
