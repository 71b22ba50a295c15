package exactpoly

import (
	"log/slog"
)

// ============================================================
// FieldRegistry — append-only arena of number fields
// ============================================================

// FieldRegistry owns every NumberField built during one run. Fields are
// addressed by their index in construction order; the registry only grows.
type FieldRegistry struct {
	fields    []*NumberField
	maxDegree int
	logger    *slog.Logger
}

// NewFieldRegistry returns an empty registry. A nil logger means
// slog.Default().
func NewFieldRegistry(maxDegree int, logger *slog.Logger) *FieldRegistry {
	if maxDegree <= 0 {
		maxDegree = DefaultMaxDegree
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FieldRegistry{maxDegree: maxDegree, logger: logger}
}

func (reg *FieldRegistry) Len() int                 { return len(reg.fields) }
func (reg *FieldRegistry) Field(i int) *NumberField { return reg.fields[i] }
func (reg *FieldRegistry) MaxDegree() int           { return reg.maxDegree }
func (reg *FieldRegistry) Fields() []*NumberField   { return append([]*NumberField(nil), reg.fields...) }

// LookupOrInsert returns the first field, in construction order, that
// embeds every radicand's square root. When none does, a new field for the
// radicands is built and appended.
func (reg *FieldRegistry) LookupOrInsert(radicands []int64) (int, *NumberField, error) {
	for i, f := range reg.fields {
		if f.Embed(radicands) {
			reg.logger.Debug("field reused", "field", i, "name", f.String(), "radicands", radicands)
			return i, f, nil
		}
	}
	f, err := BuildField(radicands, reg.maxDegree)
	if err != nil {
		return -1, nil, err
	}
	if !f.Embed(radicands) {
		// BuildField spans every radicand it was given.
		return -1, nil, &FieldMembershipError{Field: f.String(), Radicand: firstMissing(f, radicands)}
	}
	reg.fields = append(reg.fields, f)
	reg.logger.Info("field built",
		"field", len(reg.fields)-1,
		"name", f.String(),
		"degree", f.Degree(),
		"minpoly", f.MinimalPolynomial().String())
	return len(reg.fields) - 1, f, nil
}

func firstMissing(f *NumberField, radicands []int64) int64 {
	for _, r := range radicands {
		if !f.Contains(r) {
			return r
		}
	}
	return 0
}
