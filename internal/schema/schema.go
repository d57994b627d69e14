// Package schema defines the ordered feature columns the engagement model was
// trained on, and verifies them against a model artifact.
package schema

import (
	"errors"
	"fmt"
	"slices"

	"github.com/jonesrussell/engagement-advisor/internal/domain"
)

// DefaultVersion identifies the built-in schema.
const DefaultVersion = "v1"

var (
	// ErrSchemaMismatch means a model artifact expects different columns.
	ErrSchemaMismatch = errors.New("feature schema does not match model")
	// ErrInvalidSchema means a schema definition is malformed.
	ErrInvalidSchema = errors.New("invalid feature schema")
)

// Dimension is a categorical input and its closed set of values.
type Dimension struct {
	Name   string   `json:"name"   yaml:"name"`
	Values []string `json:"values" yaml:"values"`
}

// Schema is an immutable, versioned column layout. Numeric columns come first,
// followed by one indicator column per (dimension, value) pair.
type Schema struct {
	version    string
	numeric    []string
	dimensions []Dimension
	columns    []string
	index      map[string]int
}

// New builds a schema. Column names must be unique and every dimension must
// have at least one value.
func New(version string, numeric []string, dimensions []Dimension) (*Schema, error) {
	if version == "" {
		return nil, fmt.Errorf("%w: version is required", ErrInvalidSchema)
	}
	if len(numeric) == 0 && len(dimensions) == 0 {
		return nil, fmt.Errorf("%w: no columns", ErrInvalidSchema)
	}

	s := &Schema{
		version:    version,
		numeric:    slices.Clone(numeric),
		dimensions: make([]Dimension, 0, len(dimensions)),
		index:      make(map[string]int),
	}

	add := func(col string) error {
		if col == "" {
			return fmt.Errorf("%w: empty column name", ErrInvalidSchema)
		}
		if _, dup := s.index[col]; dup {
			return fmt.Errorf("%w: duplicate column %q", ErrInvalidSchema, col)
		}
		s.index[col] = len(s.columns)
		s.columns = append(s.columns, col)
		return nil
	}

	for _, col := range numeric {
		if err := add(col); err != nil {
			return nil, err
		}
	}

	seenDims := make(map[string]struct{}, len(dimensions))
	for _, dim := range dimensions {
		if dim.Name == "" || len(dim.Values) == 0 {
			return nil, fmt.Errorf("%w: dimension %q has no values", ErrInvalidSchema, dim.Name)
		}
		if _, dup := seenDims[dim.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate dimension %q", ErrInvalidSchema, dim.Name)
		}
		seenDims[dim.Name] = struct{}{}

		for _, v := range dim.Values {
			if err := add(IndicatorName(dim.Name, v)); err != nil {
				return nil, err
			}
		}
		s.dimensions = append(s.dimensions, Dimension{Name: dim.Name, Values: slices.Clone(dim.Values)})
	}

	return s, nil
}

// Default returns the v1 schema: 9 numeric columns and 20 indicators, in the
// order the model was trained with. Dimension values are alphabetical.
func Default() *Schema {
	s, err := New(DefaultVersion,
		[]string{
			domain.ColumnLikes,
			domain.ColumnComments,
			domain.ColumnShares,
			domain.ColumnSaves,
			domain.ColumnReach,
			domain.ColumnImpressions,
			domain.ColumnCaptionLength,
			domain.ColumnHashtagsCount,
			domain.ColumnFollowersGained,
		},
		[]Dimension{
			{Name: domain.DimensionMediaType, Values: []string{"Carousel", "Photo", "Reel", "Video"}},
			{Name: domain.DimensionTrafficSource, Values: []string{"Explore", "External", "Hashtags", "Home Feed", "Profile", "Reels Feed"}},
			{Name: domain.DimensionContentCategory, Values: []string{
				"Beauty", "Comedy", "Fashion", "Fitness", "Food",
				"Lifestyle", "Music", "Photography", "Technology", "Travel",
			}},
		},
	)
	if err != nil {
		panic(err)
	}
	return s
}

// IndicatorName returns "<dimension>_<value>".
func IndicatorName(dimension, value string) string {
	return dimension + "_" + value
}

// Version returns the schema version.
func (s *Schema) Version() string { return s.version }

// Len returns the number of columns.
func (s *Schema) Len() int { return len(s.columns) }

// Columns returns a copy of the ordered column names.
func (s *Schema) Columns() []string { return slices.Clone(s.columns) }

// Numeric returns a copy of the numeric column names.
func (s *Schema) Numeric() []string { return slices.Clone(s.numeric) }

// Dimensions returns a deep copy of the categorical dimensions.
func (s *Schema) Dimensions() []Dimension {
	out := make([]Dimension, len(s.dimensions))
	for i, d := range s.dimensions {
		out[i] = Dimension{Name: d.Name, Values: slices.Clone(d.Values)}
	}
	return out
}

// Values returns the allowed values of a dimension.
func (s *Schema) Values(dimension string) ([]string, bool) {
	for _, d := range s.dimensions {
		if d.Name == dimension {
			return slices.Clone(d.Values), true
		}
	}
	return nil, false
}

// Index returns the position of a column.
func (s *Schema) Index(column string) (int, bool) {
	i, ok := s.index[column]
	return i, ok
}

// Indicator returns the indicator column for a dimension value and its position.
// It reports false when the value is not part of the schema.
func (s *Schema) Indicator(dimension, value string) (int, bool) {
	return s.Index(IndicatorName(dimension, value))
}

// Named keys vec by column name. Columns vec is too short for are omitted.
func (s *Schema) Named(vec []float64) map[string]float64 {
	out := make(map[string]float64, len(s.columns))
	for i, col := range s.columns {
		if i < len(vec) {
			out[col] = vec[i]
		}
	}
	return out
}

// Verify checks that names equals the schema's columns in order and spelling.
func (s *Schema) Verify(names []string) error {
	if err := s.VerifyCount(len(names)); err != nil {
		return err
	}
	for i, name := range names {
		if name != s.columns[i] {
			return fmt.Errorf("%w: column %d is %q in the model, %q in schema %s",
				ErrSchemaMismatch, i, name, s.columns[i], s.version)
		}
	}
	return nil
}

// VerifyCount checks the column count when a model declares no feature names.
func (s *Schema) VerifyCount(n int) error {
	if n != len(s.columns) {
		return fmt.Errorf("%w: model expects %d features, schema %s has %d",
			ErrSchemaMismatch, n, s.version, len(s.columns))
	}
	return nil
}
