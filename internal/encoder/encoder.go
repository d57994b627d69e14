// Package encoder turns a PostInput into the feature vector the model consumes.
package encoder

import (
	"github.com/go-playground/validator/v10"

	"github.com/jonesrussell/engagement-advisor/internal/domain"
	"github.com/jonesrussell/engagement-advisor/internal/schema"
)

// Vector is aligned 1:1 with the columns of the schema that produced it.
type Vector []float64

// Encoder is safe for concurrent use.
type Encoder struct {
	schema   *schema.Schema
	validate *validator.Validate
}

// New returns an Encoder for s.
func New(s *schema.Schema) *Encoder {
	return &Encoder{schema: s, validate: newValidator()}
}

// Schema returns the schema vectors are laid out against.
func (e *Encoder) Schema() *schema.Schema {
	return e.schema
}

// Encode builds the feature vector for in. Numeric values are copied
// unchanged. For each dimension the matching indicator is set to 1; a value
// outside the schema leaves the whole dimension at 0. Encode never fails.
func (e *Encoder) Encode(in domain.PostInput) Vector {
	vec := make(Vector, e.schema.Len())

	for _, col := range e.schema.Numeric() {
		if v, ok := in.Numeric(col); ok {
			i, _ := e.schema.Index(col)
			vec[i] = v
		}
	}

	for _, dim := range e.schema.Dimensions() {
		value, _ := in.Category(dim.Name)
		if i, ok := e.schema.Indicator(dim.Name, value); ok {
			vec[i] = 1
		}
	}

	return vec
}
