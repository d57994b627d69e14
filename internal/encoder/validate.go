package encoder

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonesrussell/engagement-advisor/internal/domain"
)

var (
	// ErrOutOfRange marks a numeric field outside its bounds.
	ErrOutOfRange = errors.New("value out of range")
	// ErrUnknownCategory marks a categorical value the schema does not define.
	ErrUnknownCategory = errors.New("unknown category")
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// ValidationError lists every invalid field of a PostInput.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Message
	}
	return "invalid post input: " + strings.Join(parts, "; ")
}

// Unwrap exposes the per-field sentinels to errors.Is.
func (e *ValidationError) Unwrap() []error {
	errs := make([]error, len(e.Fields))
	for i, f := range e.Fields {
		errs[i] = f.Err
	}
	return errs
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks numeric bounds and that every categorical value belongs to
// the schema. It returns a *ValidationError listing all problems.
func (e *Encoder) Validate(in domain.PostInput) error {
	var fields []FieldError

	if err := e.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate post input: %w", err)
		}
		for _, fe := range verrs {
			fields = append(fields, FieldError{
				Field:   fe.Field(),
				Message: boundMessage(fe),
				Err:     ErrOutOfRange,
			})
		}
	}

	for _, col := range e.schema.Numeric() {
		v, ok := in.Numeric(col)
		if ok && math.IsInf(v, 0) {
			fields = append(fields, FieldError{Field: col, Message: "must be finite", Err: ErrOutOfRange})
		}
	}

	for _, dim := range e.schema.Dimensions() {
		value, _ := in.Category(dim.Name)
		if _, ok := e.schema.Indicator(dim.Name, value); ok {
			continue
		}
		msg := fmt.Sprintf("must be one of: %s", strings.Join(dim.Values, ", "))
		if value == "" {
			msg = "is required; " + msg
		}
		fields = append(fields, FieldError{Field: dim.Name, Message: msg, Err: ErrUnknownCategory})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func boundMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}
