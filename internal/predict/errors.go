package predict

import (
	"errors"
	"strings"
)

var (
	ErrMissingFeatures  = errors.New("missing required features")
	ErrUnmappedCategory = errors.New("unmapped categorical value")
	ErrInvalidFeature   = errors.New("invalid feature value")
	ErrModel            = errors.New("model failure")
)

// MissingFeaturesError lists required features absent from the input.
type MissingFeaturesError struct{ Missing []string }

func (e *MissingFeaturesError) Error() string {
	return "Missing required features: " + strings.Join(e.Missing, ", ")
}

func (e *MissingFeaturesError) Is(target error) bool { return target == ErrMissingFeatures }

// UnmappedCategoryError lists categorical columns whose value has no entry in
// the lookup table.
type UnmappedCategoryError struct{ Columns []string }

func (e *UnmappedCategoryError) Error() string {
	return "Some categorical variables have invalid values. Unmapped columns: " + strings.Join(e.Columns, ", ")
}

func (e *UnmappedCategoryError) Is(target error) bool { return target == ErrUnmappedCategory }
