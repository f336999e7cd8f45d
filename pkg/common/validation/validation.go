// Package validation provides common validation utilities for the loadflow library.
package validation

import (
	"math"
	"reflect"
	"time"

	lferrors "github.com/vnykmshr/loadflow/pkg/common/errors"
)

// ValidatePositive validates that an integer value is positive (> 0).
func ValidatePositive(module, field string, value int) error {
	if value <= 0 {
		return lferrors.NewValidationError(module, field, value, "must be positive").
			WithHint("value must be greater than 0")
	}
	return nil
}

// ValidatePositiveDuration validates that a duration is positive (> 0).
func ValidatePositiveDuration(module, field string, value time.Duration) error {
	if value <= 0 {
		return lferrors.NewValidationError(module, field, value, "must be positive").
			WithHint("use a duration such as 100ms")
	}
	return nil
}

// ValidateProgress validates that a progress fraction is a number in [0, 1].
func ValidateProgress(module, field string, value float64) error {
	if math.IsNaN(value) || value < 0 || value > 1 {
		return lferrors.NewValidationError(module, field, value, "must be within [0, 1]").
			WithHint("progress is a fraction of the total work")
	}
	return nil
}

// ValidateNonDecreasing validates that values never go backwards.
func ValidateNonDecreasing(module, field string, values []float64) error {
	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			return lferrors.NewValidationError(module, field, values, "must be non-decreasing").
				WithHint("progress may only stay level or grow")
		}
	}
	return nil
}

// ValidateNotNil validates that an interface value is not nil, including
// typed nil pointers, maps, slices and funcs stored in the interface.
func ValidateNotNil(module, field string, value interface{}) error {
	if isNil(value) {
		return lferrors.NewValidationError(module, field, nil, "cannot be nil").
			WithHint("provide a valid " + field)
	}
	return nil
}

// ValidateNotEmpty validates that a string value is not empty.
func ValidateNotEmpty(module, field string, value string) error {
	if value == "" {
		return lferrors.NewValidationError(module, field, value, "cannot be empty").
			WithHint("provide a non-empty " + field)
	}
	return nil
}

func isNil(value interface{}) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
