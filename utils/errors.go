package utils

import (
	"github.com/pkg/errors"
)

// NewConfigValidationError returns an error specifying that there is an error with the
// config at the given path.
func NewConfigValidationError(path string, err error) error {
	return errors.Wrapf(err, "error validating %q", path)
}

// NewConfigValidationFieldRequiredError returns an error specifying that a required field
// is missing or has an unusable zero value at the given path.
func NewConfigValidationFieldRequiredError(path, field string) error {
	return NewConfigValidationError(path, errors.Errorf("%q is required", field))
}

// NewConfigValidationOutOfRangeError returns an error specifying that a field holds a value
// outside of the range it accepts.
func NewConfigValidationOutOfRangeError(path, field string, value interface{}, want string) error {
	return NewConfigValidationError(path, errors.Errorf("%q is %v, must be %s", field, value, want))
}
