package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrRunNotFound     = fmt.Errorf("%w: run", ErrNotFound)
	ErrProfileNotFound = fmt.Errorf("%w: reference profile", ErrNotFound)
	ErrFeatureNotFound = fmt.Errorf("%w: feature", ErrNotFound)

	// Configuration errors - fatal to the call that supplied them
	ErrConfiguration    = errors.New("invalid configuration")
	ErrEmptyReference   = fmt.Errorf("%w: reference column has no usable values", ErrConfiguration)
	ErrBadThreshold     = fmt.Errorf("%w: threshold must be positive", ErrConfiguration)
	ErrBadBinCount      = fmt.Errorf("%w: bin count must be at least 2", ErrConfiguration)
	ErrUnknownMetric    = fmt.Errorf("%w: unknown drift metric", ErrConfiguration)
	ErrUnknownFrequency = fmt.Errorf("%w: unknown window frequency", ErrConfiguration)

	// Feature mismatch errors - recovered locally, never abort a run
	ErrFeatureMissing = errors.New("feature missing from comparison data")
	ErrKindMismatch   = errors.New("feature kind differs between reference and comparison")

	// Delivery errors - caught at the dispatcher boundary
	ErrSinkDelivery = errors.New("sink delivery failed")

	// Data errors
	ErrDataInvalid = errors.New("invalid input data")
	ErrEmptyStream = fmt.Errorf("%w: comparison stream has no rows", ErrDataInvalid)
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewConfigurationError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrConfiguration, field, reason)
}

func NewFeatureMissingError(feature string) error {
	return fmt.Errorf("%w: %s", ErrFeatureMissing, feature)
}

func NewKindMismatchError(feature, refKind, cmpKind string) error {
	return fmt.Errorf("%w: %s is %s in reference but %s in comparison", ErrKindMismatch, feature, refKind, cmpKind)
}

func NewSinkDeliveryError(sink string, err error) error {
	return fmt.Errorf("%w: sink %s: %v", ErrSinkDelivery, sink, err)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func IsFeatureMismatchError(err error) bool {
	return errors.Is(err, ErrFeatureMissing) ||
		errors.Is(err, ErrKindMismatch)
}

func IsSinkDeliveryError(err error) bool {
	return errors.Is(err, ErrSinkDelivery)
}

func IsDataError(err error) bool {
	return errors.Is(err, ErrDataInvalid)
}
