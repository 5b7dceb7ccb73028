package fiducial

import "github.com/pkg/errors"

var (
	// ErrInputCardinality is returned when the number of marker candidates is not exactly four.
	ErrInputCardinality = errors.New("wrong number of marker candidates")

	// ErrDegenerateGeometry is returned when marker roles cannot be told apart: coincident or
	// non-finite positions, indistinguishable areas, or ambiguous bearings from the alignment marker.
	ErrDegenerateGeometry = errors.New("degenerate marker geometry")

	// ErrInvalidLayout is returned when a real world layout cannot be used with the classifier.
	ErrInvalidLayout = errors.New("invalid marker layout")
)
