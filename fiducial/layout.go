package fiducial

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/fiducialpose/utils"
)

// Layout is the real world position of each marker center in meters, on the pattern's z = 0 plane.
// The pattern frame has +x to the right of X and +y from Z up to X.
type Layout struct {
	X     r3.Vector `json:"x"`
	Y     r3.Vector `json:"y"`
	Z     r3.Vector `json:"z"`
	Align r3.Vector `json:"align"`
}

// DefaultLayout is the printed pattern the tooling ships with, centered on the origin.
func DefaultLayout() Layout {
	return Layout{
		X:     r3.Vector{X: -0.024157, Y: 0.024157},
		Y:     r3.Vector{X: 0.024157, Y: 0.024157},
		Z:     r3.Vector{X: -0.024157, Y: -0.024157},
		Align: r3.Vector{X: 0.015817, Y: -0.015817},
	}
}

// Get returns the position of the given role.
func (l Layout) Get(role Role) r3.Vector {
	switch role {
	case RoleX:
		return l.X
	case RoleY:
		return l.Y
	case RoleZ:
		return l.Z
	default:
		return l.Align
	}
}

// Points returns the marker positions in X, Y, Z, A order, matching RoleAssignment.Points.
func (l Layout) Points() []r3.Vector {
	return []r3.Vector{l.X, l.Y, l.Z, l.Align}
}

// Validate checks that the layout is planar and that Classify labels it correctly when it is viewed
// straight on with X at the top left.
func (l Layout) Validate() error {
	for _, role := range Roles {
		p := l.Get(role)
		if !utils.IsFinite(p.X, p.Y, p.Z) {
			return errors.Wrapf(ErrInvalidLayout, "marker %v is not finite", role)
		}
		if p.Z != 0 {
			return errors.Wrapf(ErrInvalidLayout, "marker %v is off the z = 0 plane", role)
		}
	}

	// image y grows downward
	candidates := make([]MarkerCandidate, 0, NumMarkers)
	for _, role := range Roles {
		p := l.Get(role)
		area := 4.0
		if role == RoleAlign {
			area = 1
		}
		candidates = append(candidates, NewMarkerCandidate(p.X, -p.Y, area))
	}
	assignment, err := Classify(candidates)
	if err != nil {
		return errors.Wrapf(ErrInvalidLayout, "classifying layout: %v", err)
	}
	for _, role := range Roles {
		got := assignment.Get(role)
		want := l.Get(role)
		if got.X != want.X || got.Y != -want.Y {
			return errors.Wrapf(ErrInvalidLayout, "marker %v would be misclassified", role)
		}
	}
	return nil
}
