// Package fiducial identifies the markers of a planar fiducial pattern. The pattern has three
// position markers X, Y and Z and a smaller alignment marker A:
//
//	X----------Y
//	------------
//	------------
//	------------
//	---------A--
//	Z-----------
//
// Roles are deduced purely from the geometry of four detected blobs.
package fiducial

import (
	"fmt"

	"github.com/golang/geo/r2"
)

// NumMarkers is the number of markers in the pattern.
const NumMarkers = 4

// MarkerCandidate is a detected blob: its pixel centroid and contour area.
type MarkerCandidate struct {
	Center r2.Point `json:"center"`
	Area   float64  `json:"area"`
}

// NewMarkerCandidate is a convenience constructor.
func NewMarkerCandidate(x, y, area float64) MarkerCandidate {
	return MarkerCandidate{Center: r2.Point{X: x, Y: y}, Area: area}
}

func (mc MarkerCandidate) String() string {
	return fmt.Sprintf("(%.1f, %.1f, area %.1f)", mc.Center.X, mc.Center.Y, mc.Area)
}

// Role is the semantic label of a marker.
type Role int

const (
	// RoleX is the position marker at the pattern's top left.
	RoleX Role = iota
	// RoleY is the position marker at the pattern's top right.
	RoleY
	// RoleZ is the position marker at the pattern's bottom left.
	RoleZ
	// RoleAlign is the smaller alignment marker near the bottom right.
	RoleAlign
)

// Roles lists every role in the canonical X, Y, Z, A order.
var Roles = [NumMarkers]Role{RoleX, RoleY, RoleZ, RoleAlign}

func (r Role) String() string {
	switch r {
	case RoleX:
		return "X"
	case RoleY:
		return "Y"
	case RoleZ:
		return "Z"
	case RoleAlign:
		return "A"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// RoleAssignment holds the pixel position of every marker role.
type RoleAssignment struct {
	MarkerX     r2.Point `json:"marker_x"`
	MarkerY     r2.Point `json:"marker_y"`
	MarkerZ     r2.Point `json:"marker_z"`
	AlignMarker r2.Point `json:"align_marker"`
}

// Get returns the position assigned to the given role.
func (ra *RoleAssignment) Get(role Role) r2.Point {
	switch role {
	case RoleX:
		return ra.MarkerX
	case RoleY:
		return ra.MarkerY
	case RoleZ:
		return ra.MarkerZ
	case RoleAlign:
		return ra.AlignMarker
	default:
		panic(fmt.Sprintf("unknown role %d", int(role)))
	}
}

// Points returns the positions in X, Y, Z, A order, matching Layout.Points.
func (ra *RoleAssignment) Points() []r2.Point {
	return []r2.Point{ra.MarkerX, ra.MarkerY, ra.MarkerZ, ra.AlignMarker}
}
