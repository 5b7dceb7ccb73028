// Package visualize draws a resolved camera pose next to the fiducial pattern, as PNG images and as
// an interactive HTML page.
package visualize

import (
	"github.com/golang/geo/r3"

	"go.viam.com/fiducialpose/campose"
)

const (
	// PatternHalfExtent is half the side of the drawn pattern in meters.
	PatternHalfExtent = 0.044
	// ArrowLength is the length of the pattern top and camera up arrows in meters.
	ArrowLength = 0.1

	horizontalLimit = 0.5
	verticalLimit   = 1.0
)

// Segment is a straight line between two points.
type Segment struct {
	From, To r3.Vector
}

// Scene is everything that is drawn for one pose.
type Scene struct {
	// Pattern is the outline of the pattern on the ground, counterclockwise from the bottom left.
	Pattern    [4]r3.Vector
	PatternTop Segment
	Camera     r3.Vector
	ViewRay    Segment
	CameraUp   Segment
}

// NewScene lays out the drawing of a pose. It fails when the view ray never reaches the ground.
func NewScene(pose *campose.CameraPose) (*Scene, error) {
	intercept, err := pose.GroundIntercept()
	if err != nil {
		return nil, err
	}
	h := PatternHalfExtent
	return &Scene{
		Pattern: [4]r3.Vector{
			{X: -h, Y: -h},
			{X: h, Y: -h},
			{X: h, Y: h},
			{X: -h, Y: h},
		},
		PatternTop: Segment{To: r3.Vector{Y: ArrowLength}},
		Camera:     pose.Position,
		ViewRay:    Segment{From: pose.Position, To: intercept},
		CameraUp:   Segment{From: pose.Position, To: pose.Position.Add(pose.Up().Normalize().Mul(ArrowLength))},
	}, nil
}

// sample returns n evenly spaced points along the segment, both ends included.
func (s Segment) sample(n int) []r3.Vector {
	if n < 2 {
		return []r3.Vector{s.From, s.To}
	}
	out := make([]r3.Vector, n)
	step := s.To.Sub(s.From).Mul(1 / float64(n-1))
	for i := range out {
		out[i] = s.From.Add(step.Mul(float64(i)))
	}
	out[n-1] = s.To
	return out
}
