// Package campose turns a camera-frame pose estimate of a fiducial pattern into the camera's pose in
// the pattern's world frame.
package campose

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/fiducialpose/spatialmath"
	"go.viam.com/fiducialpose/utils"
)

// forward z components smaller than this leave the view ray parallel to the ground.
const parallelTolerance = 1e-12

// PoseEstimate is the output of a PnP solve: X_cam = R(RotationVector) * X_world + TranslationVector.
type PoseEstimate struct {
	RotationVector    r3.Vector `json:"rotation_vector"`
	TranslationVector r3.Vector `json:"translation_vector"`
}

// CameraPose is the camera's position and orientation in the pattern's world frame. Angles are in
// radians within (-pi, pi].
type CameraPose struct {
	RotationMatrixWorld *spatialmath.RotationMatrix `json:"rotation_matrix_world"`
	Position            r3.Vector                   `json:"position"`
	Yaw                 float64                     `json:"yaw"`
	Pitch               float64                     `json:"pitch"`
	Roll                float64                     `json:"roll"`
}

// Resolve converts a camera-frame pose estimate into a world-frame camera pose.
func Resolve(est PoseEstimate) (*CameraPose, error) {
	rv, tv := est.RotationVector, est.TranslationVector
	if !utils.IsFinite(rv.X, rv.Y, rv.Z, tv.X, tv.Y, tv.Z) {
		return nil, errors.Wrapf(ErrUpstreamPose, "non-finite estimate rvec=%v tvec=%v", rv, tv)
	}
	rot := spatialmath.RotationVectorToMatrix(rv)

	// The pattern's forward axis points out of the pattern, toward the camera, while the camera's
	// optical axis points into the scene. Negating the inverse flips between the two conventions;
	// it is not a sign fix and must not be dropped.
	world := rot.Transpose().Negate()
	pose := &CameraPose{
		RotationMatrixWorld: world,
		Position:            world.Mul(tv),
	}
	pose.Yaw, pose.Pitch, pose.Roll = decompose(world)
	return pose, nil
}

// decompose splits a world orientation matrix into yaw, pitch and roll.
func decompose(w *spatialmath.RotationMatrix) (yaw, pitch, roll float64) {
	// the pattern's z axis is inverted relative to the camera's, hence the half turn
	yaw = math.Atan2(w.At(1, 0), w.At(0, 0)) + math.Pi
	if yaw >= math.Pi {
		yaw -= 2 * math.Pi
	}
	roll = math.Atan2(w.At(2, 0), math.Hypot(w.At(2, 1), w.At(2, 2)))
	pitch = math.Atan2(w.At(2, 1), w.At(2, 2))
	return utils.WrapAnglePi(yaw), utils.WrapAnglePi(pitch), utils.WrapAnglePi(roll)
}

// Forward is the camera's forward axis in the world frame.
func (p *CameraPose) Forward() r3.Vector {
	return p.RotationMatrixWorld.Mul(r3.Vector{Z: 1})
}

// Up is the direction of the top edge of the image in the world frame.
func (p *CameraPose) Up() r3.Vector {
	return p.RotationMatrixWorld.Mul(r3.Vector{Y: 1})
}

// GroundIntercept returns where the camera's view ray crosses the z = 0 plane.
func (p *CameraPose) GroundIntercept() (r3.Vector, error) {
	return GroundIntercept(p.Position, p.Forward())
}

// GroundIntercept returns the point where the line through position along direction meets z = 0.
func GroundIntercept(position, direction r3.Vector) (r3.Vector, error) {
	if math.Abs(direction.Z) < parallelTolerance {
		return r3.Vector{}, errors.Wrapf(ErrDegenerateProjection, "direction %v", direction)
	}
	hit := position.Sub(direction.Mul(position.Z / direction.Z))
	if !utils.IsFinite(hit.X, hit.Y, hit.Z) {
		return r3.Vector{}, errors.Wrapf(ErrDegenerateProjection, "intercept %v", hit)
	}
	// the subtraction leaves rounding noise in z
	hit.Z = 0
	return hit, nil
}

// Degrees returns yaw, pitch and roll in degrees.
func (p *CameraPose) Degrees() (yaw, pitch, roll float64) {
	return utils.RadToDeg(p.Yaw), utils.RadToDeg(p.Pitch), utils.RadToDeg(p.Roll)
}

func (p *CameraPose) String() string {
	yaw, pitch, roll := p.Degrees()
	return fmt.Sprintf("position (%.3f, %.3f, %.3f) m, yaw %.1f°, pitch %.1f°, roll %.1f°",
		p.Position.X, p.Position.Y, p.Position.Z, yaw, pitch, roll)
}
