package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// See here for a thorough explanation: https://en.wikipedia.org/wiki/Axis%E2%80%93angle_representation
// Basic explanation: Imagine a 3d cartesian grid centered at 0,0,0, and a sphere of radius 1 centered at
// that same point. An orientation can be expressed by first specifying an axis, i.e. a line from the origin
// to a point on that sphere, represented by (rx, ry, rz), and a rotation around that axis, theta.
// These four numbers can be used as-is (R4), or they can be converted to R3, where theta is multiplied by each of
// the unit sphere components to give a vector whose length is theta and whose direction is the original axis.
// The R3 form is the "rotation vector" produced by PnP solvers.

// smallAngle is the rotation magnitude below which the first order series is used.
const smallAngle = 1e-12

// R4AA represents an R4 axis angle.
type R4AA struct {
	Theta float64 `json:"th"`
	RX    float64 `json:"x"`
	RY    float64 `json:"y"`
	RZ    float64 `json:"z"`
}

// NewR4AA creates an empty R4AA struct.
func NewR4AA() *R4AA {
	return &R4AA{Theta: 0, RX: 0, RY: 0, RZ: 1}
}

// ToR3 converts an R4 angle axis to R3.
func (r4 *R4AA) ToR3() r3.Vector {
	return r3.Vector{X: r4.RX * r4.Theta, Y: r4.RY * r4.Theta, Z: r4.RZ * r4.Theta}
}

// Normalize scales the x, y, and z components of a R4 axis angle to be on the unit sphere.
// A zero axis is replaced by the +Z axis with no rotation.
func (r4 *R4AA) Normalize() {
	norm := math.Sqrt(r4.RX*r4.RX + r4.RY*r4.RY + r4.RZ*r4.RZ)
	if norm == 0.0 {
		*r4 = *NewR4AA()
		return
	}
	r4.RX /= norm
	r4.RY /= norm
	r4.RZ /= norm
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (r4 *R4AA) RotationMatrix() *RotationMatrix {
	return RotationVectorToMatrix(r4.ToR3())
}

// R3ToR4 converts an R3 angle axis to R4.
func R3ToR4(aa r3.Vector) *R4AA {
	theta := aa.Norm()
	if theta == 0 {
		return NewR4AA()
	}
	return &R4AA{theta, aa.X / theta, aa.Y / theta, aa.Z / theta}
}

// skew returns the cross product matrix [v]x such that [v]x * w = v x w.
func skew(v r3.Vector) *RotationMatrix {
	return &RotationMatrix{[9]float64{
		0, -v.Z, v.Y,
		v.Z, 0, -v.X,
		-v.Y, v.X, 0,
	}}
}

// RotationVectorToMatrix is the Rodrigues formula: it maps a rotation vector (axis scaled by angle,
// in radians) to the rotation matrix R = I + sin(theta) K + (1 - cos(theta)) K^2, where K is the
// cross product matrix of the unit axis.
func RotationVectorToMatrix(v r3.Vector) *RotationMatrix {
	theta := v.Norm()
	if theta < smallAngle {
		// R ~= I + [v]x
		k := skew(v)
		out := IdentityRotationMatrix()
		for i := range out.mat {
			out.mat[i] += k.mat[i]
		}
		return out
	}
	k := skew(v.Mul(1 / theta))
	k2 := k.MulMatrix(k)
	s, c := math.Sin(theta), 1-math.Cos(theta)

	out := IdentityRotationMatrix()
	for i := range out.mat {
		out.mat[i] += s*k.mat[i] + c*k2.mat[i]
	}
	return out
}

// MatrixToRotationVector is the inverse of RotationVectorToMatrix. The returned vector has a norm in
// [0, pi]. The matrix must be a proper rotation.
func MatrixToRotationVector(rm *RotationMatrix) r3.Vector {
	cosTheta := (rm.At(0, 0) + rm.At(1, 1) + rm.At(2, 2) - 1) / 2
	cosTheta = math.Max(-1, math.Min(1, cosTheta))
	theta := math.Acos(cosTheta)

	// twice the axis scaled by sin(theta), from the antisymmetric part
	anti := r3.Vector{
		X: rm.At(2, 1) - rm.At(1, 2),
		Y: rm.At(0, 2) - rm.At(2, 0),
		Z: rm.At(1, 0) - rm.At(0, 1),
	}

	switch {
	case theta < smallAngle:
		return anti.Mul(0.5)
	case math.Pi-theta < 1e-6:
		// sin(theta) ~= 0, so recover the axis from the symmetric part R = 2kk^T - I,
		// starting from the largest diagonal component for numerical stability.
		diag := []float64{rm.At(0, 0), rm.At(1, 1), rm.At(2, 2)}
		i := 0
		for j := 1; j < 3; j++ {
			if diag[j] > diag[i] {
				i = j
			}
		}
		var axis [3]float64
		axis[i] = math.Sqrt(math.Max(0, (diag[i]+1)/2))
		for j := 0; j < 3; j++ {
			if j != i {
				axis[j] = (rm.At(i, j) + rm.At(j, i)) / (4 * axis[i])
			}
		}
		k := r3.Vector{X: axis[0], Y: axis[1], Z: axis[2]}.Normalize()
		if k.Dot(anti) < 0 {
			k = k.Mul(-1)
		}
		return k.Mul(theta)
	default:
		return anti.Mul(theta / (2 * math.Sin(theta)))
	}
}
