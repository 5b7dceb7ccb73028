package utils

import "math"

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// Float64AlmostEqual compares two float64s and returns if the difference between them is less than epsilon.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}

// WrapAnglePi wraps an angle in radians into the half-open interval (-pi, pi].
func WrapAnglePi(radians float64) float64 {
	wrapped := math.Mod(radians, 2*math.Pi)
	if wrapped > math.Pi {
		wrapped -= 2 * math.Pi
	} else if wrapped <= -math.Pi {
		wrapped += 2 * math.Pi
	}
	return wrapped
}

// WrapAngle2Pi wraps an angle in radians into [0, 2pi).
func WrapAngle2Pi(radians float64) float64 {
	wrapped := math.Mod(radians, 2*math.Pi)
	if wrapped < 0 {
		wrapped += 2 * math.Pi
	}
	// math.Mod of a tiny negative number plus 2pi can round up to exactly 2pi.
	if wrapped >= 2*math.Pi {
		wrapped = 0
	}
	return wrapped
}

// AngleDiffRad returns the absolute difference of two bearings folded onto [0, pi], so that two
// bearings on either side of the +-pi seam are close rather than almost a full turn apart.
func AngleDiffRad(a1, a2 float64) float64 {
	diff := math.Abs(a1 - a2)
	if diff > math.Pi {
		diff = 2*math.Pi - diff
	}
	return diff
}

// IsFinite reports whether every value is neither NaN nor infinite.
func IsFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
