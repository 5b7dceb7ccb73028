package spatialmath

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func vectorAlmostEqual(t *testing.T, got, want r3.Vector, tol float64) {
	t.Helper()
	test.That(t, got.X, test.ShouldAlmostEqual, want.X, tol)
	test.That(t, got.Y, test.ShouldAlmostEqual, want.Y, tol)
	test.That(t, got.Z, test.ShouldAlmostEqual, want.Z, tol)
}

func TestRotationVectorToMatrix(t *testing.T) {
	t.Run("quarter turn about z", func(t *testing.T) {
		rm := RotationVectorToMatrix(r3.Vector{Z: math.Pi / 2})
		vectorAlmostEqual(t, rm.Mul(r3.Vector{X: 1}), r3.Vector{Y: 1}, 1e-12)
		vectorAlmostEqual(t, rm.Mul(r3.Vector{Y: 1}), r3.Vector{X: -1}, 1e-12)
		test.That(t, rm.Det(), test.ShouldAlmostEqual, 1, 1e-12)
	})

	t.Run("half turn about x", func(t *testing.T) {
		rm := RotationVectorToMatrix(r3.Vector{X: math.Pi})
		vectorAlmostEqual(t, rm.Row(0), r3.Vector{X: 1}, 1e-12)
		vectorAlmostEqual(t, rm.Row(1), r3.Vector{Y: -1}, 1e-12)
		vectorAlmostEqual(t, rm.Row(2), r3.Vector{Z: -1}, 1e-12)
	})

	t.Run("zero vector is identity", func(t *testing.T) {
		rm := RotationVectorToMatrix(r3.Vector{})
		test.That(t, rm.Values(), test.ShouldResemble, IdentityRotationMatrix().Values())
	})

	t.Run("always orthonormal", func(t *testing.T) {
		//nolint:gosec
		rng := rand.New(rand.NewSource(7))
		for i := 0; i < 100; i++ {
			v := r3.Vector{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}.Mul(2)
			rm := RotationVectorToMatrix(v)
			test.That(t, rm.IsOrthonormal(1e-12), test.ShouldBeTrue)
			test.That(t, rm.Det(), test.ShouldAlmostEqual, 1, 1e-12)
			// the rotation axis is fixed by the rotation
			vectorAlmostEqual(t, rm.Mul(v), v, 1e-9)
		}
	})
}

func TestMatrixToRotationVector(t *testing.T) {
	//nolint:gosec
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 200; i++ {
		axis := r3.Vector{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}.Normalize()
		theta := rng.Float64() * (math.Pi - 1e-3)
		v := axis.Mul(theta)
		vectorAlmostEqual(t, MatrixToRotationVector(RotationVectorToMatrix(v)), v, 1e-9)
	}

	t.Run("near pi", func(t *testing.T) {
		v := r3.Vector{X: 1, Y: 2, Z: -2}.Normalize().Mul(math.Pi - 1e-9)
		got := MatrixToRotationVector(RotationVectorToMatrix(v))
		vectorAlmostEqual(t, got, v, 1e-6)
	})

	t.Run("exactly pi", func(t *testing.T) {
		v := r3.Vector{X: 0, Y: 1, Z: 0}.Mul(math.Pi)
		got := MatrixToRotationVector(RotationVectorToMatrix(v))
		test.That(t, got.Norm(), test.ShouldAlmostEqual, math.Pi, 1e-9)
		// +axis and -axis are the same rotation at pi
		vectorAlmostEqual(t, RotationVectorToMatrix(got).Row(0), r3.Vector{X: -1}, 1e-9)
		vectorAlmostEqual(t, RotationVectorToMatrix(got).Row(2), r3.Vector{Z: -1}, 1e-9)
	})

	t.Run("identity", func(t *testing.T) {
		test.That(t, MatrixToRotationVector(IdentityRotationMatrix()), test.ShouldResemble, r3.Vector{})
	})
}

func TestR4AA(t *testing.T) {
	aa := R3ToR4(r3.Vector{X: 0, Y: 0, Z: -math.Pi / 4})
	test.That(t, aa.Theta, test.ShouldAlmostEqual, math.Pi/4)
	test.That(t, aa.RZ, test.ShouldAlmostEqual, -1.)
	vectorAlmostEqual(t, aa.ToR3(), r3.Vector{Z: -math.Pi / 4}, 1e-12)

	test.That(t, R3ToR4(r3.Vector{}), test.ShouldResemble, NewR4AA())

	unnormalized := &R4AA{Theta: 1, RX: 3, RY: 0, RZ: 4}
	unnormalized.Normalize()
	test.That(t, unnormalized.RX, test.ShouldAlmostEqual, 0.6)
	test.That(t, unnormalized.RZ, test.ShouldAlmostEqual, 0.8)

	zero := &R4AA{Theta: 1}
	zero.Normalize()
	test.That(t, zero, test.ShouldResemble, NewR4AA())

	vectorAlmostEqual(t, aa.RotationMatrix().Mul(r3.Vector{X: 1}), r3.Vector{X: math.Sqrt2 / 2, Y: -math.Sqrt2 / 2}, 1e-12)
}

func TestNearestRotation(t *testing.T) {
	truth := RotationVectorToMatrix(r3.Vector{X: 0.3, Y: -0.2, Z: 1.1})
	noisy := truth.Dense()
	noisy.Set(0, 1, noisy.At(0, 1)+1e-3)
	noisy.Set(2, 0, noisy.At(2, 0)-2e-3)
	noisy.Scale(1.7, noisy)

	rm, err := NearestRotation(noisy)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rm.IsOrthonormal(1e-12), test.ShouldBeTrue)
	test.That(t, rm.Det(), test.ShouldAlmostEqual, 1, 1e-12)
	for i := 0; i < 3; i++ {
		vectorAlmostEqual(t, rm.Row(i), truth.Row(i), 5e-3)
	}

	// a reflection is pushed to the closest proper rotation
	reflected, err := NearestRotation(truth.Negate().Dense())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, reflected.Det(), test.ShouldAlmostEqual, 1, 1e-12)

	_, err = NearestRotation(mat.NewDense(2, 2, nil))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRotationMatrixOps(t *testing.T) {
	_, err := NewRotationMatrix([]float64{1, 2, 3})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewRotationMatrix([]float64{1, 0, 0, 0, 1, 0, 0, 0, math.NaN()})
	test.That(t, err, test.ShouldNotBeNil)

	rm := RotationVectorToMatrix(r3.Vector{X: 0.4, Y: 0.1, Z: -0.7})
	inv := rm.Transpose()
	prod := rm.MulMatrix(inv)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.
			if i == j {
				want = 1
			}
			test.That(t, prod.At(i, j), test.ShouldAlmostEqual, want, 1e-12)
		}
	}

	neg := rm.Negate()
	test.That(t, neg.IsOrthonormal(1e-12), test.ShouldBeTrue)
	test.That(t, neg.Det(), test.ShouldAlmostEqual, -1, 1e-12)
	vectorAlmostEqual(t, neg.Col(2), rm.Col(2).Mul(-1), 0)

	fromCols := NewRotationMatrixFromCols(rm.Col(0), rm.Col(1), rm.Col(2))
	test.That(t, fromCols.Values(), test.ShouldResemble, rm.Values())

	notOrtho, err := NewRotationMatrix([]float64{1, 0, 0, 0, 2, 0, 0, 0, 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, notOrtho.IsOrthonormal(1e-9), test.ShouldBeFalse)
}

func TestRotationMatrixJSON(t *testing.T) {
	rm := NewRotationMatrixFromRows(r3.Vector{X: -1}, r3.Vector{Y: 1}, r3.Vector{Z: 1})
	data, err := json.Marshal(rm)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldEqual, "[[-1,0,0],[0,1,0],[0,0,1]]")

	var decoded RotationMatrix
	test.That(t, json.Unmarshal(data, &decoded), test.ShouldBeNil)
	test.That(t, decoded.Values(), test.ShouldResemble, rm.Values())
	test.That(t, json.Unmarshal([]byte(`{"rows": 3}`), &decoded), test.ShouldNotBeNil)
}
