package spatialmath

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// RotationMatrix is a 3x3 orthonormal matrix stored in row-major order. Most values are proper
// rotations (determinant +1), but a world-facing camera orientation is a rotation composed with an
// axis flip, so improper orthonormal matrices are representable too.
type RotationMatrix struct {
	mat [9]float64
}

// NewRotationMatrix creates a rotation matrix from a row-major slice of 9 values.
func NewRotationMatrix(m []float64) (*RotationMatrix, error) {
	if len(m) != 9 {
		return nil, errors.Errorf("input slice has %d elements, need exactly 9", len(m))
	}
	rm := &RotationMatrix{}
	for i, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.Errorf("rotation matrix element %d is not finite: %v", i, v)
		}
		rm.mat[i] = v
	}
	return rm, nil
}

// NewRotationMatrixFromRows builds a rotation matrix whose rows are the given vectors.
func NewRotationMatrixFromRows(r0, r1, r2 r3.Vector) *RotationMatrix {
	return &RotationMatrix{[9]float64{
		r0.X, r0.Y, r0.Z,
		r1.X, r1.Y, r1.Z,
		r2.X, r2.Y, r2.Z,
	}}
}

// NewRotationMatrixFromCols builds a rotation matrix whose columns are the given vectors.
func NewRotationMatrixFromCols(c0, c1, c2 r3.Vector) *RotationMatrix {
	return NewRotationMatrixFromRows(c0, c1, c2).Transpose()
}

// IdentityRotationMatrix returns the identity.
func IdentityRotationMatrix() *RotationMatrix {
	return &RotationMatrix{[9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// At returns the value at the given row and column.
func (rm *RotationMatrix) At(row, col int) float64 {
	return rm.mat[row*3+col]
}

// Row returns the given row as a vector.
func (rm *RotationMatrix) Row(row int) r3.Vector {
	return r3.Vector{X: rm.mat[3*row], Y: rm.mat[3*row+1], Z: rm.mat[3*row+2]}
}

// Col returns the given column as a vector.
func (rm *RotationMatrix) Col(col int) r3.Vector {
	return r3.Vector{X: rm.mat[col], Y: rm.mat[col+3], Z: rm.mat[col+6]}
}

// Mul returns the product of the matrix with the column vector v.
func (rm *RotationMatrix) Mul(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: rm.Row(0).Dot(v),
		Y: rm.Row(1).Dot(v),
		Z: rm.Row(2).Dot(v),
	}
}

// MulMatrix returns rm * other.
func (rm *RotationMatrix) MulMatrix(other *RotationMatrix) *RotationMatrix {
	out := &RotationMatrix{}
	for i := 0; i < 3; i++ {
		row := rm.Row(i)
		for j := 0; j < 3; j++ {
			out.mat[3*i+j] = row.Dot(other.Col(j))
		}
	}
	return out
}

// Transpose returns the transpose, which for an orthonormal matrix is also its inverse.
func (rm *RotationMatrix) Transpose() *RotationMatrix {
	out := &RotationMatrix{}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.mat[3*j+i] = rm.mat[3*i+j]
		}
	}
	return out
}

// Negate returns -rm. The result is orthonormal but has the opposite handedness.
func (rm *RotationMatrix) Negate() *RotationMatrix {
	out := &RotationMatrix{}
	for i, v := range rm.mat {
		out.mat[i] = -v
	}
	return out
}

// Det returns the determinant.
func (rm *RotationMatrix) Det() float64 {
	return rm.Row(0).Dot(rm.Row(1).Cross(rm.Row(2)))
}

// IsOrthonormal reports whether rm * rm^T is the identity to within tol.
func (rm *RotationMatrix) IsOrthonormal(tol float64) bool {
	prod := rm.MulMatrix(rm.Transpose())
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.
			if i == j {
				want = 1
			}
			if math.Abs(prod.At(i, j)-want) > tol {
				return false
			}
		}
	}
	return true
}

// Values returns a copy of the row-major values.
func (rm *RotationMatrix) Values() []float64 {
	out := make([]float64, 9)
	copy(out, rm.mat[:])
	return out
}

// Dense returns the matrix as a gonum dense matrix.
func (rm *RotationMatrix) Dense() *mat.Dense {
	return mat.NewDense(3, 3, rm.Values())
}

// MarshalJSON encodes the matrix as a list of three rows.
func (rm *RotationMatrix) MarshalJSON() ([]byte, error) {
	return json.Marshal([3][3]float64{
		{rm.mat[0], rm.mat[1], rm.mat[2]},
		{rm.mat[3], rm.mat[4], rm.mat[5]},
		{rm.mat[6], rm.mat[7], rm.mat[8]},
	})
}

// UnmarshalJSON decodes a list of three rows.
func (rm *RotationMatrix) UnmarshalJSON(data []byte) error {
	var rows [3][3]float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	for i, row := range rows {
		copy(rm.mat[3*i:3*i+3], row[:])
	}
	return nil
}

func (rm *RotationMatrix) String() string {
	return fmt.Sprintf("[[%.6f %.6f %.6f] [%.6f %.6f %.6f] [%.6f %.6f %.6f]]",
		rm.mat[0], rm.mat[1], rm.mat[2], rm.mat[3], rm.mat[4], rm.mat[5], rm.mat[6], rm.mat[7], rm.mat[8])
}

// NearestRotation returns the proper rotation closest (in the Frobenius norm) to the given 3x3
// matrix, found by SVD: R = U * diag(1, 1, det(U V^T)) * V^T.
func NearestRotation(m mat.Matrix) (*RotationMatrix, error) {
	if r, c := m.Dims(); r != 3 || c != 3 {
		return nil, errors.Errorf("need a 3x3 matrix, got %dx%d", r, c)
	}
	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDFull); !ok {
		return nil, errors.New("failed to factorize matrix")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var uvt mat.Dense
	uvt.Mul(&u, v.T())
	if mat.Det(&uvt) < 0 {
		d := mat.NewDiagDense(3, []float64{1, 1, -1})
		var ud mat.Dense
		ud.Mul(&u, d)
		uvt.Mul(&ud, v.T())
	}
	return NewRotationMatrix(uvt.RawMatrix().Data)
}
