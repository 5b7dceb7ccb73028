package transform

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"go.viam.com/fiducialpose/spatialmath"
)

var (
	// ErrTooFewPoints is returned when fewer than four correspondences are given.
	ErrTooFewPoints = errors.New("planar PnP needs at least 4 point correspondences")
	// ErrNonPlanarObject is returned when an object point is off the z = 0 plane.
	ErrNonPlanarObject = errors.New("object points must lie on the z = 0 plane")
	// ErrDegenerateCorrespondences is returned when the points do not pin down a homography,
	// e.g. three of them are collinear or two coincide.
	ErrDegenerateCorrespondences = errors.New("point correspondences are degenerate")
	// ErrBehindCamera is returned when no pose puts the object in front of the camera.
	ErrBehindCamera = errors.New("solved pose places the object behind the camera")
)

const (
	planarTolerance = 1e-9
	// minimum ratio between the 8th and the 1st singular value of the DLT system.
	homographyRcond = 1e-10
	// cost added per point that lands behind the camera during refinement.
	behindCameraPenalty = 1e12
)

// SolvePlanarPnP estimates the pose of a planar object (all points on its z = 0 plane) from its
// projections in an image. It returns the rotation vector and translation that map object
// coordinates into the camera frame, X_cam = R(rvec) * X_obj + tvec.
//
// The initial pose comes from the object-to-image homography; it is then refined by minimizing the
// squared reprojection error. With exact correspondences the initial pose is already exact.
func SolvePlanarPnP(
	object []r3.Vector,
	image []r2.Point,
	intrinsics *PinholeCameraIntrinsics,
) (r3.Vector, r3.Vector, error) {
	if err := intrinsics.CheckValid(); err != nil {
		return r3.Vector{}, r3.Vector{}, err
	}
	if len(object) != len(image) {
		return r3.Vector{}, r3.Vector{}, errors.Errorf(
			"have %d object points but %d image points", len(object), len(image))
	}
	if len(object) < 4 {
		return r3.Vector{}, r3.Vector{}, errors.Wrapf(ErrTooFewPoints, "got %d", len(object))
	}
	objectPlane := make([]r2.Point, len(object))
	for i, p := range object {
		if math.Abs(p.Z) > planarTolerance {
			return r3.Vector{}, r3.Vector{}, errors.Wrapf(ErrNonPlanarObject, "point %d has z = %v", i, p.Z)
		}
		objectPlane[i] = r2.Point{X: p.X, Y: p.Y}
	}
	normalized := make([]r2.Point, len(image))
	for i, px := range image {
		normalized[i] = intrinsics.PixelToNormalized(px)
	}

	h, err := EstimateHomography(objectPlane, normalized)
	if err != nil {
		return r3.Vector{}, r3.Vector{}, err
	}
	rot, tvec, err := decomposePlanarHomography(h)
	if err != nil {
		return r3.Vector{}, r3.Vector{}, err
	}
	rvec := spatialmath.MatrixToRotationVector(rot)
	for i, p := range object {
		if rot.Mul(p).Add(tvec).Z <= 0 {
			return r3.Vector{}, r3.Vector{}, errors.Wrapf(ErrBehindCamera, "point %d", i)
		}
	}

	rvec, tvec = refinePose(object, image, intrinsics, rvec, tvec)
	if !isFiniteVector(rvec) || !isFiniteVector(tvec) {
		return r3.Vector{}, r3.Vector{}, errors.New("planar PnP produced a non-finite pose")
	}
	return rvec, tvec, nil
}

// ProjectPoints projects object points through the pose (rvec, tvec) and the camera intrinsics.
func ProjectPoints(
	object []r3.Vector,
	rvec, tvec r3.Vector,
	intrinsics *PinholeCameraIntrinsics,
) ([]r2.Point, error) {
	rot := spatialmath.RotationVectorToMatrix(rvec)
	out := make([]r2.Point, len(object))
	for i, p := range object {
		c := rot.Mul(p).Add(tvec)
		px, ok := intrinsics.PointToPixel(c.X, c.Y, c.Z)
		if !ok {
			return nil, errors.Wrapf(ErrBehindCamera, "point %d", i)
		}
		out[i] = px
	}
	return out, nil
}

// ReprojectionRMSE returns the root mean square pixel distance between the projected object points
// and the observed image points.
func ReprojectionRMSE(
	object []r3.Vector,
	image []r2.Point,
	rvec, tvec r3.Vector,
	intrinsics *PinholeCameraIntrinsics,
) (float64, error) {
	projected, err := ProjectPoints(object, rvec, tvec, intrinsics)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i, p := range projected {
		d := p.Sub(image[i])
		sum += d.Dot(d)
	}
	return math.Sqrt(sum / float64(len(projected))), nil
}

// EstimateHomography returns the 3x3 homography H (with H[2,2] scaled to 1 when possible) such that
// dst ~ H * src in homogeneous coordinates. Both point sets are Hartley-normalized before the DLT
// system is solved with an SVD.
func EstimateHomography(src, dst []r2.Point) (*mat.Dense, error) {
	if len(src) != len(dst) {
		return nil, errors.Errorf("have %d source points but %d destination points", len(src), len(dst))
	}
	if len(src) < 4 {
		return nil, errors.Wrapf(ErrTooFewPoints, "got %d", len(src))
	}
	srcN, srcT, err := hartleyNormalize(src)
	if err != nil {
		return nil, err
	}
	dstN, dstT, err := hartleyNormalize(dst)
	if err != nil {
		return nil, err
	}

	a := mat.NewDense(2*len(src), 9, nil)
	for i := range srcN {
		sx, sy := srcN[i].X, srcN[i].Y
		dx, dy := dstN[i].X, dstN[i].Y
		a.SetRow(2*i, []float64{-sx, -sy, -1, 0, 0, 0, dx * sx, dx * sy, dx})
		a.SetRow(2*i+1, []float64{0, 0, 0, -sx, -sy, -1, dy * sx, dy * sy, dy})
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return nil, errors.Wrap(ErrDegenerateCorrespondences, "failed to factorize DLT system")
	}
	values := svd.Values(nil)
	if values[0] == 0 || values[7]/values[0] < homographyRcond {
		return nil, errors.Wrap(ErrDegenerateCorrespondences, "DLT system is rank deficient")
	}
	var v mat.Dense
	svd.VTo(&v)
	hn := mat.NewDense(3, 3, nil)
	for i := 0; i < 9; i++ {
		hn.Set(i/3, i%3, v.At(i, 8))
	}

	// H = dstT^-1 * Hn * srcT
	var dstTInv mat.Dense
	if err := dstTInv.Inverse(dstT); err != nil {
		return nil, errors.Wrap(err, "inverting normalization")
	}
	var tmp, h mat.Dense
	tmp.Mul(&dstTInv, hn)
	h.Mul(&tmp, srcT)
	if s := h.At(2, 2); math.Abs(s) > 1e-15 {
		h.Scale(1/s, &h)
	}
	return &h, nil
}

// hartleyNormalize translates the points to their centroid and scales them so the mean distance to
// the origin is sqrt(2).
func hartleyNormalize(pts []r2.Point) ([]r2.Point, *mat.Dense, error) {
	var centroid r2.Point
	for _, p := range pts {
		centroid = centroid.Add(p)
	}
	centroid = centroid.Mul(1 / float64(len(pts)))
	var meanDist float64
	for _, p := range pts {
		meanDist += p.Sub(centroid).Norm()
	}
	meanDist /= float64(len(pts))
	if meanDist == 0 || math.IsNaN(meanDist) || math.IsInf(meanDist, 0) {
		return nil, nil, errors.Wrap(ErrDegenerateCorrespondences, "all points coincide")
	}
	s := math.Sqrt2 / meanDist
	out := make([]r2.Point, len(pts))
	for i, p := range pts {
		out[i] = p.Sub(centroid).Mul(s)
	}
	t := mat.NewDense(3, 3, []float64{
		s, 0, -s * centroid.X,
		0, s, -s * centroid.Y,
		0, 0, 1,
	})
	return out, t, nil
}

// decomposePlanarHomography splits a homography from the object plane to normalized image
// coordinates into a rotation and translation. For a plane at z = 0, H ~ [r1 r2 t].
func decomposePlanarHomography(h *mat.Dense) (*spatialmath.RotationMatrix, r3.Vector, error) {
	col := func(j int) r3.Vector {
		return r3.Vector{X: h.At(0, j), Y: h.At(1, j), Z: h.At(2, j)}
	}
	h1, h2, h3 := col(0), col(1), col(2)
	norms := h1.Norm() + h2.Norm()
	if norms == 0 {
		return nil, r3.Vector{}, errors.Wrap(ErrDegenerateCorrespondences, "homography has zero columns")
	}
	lambda := 2 / norms
	// the object sits in front of the camera, so t.z must come out positive
	if h3.Z*lambda < 0 {
		lambda = -lambda
	}
	r1 := h1.Mul(lambda)
	r2 := h2.Mul(lambda)
	t := h3.Mul(lambda)

	approx := spatialmath.NewRotationMatrixFromCols(r1, r2, r1.Cross(r2))
	rot, err := spatialmath.NearestRotation(approx.Dense())
	if err != nil {
		return nil, r3.Vector{}, err
	}
	return rot, t, nil
}

// refinePose minimizes the squared reprojection error with Nelder-Mead, which needs no gradient.
// The refined pose is only kept if it is strictly better than the starting one.
func refinePose(
	object []r3.Vector,
	image []r2.Point,
	intrinsics *PinholeCameraIntrinsics,
	rvec, tvec r3.Vector,
) (r3.Vector, r3.Vector) {
	cost := func(x []float64) float64 {
		rot := spatialmath.RotationVectorToMatrix(r3.Vector{X: x[0], Y: x[1], Z: x[2]})
		t := r3.Vector{X: x[3], Y: x[4], Z: x[5]}
		var sum float64
		for i, p := range object {
			c := rot.Mul(p).Add(t)
			px, ok := intrinsics.PointToPixel(c.X, c.Y, c.Z)
			if !ok {
				sum += behindCameraPenalty
				continue
			}
			d := px.Sub(image[i])
			sum += d.Dot(d)
		}
		return sum
	}

	x0 := []float64{rvec.X, rvec.Y, rvec.Z, tvec.X, tvec.Y, tvec.Z}
	f0 := cost(x0)
	problem := optimize.Problem{Func: cost}
	settings := &optimize.Settings{
		FuncEvaluations: 5000,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-14,
			Iterations: 200,
		},
	}
	result, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{SimplexSize: 1e-3})
	if err != nil || result == nil || !(result.F < f0) {
		return rvec, tvec
	}
	x := result.X
	return r3.Vector{X: x[0], Y: x[1], Z: x[2]}, r3.Vector{X: x[3], Y: x[4], Z: x[5]}
}

func isFiniteVector(v r3.Vector) bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
