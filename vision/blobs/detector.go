package blobs

import (
	"context"
	"image"
	"image/color"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"go.viam.com/fiducialpose/fiducial"
	"go.viam.com/fiducialpose/logging"
)

// ErrUnreadableImage is returned when an image file cannot be decoded.
var ErrUnreadableImage = errors.New("cannot read image")

// RoleGray is the gray level each role is marked with on an annotated image.
var RoleGray = map[fiducial.Role]uint8{
	fiducial.RoleX:     255,
	fiducial.RoleY:     150,
	fiducial.RoleZ:     60,
	fiducial.RoleAlign: 127,
}

// Detector finds marker blobs in photographs of the pattern.
type Detector struct {
	size       image.Point
	blurKernel int
	minArea    float64
	logger     logging.Logger
}

// NewDetector returns a detector that processes images at width x height pixels.
func NewDetector(width, height, blurKernel int, minArea float64, logger logging.Logger) (*Detector, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid processing size %dx%d", width, height)
	}
	if blurKernel < 1 || blurKernel%2 == 0 {
		return nil, errors.Errorf("blur kernel must be a positive odd number, got %d", blurKernel)
	}
	return &Detector{
		size:       image.Point{X: width, Y: height},
		blurKernel: blurKernel,
		minArea:    minArea,
		logger:     logger,
	}, nil
}

// Detect returns the marker candidates found in the image at path.
func (d *Detector) Detect(ctx context.Context, path string) ([]fiducial.MarkerCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	binary, err := d.binarize(path)
	if err != nil {
		return nil, err
	}
	defer binary.Close()

	hierarchy := gocv.NewMat()
	defer hierarchy.Close()
	found := gocv.FindContoursWithParams(binary, &hierarchy, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer found.Close()

	contours := make([][]image.Point, found.Size())
	entries := make([]HierarchyEntry, found.Size())
	for i := 0; i < found.Size(); i++ {
		contours[i] = found.At(i).ToPoints()
		h := hierarchy.GetVeciAt(0, i)
		entries[i] = HierarchyEntry{Next: int(h[0]), Previous: int(h[1]), FirstChild: int(h[2]), Parent: int(h[3])}
	}

	candidates, skipped := MarkerCandidates(contours, entries, d.minArea)
	d.logger.Debugw("extracted marker blobs",
		"image", path, "contours", len(contours), "candidates", len(candidates), "skipped", skipped)
	return candidates, nil
}

// Annotate writes the binarized image to out with each role marked in its gray level.
func (d *Detector) Annotate(ctx context.Context, path, out string, roles *fiducial.RoleAssignment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	binary, err := d.binarize(path)
	if err != nil {
		return err
	}
	defer binary.Close()

	for _, role := range fiducial.Roles {
		p := roles.Get(role)
		level := RoleGray[role]
		c := color.RGBA{level, level, level, 0}
		center := image.Point{X: int(p.X + 0.5), Y: int(p.Y + 0.5)}
		gocv.Circle(&binary, center, 1, c, 3)
		gocv.PutText(&binary, role.String(), center.Add(image.Point{X: 6, Y: -6}), gocv.FontHersheySimplex, 0.5, c, 1)
	}
	if ok := gocv.IMWrite(out, binary); !ok {
		return errors.Errorf("failed to write annotated image %q", out)
	}
	return nil
}

// binarize loads the image as grayscale, shrinks it to the processing size, smooths it and
// applies an Otsu threshold so that the paper and the markers stand out from the background.
func (d *Detector) binarize(path string) (gocv.Mat, error) {
	gray := gocv.IMRead(path, gocv.IMReadGrayScale)
	if gray.Empty() {
		gray.Close()
		return gocv.Mat{}, errors.Wrapf(ErrUnreadableImage, "%q", path)
	}
	defer gray.Close()

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(gray, &resized, d.size, 0, 0, gocv.InterpolationArea)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(resized, &blurred, image.Point{X: d.blurKernel, Y: d.blurKernel}, 0, 0, gocv.BorderDefault)

	binary := gocv.NewMat()
	gocv.Threshold(blurred, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	return binary, nil
}
