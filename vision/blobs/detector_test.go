package blobs

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"go.viam.com/test"

	"go.viam.com/fiducialpose/fiducial"
	"go.viam.com/fiducialpose/logging"
)

var (
	black = color.RGBA{0, 0, 0, 0}
	white = color.RGBA{255, 255, 255, 0}
)

// drawMarker draws a finder style marker: a dark frame, a light ring and a dark center.
func drawMarker(img *gocv.Mat, center image.Point, side int) {
	half := side / 2
	gocv.Rectangle(img, image.Rect(center.X-half, center.Y-half, center.X+half, center.Y+half), black, -1)
	ring := side / 3
	gocv.Rectangle(img, image.Rect(center.X-ring, center.Y-ring, center.X+ring, center.Y+ring), white, -1)
	dot := side / 6
	gocv.Rectangle(img, image.Rect(center.X-dot, center.Y-dot, center.X+dot, center.Y+dot), black, -1)
}

func writePattern(t *testing.T) (string, map[fiducial.Role]image.Point) {
	t.Helper()
	img := gocv.Zeros(400, 400, gocv.MatTypeCV8U)
	defer img.Close()
	gocv.Rectangle(&img, image.Rect(20, 20, 380, 380), white, -1)

	centers := map[fiducial.Role]image.Point{
		fiducial.RoleX:     {80, 80},
		fiducial.RoleY:     {320, 80},
		fiducial.RoleZ:     {80, 320},
		fiducial.RoleAlign: {280, 280},
	}
	for role, c := range centers {
		side := 72
		if role == fiducial.RoleAlign {
			side = 36
		}
		drawMarker(&img, c, side)
	}

	path := filepath.Join(t.TempDir(), "pattern.png")
	test.That(t, gocv.IMWrite(path, img), test.ShouldBeTrue)
	return path, centers
}

func TestDetectSyntheticPattern(t *testing.T) {
	path, centers := writePattern(t)
	logger, logs := logging.NewObservedTestLogger(t)
	detector, err := NewDetector(400, 400, 3, 0, logger)
	test.That(t, err, test.ShouldBeNil)

	candidates, err := detector.Detect(context.Background(), path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(candidates), test.ShouldEqual, 4)
	test.That(t, logs.FilterMessage("extracted marker blobs").Len(), test.ShouldEqual, 1)

	roles, err := fiducial.Classify(candidates)
	test.That(t, err, test.ShouldBeNil)
	for role, want := range centers {
		got := roles.Get(role)
		test.That(t, got.X, test.ShouldAlmostEqual, float64(want.X), 2)
		test.That(t, got.Y, test.ShouldAlmostEqual, float64(want.Y), 2)
	}

	out := filepath.Join(t.TempDir(), "annotated.png")
	test.That(t, detector.Annotate(context.Background(), path, out, roles), test.ShouldBeNil)
	_, err = os.Stat(out)
	test.That(t, err, test.ShouldBeNil)
}

func TestDetectErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)
	_, err := NewDetector(0, 400, 3, 0, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewDetector(400, 400, 4, 0, logger)
	test.That(t, err, test.ShouldNotBeNil)

	detector, err := NewDetector(400, 400, 3, 0, logger)
	test.That(t, err, test.ShouldBeNil)
	_, err = detector.Detect(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	test.That(t, errors.Is(err, ErrUnreadableImage), test.ShouldBeTrue)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = detector.Detect(ctx, "unused.png")
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}
