package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"
	"go.viam.com/test"

	"go.viam.com/fiducialpose/fiducial"
	"go.viam.com/fiducialpose/logging"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	test.That(t, cfg.Validate(), test.ShouldBeNil)
	test.That(t, cfg.Layout, test.ShouldResemble, fiducial.DefaultLayout())

	intrinsics, err := cfg.Camera.Intrinsics()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, intrinsics.Width, test.ShouldEqual, 612)
	test.That(t, intrinsics.Height, test.ShouldEqual, 816)
	test.That(t, intrinsics.Fx, test.ShouldAlmostEqual, 691.6666666, 1e-6)
	test.That(t, intrinsics.Fy, test.ShouldAlmostEqual, intrinsics.Fx)
	test.That(t, intrinsics.Ppx, test.ShouldEqual, 306.)
	test.That(t, intrinsics.Ppy, test.ShouldEqual, 408.)
}

func TestFromReaderKeepsDefaults(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	cfg, err := FromReader("inline", strings.NewReader(`{
		"camera": {"downscale": 2},
		"preprocess": {"blur_kernel": 5},
		"layout": {"align": {"x": 0.016, "y": -0.016}},
		"extra": true
	}`), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Camera.Downscale, test.ShouldEqual, 2)
	test.That(t, cfg.Camera.FocalLengthM, test.ShouldEqual, 0.00415)
	test.That(t, cfg.Preprocess.BlurKernel, test.ShouldEqual, 5)
	test.That(t, cfg.Layout.Align.X, test.ShouldEqual, 0.016)
	test.That(t, cfg.Layout.X, test.ShouldResemble, fiducial.DefaultLayout().X)

	intrinsics, err := cfg.Camera.Intrinsics()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, intrinsics.Width, test.ShouldEqual, 1224)
	test.That(t, intrinsics.Ppx, test.ShouldEqual, 612.)

	test.That(t, logs.FilterMessage("ignoring unknown config fields").Len(), test.ShouldEqual, 1)
}

func TestFromReaderErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)

	_, err := FromReader("bad", strings.NewReader(`{"camera": `), logger)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = FromReader("types", strings.NewReader(`{"camera": {"downscale": "lots"}}`), logger)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = FromReader("invalid", strings.NewReader(`{
		"camera": {"focal_length_m": 0, "downscale": 0},
		"preprocess": {"blur_kernel": 4}
	}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	errs := multierr.Errors(err)
	test.That(t, len(errs), test.ShouldEqual, 3)
	test.That(t, err.Error(), test.ShouldContainSubstring, "focal_length_m")
	test.That(t, err.Error(), test.ShouldContainSubstring, "downscale")
	test.That(t, err.Error(), test.ShouldContainSubstring, "blur_kernel")
}

func TestValidateLayout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Layout.Y, cfg.Layout.Z = cfg.Layout.Z, cfg.Layout.Y
	err := cfg.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"layout"`)
}

func TestRead(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FIDUCIAL_DOWNSCALE", "8")
	path := filepath.Join(dir, "config.json")
	test.That(t, os.WriteFile(path, []byte(`{"camera": {"downscale": ${FIDUCIAL_DOWNSCALE}}}`), 0o600), test.ShouldBeNil)

	cfg, err := Read(path, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Camera.Downscale, test.ShouldEqual, 8)

	_, err = Read(filepath.Join(dir, "missing.json"), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestIntrinsicsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intrinsics.json")
	test.That(t, os.WriteFile(path, []byte(`{"width_px": 640, "height_px": 480, "fx": 500, "fy": 501, "ppx": 320, "ppy": 240}`), 0o600),
		test.ShouldBeNil)

	cfg := DefaultConfig()
	cfg.Camera = CameraConfig{IntrinsicsFile: path}
	test.That(t, cfg.Validate(), test.ShouldBeNil)
	intrinsics, err := cfg.Camera.Intrinsics()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, intrinsics.Fy, test.ShouldEqual, 501.)
}
