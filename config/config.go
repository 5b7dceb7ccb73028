// Package config defines the structures that configure the camera, the fiducial pattern and image
// preprocessing.
package config

import (
	"fmt"

	"go.uber.org/multierr"

	"go.viam.com/fiducialpose/fiducial"
	"go.viam.com/fiducialpose/rimage/transform"
	"go.viam.com/fiducialpose/utils"
)

// Config is the full configuration of the pose tooling.
type Config struct {
	Camera     CameraConfig     `json:"camera"`
	Layout     fiducial.Layout  `json:"layout"`
	Preprocess PreprocessConfig `json:"preprocess"`
	Batch      BatchConfig      `json:"batch"`
}

// CameraConfig describes the sensor at full resolution. Images are processed after shrinking
// them by Downscale in both directions.
type CameraConfig struct {
	FocalLengthM   float64 `json:"focal_length_m"`
	PixelSizeM     float64 `json:"pixel_size_m"`
	PrincipalXPx   float64 `json:"principal_x_px"`
	PrincipalYPx   float64 `json:"principal_y_px"`
	SensorWidthPx  int     `json:"sensor_width_px"`
	SensorHeightPx int     `json:"sensor_height_px"`
	Downscale      int     `json:"downscale"`

	// IntrinsicsFile, if set, points to calibrated intrinsics for the processed resolution and
	// overrides every other camera field.
	IntrinsicsFile string `json:"intrinsics_file,omitempty"`
}

// PreprocessConfig controls binarization before contour extraction.
type PreprocessConfig struct {
	BlurKernel int `json:"blur_kernel"`
	// MinMarkerArea drops nested blobs smaller than this many pixels.
	MinMarkerArea float64 `json:"min_marker_area"`
}

// BatchConfig controls how many images are processed at once.
type BatchConfig struct {
	Parallelism int `json:"parallelism"`
}

// DefaultConfig returns the configuration of the stock phone camera and the printed pattern.
func DefaultConfig() *Config {
	return &Config{
		Camera: CameraConfig{
			FocalLengthM:   0.00415,
			PixelSizeM:     0.0000015,
			PrincipalXPx:   1224,
			PrincipalYPx:   1632,
			SensorWidthPx:  2448,
			SensorHeightPx: 3264,
			Downscale:      4,
		},
		Layout: fiducial.DefaultLayout(),
		Preprocess: PreprocessConfig{
			BlurKernel: 3,
		},
		Batch: BatchConfig{
			Parallelism: utils.ParallelFactor,
		},
	}
}

// Validate returns every problem found in the config, joined together.
func (c *Config) Validate() error {
	return multierr.Combine(
		c.Camera.Validate("camera"),
		validateLayout("layout", c.Layout),
		c.Preprocess.Validate("preprocess"),
		c.Batch.Validate("batch"),
	)
}

// Validate ensures the camera description can produce intrinsics.
func (cc *CameraConfig) Validate(path string) error {
	if cc.IntrinsicsFile != "" {
		return nil
	}
	var errs error
	if cc.FocalLengthM <= 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationOutOfRangeError(path, "focal_length_m", cc.FocalLengthM, "positive"))
	}
	if cc.PixelSizeM <= 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationOutOfRangeError(path, "pixel_size_m", cc.PixelSizeM, "positive"))
	}
	if cc.SensorWidthPx <= 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(path, "sensor_width_px"))
	}
	if cc.SensorHeightPx <= 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(path, "sensor_height_px"))
	}
	if cc.Downscale < 1 {
		errs = multierr.Append(errs, utils.NewConfigValidationOutOfRangeError(path, "downscale", cc.Downscale, "at least 1"))
	}
	if cc.PrincipalXPx < 0 || (cc.SensorWidthPx > 0 && cc.PrincipalXPx > float64(cc.SensorWidthPx)) {
		errs = multierr.Append(errs, utils.NewConfigValidationOutOfRangeError(
			path, "principal_x_px", cc.PrincipalXPx, fmt.Sprintf("within [0, %d]", cc.SensorWidthPx)))
	}
	if cc.PrincipalYPx < 0 || (cc.SensorHeightPx > 0 && cc.PrincipalYPx > float64(cc.SensorHeightPx)) {
		errs = multierr.Append(errs, utils.NewConfigValidationOutOfRangeError(
			path, "principal_y_px", cc.PrincipalYPx, fmt.Sprintf("within [0, %d]", cc.SensorHeightPx)))
	}
	return errs
}

// Intrinsics returns the pinhole intrinsics at the processed resolution.
func (cc *CameraConfig) Intrinsics() (*transform.PinholeCameraIntrinsics, error) {
	if cc.IntrinsicsFile != "" {
		return transform.NewPinholeCameraIntrinsicsFromJSONFile(cc.IntrinsicsFile)
	}
	if err := cc.Validate("camera"); err != nil {
		return nil, err
	}
	scale := float64(cc.Downscale)
	pixel := cc.PixelSizeM * scale
	return transform.NewPinholeCameraIntrinsicsFromSensor(
		cc.FocalLengthM,
		pixel, pixel,
		cc.PrincipalXPx/scale, cc.PrincipalYPx/scale,
		cc.SensorWidthPx/cc.Downscale, cc.SensorHeightPx/cc.Downscale,
	)
}

func validateLayout(path string, layout fiducial.Layout) error {
	if err := layout.Validate(); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	return nil
}

// Validate ensures the blur kernel is usable for a Gaussian blur.
func (pc *PreprocessConfig) Validate(path string) error {
	var errs error
	if pc.BlurKernel < 1 || pc.BlurKernel%2 == 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationOutOfRangeError(path, "blur_kernel", pc.BlurKernel, "a positive odd number"))
	}
	if pc.MinMarkerArea < 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationOutOfRangeError(path, "min_marker_area", pc.MinMarkerArea, "non-negative"))
	}
	return errs
}

// Validate ensures at least one image is processed at a time.
func (bc *BatchConfig) Validate(path string) error {
	if bc.Parallelism < 1 {
		return utils.NewConfigValidationOutOfRangeError(path, "parallelism", bc.Parallelism, "at least 1")
	}
	return nil
}
