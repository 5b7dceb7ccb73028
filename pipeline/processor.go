// Package pipeline runs images through blob detection, marker classification, the PnP solve and
// pose resolution.
package pipeline

import (
	"context"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/fiducialpose/campose"
	"go.viam.com/fiducialpose/config"
	"go.viam.com/fiducialpose/fiducial"
	"go.viam.com/fiducialpose/logging"
	"go.viam.com/fiducialpose/rimage/transform"
)

// Detector finds marker candidates in an image file.
type Detector interface {
	Detect(ctx context.Context, path string) ([]fiducial.MarkerCandidate, error)
}

// Annotator is implemented by detectors that can draw the assigned roles onto the image.
type Annotator interface {
	Annotate(ctx context.Context, path, out string, roles *fiducial.RoleAssignment) error
}

// PnPSolver estimates the pose of the layout from its labeled image points.
type PnPSolver func(
	object []r3.Vector,
	image []r2.Point,
	intrinsics *transform.PinholeCameraIntrinsics,
) (rvec, tvec r3.Vector, err error)

// Option configures a Processor.
type Option func(*Processor)

// WithPnPSolver replaces the default planar PnP solver.
func WithPnPSolver(solve PnPSolver) Option {
	return func(p *Processor) {
		p.solve = solve
	}
}

// Processor turns marker candidates or images into camera poses. It holds no per-image state and
// is safe for concurrent use if its Detector is.
type Processor struct {
	intrinsics *transform.PinholeCameraIntrinsics
	layout     fiducial.Layout
	detector   Detector
	solve      PnPSolver
	logger     logging.Logger
}

// NewProcessor builds a processor from the configuration. detector may be nil if only
// ProcessCandidates is used.
func NewProcessor(cfg *config.Config, detector Detector, logger logging.Logger, opts ...Option) (*Processor, error) {
	intrinsics, err := cfg.Camera.Intrinsics()
	if err != nil {
		return nil, err
	}
	if err := cfg.Layout.Validate(); err != nil {
		return nil, err
	}
	p := &Processor{
		intrinsics: intrinsics,
		layout:     cfg.Layout,
		detector:   detector,
		solve:      transform.SolvePlanarPnP,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Intrinsics returns the camera intrinsics in use.
func (p *Processor) Intrinsics() *transform.PinholeCameraIntrinsics {
	return p.intrinsics
}

// ProcessCandidates classifies the candidates and resolves the camera pose. Failures are recorded
// on the returned result.
func (p *Processor) ProcessCandidates(name string, candidates []fiducial.MarkerCandidate) *Result {
	res := &Result{Name: name, Candidates: candidates}

	roles, err := fiducial.Classify(candidates)
	if err != nil {
		return res.fail(errors.Wrap(err, "classifying markers"))
	}
	res.Roles = roles

	object := p.layout.Points()
	image := roles.Points()
	rvec, tvec, err := p.solve(object, image, p.intrinsics)
	if err != nil {
		return res.fail(errors.Wrapf(campose.ErrUpstreamPose, "solving PnP: %v", err))
	}
	res.Estimate = &campose.PoseEstimate{RotationVector: rvec, TranslationVector: tvec}

	pose, err := campose.Resolve(*res.Estimate)
	if err != nil {
		return res.fail(err)
	}
	res.Pose = pose

	if rmse, err := transform.ReprojectionRMSE(object, image, rvec, tvec, p.intrinsics); err == nil {
		res.ReprojectionRMSE = rmse
	} else {
		p.logger.Debugw("cannot reproject solved pose", "image", name, "error", err)
	}
	if intercept, err := pose.GroundIntercept(); err == nil {
		res.GroundIntercept = &intercept
	} else {
		p.logger.Debugw("view ray misses the ground", "image", name, "error", err)
	}

	p.logger.Debugw("resolved pose", "image", name, "pose", pose.String(), "rmse_px", res.ReprojectionRMSE)
	return res
}

// ProcessImage detects markers in the image at path and resolves the camera pose.
func (p *Processor) ProcessImage(ctx context.Context, path string) *Result {
	if p.detector == nil {
		return (&Result{Name: path}).fail(errors.New("no marker detector configured"))
	}
	candidates, err := p.detector.Detect(ctx, path)
	if err != nil {
		return (&Result{Name: path}).fail(errors.Wrap(err, "detecting markers"))
	}
	return p.ProcessCandidates(path, candidates)
}
