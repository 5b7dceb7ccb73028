package campose

import "github.com/pkg/errors"

var (
	// ErrDegenerateProjection is returned when the camera's forward axis is parallel to the ground
	// plane, so its view ray never meets z = 0.
	ErrDegenerateProjection = errors.New("view ray does not intersect the ground plane")

	// ErrUpstreamPose is returned when the rotation/translation estimate is unusable, either because
	// the PnP solve failed or because it produced non-finite values.
	ErrUpstreamPose = errors.New("invalid upstream pose estimate")
)
