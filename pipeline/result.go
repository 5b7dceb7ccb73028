package pipeline

import (
	"encoding/json"

	"github.com/golang/geo/r3"

	"go.viam.com/fiducialpose/campose"
	"go.viam.com/fiducialpose/fiducial"
)

// Result is the outcome for one image. Err is set when any stage failed; the fields of the stages
// that ran before the failure stay populated.
type Result struct {
	Name             string
	Candidates       []fiducial.MarkerCandidate
	Roles            *fiducial.RoleAssignment
	Estimate         *campose.PoseEstimate
	Pose             *campose.CameraPose
	ReprojectionRMSE float64
	GroundIntercept  *r3.Vector
	Err              error
}

func (r *Result) fail(err error) *Result {
	r.Err = err
	return r
}

// OK reports whether a pose was resolved.
func (r *Result) OK() bool {
	return r.Err == nil && r.Pose != nil
}

type resultJSON struct {
	Name             string                     `json:"name"`
	Candidates       []fiducial.MarkerCandidate `json:"candidates,omitempty"`
	Roles            *fiducial.RoleAssignment   `json:"roles,omitempty"`
	Estimate         *campose.PoseEstimate      `json:"estimate,omitempty"`
	Pose             *campose.CameraPose        `json:"pose,omitempty"`
	ReprojectionRMSE float64                    `json:"reprojection_rmse_px,omitempty"`
	GroundIntercept  *r3.Vector                 `json:"ground_intercept,omitempty"`
	Error            string                     `json:"error,omitempty"`
}

// MarshalJSON encodes the result with its error as a message.
func (r *Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		Name:             r.Name,
		Candidates:       r.Candidates,
		Roles:            r.Roles,
		Estimate:         r.Estimate,
		Pose:             r.Pose,
		ReprojectionRMSE: r.ReprojectionRMSE,
		GroundIntercept:  r.GroundIntercept,
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}
