package fiducial

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/fiducialpose/utils"
)

// bearings closer than this are treated as equal.
const angleEpsilon = 1e-12

// Classify assigns roles to exactly four marker candidates. The input order does not matter and
// the slice is not modified.
//
// The alignment marker is the candidate with the smallest area; on a tie the first one wins. Seen
// from the alignment marker, Y and Z are the two position markers that are the farthest apart in
// bearing, which leaves X as the third. Walking counterclockwise from a Y/Z candidate reaches X in
// less than half a turn only if that candidate is Y.
func Classify(candidates []MarkerCandidate) (*RoleAssignment, error) {
	if len(candidates) != NumMarkers {
		return nil, errors.Wrapf(ErrInputCardinality, "got %d, need %d", len(candidates), NumMarkers)
	}
	var markers [NumMarkers]MarkerCandidate
	copy(markers[:], candidates)
	if err := checkCandidates(markers); err != nil {
		return nil, err
	}

	alignIdx, err := alignmentIndex(markers)
	if err != nil {
		return nil, err
	}
	align := markers[alignIdx].Center

	var positions [NumMarkers - 1]r2.Point
	var bearings [NumMarkers - 1]float64
	n := 0
	for i, m := range markers {
		if i == alignIdx {
			continue
		}
		positions[n] = m.Center
		bearings[n] = bearing(align, m.Center)
		n++
	}

	xSlot, err := positionXSlot(bearings)
	if err != nil {
		return nil, err
	}
	// the two remaining slots, in input order
	first, second := (xSlot+1)%3, (xSlot+2)%3
	if first > second {
		first, second = second, first
	}

	advance := utils.WrapAngle2Pi(utils.WrapAngle2Pi(bearings[xSlot]) - utils.WrapAngle2Pi(bearings[first]))
	if advance < angleEpsilon || math.Abs(advance-math.Pi) < angleEpsilon {
		return nil, errors.Wrap(ErrDegenerateGeometry, "cannot tell Y from Z")
	}
	yIdx, zIdx := first, second
	if advance > math.Pi {
		yIdx, zIdx = second, first
	}

	return &RoleAssignment{
		MarkerX:     positions[xSlot],
		MarkerY:     positions[yIdx],
		MarkerZ:     positions[zIdx],
		AlignMarker: align,
	}, nil
}

func checkCandidates(markers [NumMarkers]MarkerCandidate) error {
	for i, m := range markers {
		if !utils.IsFinite(m.Center.X, m.Center.Y, m.Area) {
			return errors.Wrapf(ErrDegenerateGeometry, "candidate %d is not finite: %v", i, m)
		}
		if m.Area < 0 {
			return errors.Wrapf(ErrDegenerateGeometry, "candidate %d has negative area %v", i, m.Area)
		}
	}
	for i := 0; i < NumMarkers; i++ {
		for j := i + 1; j < NumMarkers; j++ {
			if markers[i].Center == markers[j].Center {
				return errors.Wrapf(ErrDegenerateGeometry, "candidates %d and %d coincide at %v", i, j, markers[i].Center)
			}
		}
	}
	return nil
}

// alignmentIndex returns the index of the first candidate with the smallest area.
func alignmentIndex(markers [NumMarkers]MarkerCandidate) (int, error) {
	minIdx := 0
	allEqual := true
	for i := 1; i < NumMarkers; i++ {
		if markers[i].Area != markers[0].Area {
			allEqual = false
		}
		if markers[i].Area < markers[minIdx].Area {
			minIdx = i
		}
	}
	if allEqual {
		return 0, errors.Wrapf(ErrDegenerateGeometry, "all candidates have area %v", markers[0].Area)
	}
	return minIdx, nil
}

// bearing is the angle of p as seen from the alignment marker a, in (-pi, pi]. The image y axis
// points down, so the y difference is flipped to keep angles counterclockwise.
func bearing(a, p r2.Point) float64 {
	return math.Atan2(a.Y-p.Y, p.X-a.X)
}

// positionXSlot returns which of the three position bearings belongs to X: the one outside the
// pair with the widest angular separation.
func positionXSlot(bearings [NumMarkers - 1]float64) (int, error) {
	pairs := [3][3]int{
		// i, j, remaining slot
		{0, 1, 2},
		{0, 2, 1},
		{1, 2, 0},
	}
	best, bestDiff := -1, -1.0
	var diffs [3]float64
	for k, p := range pairs {
		diffs[k] = utils.AngleDiffRad(bearings[p[0]], bearings[p[1]])
		if diffs[k] > bestDiff {
			best, bestDiff = k, diffs[k]
		}
	}
	for k, d := range diffs {
		if k != best && bestDiff-d < angleEpsilon {
			return 0, errors.Wrapf(ErrDegenerateGeometry, "no unique widest pair among bearings %v", bearings)
		}
	}
	return pairs[best][2], nil
}
