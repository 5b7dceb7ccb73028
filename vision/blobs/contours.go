// Package blobs extracts fiducial marker candidates from a photograph of the printed pattern.
package blobs

import (
	"image"
	"math"

	"github.com/golang/geo/r2"

	"go.viam.com/fiducialpose/fiducial"
)

// HierarchyEntry is one row of an OpenCV contour hierarchy. Missing links are -1.
type HierarchyEntry struct {
	Next       int
	Previous   int
	FirstChild int
	Parent     int
}

// NestedMarkerIndices returns the indices of the contours that are marker blobs. After
// binarization the outermost contour (index 0) is the paper; a marker is the first child of any
// contour that has both a child and a parent other than the paper's root.
func NestedMarkerIndices(hierarchy []HierarchyEntry) []int {
	var out []int
	for _, h := range hierarchy {
		if h.FirstChild > 0 && h.Parent > 0 {
			out = append(out, h.FirstChild)
		}
	}
	return out
}

// PolygonMoments returns the raw spatial moments m00, m10 and m01 of a closed polygon. m00 is the
// signed area; its sign follows the winding order.
func PolygonMoments(points []image.Point) (m00, m10, m01 float64) {
	n := len(points)
	for i := 0; i < n; i++ {
		x0, y0 := float64(points[i].X), float64(points[i].Y)
		x1, y1 := float64(points[(i+1)%n].X), float64(points[(i+1)%n].Y)
		cross := x0*y1 - x1*y0
		m00 += cross
		m10 += (x0 + x1) * cross
		m01 += (y0 + y1) * cross
	}
	return m00 / 2, m10 / 6, m01 / 6
}

// PolygonCentroid returns the centroid and the unsigned area of a closed polygon. ok is false for
// polygons without area, such as single points and lines.
func PolygonCentroid(points []image.Point) (centroid r2.Point, area float64, ok bool) {
	m00, m10, m01 := PolygonMoments(points)
	if m00 == 0 {
		return r2.Point{}, 0, false
	}
	return r2.Point{X: m10 / m00, Y: m01 / m00}, math.Abs(m00), true
}

// MarkerCandidates turns contours and their hierarchy into marker candidates. Blobs smaller than
// minArea, or without any area, are skipped and counted.
func MarkerCandidates(
	contours [][]image.Point,
	hierarchy []HierarchyEntry,
	minArea float64,
) (candidates []fiducial.MarkerCandidate, skipped int) {
	for _, idx := range NestedMarkerIndices(hierarchy) {
		if idx >= len(contours) {
			skipped++
			continue
		}
		center, area, ok := PolygonCentroid(contours[idx])
		if !ok || area < minArea {
			skipped++
			continue
		}
		candidates = append(candidates, fiducial.MarkerCandidate{Center: center, Area: area})
	}
	return candidates, skipped
}
