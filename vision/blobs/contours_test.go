package blobs

import (
	"image"
	"testing"

	"go.viam.com/test"
)

func square(x0, y0, side int) []image.Point {
	return []image.Point{{x0, y0}, {x0, y0 + side}, {x0 + side, y0 + side}, {x0 + side, y0}}
}

func TestNestedMarkerIndices(t *testing.T) {
	// 0 paper, 1 frame hole, 2 ring, 3 marker, 4 lone hole
	hierarchy := []HierarchyEntry{
		{Next: -1, Previous: -1, FirstChild: 1, Parent: -1},
		{Next: 4, Previous: -1, FirstChild: 2, Parent: 0},
		{Next: -1, Previous: -1, FirstChild: 3, Parent: 1},
		{Next: -1, Previous: -1, FirstChild: -1, Parent: 2},
		{Next: -1, Previous: 1, FirstChild: -1, Parent: 0},
	}
	test.That(t, NestedMarkerIndices(hierarchy), test.ShouldResemble, []int{3})
	test.That(t, NestedMarkerIndices(nil), test.ShouldBeEmpty)
}

func TestPolygonCentroid(t *testing.T) {
	center, area, ok := PolygonCentroid(square(10, 20, 4))
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, area, test.ShouldEqual, 16.)
	test.That(t, center.X, test.ShouldAlmostEqual, 12.)
	test.That(t, center.Y, test.ShouldAlmostEqual, 22.)

	// winding order does not matter
	reversed := square(10, 20, 4)
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	center2, area2, ok := PolygonCentroid(reversed)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, area2, test.ShouldEqual, area)
	test.That(t, center2, test.ShouldResemble, center)

	triangle := []image.Point{{0, 0}, {6, 0}, {0, 6}}
	center, area, ok = PolygonCentroid(triangle)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, area, test.ShouldEqual, 18.)
	test.That(t, center.X, test.ShouldAlmostEqual, 2.)
	test.That(t, center.Y, test.ShouldAlmostEqual, 2.)

	_, _, ok = PolygonCentroid([]image.Point{{3, 3}})
	test.That(t, ok, test.ShouldBeFalse)
	_, _, ok = PolygonCentroid([]image.Point{{0, 0}, {5, 5}})
	test.That(t, ok, test.ShouldBeFalse)
}

func TestMarkerCandidates(t *testing.T) {
	contours := [][]image.Point{
		square(0, 0, 100),
		square(10, 10, 30),
		square(15, 15, 20),
		square(20, 20, 10),
		square(60, 60, 10),
		square(62, 62, 6),
		{{64, 64}},
	}
	hierarchy := []HierarchyEntry{
		{Next: -1, Previous: -1, FirstChild: 1, Parent: -1},
		{Next: 4, Previous: -1, FirstChild: 2, Parent: 0},
		{Next: -1, Previous: -1, FirstChild: 3, Parent: 1},
		{Next: -1, Previous: -1, FirstChild: -1, Parent: 2},
		{Next: -1, Previous: 1, FirstChild: 5, Parent: 0},
		{Next: -1, Previous: -1, FirstChild: 6, Parent: 4},
		{Next: -1, Previous: -1, FirstChild: -1, Parent: 5},
	}
	candidates, skipped := MarkerCandidates(contours, hierarchy, 0)
	test.That(t, skipped, test.ShouldEqual, 1)
	test.That(t, len(candidates), test.ShouldEqual, 1)
	test.That(t, candidates[0].Area, test.ShouldEqual, 100.)
	test.That(t, candidates[0].Center.X, test.ShouldAlmostEqual, 25.)

	candidates, skipped = MarkerCandidates(contours, hierarchy, 200)
	test.That(t, skipped, test.ShouldEqual, 2)
	test.That(t, candidates, test.ShouldBeEmpty)

	// a dangling child index is skipped rather than indexed
	candidates, skipped = MarkerCandidates(contours[:3], hierarchy[:3], 0)
	test.That(t, skipped, test.ShouldEqual, 1)
	test.That(t, candidates, test.ShouldBeEmpty)
}
