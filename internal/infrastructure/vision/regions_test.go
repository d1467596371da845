package vision

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"vision-node/internal/domain/entity"
)

// rect возвращает контур прямоугольника так, как его отдаёт ChainApproxSimple.
func rect(x0, y0, x1, y1 int) []image.Point {
	return []image.Point{{x0, y0}, {x0, y1}, {x1, y1}, {x1, y0}}
}

func TestContourRegion_Rectangle(t *testing.T) {
	r := ContourRegion(rect(40, 40, 60, 60))
	require.InDelta(t, 400, r.Area(), 1e-9)
	c := r.Centroid()
	require.InDelta(t, 50, c.X, 1e-9)
	require.InDelta(t, 50, c.Y, 1e-9)
}

func TestContourRegion_OrientationIndependent(t *testing.T) {
	cw := ContourRegion(rect(10, 20, 30, 50))
	pts := rect(10, 20, 30, 50)
	for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
	ccw := ContourRegion(pts)
	require.Equal(t, cw, ccw)
	require.Positive(t, cw.M00)
}

func TestContourRegion_Degenerate(t *testing.T) {
	require.Equal(t, entity.Region{}, ContourRegion(nil))

	single := ContourRegion([]image.Point{{7, 9}})
	require.Zero(t, single.Area())
	require.NotPanics(t, func() { single.Centroid() })

	line := ContourRegion([]image.Point{{0, 0}, {10, 0}})
	require.Zero(t, line.Area())
	require.Equal(t, entity.Point{}, line.Centroid())
}

func TestLocate_NeedsTwoContours(t *testing.T) {
	det := Locate(nil, 360, 240, 0)
	require.False(t, det.Found())
	require.Equal(t, entity.OutcomeNoPair, det.Outcome)
	require.Nil(t, det.Target)

	det = Locate([]entity.Region{ContourRegion(rect(40, 40, 60, 60))}, 360, 240, 0)
	require.False(t, det.Found())
	require.Equal(t, 1, det.Contours)
}

func TestLocate_MidpointOfTwoRegions(t *testing.T) {
	regions := []entity.Region{
		ContourRegion(rect(40, 40, 60, 60)),
		ContourRegion(rect(140, 40, 160, 60)),
	}
	det := Locate(regions, 360, 240, 0)
	require.True(t, det.Found())
	require.InDelta(t, 100, det.Target.X, 1e-9)
	require.InDelta(t, 50, det.Target.Y, 1e-9)
	require.Equal(t, 360, det.Target.FrameWidth)
	require.Equal(t, 240, det.Target.FrameHeight)
}

func TestLocate_PicksTwoLargest(t *testing.T) {
	regions := []entity.Region{
		ContourRegion(rect(0, 0, 2, 2)),         // мелкий шум
		ContourRegion(rect(100, 100, 140, 180)), // крупнейший
		ContourRegion(rect(10, 10, 12, 12)),     // мелкий шум
		ContourRegion(rect(200, 100, 230, 160)), // второй
	}
	det := Locate(regions, 360, 240, 0)
	require.True(t, det.Found())
	require.InDelta(t, 120, det.Centroids[0].X, 1e-9)
	require.InDelta(t, 215, det.Centroids[1].X, 1e-9)
	require.InDelta(t, (120.0+215.0)/2, det.Target.X, 1e-9)
	require.InDelta(t, 135, det.Target.Y, 1e-9)
}

func TestLargestPair_TieBreakByEncounterOrder(t *testing.T) {
	area := func(a float64) entity.Region { return entity.Region{M00: a} }

	tests := []struct {
		name          string
		areas         []float64
		first, second int
	}{
		{name: "all equal", areas: []float64{3, 3, 3}, first: 0, second: 1},
		{name: "later larger displaces", areas: []float64{3, 3, 5}, first: 2, second: 0},
		{name: "equal to second keeps earlier", areas: []float64{5, 3, 3}, first: 0, second: 1},
		{name: "equal to first keeps earlier", areas: []float64{2, 5, 5}, first: 1, second: 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			regions := make([]entity.Region, len(tc.areas))
			for i, a := range tc.areas {
				regions[i] = area(a)
			}
			first, second := largestPair(regions)
			require.Equal(t, tc.first, first)
			require.Equal(t, tc.second, second)
		})
	}
}

func TestLocate_MinAreaFilter(t *testing.T) {
	regions := []entity.Region{
		ContourRegion(rect(40, 40, 60, 60)),
		ContourRegion(rect(140, 40, 145, 45)),
	}
	require.True(t, Locate(regions, 360, 240, 0).Found())

	det := Locate(regions, 360, 240, 100)
	require.False(t, det.Found())
	require.Equal(t, 1, det.Contours)
	// исходный срез не изменился
	require.Len(t, regions, 2)
}
