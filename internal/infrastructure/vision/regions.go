package vision

import (
	"image"

	"vision-node/internal/domain/entity"
)

// ContourRegion считает моменты замкнутого контура по формуле площади многоугольника,
// как это делает OpenCV для контуров. Знак обхода нормализуется: M00 >= 0.
func ContourRegion(pts []image.Point) entity.Region {
	var a00, a10, a01 float64
	n := len(pts)
	if n == 0 {
		return entity.Region{}
	}

	for i := 0; i < n; i++ {
		p, q := pts[i], pts[(i+1)%n]
		xi, yi := float64(p.X), float64(p.Y)
		xj, yj := float64(q.X), float64(q.Y)
		cross := xi*yj - xj*yi
		a00 += cross
		a10 += (xi + xj) * cross
		a01 += (yi + yj) * cross
	}

	r := entity.Region{M00: a00 / 2, M10: a10 / 6, M01: a01 / 6}
	if r.M00 < 0 {
		r.M00, r.M10, r.M01 = -r.M00, -r.M10, -r.M01
	}
	return r
}

// Locate выбирает два крупнейших контура и возвращает середину между их центрами.
// Меньше двух контуров означает, что цели нет: одна полоса не даёт пары.
func Locate(regions []entity.Region, width, height int, minArea float64) entity.Detection {
	if minArea > 0 {
		kept := regions[:0:0]
		for _, r := range regions {
			if r.Area() >= minArea {
				kept = append(kept, r)
			}
		}
		regions = kept
	}

	det := entity.Detection{
		Outcome:     entity.OutcomeNoPair,
		Contours:    len(regions),
		ImageWidth:  width,
		ImageHeight: height,
	}
	if len(regions) < 2 {
		return det
	}

	first, second := largestPair(regions)
	c1 := regions[first].Centroid()
	c2 := regions[second].Centroid()
	mid := c1.Midpoint(c2)

	det.Outcome = entity.OutcomeFound
	det.Centroids = [2]entity.Point{c1, c2}
	det.Target = &entity.TargetEstimate{Point: mid, FrameWidth: width, FrameHeight: height}
	return det
}

// largestPair возвращает индексы двух контуров с наибольшей площадью.
// При равенстве площадей остаётся тот, что встретился раньше.
func largestPair(regions []entity.Region) (first, second int) {
	first, second = -1, -1
	for i, r := range regions {
		area := r.Area()
		switch {
		case first < 0 || area > regions[first].Area():
			second = first
			first = i
		case second < 0 || area > regions[second].Area():
			second = i
		}
	}
	return first, second
}
