package entity

import "math"

// Point — точка в пиксельных координатах кадра.
type Point struct {
	X float64
	Y float64
}

// Midpoint возвращает середину отрезка между p и q.
func (p Point) Midpoint(q Point) Point {
	return Point{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2}
}

// Region — контур-кандидат, описанный моментами нулевого и первого порядка.
type Region struct {
	M00 float64 // площадь (со знаком обхода, нормализованная к >= 0)
	M10 float64
	M01 float64
}

// Area возвращает площадь контура.
func (r Region) Area() float64 {
	return math.Abs(r.M00)
}

// Centroid возвращает центр масс контура. Делитель не меньше 1,
// поэтому вырожденный контур не приводит к делению на ноль.
func (r Region) Centroid() Point {
	div := math.Max(r.M00, 1)
	return Point{X: r.M10 / div, Y: r.M01 / div}
}

// TargetEstimate — найденная цель в пикселях кадра вместе с размером кадра,
// на котором она измерена.
type TargetEstimate struct {
	Point
	FrameWidth  int
	FrameHeight int
}

// Normalized переводит позицию в диапазон [0,1]×[0,1].
func (t TargetEstimate) Normalized() (x, y float64) {
	if t.FrameWidth > 0 {
		x = t.X / float64(t.FrameWidth)
	}
	if t.FrameHeight > 0 {
		y = t.Y / float64(t.FrameHeight)
	}
	return x, y
}
