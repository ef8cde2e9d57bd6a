package game

import "math"

// Point is a 2D position or vector in arena units (screen space, y grows downwards)
type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Triangle is three points in any winding order
type Triangle [3]Point

// Add returns the sum of two vectors
func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

// Sub returns p - o
func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

// Neg changes the sign of both components
func (p Point) Neg() Point {
	return Point{X: -p.X, Y: -p.Y}
}

// Cross returns the z component of the cross product of two 2D vectors
func Cross(a, b Point) float64 {
	return a.X*b.Y - a.Y*b.X
}

// ToRad converts degrees to radians
func ToRad(angle float64) float64 {
	return angle * math.Pi / 180.0
}

// NormalizeAngle maps an angle in degrees into (-180, 180]
func NormalizeAngle(angle float64) float64 {
	r := math.Mod(angle+180.0, 360.0)
	if r <= 0 {
		r += 360.0
	}
	return r - 180.0
}

// RotationDirection returns the shortest rotation sense from start to end:
// +1 counter-clockwise, -1 clockwise, 0 when the angles are aligned or opposite.
func RotationDirection(startAngle, endAngle float64) int {
	start := Point{X: math.Cos(ToRad(startAngle)), Y: math.Sin(ToRad(startAngle))}
	end := Point{X: math.Cos(ToRad(endAngle)), Y: math.Sin(ToRad(endAngle))}
	cp := Cross(start, end)
	switch {
	case cp > 0:
		return 1
	case cp < 0:
		return -1
	default:
		return 0
	}
}

// Bounds returns the axis-aligned bounding box of a point set
func Bounds(points []Point) (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return minX, minY, maxX, maxY
}

// BoundingBoxesOverlap reports whether two point sets *may* overlap.
// It returns false only when their bounding boxes are disjoint.
func BoundingBoxesOverlap(a, b []Point) bool {
	aMinX, aMinY, aMaxX, aMaxY := Bounds(a)
	bMinX, bMinY, bMaxX, bMaxY := Bounds(b)
	return !(bMinX > aMaxX || bMinY > aMaxY || bMaxX < aMinX || bMaxY < aMinY)
}

// sameSide checks that p1 and p2 lie on the same side of the line a-b.
// Points on the line count as being on both sides.
func sameSide(p1, p2, a, b Point) bool {
	ba := b.Sub(a)
	return Cross(ba, p1.Sub(a))*Cross(ba, p2.Sub(a)) >= 0
}

// PointInTriangle uses the same-side test against each edge; boundary points are inside.
func PointInTriangle(p Point, t Triangle) bool {
	if !BoundingBoxesOverlap([]Point{p}, t[:]) {
		return false
	}
	a, b, c := t[0], t[1], t[2]
	return sameSide(p, a, b, c) && sameSide(p, b, a, c) && sameSide(p, c, a, b)
}

// PolygonAsTriangleFan splits a convex polygon into triangles sharing its first vertex
func PolygonAsTriangleFan(polygon []Point) []Triangle {
	if len(polygon) < 3 {
		return nil
	}
	triangles := make([]Triangle, 0, len(polygon)-2)
	for i := 1; i+1 < len(polygon); i++ {
		triangles = append(triangles, Triangle{polygon[0], polygon[i], polygon[i+1]})
	}
	return triangles
}

// PointInConvexPolygon reports whether p lies inside (or on the border of) a convex polygon
func PointInConvexPolygon(p Point, polygon []Point) bool {
	for _, t := range PolygonAsTriangleFan(polygon) {
		if PointInTriangle(p, t) {
			return true
		}
	}
	return false
}

// TrianglesCollide reports whether any vertex of one triangle lies inside the other.
// Triangles that only cross edges, with no vertex inside the other, are not detected.
func TrianglesCollide(t1, t2 Triangle) bool {
	if !BoundingBoxesOverlap(t1[:], t2[:]) {
		return false
	}
	for _, p := range t1 {
		if PointInTriangle(p, t2) {
			return true
		}
	}
	for _, p := range t2 {
		if PointInTriangle(p, t1) {
			return true
		}
	}
	return false
}

// ConvexPolygonsCollide reports whether any pair of fan triangles of the two polygons collide
func ConvexPolygonsCollide(p1, p2 []Point) bool {
	if !BoundingBoxesOverlap(p1, p2) {
		return false
	}
	fan2 := PolygonAsTriangleFan(p2)
	for _, t1 := range PolygonAsTriangleFan(p1) {
		for _, t2 := range fan2 {
			if TrianglesCollide(t1, t2) {
				return true
			}
		}
	}
	return false
}

// RobotPolygon returns the four corners of the robot body rotated by its heading.
// The width axis follows the heading, the height axis is perpendicular to it.
func RobotPolygon(r Robot) []Point {
	w2 := r.Width / 2.0
	h2 := r.Height / 2.0
	rad := ToRad(r.Angle)
	cos, sin := math.Cos(rad), math.Sin(rad)
	dx := Point{X: w2 * cos, Y: -w2 * sin}
	dy := Point{X: h2 * sin, Y: h2 * cos}
	center := Point{X: r.X, Y: r.Y}
	return []Point{
		center.Sub(dx).Sub(dy),
		center.Sub(dx).Add(dy),
		center.Add(dx).Add(dy),
		center.Add(dx).Sub(dy),
	}
}
