package game

import "math"

// Intercept is a firing solution against a target moving in a straight line
type Intercept struct {
	Angle float64 // Absolute firing angle in degrees
	Time  float64 // Seconds until the bullet meets the target
	Point Point   // Where they meet
}

// Velocity returns the displacement per second of something moving at speed along angle
func Velocity(speed, angle float64) Point {
	rad := ToRad(angle)
	return Point{X: speed * math.Cos(rad), Y: -speed * math.Sin(rad)}
}

// AngleTo returns the absolute angle pointing from one position to another
func AngleTo(from, to Point) float64 {
	return NormalizeAngle(math.Atan2(from.Y-to.Y, to.X-from.X) * 180 / math.Pi)
}

// SolveIntercept finds the angle at which a bullet fired from shooter meets a target at
// target moving with constant velocity. It returns false when the target outruns the bullet.
func SolveIntercept(shooter, target, velocity Point, bulletSpeed float64) (Intercept, bool) {
	if bulletSpeed <= 0 {
		return Intercept{}, false
	}

	rel := target.Sub(shooter)
	distSq := rel.X*rel.X + rel.Y*rel.Y
	if distSq < 1e-9 {
		return Intercept{Angle: 0, Time: 0, Point: shooter}, true
	}

	velSq := velocity.X*velocity.X + velocity.Y*velocity.Y
	if velSq < 1e-9 {
		return Intercept{Angle: AngleTo(shooter, target), Time: math.Sqrt(distSq) / bulletSpeed, Point: target}, true
	}

	// |rel + velocity*t| = bulletSpeed*t
	a := velSq - bulletSpeed*bulletSpeed
	b := 2 * (rel.X*velocity.X + rel.Y*velocity.Y)
	c := distSq

	var t float64
	if math.Abs(a) < 1e-9 {
		// Same speed: linear
		if math.Abs(b) < 1e-9 {
			return Intercept{}, false
		}
		t = -c / b
	} else {
		discriminant := b*b - 4*a*c
		if discriminant < 0 {
			return Intercept{}, false
		}
		sq := math.Sqrt(discriminant)
		t1, t2 := (-b+sq)/(2*a), (-b-sq)/(2*a)
		switch {
		case t1 > 0 && t2 > 0:
			t = math.Min(t1, t2)
		case t1 > 0:
			t = t1
		default:
			t = t2
		}
	}
	if t <= 0 {
		return Intercept{}, false
	}

	p := target.Add(Point{X: velocity.X * t, Y: velocity.Y * t})
	return Intercept{Angle: AngleTo(shooter, p), Time: t, Point: p}, true
}
