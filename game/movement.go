package game

import "math"

// StepRobot advances position and heading by dt seconds.
// The center is clamped so the unrotated body stays inside the width x height arena.
func StepRobot(r Robot, dt float64, width, height float64) Robot {
	next := r
	w2, h2 := r.Width/2.0, r.Height/2.0
	rad := ToRad(r.Angle)

	next.X = r.X + dt*r.Speed*math.Cos(rad)
	if next.X-w2 < 0 {
		next.X = w2
	} else if next.X+w2 >= width {
		next.X = width - w2
	}

	// Screen space: positive angles point up, y grows downwards
	next.Y = r.Y - dt*r.Speed*math.Sin(rad)
	if next.Y-h2 < 0 {
		next.Y = h2
	} else if next.Y+h2 >= height {
		next.Y = height - h2
	}

	next.Angle = NormalizeAngle(r.Angle + dt*r.Rotation)
	return next
}

// StepBullet moves a bullet along its heading.
// It returns false when the bullet left the [0, width) x [0, height) arena.
func StepBullet(b Bullet, dt float64, width, height float64) (Bullet, bool) {
	next := b
	k := dt * b.Speed
	rad := ToRad(b.Angle)
	next.X = b.X + k*math.Cos(rad)
	next.Y = b.Y - k*math.Sin(rad)
	if next.X < 0 || next.X >= width || next.Y < 0 || next.Y >= height {
		return next, false
	}
	return next, true
}
