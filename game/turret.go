package game

import "math"

// TurretLengthFactor divides the body height to get the turret length (bullet spawn distance)
const TurretLengthFactor = 1.5

// Fire creates a bullet at the turret tip if the robot has reloaded.
// The caller arms the reload countdown when the bullet is applied to the field.
func Fire(cfg Config, r Robot) (Bullet, bool) {
	if r.TimeToFire > 0 {
		return Bullet{}, false
	}
	absolute := r.Angle + r.TurretAngle
	length := r.Height / TurretLengthFactor
	rad := ToRad(absolute)
	return Bullet{
		X:      r.X + length*math.Cos(rad),
		Y:      r.Y - length*math.Sin(rad),
		Angle:  absolute,
		Speed:  cfg.Robot.BulletSpeed,
		Origin: r.Name,
	}, true
}

// pendingTarget returns the absolute angle the turret should reach, fire targets first
func pendingTarget(r Robot) (float64, bool) {
	if r.FireAngle != nil {
		return *r.FireAngle, true
	}
	if r.TurretFinalAngle != nil {
		return *r.TurretFinalAngle, true
	}
	return 0, false
}

// aligned reports whether two absolute angles point the same way
func aligned(a, b float64) bool {
	return math.Cos(ToRad(a-b)) > 0
}

// AdvanceTurret rotates the turret for dt seconds, detecting arrival at a pending target
// (the rotation sense flips between the start and the end of the tick), firing when the
// target came from a rotate-and-fire command, and counting down the reload timer.
// A turret already pointing at the target counts as arrived, and one pointing exactly
// away from it turns in the positive sense, so a zero direction never stalls it.
func AdvanceTurret(cfg Config, r Robot, dt float64) StateChange {
	next := r
	var bullets []Bullet

	newTurretAngle := r.TurretAngle + dt*r.TurretRotation
	if target, ok := pendingTarget(r); ok {
		oldAbsolute, newAbsolute := r.Angle+r.TurretAngle, r.Angle+newTurretAngle
		oldDirection := RotationDirection(oldAbsolute, target)
		newDirection := RotationDirection(newAbsolute, target)

		// Starting or landing exactly on the target counts as arrival too
		arrived := oldDirection*newDirection < 0 ||
			(oldDirection == 0 && aligned(oldAbsolute, target)) ||
			(newDirection == 0 && aligned(newAbsolute, target))

		if arrived {
			next.TurretRotation = 0
			if r.FireAngle != nil {
				if b, fired := Fire(cfg, r); fired {
					bullets = append(bullets, b)
				}
			}
			newTurretAngle = target - r.Angle
			next.FireAngle = nil
			next.TurretFinalAngle = nil
		} else {
			if newDirection == 0 {
				// Exactly opposite: any sense is shortest
				newDirection = 1
			}
			next.TurretRotation = cfg.Robot.TurretRotationMaxSpeed * float64(newDirection)
		}
	}
	next.TurretAngle = NormalizeAngle(newTurretAngle)

	if r.TimeToFire > 0 {
		next.TimeToFire = math.Max(0, r.TimeToFire-dt)
	}

	return StateChange{UpdateRobots: []Robot{next}, NewBullets: bullets}
}
