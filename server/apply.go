package server

import "github.com/lab1702/langbots/game"

// applyStateChange is the only place the field is mutated.
// Updated robots are clamped to the configured limits; every new bullet arms the
// reload countdown of the robot that fired it. Snapshots of robots no longer on
// the field are dropped.
func applyStateChange(f *game.Field, sc game.StateChange) {
	rc := f.Config.Robot
	for _, r := range sc.UpdateRobots {
		if _, ok := f.Robots[r.Name]; !ok {
			continue
		}
		f.Robots[r.Name] = game.ApplyLimits(r, rc)
	}
	for _, b := range sc.NewBullets {
		f.Bullets = append(f.Bullets, b)
		if origin, ok := f.Robots[b.Origin]; ok {
			origin.TimeToFire = rc.FireMinInterval
			f.Robots[b.Origin] = origin
		}
	}
}
