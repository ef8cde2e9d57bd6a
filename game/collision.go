package game

// Move pairs a robot snapshot before and after a movement step
type Move struct {
	Old Robot
	New Robot
}

// RobotsCollide tests the rotated bodies of two robots
func RobotsCollide(a, b Robot) bool {
	return ConvexPolygonsCollide(RobotPolygon(a), RobotPolygon(b))
}

// FindCollision returns the indices of the first colliding pair, scanning pairs in order
func FindCollision(robots []Robot) (int, int, bool) {
	polygons := make([][]Point, len(robots))
	for i, r := range robots {
		polygons[i] = RobotPolygon(r)
	}
	for i := 0; i < len(robots); i++ {
		for j := i + 1; j < len(robots); j++ {
			if ConvexPolygonsCollide(polygons[i], polygons[j]) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// ResolveMoves drops candidate moves until the surviving new positions are collision free.
//
// For a colliding pair the culprit is guessed from the old positions: when the first
// robot's new body is clear of the second robot's old body, the second robot moved into
// the first and its move is dropped (and vice versa). When neither rollback alone clears
// the collision both moves are dropped. Dropped robots keep their previous state.
func ResolveMoves(moves []Move) []Robot {
	candidates := make([]Move, len(moves))
	copy(candidates, moves)

	news := func() []Robot {
		out := make([]Robot, len(candidates))
		for i, m := range candidates {
			out[i] = m.New
		}
		return out
	}

	for len(candidates) > 1 {
		i, j, found := FindCollision(news())
		if !found {
			break
		}
		first, second := candidates[i], candidates[j]
		switch {
		case !RobotsCollide(first.New, second.Old):
			candidates = removeMoves(candidates, j)
		case !RobotsCollide(first.Old, second.New):
			candidates = removeMoves(candidates, i)
		default:
			candidates = removeMoves(candidates, i, j)
		}
	}

	return news()
}

// removeMoves returns moves without the given ascending indices
func removeMoves(moves []Move, indices ...int) []Move {
	out := make([]Move, 0, len(moves))
	skip := 0
	for k, m := range moves {
		if skip < len(indices) && indices[skip] == k {
			skip++
			continue
		}
		out = append(out, m)
	}
	return out
}

// BulletHit returns the first robot, other than the shooter, whose body contains the bullet
func BulletHit(robots []Robot, b Bullet) (Robot, bool) {
	p := b.Position()
	for _, r := range robots {
		if r.Name == b.Origin {
			continue
		}
		if PointInConvexPolygon(p, RobotPolygon(r)) {
			return r, true
		}
	}
	return Robot{}, false
}
