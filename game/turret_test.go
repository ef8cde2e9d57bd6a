package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirePosition(t *testing.T) {
	cfg := DefaultConfig()
	r := Robot{Name: "a", X: 100, Y: 100, Width: 40, Height: 30, Angle: 90}

	b, ok := Fire(cfg, r)
	require.True(t, ok)
	assert.InDelta(t, 100.0, b.X, 1e-9)
	assert.InDelta(t, 80.0, b.Y, 1e-9)
	assert.Equal(t, 90.0, b.Angle)
	assert.Equal(t, cfg.Robot.BulletSpeed, b.Speed)
	assert.Equal(t, "a", b.Origin)

	r.TimeToFire = 0.2
	_, ok = Fire(cfg, r)
	assert.False(t, ok, "reloading robot must not fire")
}

func TestAdvanceTurretRotatesAndFires(t *testing.T) {
	cfg := DefaultConfig()
	r := Robot{Name: "a", X: 100, Y: 100, Width: 40, Height: 30, FireAngle: Float(90)}
	dt := 1.0 / FPS

	var bullets []Bullet
	for i := 0; i < 2*FPS && (r.FireAngle != nil || r.TurretRotation != 0); i++ {
		sc := AdvanceTurret(cfg, r, dt)
		require.Len(t, sc.UpdateRobots, 1)
		r = sc.UpdateRobots[0]
		bullets = append(bullets, sc.NewBullets...)
		assert.LessOrEqual(t, r.TurretRotation, cfg.Robot.TurretRotationMaxSpeed)
	}

	require.Len(t, bullets, 1, "exactly one shot on arrival")
	assert.InDelta(t, 90.0, bullets[0].Angle, cfg.Robot.TurretRotationMaxSpeed*dt)
	assert.InDelta(t, 90.0, r.TurretAngle, 1e-9)
	assert.Zero(t, r.TurretRotation)
	assert.Nil(t, r.FireAngle)
	assert.Nil(t, r.TurretFinalAngle)
}

func TestAdvanceTurretClockwise(t *testing.T) {
	cfg := DefaultConfig()
	r := Robot{Name: "a", Width: 40, Height: 30, TurretFinalAngle: Float(-45)}

	sc := AdvanceTurret(cfg, r, 0.01)
	got := sc.UpdateRobots[0]
	assert.Equal(t, -cfg.Robot.TurretRotationMaxSpeed, got.TurretRotation)
	assert.Empty(t, sc.NewBullets)
	require.NotNil(t, got.TurretFinalAngle)
}

func TestAdvanceTurretRelativeToBody(t *testing.T) {
	cfg := DefaultConfig()
	// Target is absolute, the resulting turret angle is relative to the heading
	r := Robot{Name: "a", Width: 40, Height: 30, Angle: 30, TurretAngle: 10, TurretRotation: 100, TurretFinalAngle: Float(41)}

	sc := AdvanceTurret(cfg, r, 0.02)
	got := sc.UpdateRobots[0]
	assert.InDelta(t, 11.0, got.TurretAngle, 1e-9)
	assert.Nil(t, got.TurretFinalAngle)
	assert.Zero(t, got.TurretRotation)
}

func TestAdvanceTurretAlreadyAligned(t *testing.T) {
	cfg := DefaultConfig()
	r := Robot{Name: "a", X: 100, Y: 100, Width: 40, Height: 30, Angle: 20, TurretAngle: 10, FireAngle: Float(30)}

	sc := AdvanceTurret(cfg, r, 1.0/FPS)
	require.Len(t, sc.NewBullets, 1)
	assert.InDelta(t, 30.0, sc.NewBullets[0].Angle, 1e-9)
	got := sc.UpdateRobots[0]
	assert.Nil(t, got.FireAngle)
	assert.InDelta(t, 10.0, got.TurretAngle, 1e-9)
}

func TestAdvanceTurretArrivalWhileReloading(t *testing.T) {
	cfg := DefaultConfig()
	r := Robot{Name: "a", Width: 40, Height: 30, TimeToFire: 0.5, FireAngle: Float(0)}

	sc := AdvanceTurret(cfg, r, 0.1)
	assert.Empty(t, sc.NewBullets)
	got := sc.UpdateRobots[0]
	assert.Nil(t, got.FireAngle, "target is consumed even without a shot")
	assert.InDelta(t, 0.4, got.TimeToFire, 1e-9)
}

func TestAdvanceTurretReloadCountdown(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name     string
		ttf, dt  float64
		expected float64
	}{
		{"counts down", 0.5, 0.2, 0.3},
		{"floors at zero", 0.1, 0.2, 0},
		{"ready stays ready", 0, 0.2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := AdvanceTurret(cfg, Robot{TimeToFire: tt.ttf}, tt.dt)
			assert.InDelta(t, tt.expected, sc.UpdateRobots[0].TimeToFire, 1e-9)
		})
	}
}

func TestAdvanceTurretFreeRotation(t *testing.T) {
	cfg := DefaultConfig()
	r := Robot{TurretAngle: 170, TurretRotation: 60}

	sc := AdvanceTurret(cfg, r, 0.5)
	got := sc.UpdateRobots[0]
	assert.InDelta(t, -160.0, got.TurretAngle, 1e-9)
	assert.Equal(t, 60.0, got.TurretRotation, "no target keeps the commanded rate")
}
