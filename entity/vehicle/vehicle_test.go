package vehicle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/geometry"
)

func assertOrthonormal(t *testing.T, v *Vehicle) {
	t.Helper()
	assert.InDelta(t, 1, v.Forward().Length(), 1e-9)
	assert.InDelta(t, 1, v.Side().Length(), 1e-9)
	assert.InDelta(t, 1, v.Up().Length(), 1e-9)
	assert.InDelta(t, 0, v.Forward().Dot(v.Side()), 1e-9)
	assert.InDelta(t, 0, v.Forward().Dot(v.Up()), 1e-9)
	assert.InDelta(t, 0, v.Side().Dot(v.Up()), 1e-9)
}

func TestNewVehicle(t *testing.T) {
	v := New()
	assert.Equal(t, geometry.Forward, v.Forward())
	assert.Equal(t, geometry.Side, v.Side())
	assert.Equal(t, geometry.Up, v.Up())
	assert.Equal(t, 0.0, v.Speed())
	assert.Equal(t, 1.0, v.Mass())
	assert.Equal(t, 0.5, v.Radius())
	assertOrthonormal(t, v)
}

func TestZeroForceAtRest(t *testing.T) {
	v := New()
	v.SetPosition(geometry.Vec3{X: 3, Z: 4})
	for range 10 {
		v.ApplySteeringForce(geometry.Zero, 0.1)
	}
	assert.Equal(t, geometry.Vec3{X: 3, Z: 4}, v.Position())
	assert.Equal(t, 0.0, v.Speed())
}

func TestSpeedIsCapped(t *testing.T) {
	v := New()
	v.SetMaxSpeed(2)
	v.SetMaxForce(8)
	for range 600 {
		v.ApplySteeringForce(v.Forward().Scale(100), 1.0/60)
		assert.LessOrEqual(t, v.Speed(), 2+1e-9)
	}
	assert.InDelta(t, 2, v.Speed(), 1e-9)
	assert.Greater(t, v.Position().Z, 0.0)
	assertOrthonormal(t, v)
}

func TestLateralForceAtRestIsBentForward(t *testing.T) {
	v := New()
	v.SetMaxSpeed(2)
	v.SetMaxForce(8)
	v.ApplySteeringForce(v.Side().Scale(8), 0.1)
	assert.Greater(t, v.Speed(), 0.0)
	assert.InDelta(t, 0, v.Position().X, 1e-9)
	assert.Greater(t, v.Position().Z, 0.0)
}

func TestTurning(t *testing.T) {
	v := New()
	v.SetMaxSpeed(2)
	v.SetMaxForce(8)
	v.SetSpeed(2)
	for range 120 {
		v.ApplySteeringForce(v.Side().Scale(8), 1.0/60)
		assertOrthonormal(t, v)
	}
	// 持续向side转向后，前进方向离开+Z
	assert.Less(t, v.Forward().Dot(geometry.Forward), 0.99)
	assert.InDelta(t, 0, v.Position().Y, 1e-9)
}

func TestSetHeadingOnXZPlane(t *testing.T) {
	v := New()
	v.SetHeadingOnXZPlane(geometry.Vec3{X: 2, Y: 5})
	assert.Equal(t, geometry.Vec3{X: 1}, v.Forward())
	assert.Equal(t, geometry.Vec3{Z: 1}, v.Side())
	assert.Equal(t, geometry.Up, v.Up())

	v.SetHeadingOnXZPlane(geometry.Vec3{Y: 1})
	assert.Equal(t, geometry.Vec3{X: 1}, v.Forward(), "degenerate heading keeps the old one")
}

func TestPredictAndLocalize(t *testing.T) {
	v := New()
	v.SetPosition(geometry.Vec3{X: 1})
	v.SetSpeed(2)
	assert.Equal(t, geometry.Vec3{X: 1, Z: 6}, v.PredictFuturePosition(3))

	local := v.LocalizePosition(geometry.Vec3{X: 0, Y: 2, Z: 5})
	assert.Equal(t, geometry.Vec3{X: 1, Y: 2, Z: 5}, local)
}

func TestLimitMaxDeviationAngle(t *testing.T) {
	f := limitMaxDeviationAngle(geometry.Vec3{X: 3}, 1, geometry.Forward)
	assert.InDelta(t, 0, f.X, 1e-12)
	assert.InDelta(t, 3, f.Z, 1e-12)

	g := geometry.Vec3{X: 1, Z: 1}
	assert.Equal(t, g, limitMaxDeviationAngle(g, 0.5, geometry.Forward))
	assert.Equal(t, geometry.Zero, limitMaxDeviationAngle(geometry.Zero, 1, geometry.Forward))
}

func TestAccelerationIsSmoothed(t *testing.T) {
	v := New()
	v.SetMaxSpeed(2)
	v.SetMaxForce(8)
	// dt=0.1时平滑比例为clip(0.9, 0.15, 0.4)=0.4
	v.ApplySteeringForce(v.Forward().Scale(8), 0.1)
	assert.InDelta(t, 3.2, v.SmoothedAcceleration().Z, 1e-9)
	assert.InDelta(t, 0, v.SmoothedAcceleration().X, 1e-9)
	assert.InDelta(t, 0.32, v.Speed(), 1e-9)

	// 零时间步不更新平滑加速度
	before := v.SmoothedAcceleration()
	v.ApplySteeringForce(v.Forward().Scale(8), 0)
	assert.Equal(t, before, v.SmoothedAcceleration())

	v.Reset()
	assert.Equal(t, geometry.Zero, v.SmoothedAcceleration())
}
