package geometry_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestVec3Basic(t *testing.T) {
	a := geometry.Vec3{X: 1, Y: 2, Z: 3}
	b := geometry.Vec3{X: 4, Y: 5, Z: 6}
	assert.Equal(t, geometry.Vec3{X: 5, Y: 7, Z: 9}, a.Add(b))
	assert.Equal(t, geometry.Vec3{X: 3, Y: 3, Z: 3}, b.Sub(a))
	assert.Equal(t, 32.0, a.Dot(b))
	assert.Equal(t, geometry.Vec3{X: -3, Y: 6, Z: -3}, a.Cross(b))
	assert.InDelta(t, math.Sqrt(14), a.Length(), 1e-12)
}

func TestVec3Normalize(t *testing.T) {
	assert.Equal(t, geometry.Zero, geometry.Zero.Normalize())
	assert.Equal(t, geometry.Zero, geometry.Vec3{X: math.NaN()}.Normalize())
	n := geometry.Vec3{X: 3, Z: 4}.Normalize()
	assert.InDelta(t, 1, n.Length(), 1e-12)
	assert.InDelta(t, 0.6, n.X, 1e-12)
}

func TestVec3Components(t *testing.T) {
	v := geometry.Vec3{X: 2, Y: 3, Z: 5}
	par := v.ParallelComponent(geometry.Forward)
	perp := v.PerpendicularComponent(geometry.Forward)
	assert.Equal(t, geometry.Vec3{Z: 5}, par)
	assert.Equal(t, geometry.Vec3{X: 2, Y: 3}, perp)
	assert.Equal(t, v, par.Add(perp))
	assert.Equal(t, geometry.Vec3{X: 2, Z: 5}, v.SetYToZero())
}

func TestVec3TruncateLength(t *testing.T) {
	v := geometry.Vec3{X: 30, Z: 40}
	assert.InDelta(t, 5, v.TruncateLength(5).Length(), 1e-12)
	short := geometry.Vec3{X: 1}
	assert.Equal(t, short, short.TruncateLength(5))
}

func TestVec3Finite(t *testing.T) {
	assert.True(t, geometry.Unit.IsFinite())
	bad := geometry.Vec3{Y: math.Inf(1)}
	assert.False(t, bad.IsFinite())
	assert.Equal(t, geometry.Zero, bad.OrZero())
}

func TestInterpolate(t *testing.T) {
	a := geometry.Vec3{}
	b := geometry.Vec3{X: 10}
	assert.Equal(t, geometry.Vec3{X: 2}, geometry.Interpolate(0.2, a, b))
	assert.Equal(t, b, geometry.BlendIntoAccumulator(1, b, a))
	assert.Equal(t, a, geometry.BlendIntoAccumulator(0, b, a))
}

func TestVec3R3Interop(t *testing.T) {
	v := geometry.Vec3{X: 1, Y: -2, Z: 3}
	p := v.R3()
	assert.Equal(t, r3.Vec{X: 1, Y: -2, Z: 3}, p)
	assert.Equal(t, v, geometry.FromR3(p))
	assert.Equal(t, geometry.Side, geometry.Forward.Cross(geometry.Up))
	assert.Equal(t, geometry.Vec3{X: -1, Y: 2, Z: -3}, v.Neg())
	assert.Equal(t, geometry.Vec3{X: 0.5, Y: -1, Z: 1.5}, v.Div(2))
	assert.Equal(t, geometry.Zero, v.Div(0))
	assert.Equal(t, 14.0, v.LengthSquared())
	assert.Equal(t, 5.0, geometry.Distance(geometry.Vec3{X: 3}, geometry.Vec3{Z: 4}))
}
