package randengine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/randengine"
)

func TestEngineDeterministic(t *testing.T) {
	a := randengine.New(42)
	b := randengine.New(42)
	for range 100 {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestScalarRandomWalkBounded(t *testing.T) {
	e := randengine.New(1)
	x := 0.0
	for range 1000 {
		x = e.ScalarRandomWalk(x, 0.5, -1, 1)
		assert.GreaterOrEqual(t, x, -1.0)
		assert.LessOrEqual(t, x, 1.0)
	}
}

func TestXZDisk(t *testing.T) {
	e := randengine.New(7)
	for range 1000 {
		v := e.VectorOnUnitRadiusXZDisk()
		assert.Equal(t, 0.0, v.Y)
		assert.Less(t, v.Length(), 1.0)
		u := e.UnitVectorOnXZPlane()
		assert.InDelta(t, 1, u.Length(), 1e-9)
		assert.Equal(t, 0.0, u.Y)
	}
}

func TestSignAndPTrue(t *testing.T) {
	e := randengine.New(3)
	seen := map[int]bool{}
	for range 200 {
		seen[e.Sign()] = true
		assert.False(t, e.PTrue(0))
		assert.True(t, e.PTrue(1))
	}
	assert.True(t, seen[1])
	assert.True(t, seen[-1])
}
