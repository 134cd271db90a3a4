package pedestrian

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/crowdsim-oss/entity"
	"github.com/tsinghua-fib-lab/crowdsim-oss/entity/obstacle"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/config"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/geometry"
)

// place 将行人放到指定位置、朝向与速度，并同步空间索引
func place(p *Pedestrian, pos, heading geometry.Vec3, speed float64) {
	p.SetPosition(pos)
	p.SetHeadingOnXZPlane(heading)
	p.SetSpeed(speed)
	p.token.UpdateForNewPosition(pos)
}

func assertVec(t *testing.T, expected, actual geometry.Vec3) {
	t.Helper()
	assert.InDelta(t, expected.X, actual.X, 1e-9, "x: %v vs %v", expected, actual)
	assert.InDelta(t, expected.Y, actual.Y, 1e-9, "y: %v vs %v", expected, actual)
	assert.InDelta(t, expected.Z, actual.Z, 1e-9, "z: %v vs %v", expected, actual)
}

func initOne(t *testing.T, ctx *testContext) *Pedestrian {
	ctx.manager.Init(1)
	require.Equal(t, 1, ctx.manager.Len())
	return ctx.manager.pedestrians()[0]
}

func TestObstacleAvoidancePreemptsPathAndWander(t *testing.T) {
	ctx := newTestContext(t, func(c *config.Config) { c.Steering.LeakThrough = 0 })
	var err error
	ctx.obstacles, err = obstacle.NewSet(obstacle.Sphere{Center: geometry.Vec3{X: 1, Z: 10}, Radius: 3})
	require.NoError(t, err)
	rec := &recorder{}
	ctx.annotator = rec

	p := initOne(t, ctx)
	place(p, geometry.Zero, geometry.Forward, 2)
	p.pathDirection = entity.DOWNSTREAM

	force := p.determineCombinedSteering(1.0 / 60)
	// forward + 障碍物避让（指向-X，长度为最大转向力8），不含路径跟随与漫游
	assertVec(t, geometry.Vec3{X: -8, Z: 1}, force)
	assert.Equal(t, 0.0, p.wanderSide)
	assert.Equal(t, 0.0, p.wanderUp)
	assert.Equal(t, 1, rec.count(entity.AnnotationAvoidObstacle))
	assert.Equal(t, 0, rec.count(entity.AnnotationPathFollowing))
}

func TestLeakThroughSkipsAvoidance(t *testing.T) {
	ctx := newTestContext(t, func(c *config.Config) { c.Steering.LeakThrough = 1 })
	var err error
	ctx.obstacles, err = obstacle.NewSet(obstacle.Sphere{Center: geometry.Vec3{X: 1, Z: 10}, Radius: 3})
	require.NoError(t, err)
	rec := &recorder{}
	ctx.annotator = rec

	p := initOne(t, ctx)
	place(p, geometry.Zero, geometry.Forward, 2)
	p.pathDirection = entity.DOWNSTREAM

	force := p.determineCombinedSteering(1.0 / 60)
	// forward(0,0,1) + 路径跟随 0.5*((6,0,0)-(0,0,2)) + 漫游（侧向为-X，幅度不超过0.2）
	assert.InDelta(t, 0, force.Z, 1e-9)
	assert.InDelta(t, 3, force.X, 0.2+1e-9)
	assert.Equal(t, 0.0, force.Y)
	assert.Equal(t, 0, rec.count(entity.AnnotationAvoidObstacle))
	assert.Equal(t, 1, rec.count(entity.AnnotationPathFollowing))
}

func TestSteerToFollowPath(t *testing.T) {
	ctx := newTestContext(t, nil)
	p := initOne(t, ctx)

	// 在管道内且朝正确方向
	place(p, geometry.Vec3{X: 50}, geometry.Vec3{X: 1}, 1)
	assert.Equal(t, geometry.Zero, p.steerToFollowPath(entity.DOWNSTREAM, 3, ctx.path))

	// 朝向与路径方向相反：seek路径距离47处的点
	assertVec(t, geometry.Vec3{X: -4}, p.steerToFollowPath(entity.UPSTREAM, 3, ctx.path))
}

func TestSteerToStayOnPath(t *testing.T) {
	ctx := newTestContext(t, nil)
	p := initOne(t, ctx)

	place(p, geometry.Vec3{X: 50}, geometry.Vec3{X: -1}, 1)
	assert.Equal(t, geometry.Zero, p.steerToStayOnPath(3, ctx.path), "inside the tube, any direction")

	place(p, geometry.Vec3{X: 50, Z: 5}, geometry.Vec3{X: 1}, 1)
	// 预测位置(53,0,5)在管道外，seek最近点(53,0,0)
	assertVec(t, geometry.Vec3{X: 2, Z: -5}, p.steerToStayOnPath(3, ctx.path))
}

func TestSteerForWanderIsLateral(t *testing.T) {
	ctx := newTestContext(t, nil)
	p := initOne(t, ctx)
	place(p, geometry.Zero, geometry.Forward, 1)
	for range 100 {
		f := p.steerForWander(12, 1.0/60)
		assert.InDelta(t, 0, f.Dot(p.Forward()), 1e-9)
		assert.LessOrEqual(t, p.wanderSide, 1.0)
		assert.GreaterOrEqual(t, p.wanderSide, -1.0)
	}
}

func TestSteerToAvoidNeighbors(t *testing.T) {
	ctx := newTestContext(t, nil)
	ctx.manager.Init(2)
	peds := ctx.manager.pedestrians()
	a, b := peds[0], peds[1]

	// 已经重叠：远离方向垂直于forward的分量
	place(a, geometry.Zero, geometry.Forward, 1)
	place(b, geometry.Vec3{X: 0.5}, geometry.Forward, 1)
	assertVec(t, geometry.Vec3{X: -0.5}, a.steerToAvoidNeighbors(3, []any{a, b}))

	// 相向而行，2.5秒后横向距离0.3：向远离对方的一侧转向
	place(b, geometry.Vec3{X: 0.3, Z: 10}, geometry.Vec3{Z: -1}, 2)
	place(a, geometry.Zero, geometry.Forward, 2)
	assert.InDelta(t, 2.5, a.predictNearestApproachTime(b), 1e-9)
	assertVec(t, geometry.Vec3{X: -1}, a.steerToAvoidNeighbors(3, []any{a, b}))

	// 横向距离足够大：没有威胁
	place(b, geometry.Vec3{X: 5, Z: 10}, geometry.Vec3{Z: -1}, 2)
	assert.Equal(t, geometry.Zero, a.steerToAvoidNeighbors(3, []any{a, b}))

	// 只有自身
	assert.Equal(t, geometry.Zero, a.steerToAvoidNeighbors(3, []any{a}))
}

func TestPredictNearestApproachTimeParallel(t *testing.T) {
	ctx := newTestContext(t, nil)
	ctx.manager.Init(2)
	peds := ctx.manager.pedestrians()
	a, b := peds[0], peds[1]
	place(a, geometry.Zero, geometry.Forward, 1)
	place(b, geometry.Vec3{X: 3}, geometry.Forward, 1)
	assert.Equal(t, 0.0, a.predictNearestApproachTime(b))
}

func TestDirectionReversalAtEndpoints(t *testing.T) {
	ctx := newTestContext(t, nil)
	p := initOne(t, ctx)

	place(p, geometry.Vec3{X: 99}, geometry.Vec3{X: 1}, 0)
	p.pathDirection = entity.DOWNSTREAM
	p.applySteering(geometry.Zero, 1.0/60)
	assert.Equal(t, entity.UPSTREAM, p.PathDirection())
	// 停留在端点附近时不再反复翻转
	for range 10 {
		p.applySteering(geometry.Zero, 1.0/60)
		assert.Equal(t, entity.UPSTREAM, p.PathDirection())
	}

	place(p, geometry.Vec3{X: 1, Z: 1}, geometry.Vec3{X: -1}, 0)
	p.applySteering(geometry.Zero, 1.0/60)
	assert.Equal(t, entity.DOWNSTREAM, p.PathDirection())

	// 中段不改变方向
	place(p, geometry.Vec3{X: 50}, geometry.Vec3{X: -1}, 0)
	p.pathDirection = entity.UPSTREAM
	p.applySteering(geometry.Zero, 1.0/60)
	assert.Equal(t, entity.UPSTREAM, p.PathDirection())

	// 无向模式不处理端点
	ctx.rc.ToggleDirectedPathFollowing()
	place(p, geometry.Vec3{X: 99}, geometry.Vec3{X: 1}, 0)
	p.pathDirection = entity.DOWNSTREAM
	p.applySteering(geometry.Zero, 1.0/60)
	assert.Equal(t, entity.DOWNSTREAM, p.PathDirection())
}

func TestSerialLabelAnnotation(t *testing.T) {
	for _, mode := range []string{config.UpdateModeIncremental, config.UpdateModeSnapshot} {
		ctx := newTestContext(t, func(c *config.Config) { c.Control.UpdateMode = mode })
		rec := &recorder{}
		ctx.annotator = rec
		ctx.manager.Init(5)
		ctx.manager.Update(0, 1.0/60)

		require.Equal(t, 5, rec.count(entity.AnnotationSerialLabel), mode)
		labels := map[uint64]entity.Annotation{}
		for _, a := range rec.annotations {
			if a.Kind == entity.AnnotationSerialLabel {
				labels[a.Serial] = a
			}
		}
		for _, p := range ctx.manager.Pedestrians() {
			a, ok := labels[p.Serial()]
			require.True(t, ok, "%v", p)
			assertVec(t, p.Position().Add(geometry.Vec3{Y: 2 * p.Radius()}), a.From)
		}
	}
}
