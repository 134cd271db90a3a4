package pedestrian

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/crowdsim-oss/clock"
	"github.com/tsinghua-fib-lab/crowdsim-oss/entity"
	"github.com/tsinghua-fib-lab/crowdsim-oss/entity/obstacle"
	"github.com/tsinghua-fib-lab/crowdsim-oss/entity/pathway"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/config"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/geometry"
)

// recorder 记录全部标注
type recorder struct {
	mtx         sync.Mutex
	annotations []entity.Annotation
}

func (r *recorder) Annotate(a entity.Annotation) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.annotations = append(r.annotations, a)
}

func (r *recorder) count(kind entity.AnnotationKind) int {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	n := 0
	for _, a := range r.annotations {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// testContext 测试用任务上下文
type testContext struct {
	clock     *clock.Clock
	rc        *config.RuntimeConfig
	path      *pathway.Polyline
	obstacles *obstacle.Set
	manager   *Manager
	annotator entity.IAnnotator
}

func (c *testContext) Clock() *clock.Clock                  { return c.clock }
func (c *testContext) RuntimeConfig() *config.RuntimeConfig { return c.rc }
func (c *testContext) Path() *pathway.Polyline              { return c.path }
func (c *testContext) Obstacles() *obstacle.Set             { return c.obstacles }
func (c *testContext) CrowdManager() entity.ICrowdManager   { return c.manager }
func (c *testContext) Annotator() entity.IAnnotator         { return c.annotator }

// newTestContext 直线路径 (0,0,0)->(100,0,0)，半径2，无障碍物
func newTestContext(t *testing.T, modify func(c *config.Config)) *testContext {
	c := config.Default()
	if modify != nil {
		modify(&c)
	}
	require.NoError(t, c.Validate())
	path, err := pathway.NewPolyline([]geometry.Vec3{{}, {X: 100}}, 2)
	require.NoError(t, err)
	obstacles, err := obstacle.NewSet()
	require.NoError(t, err)
	ctx := &testContext{
		clock:     clock.New(c.Control.Step),
		rc:        config.NewRuntimeConfig(c),
		path:      path,
		obstacles: obstacles,
	}
	ctx.manager = NewManager(ctx)
	return ctx
}
