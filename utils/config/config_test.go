package config_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/config"
)

func TestDefaultIsValid(t *testing.T) {
	c := config.Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 100, c.Crowd.Size)
	assert.Equal(t, 0.1, c.Steering.LeakThrough)
	assert.Equal(t, config.ProximityBinLattice, c.Proximity.Kind)
}

func TestLoadYamlKeepsDefaults(t *testing.T) {
	data := []byte(`
control:
  step:
    start: 0
    total: 10
    interval: 0.1
  seed: 7
crowd:
  size: 5
  max_speed: 2
  max_force: 8
  radius: 0.5
steering:
  wander: false
`)
	c, err := config.Load(data, "yaml")
	require.NoError(t, err)
	assert.Equal(t, int32(10), c.Control.Step.Total)
	assert.Equal(t, uint64(7), c.Control.Seed)
	assert.Equal(t, 5, c.Crowd.Size)
	assert.False(t, c.Steering.Wander)
	// 未出现的字段保持默认值
	assert.True(t, c.Steering.DirectedPathFollowing)
	assert.Equal(t, 6.0, c.Steering.ObstacleLeadTime)
	assert.Equal(t, 20.0, c.Proximity.Divisions.X)
}

func TestLoadYamlStrict(t *testing.T) {
	_, err := config.Load([]byte("unknown_key: 1\n"), "yaml")
	assert.Error(t, err)
}

func TestLoadToml(t *testing.T) {
	data := []byte(`
[crowd]
size = 12
max_speed = 3.0
max_force = 8.0
radius = 0.5

[proximity]
kind = "brute_force"
`)
	c, err := config.Load(data, "toml")
	require.NoError(t, err)
	assert.Equal(t, 12, c.Crowd.Size)
	assert.Equal(t, 3.0, c.Crowd.MaxSpeed)
	assert.Equal(t, config.ProximityBruteForce, c.Proximity.Kind)
}

func TestLoadFileByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sim.toml")
	require.NoError(t, os.WriteFile(path, []byte("[control]\nseed = 99\n"), 0o644))
	c, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(99), c.Control.Seed)

	_, err = config.Load(nil, "ini")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	c := config.Default()
	c.Control.Step.Interval = 0
	assert.Error(t, c.Validate())

	c = config.Default()
	c.Proximity.Kind = "octree"
	assert.Error(t, c.Validate())

	c = config.Default()
	c.Proximity.Divisions.Y = 0
	assert.Error(t, c.Validate())

	c = config.Default()
	c.Steering.LeakThrough = 1.5
	assert.Error(t, c.Validate())

	c = config.Default()
	c.Control.UpdateMode = "random"
	assert.Error(t, c.Validate())
}

func TestValidateSteeringBounds(t *testing.T) {
	for name, modify := range map[string]func(s *config.Steering){
		"obstacle lead time": func(s *config.Steering) { s.ObstacleLeadTime = -1 },
		"neighbor lead time": func(s *config.Steering) { s.NeighborLeadTime = -0.5 },
		"neighbor weight":    func(s *config.Steering) { s.NeighborWeight = -10 },
		"path lead time":     func(s *config.Steering) { s.PathLeadTime = math.NaN() },
		"path weight":        func(s *config.Steering) { s.PathWeight = math.Inf(1) },
		"wander rate":        func(s *config.Steering) { s.WanderRate = -12 },
	} {
		c := config.Default()
		modify(&c.Steering)
		assert.Error(t, c.Validate(), name)
	}

	// 零值合法，相当于关闭对应的预判或缩放
	c := config.Default()
	c.Steering.NeighborLeadTime = 0
	c.Steering.PathWeight = 0
	assert.NoError(t, c.Validate())
}

func TestValidateLatticeCells(t *testing.T) {
	c := config.Default()
	c.Proximity.Divisions = config.XYZ{X: 1024, Y: 1, Z: 1024}
	assert.NoError(t, c.Validate())

	c.Proximity.Divisions = config.XYZ{X: 1024, Y: 2, Z: 1024}
	assert.Error(t, c.Validate())

	c.Proximity.Divisions = config.XYZ{X: 1e300, Y: 1e300, Z: 1}
	assert.Error(t, c.Validate())

	c.Proximity.Divisions = config.XYZ{X: math.NaN(), Y: 1, Z: 1}
	assert.Error(t, c.Validate())

	// 暴力扫描不使用网格参数
	c.Proximity.Kind = config.ProximityBruteForce
	assert.NoError(t, c.Validate())
}

func TestRuntimeConfigToggles(t *testing.T) {
	c := config.Default()
	c.Control.UpdateMode = ""
	rc := config.NewRuntimeConfig(c)
	assert.Equal(t, config.UpdateModeIncremental, rc.C.UpdateMode)
	assert.False(t, rc.ToggleWander())
	assert.True(t, rc.ToggleWander())
	assert.False(t, rc.ToggleDirectedPathFollowing())
	assert.False(t, rc.S.DirectedPathFollowing)
	// 原始配置不受影响
	assert.True(t, rc.All.Steering.DirectedPathFollowing)
}
