package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v2"
)

// RuntimeConfig 运行时配置
// 功能：存储仿真运行时的配置信息，包含可在运行中切换的开关
// 说明：开关只能在两步之间修改（由task的命令队列保证），转向仲裁每步读取
type RuntimeConfig struct {
	All Config   // 全部配置
	C   Control  // 全局控制配置
	S   Steering // 转向配置（含运行时开关）
}

// NewRuntimeConfig 根据配置初始化运行时配置
// 功能：创建运行时配置对象，补齐默认值
// 参数：config-原始配置对象
// 返回：初始化的运行时配置指针
func NewRuntimeConfig(config Config) *RuntimeConfig {
	rc := &RuntimeConfig{}

	if config.Control.UpdateMode == "" {
		config.Control.UpdateMode = UpdateModeIncremental
	}
	if config.Output.Interval <= 0 {
		config.Output.Interval = 1
	}
	rc.All = config
	rc.C = config.Control
	rc.S = config.Steering

	return rc
}

// ToggleDirectedPathFollowing 切换有向/无向路径跟随，返回切换后的值
func (rc *RuntimeConfig) ToggleDirectedPathFollowing() bool {
	rc.S.DirectedPathFollowing = !rc.S.DirectedPathFollowing
	return rc.S.DirectedPathFollowing
}

// ToggleWander 切换漫游开关，返回切换后的值
func (rc *RuntimeConfig) ToggleWander() bool {
	rc.S.Wander = !rc.S.Wander
	return rc.S.Wander
}

// Default 默认配置
// 功能：返回参考场景（100个行人、七点折线、两个球形障碍物）的配置
func Default() Config {
	return Config{
		Control: Control{
			Step: ControlStep{
				Start:    0,
				Total:    3600,
				Interval: 1.0 / 60,
			},
			Seed:       1,
			UpdateMode: UpdateModeIncremental,
		},
		Crowd: Crowd{
			Size:     100,
			MaxSpeed: 2,
			MaxForce: 8,
			Radius:   0.5, // width = 0.7, add 0.3 margin, take half
		},
		Steering: Steering{
			LeakThrough:           0.1,
			ObstacleLeadTime:      6,
			NeighborLeadTime:      3,
			NeighborWeight:        10,
			PathLeadTime:          3,
			PathWeight:            0.5,
			WanderRate:            12,
			DirectedPathFollowing: true,
			Wander:                true,
		},
		Proximity: Proximity{
			Kind:       ProximityBinLattice,
			Center:     XYZ{},
			Dimensions: XYZ{X: 80, Y: 80, Z: 80},
			Divisions:  XYZ{X: 20, Y: 1, Z: 20},
		},
		Output: Output{
			Interval: 1,
		},
	}
}

// Load 解析配置数据
// 功能：在默认配置的基础上解析YAML或TOML数据，未出现的字段保持默认值
// 参数：data-配置数据，format-格式（"toml"或"yaml"，空视为yaml）
// 返回：配置对象与错误
func Load(data []byte, format string) (Config, error) {
	c := Default()
	switch strings.ToLower(format) {
	case "toml":
		if _, err := toml.Decode(string(data), &c); err != nil {
			return c, fmt.Errorf("decode toml config: %w", err)
		}
	case "", "yaml", "yml":
		if err := yaml.UnmarshalStrict(data, &c); err != nil {
			return c, fmt.Errorf("decode yaml config: %w", err)
		}
	default:
		return c, fmt.Errorf("unknown config format %q", format)
	}
	return c, c.Validate()
}

// LoadFile 读取并解析配置文件，格式由扩展名决定
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Load(data, strings.TrimPrefix(filepath.Ext(path), "."))
}

// MaxLatticeCells 网格索引允许的最大网格总数
const MaxLatticeCells = 1 << 20

// Validate 检查配置合法性
// 功能：检查时间步、行人参数、转向参数与空间索引参数
// 返回：第一个不合法项对应的错误，合法则返回nil
func (c Config) Validate() error {
	if c.Control.Step.Interval <= 0 {
		return fmt.Errorf("control.step.interval must be positive, got %v", c.Control.Step.Interval)
	}
	if c.Control.Step.Total < 0 {
		return fmt.Errorf("control.step.total must not be negative, got %v", c.Control.Step.Total)
	}
	switch c.Control.UpdateMode {
	case "", UpdateModeIncremental, UpdateModeSnapshot:
	default:
		return fmt.Errorf("control.update_mode must be one of %q/%q, got %q",
			UpdateModeIncremental, UpdateModeSnapshot, c.Control.UpdateMode)
	}
	if c.Crowd.Size < 0 {
		return fmt.Errorf("crowd.size must not be negative, got %v", c.Crowd.Size)
	}
	if c.Crowd.MaxSpeed <= 0 || c.Crowd.MaxForce <= 0 || c.Crowd.Radius <= 0 {
		return fmt.Errorf("crowd max_speed/max_force/radius must be positive, got %+v", c.Crowd)
	}
	if c.Steering.LeakThrough < 0 || c.Steering.LeakThrough > 1 {
		return fmt.Errorf("steering.leak_through must be in [0, 1], got %v", c.Steering.LeakThrough)
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"obstacle_lead_time", c.Steering.ObstacleLeadTime},
		{"neighbor_lead_time", c.Steering.NeighborLeadTime},
		{"neighbor_weight", c.Steering.NeighborWeight},
		{"path_lead_time", c.Steering.PathLeadTime},
		{"path_weight", c.Steering.PathWeight},
		{"wander_rate", c.Steering.WanderRate},
	} {
		// !(x >= 0)同时拒绝NaN
		if !(f.value >= 0) || math.IsInf(f.value, 0) {
			return fmt.Errorf("steering.%s must be a finite non-negative number, got %v", f.name, f.value)
		}
	}
	switch c.Proximity.Kind {
	case ProximityBruteForce:
	case ProximityBinLattice:
		d, n := c.Proximity.Dimensions, c.Proximity.Divisions
		if d.X <= 0 || d.Y <= 0 || d.Z <= 0 {
			return fmt.Errorf("proximity.dimensions must be positive, got %+v", d)
		}
		if !(n.X >= 1 && n.Y >= 1 && n.Z >= 1) {
			return fmt.Errorf("proximity.divisions must be at least 1, got %+v", n)
		}
		if cells := math.Floor(n.X) * math.Floor(n.Y) * math.Floor(n.Z); cells > MaxLatticeCells {
			return fmt.Errorf("proximity.divisions %+v gives %.0f cells, more than %d", n, cells, MaxLatticeCells)
		}
	default:
		return fmt.Errorf("proximity.kind must be one of %q/%q, got %q",
			ProximityBruteForce, ProximityBinLattice, c.Proximity.Kind)
	}
	return nil
}
