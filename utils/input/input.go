package input

import (
	"fmt"
	"os"

	"github.com/tsinghua-fib-lab/crowdsim-oss/entity/obstacle"
	"github.com/tsinghua-fib-lab/crowdsim-oss/entity/pathway"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/config"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/geometry"
)

// Input 输入数据
// 功能：存储仿真所需的全部场景数据
// 说明：路径与障碍物在整个仿真过程中只读，由任务上下文持有
type Input struct {
	Path      *pathway.Polyline // 行人往返的折线路径
	Obstacles *obstacle.Set     // 球形障碍物
}

// 内置场景参数
const (
	defaultPathRadius = 2.0
	defaultPathSize   = 30.0
)

// Init 加载场景
// 功能：根据配置加载场景数据
// 参数：c-配置对象
// 返回：加载完成的输入数据与错误
// 算法说明：
// 1. 未指定场景文件：使用内置的七点折线场景
// 2. 指定场景文件：按GeoJSON FeatureCollection解析
func Init(c config.Config) (*Input, error) {
	if c.Input.Scenario == "" {
		res := Default()
		log.Infof("use built-in scenario: %v, %v", res.Path, res.Obstacles)
		res.checkVolume(c.Proximity)
		return res, nil
	}
	data, err := os.ReadFile(c.Input.Scenario)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", c.Input.Scenario, err)
	}
	res, err := LoadGeoJSON(data)
	if err != nil {
		return nil, fmt.Errorf("load scenario %s: %w", c.Input.Scenario, err)
	}
	log.Infof("load scenario from %s: %v, %v", c.Input.Scenario, res.Path, res.Obstacles)
	res.checkVolume(c.Proximity)
	return res, nil
}

// checkVolume 场景超出网格索引覆盖范围时告警，超出部分的行人会集中在边界网格中
func (in *Input) checkVolume(p config.Proximity) {
	if p.Kind != config.ProximityBinLattice {
		return
	}
	center := geometry.Vec3{X: p.Center.X, Y: p.Center.Y, Z: p.Center.Z}
	dimensions := geometry.Vec3{X: p.Dimensions.X, Y: p.Dimensions.Y, Z: p.Dimensions.Z}
	if !in.WithinVolume(center, dimensions) {
		log.Warnf("scenario bound %v exceeds bin lattice volume (center %v, dimensions %v)",
			in.Bound(), center, dimensions)
	}
}

// DefaultPathPoints 内置场景的七个路径控制点（XZ平面）
func DefaultPathPoints() []geometry.Vec3 {
	const size = defaultPathSize
	const top = 2 * size
	const gap = 1.2 * size
	const out = 2 * size
	const h = 0.5
	return []geometry.Vec3{
		{X: h + gap - out, Y: 0, Z: h + top - out},
		{X: h + gap, Y: 0, Z: h + top},
		{X: h + gap + (top / 2), Y: 0, Z: h + top/2},
		{X: h + gap, Y: 0, Z: h},
		{X: h, Y: 0, Z: h},
		{X: h, Y: 0, Z: h + top},
		{X: h + gap, Y: 0, Z: h + top/2},
	}
}

// Default 内置场景
// 功能：构建七点折线路径（管道半径2）与两个球形障碍物
// 说明：障碍物分别位于第0段20%处（半径3）和第2段50%处（半径5）
func Default() *Input {
	points := DefaultPathPoints()
	path, err := pathway.NewPolyline(points, defaultPathRadius)
	if err != nil {
		log.Panicf("built-in path: %v", err)
	}
	obstacles, err := obstacle.NewSet(
		obstacle.Sphere{Center: geometry.Interpolate(0.2, points[0], points[1]), Radius: 3},
		obstacle.Sphere{Center: geometry.Interpolate(0.5, points[2], points[3]), Radius: 5},
	)
	if err != nil {
		log.Panicf("built-in obstacles: %v", err)
	}
	return &Input{Path: path, Obstacles: obstacles}
}
