package input

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/tsinghua-fib-lab/crowdsim-oss/entity/obstacle"
	"github.com/tsinghua-fib-lab/crowdsim-oss/entity/pathway"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/geometry"
)

// 场景要素的属性名
const radiusProperty = "radius"

// toVec3 GeoJSON平面坐标(x, y)映射到仿真的XZ平面
func toVec3(p orb.Point) geometry.Vec3 {
	return geometry.Vec3{X: p.X(), Y: 0, Z: p.Y()}
}

// radiusOf 读取要素的radius属性，optional为true时缺省取路径默认半径
func radiusOf(f *geojson.Feature, optional bool) (float64, error) {
	v, ok := f.Properties[radiusProperty]
	if !ok {
		if optional {
			return defaultPathRadius, nil
		}
		return 0, fmt.Errorf("missing %q property", radiusProperty)
	}
	if _, ok := v.(float64); !ok {
		return 0, fmt.Errorf("%q property must be a number, got %v", radiusProperty, v)
	}
	return f.Properties.MustFloat64(radiusProperty), nil
}

// LoadGeoJSON 从GeoJSON解析场景
// 功能：解析FeatureCollection，得到路径与障碍物
// 参数：data-GeoJSON数据
// 返回：输入数据与错误
// 算法说明：
// 1. 恰好一个LineString要素作为路径，属性radius为管道半径（缺省为2）
// 2. 每个Point要素作为一个球形障碍物，属性radius为球半径（必填）
// 3. 其他几何类型报错
func LoadGeoJSON(data []byte) (*Input, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	var path *pathway.Polyline
	obstacles, _ := obstacle.NewSet()
	for i, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.LineString:
			if path != nil {
				return nil, fmt.Errorf("feature %d: more than one LineString", i)
			}
			radius, err := radiusOf(f, true)
			if err != nil {
				return nil, fmt.Errorf("feature %d: %w", i, err)
			}
			points := make([]geometry.Vec3, len(g))
			for j, p := range g {
				points[j] = toVec3(p)
			}
			if path, err = pathway.NewPolyline(points, radius); err != nil {
				return nil, fmt.Errorf("feature %d: %w", i, err)
			}
		case orb.Point:
			radius, err := radiusOf(f, false)
			if err != nil {
				return nil, fmt.Errorf("feature %d: %w", i, err)
			}
			if _, err := obstacles.Add(obstacle.Sphere{Center: toVec3(g), Radius: radius}); err != nil {
				return nil, fmt.Errorf("feature %d: %w", i, err)
			}
		case nil:
			return nil, fmt.Errorf("feature %d: null geometry", i)
		default:
			return nil, fmt.Errorf("feature %d: unsupported geometry %s", i, f.Geometry.GeoJSONType())
		}
	}
	if path == nil {
		return nil, fmt.Errorf("no LineString feature")
	}
	return &Input{Path: path, Obstacles: obstacles}, nil
}

// ToGeoJSON 将场景导出为GeoJSON FeatureCollection
// 说明：只导出XZ平面坐标，Y坐标非零的路径点或障碍物中心无法经LoadGeoJSON还原，返回错误；
// Y均为零时与LoadGeoJSON互逆
func (in *Input) ToGeoJSON() ([]byte, error) {
	for i, p := range in.Path.Points() {
		if p.Y != 0 {
			return nil, fmt.Errorf("path point %d has non-zero y: %v", i, p)
		}
	}
	for _, s := range in.Obstacles.All() {
		if s.Center.Y != 0 {
			return nil, fmt.Errorf("obstacle %v has non-zero y", s)
		}
	}
	fc := geojson.NewFeatureCollection()
	ls := make(orb.LineString, 0, len(in.Path.Points()))
	for _, p := range in.Path.Points() {
		ls = append(ls, orb.Point{p.X, p.Z})
	}
	f := geojson.NewFeature(ls)
	f.Properties[radiusProperty] = in.Path.Radius()
	fc.Append(f)
	for _, s := range in.Obstacles.All() {
		f := geojson.NewFeature(orb.Point{s.Center.X, s.Center.Z})
		f.Properties[radiusProperty] = s.Radius
		fc.Append(f)
	}
	return fc.MarshalJSON()
}

// Bound 场景在XZ平面上的包围盒
// 说明：路径按管道半径外扩，障碍物按球半径外扩；orb坐标(x, y)对应仿真的(X, Z)
func (in *Input) Bound() orb.Bound {
	points := in.Path.Points()
	b := orb.Point{points[0].X, points[0].Z}.Bound()
	for _, p := range points[1:] {
		b = b.Extend(orb.Point{p.X, p.Z})
	}
	b = b.Pad(in.Path.Radius())
	for _, s := range in.Obstacles.All() {
		b = b.Union(orb.Point{s.Center.X, s.Center.Z}.Bound().Pad(s.Radius))
	}
	return b
}

// WithinVolume 场景包围盒是否落在以center为中心、各轴总长为dimensions的区域内（只比较XZ）
func (in *Input) WithinVolume(center, dimensions geometry.Vec3) bool {
	half := dimensions.Scale(0.5)
	volume := orb.Bound{
		Min: orb.Point{center.X - half.X, center.Z - half.Z},
		Max: orb.Point{center.X + half.X, center.Z + half.Z},
	}
	b := in.Bound()
	return volume.Contains(b.Min) && volume.Contains(b.Max)
}
