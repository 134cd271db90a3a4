package pathway

import (
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/geometry"
)

// Polyline 带半径的开放折线路径（"管道"）
// 功能：提供路径距离与三维点之间的双向映射，用于路径跟随和初始位置生成
// 说明：路径不闭合；距离参数超出[0, Length]时截断到端点
type Polyline struct {
	points   []geometry.Vec3 // 控制点
	radius   float64         // 管道半径
	lengths  []float64       // 累计长度，lengths[i]为从起点到points[i]的折线长度
	tangents []geometry.Vec3 // 每一段的单位切向
}

// NewPolyline 创建折线路径
// 功能：根据控制点和半径构建路径，预计算累计长度与各段切向
// 参数：points-控制点（至少2个），radius-管道半径（正数）
// 返回：路径指针与错误
func NewPolyline(points []geometry.Vec3, radius float64) (*Polyline, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("pathway: need at least 2 points, got %d", len(points))
	}
	if radius <= 0 {
		return nil, fmt.Errorf("pathway: radius must be positive, got %v", radius)
	}
	for i, p := range points {
		if !p.IsFinite() {
			return nil, fmt.Errorf("pathway: point %d is not finite: %v", i, p)
		}
	}
	l := &Polyline{
		points:   append([]geometry.Vec3(nil), points...),
		radius:   radius,
		lengths:  make([]float64, len(points)),
		tangents: make([]geometry.Vec3, len(points)-1),
	}
	for i := 1; i < len(points); i++ {
		d := points[i].Sub(points[i-1])
		l.lengths[i] = l.lengths[i-1] + d.Length()
		l.tangents[i-1] = d.Normalize()
	}
	if l.Length() == 0 {
		return nil, fmt.Errorf("pathway: total length is zero")
	}
	return l, nil
}

func (l *Polyline) String() string {
	return fmt.Sprintf("Polyline{points=%d, length=%.2f, radius=%.2f}", len(l.points), l.Length(), l.radius)
}

// Length 路径总长度
func (l *Polyline) Length() float64 {
	return l.lengths[len(l.lengths)-1]
}

// Radius 管道半径
func (l *Polyline) Radius() float64 {
	return l.radius
}

// Points 控制点副本
func (l *Polyline) Points() []geometry.Vec3 {
	return append([]geometry.Vec3(nil), l.points...)
}

// Endpoints 路径起点与终点
func (l *Polyline) Endpoints() (start, end geometry.Vec3) {
	return l.points[0], l.points[len(l.points)-1]
}

// ClampDistance 将路径距离截断到[0, Length]
func (l *Polyline) ClampDistance(d float64) float64 {
	if math.IsNaN(d) {
		return 0
	}
	return lo.Clamp(d, 0, l.Length())
}

// MapPathDistanceToPoint 将路径距离转换为中心线上的点
// 功能：沿折线累计长度行走，返回弧长为d的点
// 参数：d-路径距离，超出范围时截断（不回绕）
// 返回：中心线上的点
func (l *Polyline) MapPathDistanceToPoint(d float64) geometry.Vec3 {
	d = l.ClampDistance(d)
	i := sort.SearchFloat64s(l.lengths, d)
	if i == 0 {
		return l.points[0]
	}
	sHigh, sLow := l.lengths[i], l.lengths[i-1]
	k := (d - sLow) / (sHigh - sLow)
	if k < 0 || k > 1 {
		log.Panicf("pathway: MapPathDistanceToPoint(), bad k %v. sHigh=%f, sLow=%f, d=%f", k, sHigh, sLow, d)
	}
	return geometry.Interpolate(k, l.points[i-1], l.points[i])
}

// projection 点到折线的最近投影
type projection struct {
	segment  int           // 所在线段
	along    float64       // 在线段内的距离
	point    geometry.Vec3 // 投影点
	distance float64       // 点到投影点的距离
}

// project 计算点到折线的最近投影
// 算法说明：对每一段求点到线段的最近点，取距离最小者，距离相同时取靠前的线段
func (l *Polyline) project(p geometry.Vec3) projection {
	best := projection{distance: math.Inf(1)}
	for i, t := range l.tangents {
		segLength := l.lengths[i+1] - l.lengths[i]
		along := lo.Clamp(p.Sub(l.points[i]).Dot(t), 0, segLength)
		onSeg := l.points[i].Add(t.Scale(along))
		if d := geometry.Distance(p, onSeg); d < best.distance {
			best = projection{segment: i, along: along, point: onSeg, distance: d}
		}
	}
	return best
}

// MapPointToPath 将任意点投影到路径上
// 功能：求中心线上距离p最近的点
// 参数：p-任意点
// 返回：onPath-最近点，tangent-该处的单位切向，outside-到管道边界的距离（负数表示在管道内）
func (l *Polyline) MapPointToPath(p geometry.Vec3) (onPath, tangent geometry.Vec3, outside float64) {
	pr := l.project(p)
	return pr.point, l.tangents[pr.segment], pr.distance - l.radius
}

// MapPointToPathDistance 将任意点投影到路径上，返回最近点的路径距离
func (l *Polyline) MapPointToPathDistance(p geometry.Vec3) float64 {
	pr := l.project(p)
	return l.lengths[pr.segment] + pr.along
}

// Contains 点是否在管道内
func (l *Polyline) Contains(p geometry.Vec3) bool {
	_, _, outside := l.MapPointToPath(p)
	return outside < 0
}
