package obstacle

import (
	"fmt"
	"math"

	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/geometry"
)

// Mover 障碍物避让所需的载体视图
type Mover interface {
	Position() geometry.Vec3
	Forward() geometry.Vec3
	Speed() float64
	Radius() float64
	MaxForce() float64
	LocalizePosition(p geometry.Vec3) geometry.Vec3
}

// Sphere 静态球形障碍物，只从外部可见（实心）
type Sphere struct {
	Center geometry.Vec3 `json:"center"`
	Radius float64       `json:"radius"`
}

func (s Sphere) String() string {
	return fmt.Sprintf("Sphere{center=%v, r=%.2f}", s.Center, s.Radius)
}

// Contains 点是否在球内（含边界）
func (s Sphere) Contains(p geometry.Vec3) bool {
	return geometry.DistanceSquared(p, s.Center) <= s.Radius*s.Radius
}

// Intersection 载体前进射线与障碍物的交点
type Intersection struct {
	Obstacle      Handle        // 障碍物句柄
	Distance      float64       // 沿前进方向到交点的距离，载体在球内时为0
	SurfacePoint  geometry.Vec3 // 交点
	SurfaceNormal geometry.Vec3 // 交点处的外法向，即避让方向提示
}

// FindIntersectionWithVehiclePath 求载体前进射线与球的第一个交点
// 功能：在载体局部坐标系中求直线（forward轴）与膨胀球（半径加上载体半径）的交点
// 参数：v-载体
// 返回：交点信息，ok为false表示射线不与球相交或交点都在身后
// 算法说明：
// 1. 球心转换到局部坐标lc，直线为局部Z轴，求解 t^2 + b*t + c = 0
// 2. 判别式小于0无交点，两根都小于0则障碍物在身后
// 3. 两根都大于0取较近者，一前一后说明载体在球内，距离为0
func (s Sphere) FindIntersectionWithVehiclePath(v Mover) (in Intersection, ok bool) {
	lc := v.LocalizePosition(s.Center)
	r := s.Radius + v.Radius()
	b := -2 * lc.Z
	c := lc.LengthSquared() - r*r
	d := b*b - 4*c
	if d < 0 || math.IsNaN(d) {
		return in, false
	}
	sq := math.Sqrt(d)
	p := (-b + sq) / 2
	q := (-b - sq) / 2
	if p < 0 && q < 0 {
		return in, false
	}
	if p > 0 && q > 0 {
		in.Distance = math.Min(p, q)
	}
	in.SurfacePoint = v.Position().Add(v.Forward().Scale(in.Distance))
	in.SurfaceNormal = in.SurfacePoint.Sub(s.Center).Normalize()
	return in, true
}

// SteerToAvoidIfNeeded 交点在minTime秒的行程内时返回避让力，否则返回零向量
// 说明：避让力为法向垂直于forward的分量，长度为最大转向力
func (in Intersection) SteerToAvoidIfNeeded(v Mover, minTime float64) geometry.Vec3 {
	if in.Distance >= minTime*v.Speed() {
		return geometry.Zero
	}
	lateral := in.SurfaceNormal.PerpendicularComponent(v.Forward())
	return lateral.Normalize().Scale(v.MaxForce())
}

// SteerToAvoid 单个障碍物的避让力
func (s Sphere) SteerToAvoid(v Mover, minTime float64) geometry.Vec3 {
	in, ok := s.FindIntersectionWithVehiclePath(v)
	if !ok {
		return geometry.Zero
	}
	return in.SteerToAvoidIfNeeded(v, minTime)
}
