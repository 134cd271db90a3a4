// 三维向量运算，坐标系约定：Y轴竖直向上，XZ为地面
package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec3 三维向量
// 功能：表示位置、方向、速度、力等三维量
// 说明：值类型，所有运算返回新值，不修改接收者；基础运算委托给gonum的r3.Vec，
// 本类型只补充序列化标签与转向计算需要的投影、截断等辅助方法
type Vec3 struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
	Z float64 `json:"z" bson:"z"`
}

var (
	Zero    = Vec3{}         // 零向量
	Up      = Vec3{0, 1, 0}  // 竖直向上
	Forward = Vec3{0, 0, 1}  // 默认前进方向
	Side    = Vec3{-1, 0, 0} // 默认侧向，等于Forward.Cross(Up)
	Unit    = Vec3{1, 1, 1}  // 各分量为1
)

func (v Vec3) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}

// R3 转换为gonum的r3.Vec
func (v Vec3) R3() r3.Vec {
	return r3.Vec(v)
}

// FromR3 由gonum的r3.Vec构造
func FromR3(p r3.Vec) Vec3 {
	return Vec3(p)
}

func (v Vec3) Add(o Vec3) Vec3 {
	return FromR3(r3.Add(v.R3(), o.R3()))
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return FromR3(r3.Sub(v.R3(), o.R3()))
}

func (v Vec3) Scale(k float64) Vec3 {
	return FromR3(r3.Scale(k, v.R3()))
}

// Div 除以标量，k为0时返回零向量
func (v Vec3) Div(k float64) Vec3 {
	if k == 0 {
		return Zero
	}
	return Vec3{v.X / k, v.Y / k, v.Z / k}
}

func (v Vec3) Neg() Vec3 {
	return v.Scale(-1)
}

func (v Vec3) Dot(o Vec3) float64 {
	return r3.Dot(v.R3(), o.R3())
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return FromR3(r3.Cross(v.R3(), o.R3()))
}

func (v Vec3) LengthSquared() float64 {
	return r3.Norm2(v.R3())
}

// Length 向量长度
// 说明：取Norm2的平方根而非r3.Norm，使长度与LengthSquared严格一致
func (v Vec3) Length() float64 {
	return math.Sqrt(r3.Norm2(v.R3()))
}

// Normalize 单位化
// 功能：返回同方向的单位向量
// 说明：零向量或非有限向量返回零向量，避免NaN向下游传播
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Zero
	}
	return v.Div(l)
}

// TruncateLength 限制向量长度不超过maxLength
func (v Vec3) TruncateLength(maxLength float64) Vec3 {
	l2 := v.LengthSquared()
	if l2 <= maxLength*maxLength {
		return v
	}
	return v.Scale(maxLength / math.Sqrt(l2))
}

// ParallelComponent 返回v在单位向量unitBasis方向上的分量
func (v Vec3) ParallelComponent(unitBasis Vec3) Vec3 {
	return unitBasis.Scale(v.Dot(unitBasis))
}

// PerpendicularComponent 返回v垂直于单位向量unitBasis的分量
func (v Vec3) PerpendicularComponent(unitBasis Vec3) Vec3 {
	return v.Sub(v.ParallelComponent(unitBasis))
}

// SetYToZero 投影到地面（XZ平面）
func (v Vec3) SetYToZero() Vec3 {
	return Vec3{v.X, 0, v.Z}
}

func (v Vec3) IsZero() bool {
	return v == Zero
}

// IsFinite 检查各分量均为有限值（非NaN、非Inf）
func (v Vec3) IsFinite() bool {
	for _, x := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// OrZero 非有限向量视为零向量
func (v Vec3) OrZero() Vec3 {
	if !v.IsFinite() {
		return Zero
	}
	return v
}

// Distance 两点间欧氏距离
func Distance(a, b Vec3) float64 {
	return math.Sqrt(r3.Norm2(r3.Sub(a.R3(), b.R3())))
}

// DistanceSquared 两点间欧氏距离的平方
func DistanceSquared(a, b Vec3) float64 {
	return a.Sub(b).LengthSquared()
}

// Interpolate 线性插值，k=0返回a，k=1返回b
func Interpolate(k float64, a, b Vec3) Vec3 {
	return a.Add(b.Sub(a).Scale(k))
}

// BlendIntoAccumulator 指数平滑
// 功能：将新值以smoothRate的比例混入累积值
// 参数：smoothRate-混合比例（0~1），newValue-新值，accumulator-当前累积值
// 返回：混合后的累积值
func BlendIntoAccumulator(smoothRate float64, newValue, accumulator Vec3) Vec3 {
	return Interpolate(math.Max(0, math.Min(1, smoothRate)), accumulator, newValue)
}
