package vehicle

import (
	"fmt"
	"math"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/geometry"
)

const (
	defaultMass      = 1.0
	defaultRadius    = 0.5
	defaultMaxSpeed  = 1.0
	defaultMaxForce  = 0.1
	smoothRateFactor = 9.0  // 加速度平滑系数 = clip(9*dt, min, max)
	smoothRateMin    = 0.15 // 加速度平滑系数下限
	smoothRateMax    = 0.4  // 加速度平滑系数上限
	lowSpeedRatio    = 0.2  // 低于该比例最大速度时限制转向力偏离前进方向的角度
)

// Vehicle 运动学载体
// 功能：以局部坐标系（forward/side/up）+ 标量速度表示的质点，按转向力积分运动
// 说明：右手系，side = forward × up；速度方向始终与forward一致
type Vehicle struct {
	position geometry.Vec3 // 位置
	forward  geometry.Vec3 // 前进方向（单位向量）
	side     geometry.Vec3 // 侧向（单位向量）
	up       geometry.Vec3 // 上方向（单位向量）

	speed    float64 // 标量速度
	mass     float64 // 质量
	radius   float64 // 包围球半径
	maxSpeed float64 // 最大速度
	maxForce float64 // 最大转向力

	smoothedAcceleration geometry.Vec3 // 平滑后的加速度
}

// New 创建处于初始状态的载体
func New() *Vehicle {
	v := &Vehicle{}
	v.Reset()
	return v
}

// Reset 恢复初始状态
// 功能：位置置于原点，朝向+Z，静止，质量1，半径0.5
func (v *Vehicle) Reset() {
	v.position = geometry.Zero
	v.forward = geometry.Forward
	v.side = geometry.Side
	v.up = geometry.Up
	v.speed = 0
	v.mass = defaultMass
	v.radius = defaultRadius
	v.maxSpeed = defaultMaxSpeed
	v.maxForce = defaultMaxForce
	v.smoothedAcceleration = geometry.Zero
}

func (v *Vehicle) String() string {
	return fmt.Sprintf("Vehicle{pos=%v, fwd=%v, speed=%.3f}", v.position, v.forward, v.speed)
}

func (v *Vehicle) Position() geometry.Vec3 {
	return v.position
}

func (v *Vehicle) Forward() geometry.Vec3 {
	return v.forward
}

func (v *Vehicle) Side() geometry.Vec3 {
	return v.side
}

func (v *Vehicle) Up() geometry.Vec3 {
	return v.up
}

func (v *Vehicle) Speed() float64 {
	return v.speed
}

// Velocity 速度向量 = forward * speed
func (v *Vehicle) Velocity() geometry.Vec3 {
	return v.forward.Scale(v.speed)
}

func (v *Vehicle) Mass() float64 {
	return v.mass
}

func (v *Vehicle) Radius() float64 {
	return v.radius
}

func (v *Vehicle) MaxSpeed() float64 {
	return v.maxSpeed
}

func (v *Vehicle) MaxForce() float64 {
	return v.maxForce
}

func (v *Vehicle) SmoothedAcceleration() geometry.Vec3 {
	return v.smoothedAcceleration
}

func (v *Vehicle) SetPosition(p geometry.Vec3) {
	v.position = p
}

func (v *Vehicle) SetSpeed(s float64) {
	v.speed = s
}

func (v *Vehicle) SetRadius(r float64) {
	v.radius = r
}

func (v *Vehicle) SetMaxSpeed(s float64) {
	v.maxSpeed = s
}

func (v *Vehicle) SetMaxForce(f float64) {
	v.maxForce = f
}

// LocalizePosition 将世界坐标转换到载体局部坐标系
// 返回：(side分量, up分量, forward分量)
func (v *Vehicle) LocalizePosition(p geometry.Vec3) geometry.Vec3 {
	off := p.Sub(v.position)
	return geometry.Vec3{X: off.Dot(v.side), Y: off.Dot(v.up), Z: off.Dot(v.forward)}
}

// PredictFuturePosition 按当前速度线性预测t秒后的位置
func (v *Vehicle) PredictFuturePosition(t float64) geometry.Vec3 {
	return v.position.Add(v.Velocity().Scale(t))
}

// RegenerateOrthonormalBasis 以新的单位前进方向重建局部坐标系
// 说明：up保持大致不变，side = forward × up，up = side × forward
func (v *Vehicle) RegenerateOrthonormalBasis(newUnitForward geometry.Vec3) {
	v.forward = newUnitForward
	v.side = v.forward.Cross(v.up).Normalize()
	v.up = v.side.Cross(v.forward)
}

// SetHeadingOnXZPlane 在水平面上设置朝向
// 功能：up重置为世界+Y，forward取heading的水平方向；heading退化时保持原朝向
func (v *Vehicle) SetHeadingOnXZPlane(heading geometry.Vec3) {
	f := heading.SetYToZero().Normalize()
	if f.IsZero() {
		return
	}
	v.up = geometry.Up
	v.RegenerateOrthonormalBasis(f)
}

// ApplySteeringForce 施加转向力并积分一个时间步
// 功能：更新速度、位置与局部坐标系
// 参数：force-转向力，dt-时间步长（秒）
// 算法说明：
// 1. 低速时限制转向力偏离前进方向的角度
// 2. 截断到最大转向力，除以质量得到加速度
// 3. 以clip(9*dt, 0.15, 0.4)为系数平滑加速度
// 4. 速度积分并截断到最大速度，位置积分
// 5. 速度大于0时以新速度方向重建局部坐标系
func (v *Vehicle) ApplySteeringForce(force geometry.Vec3, dt float64) {
	force = v.adjustRawSteeringForce(force.OrZero())
	acceleration := force.TruncateLength(v.maxForce).Div(v.mass)

	if dt > 0 {
		rate := lo.Clamp(smoothRateFactor*dt, smoothRateMin, smoothRateMax)
		v.smoothedAcceleration = geometry.BlendIntoAccumulator(rate, acceleration, v.smoothedAcceleration)
	}

	velocity := v.Velocity().Add(v.smoothedAcceleration.Scale(dt)).TruncateLength(v.maxSpeed)
	v.speed = velocity.Length()
	v.position = v.position.Add(velocity.Scale(dt))

	if v.speed > 0 {
		v.RegenerateOrthonormalBasis(velocity.Div(v.speed))
	}
}

// adjustRawSteeringForce 低速时将转向力限制在以forward为轴的圆锥内
// 说明：速度越低圆锥越窄，静止时只能沿forward加速
func (v *Vehicle) adjustRawSteeringForce(force geometry.Vec3) geometry.Vec3 {
	maxAdjustedSpeed := lowSpeedRatio * v.maxSpeed
	if v.speed > maxAdjustedSpeed || force.IsZero() {
		return force
	}
	ratio := v.speed / maxAdjustedSpeed
	cosine := 1 + (-1-1)*math.Pow(ratio, 20)
	return limitMaxDeviationAngle(force, cosine, v.forward)
}

// limitMaxDeviationAngle 将source限制在以basis为轴、余弦为cosineOfConeAngle的圆锥内，保持长度
func limitMaxDeviationAngle(source geometry.Vec3, cosineOfConeAngle float64, basis geometry.Vec3) geometry.Vec3 {
	sourceLength := source.Length()
	if sourceLength == 0 {
		return source
	}
	direction := source.Div(sourceLength)
	if direction.Dot(basis) >= cosineOfConeAngle {
		return source
	}
	unitPerp := source.PerpendicularComponent(basis).Normalize()
	perpDist := math.Sqrt(math.Max(0, 1-cosineOfConeAngle*cosineOfConeAngle))
	return basis.Scale(cosineOfConeAngle).Add(unitPerp.Scale(perpDist)).Scale(sourceLength)
}
