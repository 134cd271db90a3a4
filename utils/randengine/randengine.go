// 随机数引擎，包装了golang.org/x/exp/rand，提供了转向行为常用的随机数生成方法
package randengine

import (
	"flag"
	"math"

	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/geometry"
	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "seed offset") // 种子偏移量，用于调整随机数生成
)

// Engine 随机数引擎
// 功能：提供可复现的随机数生成功能
// 说明：基于golang.org/x/exp/rand库；每个行人持有独立的引擎，方法均不加锁
type Engine struct {
	*rand.Rand // 底层随机数生成器
}

// New 创建随机数引擎
// 功能：初始化一个新的随机数引擎实例
// 参数：seed-随机数种子
// 返回：随机数引擎指针
// 说明：实际种子为seed加上命令行指定的种子偏移量
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed + *seedOffset))}
}

// PTrue 以指定概率返回true
// 功能：根据给定概率返回布尔值
// 参数：p-返回true的概率（0.0到1.0之间）
// 返回：true或false
func (e *Engine) PTrue(p float64) bool {
	return e.Float64() < p
}

// Uniform 随机生成[lo, hi)范围内的浮点数
func (e *Engine) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*e.Float64()
}

// Sign 等概率返回+1或-1
func (e *Engine) Sign() int {
	if e.PTrue(0.5) {
		return -1
	}
	return 1
}

// ScalarRandomWalk 标量随机游走
// 功能：在当前值基础上随机走一步，并限制在[lo, hi]范围内
// 参数：initial-当前值，walkSpeed-单步最大步长，lo/hi-取值范围
// 返回：游走后的值
func (e *Engine) ScalarRandomWalk(initial, walkSpeed, lo, hi float64) float64 {
	next := initial + e.Uniform(-1, 1)*walkSpeed
	return math.Max(lo, math.Min(hi, next))
}

// VectorOnUnitRadiusXZDisk 地面单位圆盘内的均匀随机点
// 功能：在XZ平面半径为1的圆盘内均匀采样
// 算法说明：在[-1,1]x[-1,1]的正方形中拒绝采样，直到落入单位圆内
func (e *Engine) VectorOnUnitRadiusXZDisk() geometry.Vec3 {
	for {
		v := geometry.Vec3{X: e.Uniform(-1, 1), Z: e.Uniform(-1, 1)}
		if v.LengthSquared() < 1 {
			return v
		}
	}
}

// UnitVectorOnXZPlane 地面上的随机单位方向
func (e *Engine) UnitVectorOnXZPlane() geometry.Vec3 {
	for {
		v := e.VectorOnUnitRadiusXZDisk()
		if n := v.Normalize(); !n.IsZero() {
			return n
		}
	}
}
