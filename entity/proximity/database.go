// 空间邻近索引：按位置登记行人，回答"某点半径R内有哪些行人"的查询
package proximity

import (
	"fmt"

	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/config"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/geometry"
)

// Kind 索引后端类型
type Kind string

const (
	KindBruteForce Kind = config.ProximityBruteForce // 暴力遍历
	KindBinLattice Kind = config.ProximityBinLattice // 均匀网格分桶
)

// Next 循环切换到下一种后端
func (k Kind) Next() Kind {
	if k == KindBruteForce {
		return KindBinLattice
	}
	return KindBruteForce
}

// Database 空间邻近索引
// 功能：为调用者分配Token，Token跟踪登记者的位置并支持邻居查询
// 说明：只有BruteForce与BinLattice两种实现（接口含未导出方法）；
// 对相同的登记集合与查询参数，两种实现返回的集合相同（顺序可能不同）
type Database interface {
	// AllocateToken 为ref分配Token，首次UpdateForNewPosition之前该Token不会出现在查询结果中
	AllocateToken(ref any) *Token
	// FindNeighbors 将所有位置在center半径radius内（含边界）的登记者追加到out并返回
	// radius非正时返回out本身
	FindNeighbors(center geometry.Vec3, radius float64, out []any) []any
	// Count 已分配且未释放的Token数
	Count() int
	// Kind 后端类型
	Kind() Kind

	update(t *Token, p geometry.Vec3)
	remove(t *Token)
}

// New 根据配置创建索引
// 参数：kind-后端类型，c-空间索引配置（仅BinLattice使用网格参数）
// 返回：索引与错误
func New(kind Kind, c config.Proximity) (Database, error) {
	switch kind {
	case KindBruteForce:
		return NewBruteForce(), nil
	case KindBinLattice:
		return NewBinLattice(
			geometry.Vec3{X: c.Center.X, Y: c.Center.Y, Z: c.Center.Z},
			geometry.Vec3{X: c.Dimensions.X, Y: c.Dimensions.Y, Z: c.Dimensions.Z},
			int(c.Divisions.X), int(c.Divisions.Y), int(c.Divisions.Z),
		)
	default:
		return nil, fmt.Errorf("proximity: unknown kind %q", kind)
	}
}
