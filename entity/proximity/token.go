package proximity

import (
	"fmt"

	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/container"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/geometry"
)

// Token 登记者在索引中的句柄
// 功能：由登记者独占持有，负责同步位置、发起查询、释放登记
// 说明：释放后或未经AllocateToken分配的Token任何使用都会panic
type Token struct {
	container.IndexedItemBase

	db       Database
	ref      any           // 登记者，查询结果中返回的值
	position geometry.Vec3 // 最近一次登记的位置
	placed   bool          // 是否已登记过位置
	released bool          // 是否已释放
	cell     int           // 所在网格（仅BinLattice使用）
}

func newToken(db Database, ref any) *Token {
	t := &Token{db: db, ref: ref}
	t.SetIndex(-1)
	return t
}

func (t *Token) String() string {
	return fmt.Sprintf("Token{ref=%v, pos=%v, placed=%v, released=%v}", t.ref, t.position, t.placed, t.released)
}

// check 检查Token可用，否则panic
func (t *Token) check() {
	if t == nil || t.db == nil {
		log.Panicf("proximity: token was not allocated by a database")
	}
	if t.released {
		log.Panicf("proximity: use of released token (ref=%v)", t.ref)
	}
}

// Ref 登记者
func (t *Token) Ref() any {
	return t.ref
}

// Position 最近一次登记的位置，ok为false表示尚未登记
func (t *Token) Position() (p geometry.Vec3, ok bool) {
	return t.position, t.placed
}

// Database 所属索引
func (t *Token) Database() Database {
	return t.db
}

// Released 是否已释放
func (t *Token) Released() bool {
	return t.released
}

// UpdateForNewPosition 登记新位置
// 说明：位置必须为有限值，否则视为调用者状态损坏直接panic
func (t *Token) UpdateForNewPosition(p geometry.Vec3) {
	t.check()
	if !p.IsFinite() {
		log.Panicf("proximity: non-finite position %v for ref=%v", p, t.ref)
	}
	t.db.update(t, p)
}

// FindNeighbors 在所属索引中查询邻居，结果包含自身（如果自身在范围内）
func (t *Token) FindNeighbors(center geometry.Vec3, radius float64, out []any) []any {
	t.check()
	return t.db.FindNeighbors(center, radius, out)
}

// Release 从索引中删除登记，之后Token不可再使用
func (t *Token) Release() {
	t.check()
	t.db.remove(t)
	t.released = true
}
