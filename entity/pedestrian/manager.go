package pedestrian

import (
	"fmt"

	"git.fiblab.net/general/common/v2/parallel"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crowdsim-oss/entity"
	"github.com/tsinghua-fib-lab/crowdsim-oss/entity/proximity"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/config"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/randengine"
)

// Manager 人群管理器
// 功能：维护按加入顺序排列的行人链表与当前空间索引，负责增删行人、切换索引与逐步更新
// 说明：所有方法只能在仿真主循环中调用（由task的命令队列保证），不加锁
type Manager struct {
	ctx entity.ITaskContext

	crowd      *entity.PedestrianList
	db         proximity.Database
	nextSerial uint64 // 下一个序列号，从1开始，不复用
}

// NewManager 创建人群管理器实例
// 参数：ctx-任务上下文
// 返回：新创建的人群管理器实例
func NewManager(ctx entity.ITaskContext) *Manager {
	return &Manager{
		ctx:        ctx,
		crowd:      &entity.PedestrianList{ID: "crowd"},
		nextSerial: 1,
	}
}

// Init 初始化
// 功能：按配置创建初始空间索引并加入n个行人
// 说明：配置已在加载时校验，这里创建索引失败视为程序错误
func (m *Manager) Init(n int) {
	c := m.ctx.RuntimeConfig().All.Proximity
	db, err := proximity.New(proximity.Kind(c.Kind), c)
	if err != nil {
		log.Panicf("create proximity database: %v", err)
	}
	m.db = db
	for range n {
		m.Add()
	}
	log.Infof("init %d pedestrians with %s", m.Len(), m.db.Kind())
}

// Add 加入一个行人
// 功能：分配新的序列号，在当前索引中登记并随机初始化
// 返回：新行人
// 说明：行人的随机数种子为全局种子加序列号，同一配置下结果可复现
func (m *Manager) Add() entity.IPedestrian {
	if m.db == nil {
		log.Panicf("Add() before Init() or after Close()")
	}
	serial := m.nextSerial
	m.nextSerial++
	p := newPedestrian(m.ctx, serial, m.db, randengine.New(m.ctx.RuntimeConfig().C.Seed+serial))
	m.crowd.PushBack(p.node)
	log.Debugf("add %v", p)
	return p
}

// Remove 移除最后加入的行人，先释放其空间索引登记；人群为空时无操作
func (m *Manager) Remove() {
	node := m.crowd.Last()
	if node == nil {
		log.Debug("remove from empty crowd, ignored")
		return
	}
	p := node.Value.(*Pedestrian)
	p.release()
	m.crowd.Remove(node)
	log.Debugf("remove %v", p)
}

// SwapIndex 整体迁移到新的空间索引
// 功能：为每个行人在db中分配Token并登记当前位置，全部成功后释放旧Token并切换
// 参数：db-新的空间索引，必须非nil、与当前索引不同且为空
// 返回：错误，失败时已在db中分配的Token全部释放，行人仍使用原索引
func (m *Manager) SwapIndex(db proximity.Database) error {
	if db == nil {
		return fmt.Errorf("swap index: nil database")
	}
	if db == m.db {
		return fmt.Errorf("swap index: %s is already active", db.Kind())
	}
	if db.Count() != 0 {
		return fmt.Errorf("swap index: target %s is not empty (%d tokens)", db.Kind(), db.Count())
	}

	peds := m.pedestrians()
	tokens := make([]*proximity.Token, 0, len(peds))
	for _, p := range peds {
		pos := p.Position()
		if !pos.IsFinite() {
			for _, t := range tokens {
				t.Release()
			}
			return fmt.Errorf("swap index: %v has non-finite position", p)
		}
		t := db.AllocateToken(p)
		t.UpdateForNewPosition(pos)
		tokens = append(tokens, t)
	}

	for i, p := range peds {
		p.token.Release()
		p.token = tokens[i]
	}
	old := m.db
	m.db = db
	log.Infof("proximity database swapped: %s -> %s (%d pedestrians)", kindOf(old), db.Kind(), len(peds))
	return nil
}

// NextIndex 按配置创建下一种后端的空间索引并迁移
func (m *Manager) NextIndex() error {
	if m.db == nil {
		return fmt.Errorf("next index: manager is not initialized")
	}
	db, err := proximity.New(m.db.Kind().Next(), m.ctx.RuntimeConfig().All.Proximity)
	if err != nil {
		return fmt.Errorf("next index: %w", err)
	}
	return m.SwapIndex(db)
}

// Reset 所有行人重新随机初始化（位置、朝向、方向），序列号不变
func (m *Manager) Reset() {
	for _, p := range m.pedestrians() {
		p.reset()
	}
}

// Update 更新阶段
// 功能：按更新模式推进所有行人一步
// 参数：currentTime-当前仿真时间，elapsedTime-时间步长
// 算法说明：
//   - incremental：按人群顺序逐个计算转向力并立即移动，后面的行人看到前面行人的新位置
//   - snapshot：先基于步开始时的状态计算全部转向力（可并行），再按人群顺序移动并同步索引
func (m *Manager) Update(currentTime, elapsedTime float64) {
	peds := m.pedestrians()
	c := m.ctx.RuntimeConfig().C
	switch c.UpdateMode {
	case config.UpdateModeSnapshot:
		steer := func(p *Pedestrian) {
			p.steering = p.determineCombinedSteering(elapsedTime)
		}
		if c.Parallel {
			parallel.GoFor(peds, steer)
		} else {
			lo.ForEach(peds, func(p *Pedestrian, _ int) { steer(p) })
		}
		for _, p := range peds {
			p.applySteering(p.steering, elapsedTime)
		}
	default:
		for _, p := range peds {
			p.update(currentTime, elapsedTime)
		}
	}
}

// Close 释放全部行人与空间索引
func (m *Manager) Close() {
	for m.crowd.Len() > 0 {
		m.Remove()
	}
	m.db = nil
}

// Len 人群规模
func (m *Manager) Len() int {
	return m.crowd.Len()
}

// Pedestrians 按加入顺序的全部行人
func (m *Manager) Pedestrians() []entity.IPedestrian {
	return m.crowd.Values()
}

// Index 当前空间索引
func (m *Manager) Index() proximity.Database {
	return m.db
}

func (m *Manager) pedestrians() []*Pedestrian {
	return lo.Map(m.crowd.Values(), func(p entity.IPedestrian, _ int) *Pedestrian {
		return p.(*Pedestrian)
	})
}

func kindOf(db proximity.Database) proximity.Kind {
	if db == nil {
		return "none"
	}
	return db.Kind()
}
