package pedestrian

import (
	"fmt"

	"github.com/tsinghua-fib-lab/crowdsim-oss/entity"
	"github.com/tsinghua-fib-lab/crowdsim-oss/entity/proximity"
	"github.com/tsinghua-fib-lab/crowdsim-oss/entity/vehicle"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/geometry"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/randengine"
)

// Pedestrian 行人实体
// 功能：沿路径行走，避让障碍物与其他行人的自主个体
// 说明：每个行人独占一个空间索引Token、一个随机数引擎和一个邻居缓冲区，
// 因此不同行人的转向力可以并行计算
type Pedestrian struct {
	*vehicle.Vehicle

	ctx entity.ITaskContext

	serial uint64                 // 序列号
	token  *proximity.Token       // 空间索引登记
	rng    *randengine.Engine     // 随机数引擎
	node   *entity.PedestrianNode // 人群链表中的节点

	pathDirection int     // 路径跟随方向
	wanderSide    float64 // 漫游侧向随机游走值，[-1, 1]
	wanderUp      float64 // 漫游上方向随机游走值，[-1, 1]

	neighbors []any         // 邻居查询缓冲区
	steering  geometry.Vec3 // snapshot模式下本步计算出的转向力
}

// newPedestrian 创建行人
// 功能：在指定空间索引中登记并随机初始化行人
// 参数：ctx-任务上下文，serial-序列号，db-空间索引，rng-随机数引擎
// 返回：行人指针
func newPedestrian(ctx entity.ITaskContext, serial uint64, db proximity.Database, rng *randengine.Engine) *Pedestrian {
	p := &Pedestrian{
		Vehicle: vehicle.New(),
		ctx:     ctx,
		serial:  serial,
		rng:     rng,
	}
	p.node = &entity.PedestrianNode{S: float64(serial), Value: p}
	p.token = db.AllocateToken(p)
	p.reset()
	return p
}

func (p *Pedestrian) String() string {
	return fmt.Sprintf("Pedestrian{serial=%d, pos=%v, speed=%.3f, dir=%+d}", p.serial, p.Position(), p.Speed(), p.pathDirection)
}

func (p *Pedestrian) Serial() uint64 {
	return p.serial
}

func (p *Pedestrian) PathDirection() int {
	return p.pathDirection
}

func (p *Pedestrian) Token() *proximity.Token {
	return p.token
}

// reset 随机初始化
// 功能：恢复运动学参数，在管道内随机取一个不与障碍物重叠的位置，
// 随机水平朝向与路径跟随方向，最后同步空间索引
func (p *Pedestrian) reset() {
	crowd := p.ctx.RuntimeConfig().All.Crowd

	p.Vehicle.Reset()
	p.SetMaxSpeed(crowd.MaxSpeed)
	p.SetMaxForce(crowd.MaxForce)
	p.SetSpeed(0)
	p.SetRadius(crowd.Radius)

	p.SetPosition(p.randomPlacement())
	p.SetHeadingOnXZPlane(p.rng.UnitVectorOnXZPlane())

	p.pathDirection = p.rng.Sign()
	p.wanderSide, p.wanderUp = 0, 0
	p.steering = geometry.Zero

	p.token.UpdateForNewPosition(p.Position())
}

// 初始位置与障碍物重叠时的最大重试次数
const maxPlacementAttempts = 32

// randomPlacement 在管道内随机取点，尽量避开障碍物
// 说明：重试maxPlacementAttempts次仍与障碍物重叠时使用最后一次的结果
func (p *Pedestrian) randomPlacement() geometry.Vec3 {
	path := p.ctx.Path()
	obstacles := p.ctx.Obstacles()
	var pos geometry.Vec3
	for range maxPlacementAttempts {
		d := path.Length() * p.rng.Float64()
		offset := p.rng.VectorOnUnitRadiusXZDisk().Scale(path.Radius())
		pos = path.MapPathDistanceToPoint(d).Add(offset)
		if !obstacles.Overlaps(pos, p.Radius()) {
			break
		}
	}
	return pos
}

// update 逐个更新模式下的单步更新：计算转向力并立即移动
func (p *Pedestrian) update(currentTime, elapsedTime float64) {
	p.applySteering(p.determineCombinedSteering(elapsedTime), elapsedTime)
}

// applySteering 施加转向力并完成本步的状态同步
// 算法说明：
// 1. 运动学积分
// 2. 有向路径跟随时，进入端点管道半径内则把方向设为离开该端点
// 3. 同步空间索引中的位置
func (p *Pedestrian) applySteering(force geometry.Vec3, elapsedTime float64) {
	p.ApplySteeringForce(force, elapsedTime)

	if p.ctx.RuntimeConfig().S.DirectedPathFollowing {
		path := p.ctx.Path()
		start, end := path.Endpoints()
		if geometry.Distance(p.Position(), start) < path.Radius() {
			p.pathDirection = entity.DOWNSTREAM
		}
		if geometry.Distance(p.Position(), end) < path.Radius() {
			p.pathDirection = entity.UPSTREAM
		}
	}

	p.token.UpdateForNewPosition(p.Position())

	p.annotate(entity.Annotation{
		Kind: entity.AnnotationVelocityAcceleration,
		From: p.Position(),
		To:   p.Position().Add(p.Velocity()),
	})
	anchor := p.Position().Add(p.Up().Scale(2 * p.Radius()))
	p.annotate(entity.Annotation{
		Kind: entity.AnnotationSerialLabel,
		From: anchor,
		To:   anchor,
	})
}

// release 释放空间索引登记
func (p *Pedestrian) release() {
	p.token.Release()
	clear(p.neighbors)
	p.neighbors = nil
}

// annotate 发送标注，没有接收者时忽略
func (p *Pedestrian) annotate(a entity.Annotation) {
	annotator := p.ctx.Annotator()
	if annotator == nil {
		return
	}
	a.Serial = p.serial
	annotator.Annotate(a)
}
