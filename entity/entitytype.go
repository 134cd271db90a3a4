package entity

import (
	"fmt"

	"github.com/tsinghua-fib-lab/crowdsim-oss/entity/proximity"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/container"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/geometry"
)

// 路径跟随方向
const (
	DOWNSTREAM = 1  // 沿路径距离增大的方向
	UPSTREAM   = -1 // 沿路径距离减小的方向
)

// entity/pedestrian/pedestrian.go的依赖倒置
type IPedestrian interface {
	Serial() uint64 // 序列号，创建时分配，严格递增且不复用

	Position() geometry.Vec3 // 位置
	Forward() geometry.Vec3  // 前进方向
	Side() geometry.Vec3     // 侧向
	Up() geometry.Vec3       // 上方向
	Speed() float64          // 标量速度
	Velocity() geometry.Vec3 // 速度向量
	Radius() float64         // 包围球半径
	MaxSpeed() float64       // 最大速度
	MaxForce() float64       // 最大转向力

	PathDirection() int      // 路径跟随方向，DOWNSTREAM或UPSTREAM
	Token() *proximity.Token // 在空间索引中的登记

	String() string
}

// 行人在人群链表中的节点，S为序列号
type PedestrianNode = container.ListNode[IPedestrian]

// 人群链表，按加入顺序保存
type PedestrianList = container.List[IPedestrian]

// AnnotationKind 标注类型
type AnnotationKind string

const (
	AnnotationAvoidObstacle        AnnotationKind = "avoid_obstacle"        // 障碍物避让，Value为避让距离
	AnnotationAvoidNeighbor        AnnotationKind = "avoid_neighbor"        // 邻居碰撞预测，From/To为双方最近接近位置，Value为steer
	AnnotationAvoidCloseNeighbor   AnnotationKind = "avoid_close_neighbor"  // 近距离分离，To为对方位置
	AnnotationPathFollowing        AnnotationKind = "path_following"        // 路径跟随，From为预测位置，To为路径上的点，Value为outside
	AnnotationVelocityAcceleration AnnotationKind = "velocity_acceleration" // From为位置，To为位置+速度
	AnnotationSerialLabel          AnnotationKind = "serial_label"          // 序列号标签，From为标签锚点（头顶）
)

// Annotation 转向过程中产生的可视化标注
type Annotation struct {
	Kind   AnnotationKind `json:"kind"`
	Serial uint64         `json:"serial"`          // 产生标注的行人
	Other  uint64         `json:"other,omitempty"` // 相关的另一个行人
	From   geometry.Vec3  `json:"from"`
	To     geometry.Vec3  `json:"to"`
	Value  float64        `json:"value,omitempty"`
}

func (a Annotation) String() string {
	return fmt.Sprintf("Annotation{%s, serial=%d, from=%v, to=%v, value=%.3f}", a.Kind, a.Serial, a.From, a.To, a.Value)
}

// IAnnotator 标注接收者
// 说明：snapshot并行模式下会被多个协程同时调用，实现需要并发安全
type IAnnotator interface {
	Annotate(a Annotation)
}
