package viewer

import (
	"github.com/tsinghua-fib-lab/crowdsim-oss/entity"
	"github.com/tsinghua-fib-lab/crowdsim-oss/entity/obstacle"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/geometry"
)

// 消息类型
const (
	MessageScene   = "scene"   // 连接建立后发送一次的静态场景
	MessageFrame   = "frame"   // 每步的行人状态与标注
	MessageCommand = "command" // 客户端发来的控制命令
	MessageAck     = "ack"     // 命令入队结果
)

// Scene 静态场景：路径与障碍物
type Scene struct {
	Type       string            `json:"type"`
	Path       []geometry.Vec3   `json:"path"`
	PathRadius float64           `json:"path_radius"`
	Obstacles  []obstacle.Sphere `json:"obstacles"`
}

// AgentState 单个行人的可视化状态
type AgentState struct {
	Serial    uint64        `json:"serial"`
	Position  geometry.Vec3 `json:"position"`
	Forward   geometry.Vec3 `json:"forward"`
	Speed     float64       `json:"speed"`
	Radius    float64       `json:"radius"`
	Direction int           `json:"direction"`
}

// Frame 一步的可视化数据
type Frame struct {
	Type        string              `json:"type"`
	Step        int32               `json:"step"`
	Time        float64             `json:"time"`
	Index       string              `json:"index"`    // 当前空间索引后端
	Directed    bool                `json:"directed"` // 是否有向路径跟随
	Wander      bool                `json:"wander"`
	Agents      []AgentState        `json:"agents"`
	Annotations []entity.Annotation `json:"annotations,omitempty"`
}

// NewAgentState 由行人接口构造可视化状态
func NewAgentState(p entity.IPedestrian) AgentState {
	return AgentState{
		Serial:    p.Serial(),
		Position:  p.Position(),
		Forward:   p.Forward(),
		Speed:     p.Speed(),
		Radius:    p.Radius(),
		Direction: p.PathDirection(),
	}
}

type clientMessage struct {
	Type    string         `json:"type"`
	Command entity.Command `json:"command"`
}

type ackMessage struct {
	Type    string         `json:"type"`
	Command entity.Command `json:"command"`
	Error   string         `json:"error,omitempty"`
}
