package entity

// Command 控制命令
// 说明：由可视化端或测试提交，任务在两步之间（准备阶段）按提交顺序执行
type Command string

const (
	CommandToggleDirected Command = "toggle_directed" // 切换有向/无向路径跟随
	CommandToggleWander   Command = "toggle_wander"   // 切换漫游
	CommandNextIndex      Command = "next_index"      // 切换到下一种空间索引后端
	CommandAdd            Command = "add"             // 加入一个行人
	CommandRemove         Command = "remove"          // 移除最后加入的行人
	CommandReset          Command = "reset"           // 所有行人重新随机初始化
)

// Commands 全部合法命令
var Commands = []Command{
	CommandToggleDirected, CommandToggleWander, CommandNextIndex,
	CommandAdd, CommandRemove, CommandReset,
}

// ICommandSink 命令接收者，Submit只入队不执行，需要并发安全
type ICommandSink interface {
	Submit(cmd Command) error
}
