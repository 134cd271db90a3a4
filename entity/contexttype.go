package entity

import (
	"github.com/tsinghua-fib-lab/crowdsim-oss/clock"
	"github.com/tsinghua-fib-lab/crowdsim-oss/entity/obstacle"
	"github.com/tsinghua-fib-lab/crowdsim-oss/entity/pathway"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/config"
)

// ITaskContext 仿真任务上下文的依赖倒置
// 说明：场景（路径与障碍物）与运行时开关都从这里取得，不存在包级全局状态
type ITaskContext interface {
	Clock() *clock.Clock
	RuntimeConfig() *config.RuntimeConfig
	Path() *pathway.Polyline  // 行人跟随的路径
	Obstacles() *obstacle.Set // 场景内的障碍物
	CrowdManager() ICrowdManager
	Annotator() IAnnotator // 可视化标注接收者，可能为nil
}
