package task

import (
	"context"
	"flag"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crowdsim-oss/entity"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/output"
	"github.com/tsinghua-fib-lab/crowdsim-oss/viewer"
)

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 100, "心跳日志间隔步数")
)

// prepare 准备阶段，每步执行一次
// 功能：在每个仿真步骤开始时进行准备工作
// 算法说明：
// 1. 按提交顺序执行队列中的全部控制命令（切换开关、切换空间索引、增删行人、重置）
// 2. 心跳日志：定期输出时间、人群规模与当前空间索引
// 说明：命令只在这里执行，因此更新阶段看到的人群与开关在一步之内不变
func (ctx *Context) prepare() {
	for drained := false; !drained; {
		select {
		case cmd := <-ctx.commands:
			log.Debugf("step %d: apply command %s", ctx.clock.InternalStep, cmd)
			ctx.applyCommand(cmd)
		default:
			drained = true
		}
	}

	if *heartBeatInterval > 0 && ctx.clock.InternalStep%int32(*heartBeatInterval) == 0 {
		hour, minute, second := ctx.clock.GetHourMinuteSecond()
		log.Infof(
			"STEP: %d(%d:%d:%.2f) crowd=%d index=%s",
			ctx.clock.InternalStep,
			hour, minute, second,
			ctx.crowdManager.Len(), ctx.crowdManager.Index().Kind(),
		)
	}
}

// update 更新阶段，每步执行一次
// 功能：推进人群一步，然后推进时钟并输出
// 算法说明：
// 1. 人群更新：按更新模式计算转向力并移动
// 2. 时钟推进
// 3. 并行输出：可视化帧与轨迹记录只读取行人状态，互不影响
func (ctx *Context) update() {
	ctx.crowdManager.Update(ctx.clock.T, ctx.clock.DT)
	ctx.clock.Tick()

	if ctx.hub == nil && ctx.recorder == nil {
		return
	}
	peds := ctx.crowdManager.Pedestrians()
	index := string(ctx.crowdManager.Index().Kind())
	var wg sync.WaitGroup
	if ctx.hub != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx.hub.Publish(viewer.Frame{
				Step:     ctx.clock.InternalStep,
				Time:     ctx.clock.T,
				Index:    index,
				Directed: ctx.runtimeConfig.S.DirectedPathFollowing,
				Wander:   ctx.runtimeConfig.S.Wander,
				Agents: lo.Map(peds, func(p entity.IPedestrian, _ int) viewer.AgentState {
					return viewer.NewAgentState(p)
				}),
			})
		}()
	}
	if ctx.recorder != nil && ctx.recorder.ShouldRecord(ctx.clock.InternalStep) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := output.NewStepRecord(ctx.clock.InternalStep, ctx.clock.T, index, peds)
			if err := ctx.recorder.Record(context.Background(), rec); err != nil {
				log.Errorf("record step %d: %v", rec.Step, err)
			}
		}()
	}
	wg.Wait()
}

// Step 执行一步：准备阶段与更新阶段
func (ctx *Context) Step() {
	ctx.prepare()
	ctx.update()
}

// Run 运行
// 功能：初始化后循环执行Step，直到到达结束步或收到停止指令，最后关闭任务
// 说明：开启realtime时每步按时钟步长对齐真实时间
func (ctx *Context) Run() {
	// 初始化
	ctx.Init()

	var ticker *time.Ticker
	if ctx.runtimeConfig.C.Realtime {
		ticker = time.NewTicker(time.Duration(ctx.clock.DT * float64(time.Second)))
		defer ticker.Stop()
	}
	for !ctx.clock.Done() && !ctx.stopped.Load() {
		ctx.Step()
		log.Debugf("step %d: complete", ctx.clock.InternalStep)
		if ticker != nil {
			<-ticker.C
		}
	}
	log.Infof("engine complete")
	ctx.Close()
}
