package task

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crowdsim-oss/clock"
	"github.com/tsinghua-fib-lab/crowdsim-oss/entity"
	"github.com/tsinghua-fib-lab/crowdsim-oss/entity/obstacle"
	"github.com/tsinghua-fib-lab/crowdsim-oss/entity/pathway"
	"github.com/tsinghua-fib-lab/crowdsim-oss/entity/pedestrian"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/config"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/input"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/output"
	"github.com/tsinghua-fib-lab/crowdsim-oss/viewer"
)

// 命令队列容量
const commandQueueSize = 64

// Context 仿真任务上下文
// 功能：包含一次仿真任务的所有变量和状态，替代全局变量
// 说明：管理时钟、场景、人群、可视化与输出；实现entity.ITaskContext与entity.ICommandSink
type Context struct {
	// 关闭指令
	closed atomic.Bool
	// 停止指令，Run在当前步结束后退出
	stopped atomic.Bool

	// 时钟
	clock *clock.Clock

	// 运行时配置文件
	runtimeConfig *config.RuntimeConfig

	// 用于初始化的输入（路径与障碍物）
	initRes *input.Input

	// 人群管理器
	crowdManager *pedestrian.Manager

	// 可视化与控制服务，未配置时为nil
	hub *viewer.Hub
	// 轨迹输出，未配置时为nil
	recorder *output.Recorder

	// 待执行的控制命令
	commands chan entity.Command
}

// NewContext 创建新的仿真任务上下文
// 功能：初始化仿真系统的所有组件和配置
// 参数：c-配置对象
// 返回：初始化完成的Context实例
// 算法说明：
// 1. 初始化时钟与运行时配置
// 2. 加载场景（内置场景或GeoJSON文件）
// 3. 创建人群管理器
// 4. 按配置创建轨迹输出与可视化服务
// 说明：任何一步失败都视为启动错误，直接panic
func NewContext(c config.Config) *Context {
	initRes, err := input.Init(c)
	if err != nil {
		log.Panicf("load input: %v", err)
	}
	return NewContextWithInput(c, initRes)
}

// NewContextWithInput 使用给定场景创建仿真任务上下文
func NewContextWithInput(c config.Config, initRes *input.Input) *Context {
	ctx := &Context{
		initRes:  initRes,
		commands: make(chan entity.Command, commandQueueSize),
	}
	ctx.clock = clock.New(c.Control.Step)
	ctx.runtimeConfig = config.NewRuntimeConfig(c)

	// 新建各类模拟对象
	ctx.crowdManager = pedestrian.NewManager(ctx)

	recorder, err := output.New(ctx.runtimeConfig.All.Output)
	if err != nil {
		log.Panicf("create output: %v", err)
	}
	ctx.recorder = recorder

	if c.Viewer.Listen != "" {
		ctx.hub = viewer.NewHub(viewer.Scene{
			Path:       initRes.Path.Points(),
			PathRadius: initRes.Path.Radius(),
			Obstacles:  initRes.Obstacles.All(),
		}, ctx)
		if err := ctx.hub.Start(c.Viewer.Listen); err != nil {
			log.Panicf("start viewer: %v", err)
		}
	}
	return ctx
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

func (ctx *Context) Path() *pathway.Polyline {
	return ctx.initRes.Path
}

func (ctx *Context) Obstacles() *obstacle.Set {
	return ctx.initRes.Obstacles
}

func (ctx *Context) CrowdManager() entity.ICrowdManager {
	return ctx.crowdManager
}

// Annotator 可视化服务未启动时返回nil接口
func (ctx *Context) Annotator() entity.IAnnotator {
	if ctx.hub == nil {
		return nil
	}
	return ctx.hub
}

// Init 重置时钟并按配置创建初始人群
func (ctx *Context) Init() {
	ctx.clock.Init()
	log.Infof("Path: %v", ctx.initRes.Path)
	log.Infof("Obstacles: %v", ctx.initRes.Obstacles)
	ctx.crowdManager.Init(ctx.runtimeConfig.All.Crowd.Size)
}

// Submit 提交控制命令
// 功能：命令入队，在下一步的准备阶段执行
// 参数：cmd-控制命令
// 返回：未知命令、任务已关闭或队列已满时返回错误
func (ctx *Context) Submit(cmd entity.Command) error {
	if !lo.Contains(entity.Commands, cmd) {
		return fmt.Errorf("unknown command %q", cmd)
	}
	if ctx.closed.Load() {
		return fmt.Errorf("task is closed")
	}
	select {
	case ctx.commands <- cmd:
		return nil
	default:
		return fmt.Errorf("command queue is full (%d)", commandQueueSize)
	}
}

// applyCommand 执行一条控制命令
func (ctx *Context) applyCommand(cmd entity.Command) {
	switch cmd {
	case entity.CommandToggleDirected:
		log.Infof("directed path following: %v", ctx.runtimeConfig.ToggleDirectedPathFollowing())
	case entity.CommandToggleWander:
		log.Infof("wander: %v", ctx.runtimeConfig.ToggleWander())
	case entity.CommandNextIndex:
		if err := ctx.crowdManager.NextIndex(); err != nil {
			log.Warnf("switch proximity database: %v", err)
		}
	case entity.CommandAdd:
		ctx.crowdManager.Add()
	case entity.CommandRemove:
		ctx.crowdManager.Remove()
	case entity.CommandReset:
		ctx.crowdManager.Reset()
		log.Infof("crowd reset")
	default:
		log.Warnf("ignore unknown command %q", cmd)
	}
}

// Stop 通知Run在当前步结束后退出，可在任意协程调用
func (ctx *Context) Stop() {
	ctx.stopped.Store(true)
}

// Close 释放人群、空间索引、可视化服务与轨迹输出，可重复调用
func (ctx *Context) Close() {
	if !ctx.closed.CompareAndSwap(false, true) {
		return
	}
	if ctx.recorder != nil {
		if err := ctx.recorder.Close(context.Background()); err != nil {
			log.Errorf("close output: %v", err)
		}
	}
	if ctx.hub != nil {
		ctx.hub.Close()
	}
	ctx.crowdManager.Close()
	log.Infof("task closed at step %d", ctx.clock.InternalStep)
}
