package entity

import "github.com/tsinghua-fib-lab/crowdsim-oss/entity/proximity"

// Manager依赖倒置

// entity/pedestrian/manager.go的依赖倒置
type ICrowdManager interface {
	Init(n int) // 初始化：按配置创建空间索引并加入n个行人

	Add() IPedestrian                        // 加入一个行人
	Remove()                                 // 移除最后加入的行人，人群为空时无操作
	SwapIndex(db proximity.Database) error   // 整体迁移到新的空间索引，失败时保持原索引
	NextIndex() error                        // 循环切换到下一种空间索引后端
	Reset()                                  // 所有行人重新随机初始化
	Update(currentTime, elapsedTime float64) // 更新阶段
	Close()                                  // 释放全部行人与索引

	Len() int                   // 人群规模
	Pedestrians() []IPedestrian // 按加入顺序的全部行人
	Index() proximity.Database  // 当前空间索引
}
