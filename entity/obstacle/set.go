package obstacle

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/geometry"
)

// Handle 障碍物在Set中的句柄（下标）
type Handle int

// Set 障碍物集合
// 功能：持有场景内全部障碍物，以句柄对外引用，生命周期与场景一致
// 说明：只增不删，句柄在Set存活期间始终有效
type Set struct {
	spheres []Sphere
}

// NewSet 创建障碍物集合，逐个检查合法性
func NewSet(spheres ...Sphere) (*Set, error) {
	s := &Set{spheres: make([]Sphere, 0, len(spheres))}
	for _, sp := range spheres {
		if _, err := s.Add(sp); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Set) String() string {
	return fmt.Sprintf("ObstacleSet%v", s.spheres)
}

// Add 添加障碍物
// 参数：sp-球形障碍物，半径必须为正，球心必须为有限值
// 返回：句柄与错误
func (s *Set) Add(sp Sphere) (Handle, error) {
	if sp.Radius <= 0 {
		return -1, fmt.Errorf("obstacle: radius must be positive, got %v", sp.Radius)
	}
	if !sp.Center.IsFinite() {
		return -1, fmt.Errorf("obstacle: center is not finite: %v", sp.Center)
	}
	s.spheres = append(s.spheres, sp)
	return Handle(len(s.spheres) - 1), nil
}

// Get 输入句柄，查找障碍物，如果不存在则panic
func (s *Set) Get(h Handle) Sphere {
	if h < 0 || int(h) >= len(s.spheres) {
		log.Panicf("obstacle: invalid handle %d (len=%d)", h, len(s.spheres))
	}
	return s.spheres[h]
}

// Len 障碍物数量，nil集合视为空
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.spheres)
}

// All 全部障碍物的副本
func (s *Set) All() []Sphere {
	if s == nil {
		return nil
	}
	return append([]Sphere(nil), s.spheres...)
}

// Handles 全部句柄
func (s *Set) Handles() []Handle {
	return lo.Times(s.Len(), func(i int) Handle { return Handle(i) })
}

// Overlaps 半径为radius、中心为p的球是否与任一障碍物相交
func (s *Set) Overlaps(p geometry.Vec3, radius float64) bool {
	return lo.SomeBy(s.All(), func(sp Sphere) bool {
		r := sp.Radius + radius
		return geometry.DistanceSquared(p, sp.Center) < r*r
	})
}

// FindNearestIntersection 求载体前进射线与集合内障碍物最近的交点
func (s *Set) FindNearestIntersection(v Mover) (nearest Intersection, found bool) {
	for i := range s.Len() {
		in, ok := s.spheres[i].FindIntersectionWithVehiclePath(v)
		if !ok {
			continue
		}
		if !found || in.Distance < nearest.Distance {
			in.Obstacle = Handle(i)
			nearest, found = in, true
		}
	}
	return
}

// SteerToAvoidObstacles 避让集合内最近的障碍物
// 功能：找到前进射线上最近的交点，若在minTime秒行程内则返回侧向避让力
// 参数：v-载体，minTime-预判时间（秒）
// 返回：避让力（不需要避让时为零向量）与对应交点
func (s *Set) SteerToAvoidObstacles(v Mover, minTime float64) (geometry.Vec3, Intersection) {
	nearest, found := s.FindNearestIntersection(v)
	if !found {
		return geometry.Zero, nearest
	}
	return nearest.SteerToAvoidIfNeeded(v, minTime), nearest
}
