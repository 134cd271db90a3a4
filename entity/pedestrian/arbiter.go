package pedestrian

import (
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/geometry"
)

// determineCombinedSteering 转向仲裁
// 功能：按固定优先级组合各转向行为，得到本步的转向力
// 参数：elapsedTime-时间步长
// 返回：约束在XZ地面上的转向力
// 算法说明：
// 1. 基础力为当前前进方向
// 2. 以1-leakThrough的概率计算障碍物避让，非零则叠加并跳过其余行为
// 3. 否则查询半径为 neighborLeadTime*maxSpeed*2 内的邻居，
// 再以独立的1-leakThrough的概率计算邻居避让（乘以放大倍数），非零则叠加并跳过其余行为
// 4. 否则叠加漫游（开启时）与路径跟随（乘以缩放倍数）
// 5. 去掉Y分量
func (p *Pedestrian) determineCombinedSteering(elapsedTime float64) geometry.Vec3 {
	s := p.ctx.RuntimeConfig().S
	force := p.Forward()

	var obstacleAvoidance geometry.Vec3
	if s.LeakThrough < p.rng.Float64() {
		obstacleAvoidance = p.steerToAvoidObstacles(s.ObstacleLeadTime)
	}
	if !obstacleAvoidance.IsZero() {
		return force.Add(obstacleAvoidance).SetYToZero()
	}

	maxRadius := s.NeighborLeadTime * p.MaxSpeed() * 2
	clear(p.neighbors)
	p.neighbors = p.token.FindNeighbors(p.Position(), maxRadius, p.neighbors[:0])

	var collisionAvoidance geometry.Vec3
	if s.LeakThrough < p.rng.Float64() {
		collisionAvoidance = p.steerToAvoidNeighbors(s.NeighborLeadTime, p.neighbors).Scale(s.NeighborWeight)
	}
	if !collisionAvoidance.IsZero() {
		return force.Add(collisionAvoidance).SetYToZero()
	}

	if s.Wander {
		force = force.Add(p.steerForWander(s.WanderRate, elapsedTime))
	}
	var pathFollow geometry.Vec3
	if s.DirectedPathFollowing {
		pathFollow = p.steerToFollowPath(p.pathDirection, s.PathLeadTime, p.ctx.Path())
	} else {
		pathFollow = p.steerToStayOnPath(s.PathLeadTime, p.ctx.Path())
	}
	force = force.Add(pathFollow.OrZero().Scale(s.PathWeight))

	return force.SetYToZero()
}
