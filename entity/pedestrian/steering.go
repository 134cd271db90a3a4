package pedestrian

import (
	"github.com/tsinghua-fib-lab/crowdsim-oss/entity"
	"github.com/tsinghua-fib-lab/crowdsim-oss/entity/pathway"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/geometry"
)

// 轨迹平行度阈值，约等于cos(45°)
const parallelCosine = 0.707

// steerForSeek 朝目标点的转向力：期望速度（指向目标）减去当前速度
func (p *Pedestrian) steerForSeek(target geometry.Vec3) geometry.Vec3 {
	return target.Sub(p.Position()).Sub(p.Velocity())
}

// steerForWander 漫游转向力
// 功能：侧向与上方向的值各自做[-1, 1]内的随机游走，返回纯横向的力
// 参数：rate-每秒游走速率，dt-时间步长
func (p *Pedestrian) steerForWander(rate, dt float64) geometry.Vec3 {
	speed := rate * dt
	p.wanderSide = p.rng.ScalarRandomWalk(p.wanderSide, speed, -1, 1)
	p.wanderUp = p.rng.ScalarRandomWalk(p.wanderUp, speed, -1, 1)
	return p.Side().Scale(p.wanderSide).Add(p.Up().Scale(p.wanderUp))
}

// steerToFollowPath 有向路径跟随
// 功能：沿direction方向追踪路径上前方的点
// 参数：direction-路径方向（+1/-1），predictionTime-预测时间，path-路径
// 返回：转向力，预测位置在管道内且朝正确方向移动时为零向量
// 算法说明：
// 1. 目标路径距离偏移 = direction * predictionTime * speed
// 2. 比较当前与预测位置的路径距离，判断是否朝正确方向移动
// 3. 需要转向时，seek当前路径距离加上偏移对应的点（超出路径时截断到端点）
func (p *Pedestrian) steerToFollowPath(direction int, predictionTime float64, path *pathway.Polyline) geometry.Vec3 {
	offset := float64(direction) * predictionTime * p.Speed()
	future := p.PredictFuturePosition(predictionTime)

	nowDistance := path.MapPointToPathDistance(p.Position())
	futureDistance := path.MapPointToPathDistance(future)
	var rightway bool
	if offset > 0 {
		rightway = nowDistance < futureDistance
	} else {
		rightway = nowDistance > futureDistance
	}

	onPath, _, outside := path.MapPointToPath(future)
	if outside < 0 && rightway {
		return geometry.Zero
	}
	target := path.MapPathDistanceToPoint(nowDistance + offset)
	p.annotate(entity.Annotation{
		Kind:  entity.AnnotationPathFollowing,
		From:  future,
		To:    onPath,
		Value: outside,
	})
	return p.steerForSeek(target)
}

// steerToStayOnPath 无向路径跟随
// 功能：预测位置离开管道时朝路径上最近点转向，否则不转向
func (p *Pedestrian) steerToStayOnPath(predictionTime float64, path *pathway.Polyline) geometry.Vec3 {
	future := p.PredictFuturePosition(predictionTime)
	onPath, _, outside := path.MapPointToPath(future)
	if outside < 0 {
		return geometry.Zero
	}
	p.annotate(entity.Annotation{
		Kind:  entity.AnnotationPathFollowing,
		From:  future,
		To:    onPath,
		Value: outside,
	})
	return p.steerForSeek(onPath)
}

// steerToAvoidObstacles 避让场景内前进方向上最近的障碍物
func (p *Pedestrian) steerToAvoidObstacles(minTime float64) geometry.Vec3 {
	force, in := p.ctx.Obstacles().SteerToAvoidObstacles(p, minTime)
	force = force.OrZero()
	if !force.IsZero() {
		p.annotate(entity.Annotation{
			Kind:  entity.AnnotationAvoidObstacle,
			From:  p.Position(),
			To:    in.SurfacePoint,
			Value: minTime * p.Speed(),
		})
	}
	return force
}

// steerToAvoidNeighbors 邻居碰撞避让
// 功能：先处理已经重叠的近邻，否则预测最早发生的碰撞并侧向避让
// 参数：minTime-预测时间上限，others-候选邻居（可能包含自身）
// 返回：转向力，没有碰撞威胁时为零向量
// 算法说明：
// 1. 与任一邻居中心距离小于半径之和时，返回远离方向垂直于forward的分量
// 2. 对每个邻居求最近接近时间，在[0, minTime)内且届时距离小于2倍半径的视为威胁，取最早者
// 3. 按双方朝向的平行度选择避让方向：
//   - 相向：远离对方在最近接近时刻的位置
//   - 同向：远离对方当前位置
//   - 垂直：只有较慢的一方避让，绕到对方身后
func (p *Pedestrian) steerToAvoidNeighbors(minTime float64, others []any) geometry.Vec3 {
	if separation := p.steerToAvoidCloseNeighbors(0, others); !separation.IsZero() {
		return separation
	}

	steer := 0.0
	var threat *Pedestrian
	var ourPosition, threatPosition geometry.Vec3
	minApproachTime := minTime
	for _, o := range others {
		other := o.(*Pedestrian)
		if other == p {
			continue
		}
		dangerThreshold := p.Radius() * 2
		t := p.predictNearestApproachTime(other)
		if t >= 0 && t < minApproachTime {
			ours, theirs := p.computeNearestApproachPositions(other, t)
			if geometry.Distance(ours, theirs) < dangerThreshold {
				minApproachTime = t
				threat = other
				ourPosition, threatPosition = ours, theirs
			}
		}
	}
	if threat == nil {
		return geometry.Zero
	}

	parallelness := p.Forward().Dot(threat.Forward())
	switch {
	case parallelness < -parallelCosine:
		sideDot := threatPosition.Sub(p.Position()).Dot(p.Side())
		steer = steerAway(sideDot)
	case parallelness > parallelCosine:
		sideDot := threat.Position().Sub(p.Position()).Dot(p.Side())
		steer = steerAway(sideDot)
	default:
		if threat.Speed() <= p.Speed() {
			sideDot := p.Side().Dot(threat.Velocity())
			steer = steerAway(sideDot)
		}
	}

	p.annotate(entity.Annotation{
		Kind:  entity.AnnotationAvoidNeighbor,
		Other: threat.serial,
		From:  ourPosition,
		To:    threatPosition,
		Value: steer,
	})
	return p.Side().Scale(steer)
}

func steerAway(sideDot float64) float64 {
	if sideDot > 0 {
		return -1
	}
	return 1
}

// steerToAvoidCloseNeighbors 与任一邻居的中心距离小于minSeparation加半径之和时，返回远离方向垂直于forward的分量
func (p *Pedestrian) steerToAvoidCloseNeighbors(minSeparation float64, others []any) geometry.Vec3 {
	for _, o := range others {
		other := o.(*Pedestrian)
		if other == p {
			continue
		}
		sumOfRadii := p.Radius() + other.Radius()
		offset := other.Position().Sub(p.Position())
		if offset.Length() < minSeparation+sumOfRadii {
			p.annotate(entity.Annotation{
				Kind:  entity.AnnotationAvoidCloseNeighbor,
				Other: other.serial,
				From:  p.Position(),
				To:    other.Position(),
			})
			return offset.Neg().PerpendicularComponent(p.Forward()).OrZero()
		}
	}
	return geometry.Zero
}

// predictNearestApproachTime 按当前速度预测与other距离最近的时刻
// 说明：相对速度为0时距离不变，返回0
func (p *Pedestrian) predictNearestApproachTime(other *Pedestrian) float64 {
	relVelocity := other.Velocity().Sub(p.Velocity())
	relSpeed := relVelocity.Length()
	if relSpeed == 0 {
		return 0
	}
	relTangent := relVelocity.Div(relSpeed)
	relPosition := p.Position().Sub(other.Position())
	return relTangent.Dot(relPosition) / relSpeed
}

// computeNearestApproachPositions 双方在t时刻的预测位置
func (p *Pedestrian) computeNearestApproachPositions(other *Pedestrian, t float64) (ours, theirs geometry.Vec3) {
	ours = p.Position().Add(p.Forward().Scale(p.Speed() * t))
	theirs = other.Position().Add(other.Forward().Scale(other.Speed() * t))
	return
}
