package output

import (
	"context"
	"fmt"

	"git.fiblab.net/general/common/v2/mongoutil"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crowdsim-oss/entity"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/config"
	"github.com/tsinghua-fib-lab/crowdsim-oss/utils/geometry"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// 每次批量写入的步数
const flushSteps = 16

// AgentRecord 单个行人在某一步的轨迹点
type AgentRecord struct {
	Serial    uint64        `bson:"serial"`
	Position  geometry.Vec3 `bson:"position"`
	Velocity  geometry.Vec3 `bson:"velocity"`
	Direction int           `bson:"direction"`
}

// StepRecord 一步的轨迹文档
type StepRecord struct {
	Step   int32         `bson:"step"`
	T      float64       `bson:"t"`
	Index  string        `bson:"index"` // 当前空间索引后端
	Agents []AgentRecord `bson:"agents"`
}

// NewStepRecord 由人群构造一步的轨迹文档
func NewStepRecord(step int32, t float64, index string, peds []entity.IPedestrian) StepRecord {
	return StepRecord{
		Step:  step,
		T:     t,
		Index: index,
		Agents: lo.Map(peds, func(p entity.IPedestrian, _ int) AgentRecord {
			return AgentRecord{
				Serial:    p.Serial(),
				Position:  p.Position(),
				Velocity:  p.Velocity(),
				Direction: p.PathDirection(),
			}
		}),
	}
}

type inserter interface {
	InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
}

// Recorder MongoDB轨迹记录器
// 功能：每隔Interval步记录一次全部行人的状态，按批写入集合
// 说明：只在仿真主循环中调用，不加锁
type Recorder struct {
	client   *mongo.Client
	coll     inserter
	interval int32
	buffer   []interface{}
	written  int
}

// New 根据输出配置创建记录器
// 参数：c-输出配置，URI为空时返回nil
// 返回：记录器与错误
func New(c config.Output) (*Recorder, error) {
	if c.URI == "" {
		return nil, nil
	}
	if c.DB == "" || c.Col == "" {
		return nil, fmt.Errorf("output: db and col must be set when uri is set")
	}
	client := mongoutil.NewClient(c.URI)
	coll := client.Database(c.DB).Collection(c.Col)
	log.Infof("record trajectories to %s.%s every %d steps", c.DB, c.Col, c.Interval)
	return newRecorder(client, coll, c.Interval), nil
}

func newRecorder(client *mongo.Client, coll inserter, interval int32) *Recorder {
	return &Recorder{
		client:   client,
		coll:     coll,
		interval: max(interval, 1),
	}
}

// ShouldRecord 该步是否需要记录
func (r *Recorder) ShouldRecord(step int32) bool {
	return step%r.interval == 0
}

// Record 记录一步，缓冲满后批量写入
func (r *Recorder) Record(ctx context.Context, rec StepRecord) error {
	if !r.ShouldRecord(rec.Step) {
		return nil
	}
	r.buffer = append(r.buffer, rec)
	if len(r.buffer) >= flushSteps {
		return r.Flush(ctx)
	}
	return nil
}

// Flush 写入缓冲中的全部文档
func (r *Recorder) Flush(ctx context.Context) error {
	if len(r.buffer) == 0 {
		return nil
	}
	if _, err := r.coll.InsertMany(ctx, r.buffer); err != nil {
		return fmt.Errorf("output: insert %d steps: %w", len(r.buffer), err)
	}
	r.written += len(r.buffer)
	r.buffer = r.buffer[:0]
	return nil
}

// Written 已写入的步数
func (r *Recorder) Written() int {
	return r.written
}

// Close 写入剩余缓冲并断开连接
func (r *Recorder) Close(ctx context.Context) error {
	err := r.Flush(ctx)
	if r.client != nil {
		if e := r.client.Disconnect(ctx); e != nil && err == nil {
			err = e
		}
	}
	log.Infof("%d steps recorded", r.written)
	return err
}
