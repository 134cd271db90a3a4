package config

// XYZ 配置文件中的三维量
type XYZ struct {
	X float64 `yaml:"x" toml:"x"`
	Y float64 `yaml:"y" toml:"y"`
	Z float64 `yaml:"z" toml:"z"`
}

// Input 指定模拟器输入数据的配置项
// 功能：定义场景（路径与障碍物）的来源
// 说明：Scenario为空时使用内置的七点折线场景，否则从GeoJSON文件加载
type Input struct {
	Scenario string `yaml:"scenario,omitempty" toml:"scenario"` // GeoJSON场景文件路径
}

// Output 指定轨迹输出的配置项
// 功能：定义MongoDB轨迹记录的目标
// 说明：URI为空则不输出
type Output struct {
	URI      string `yaml:"uri,omitempty" toml:"uri"`           // MongoDB连接字符串
	DB       string `yaml:"db,omitempty" toml:"db"`             // 数据库名
	Col      string `yaml:"col,omitempty" toml:"col"`           // 集合名
	Interval int32  `yaml:"interval,omitempty" toml:"interval"` // 每隔多少步输出一次，默认为1
}

// Viewer WebSocket可视化与控制服务的配置项，Listen为空则不启动
type Viewer struct {
	Listen string `yaml:"listen,omitempty" toml:"listen"` // 监听地址，例如 :8080
}

// ControlStep 指定模拟器模拟时间范围和间隔的配置项
// 功能：定义仿真时间控制参数
type ControlStep struct {
	Start    int32   `yaml:"start" toml:"start"`       // 开始步数
	Total    int32   `yaml:"total" toml:"total"`       // 总步数
	Interval float64 `yaml:"interval" toml:"interval"` // 每步的时间间隔（秒）
}

// 行人更新模式
const (
	UpdateModeIncremental = "incremental" // 逐个更新，后更新的行人立即看到先更新行人的新位置
	UpdateModeSnapshot    = "snapshot"    // 所有行人基于步开始时的状态计算转向力，再统一移动
)

// Control 模拟器控制配置
// 功能：定义仿真系统的核心控制参数
type Control struct {
	Step       ControlStep `yaml:"step" toml:"step"`
	Seed       uint64      `yaml:"seed" toml:"seed"`                         // 随机数种子
	UpdateMode string      `yaml:"update_mode,omitempty" toml:"update_mode"` // 更新模式：incremental/snapshot
	Parallel   bool        `yaml:"parallel,omitempty" toml:"parallel"`       // snapshot模式下是否并行计算转向力
	Realtime   bool        `yaml:"realtime,omitempty" toml:"realtime"`       // 是否按真实时间节奏推进（配合可视化）
}

// Crowd 行人群体配置
type Crowd struct {
	Size     int     `yaml:"size" toml:"size"`           // 初始行人数
	MaxSpeed float64 `yaml:"max_speed" toml:"max_speed"` // 最大速度
	MaxForce float64 `yaml:"max_force" toml:"max_force"` // 最大转向力
	Radius   float64 `yaml:"radius" toml:"radius"`       // 包围球半径
}

// Steering 转向仲裁配置
// 功能：定义各转向行为的优先级参数与开关
type Steering struct {
	LeakThrough           float64 `yaml:"leak_through" toml:"leak_through"`                       // 高优先级行为被跳过的概率
	ObstacleLeadTime      float64 `yaml:"obstacle_lead_time" toml:"obstacle_lead_time"`           // 障碍物避让预判时间
	NeighborLeadTime      float64 `yaml:"neighbor_lead_time" toml:"neighbor_lead_time"`           // 邻居避让预判时间
	NeighborWeight        float64 `yaml:"neighbor_weight" toml:"neighbor_weight"`                 // 邻居避让力放大倍数
	PathLeadTime          float64 `yaml:"path_lead_time" toml:"path_lead_time"`                   // 路径跟随预判时间
	PathWeight            float64 `yaml:"path_weight" toml:"path_weight"`                         // 路径跟随力缩放倍数
	WanderRate            float64 `yaml:"wander_rate" toml:"wander_rate"`                         // 漫游随机游走速率
	DirectedPathFollowing bool    `yaml:"directed_path_following" toml:"directed_path_following"` // 是否使用有向路径跟随
	Wander                bool    `yaml:"wander" toml:"wander"`                                   // 是否叠加漫游
}

// 空间索引类型
const (
	ProximityBruteForce = "brute_force"
	ProximityBinLattice = "bin_lattice"
)

// Proximity 空间索引配置
type Proximity struct {
	Kind       string `yaml:"kind" toml:"kind"`             // brute_force/bin_lattice
	Center     XYZ    `yaml:"center" toml:"center"`         // 网格中心
	Dimensions XYZ    `yaml:"dimensions" toml:"dimensions"` // 网格覆盖范围（各轴总长度）
	Divisions  XYZ    `yaml:"divisions" toml:"divisions"`   // 各轴网格数，取整后使用
}

// Config 配置文件的根结构
// 功能：定义整个仿真系统的配置结构
// 说明：包含输入、控制、行人、转向、空间索引、输出、可视化等所有配置项
type Config struct {
	Input     Input     `yaml:"input" toml:"input"`         // 输入
	Control   Control   `yaml:"control" toml:"control"`     // 模拟过程控制
	Crowd     Crowd     `yaml:"crowd" toml:"crowd"`         // 行人
	Steering  Steering  `yaml:"steering" toml:"steering"`   // 转向
	Proximity Proximity `yaml:"proximity" toml:"proximity"` // 空间索引
	Output    Output    `yaml:"output" toml:"output"`       // 输出
	Viewer    Viewer    `yaml:"viewer" toml:"viewer"`       // 可视化
}
