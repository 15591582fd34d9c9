// Package config 模拟全部可调参数
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var log = logrus.WithField("module", "config")

var (
	ErrInvalidStepDuration = errors.New("step duration must be positive")
	ErrInvalidPercentile   = errors.New("percentile must be in (0, 100]")
)

type Simulation struct {
	CityName string `mapstructure:"city_name"`
	// 城市人口与模拟的代理比例，代理数量 = Population * AgentShare
	Population int     `mapstructure:"population"`
	AgentShare float64 `mapstructure:"agent_share"`
	// 显式指定代理数量时覆盖上面两项
	NumAgents             int     `mapstructure:"num_agents"`
	MetersPerDayPerPerson float64 `mapstructure:"meters_per_day_per_person"`
	Jobs                  int     `mapstructure:"jobs"`
	Days                  int     `mapstructure:"days"`
	Seed                  int64   `mapstructure:"seed"`
	// 人口构建与并行步进的worker上限
	Workers      int  `mapstructure:"workers"`
	ParallelStep bool `mapstructure:"parallel_step"`
	// 家与工作地之间的欧氏距离范围
	HomeWorkRadius  float64 `mapstructure:"home_work_radius"`
	MinWorkDistance float64 `mapstructure:"min_work_distance"`
	MaxWorkDistance float64 `mapstructure:"max_work_distance"`
}

type Time struct {
	// 单步时长（秒）
	StepDuration            float64 `mapstructure:"step_duration"`
	ReleaseAgentsEverySteps int     `mapstructure:"release_agents_every_steps"`
	// 24小时的出行强度权重，归一化后作为每个时段分配的步行里程比例
	HourlyProfile []float64 `mapstructure:"hourly_profile"`
	// 每隔多少天做一次记忆衰减
	DecayEveryDays int `mapstructure:"decay_every_days"`
}

type Learning struct {
	HalfLifeDays         float64 `mapstructure:"half_life_days"`
	UsingMeaningfulness  bool    `mapstructure:"using_meaningfulness"`
	MemoryPercentile     float64 `mapstructure:"memory_percentile"`
	CellSize             float64 `mapstructure:"cell_size"`
	RouteVividnessRadius float64 `mapstructure:"route_vividness_radius"`
	MinWalkedRoutes      int     `mapstructure:"min_walked_routes"`
	MeanMemoryRoutes     float64 `mapstructure:"mean_memory_routes"`
	SmoothingFactor      float64 `mapstructure:"smoothing_factor"`
	VividnessWeight      float64 `mapstructure:"vividness_weight"`
	MinLearnedRoute      float64 `mapstructure:"min_learned_route"`
	BufferRadius         float64 `mapstructure:"buffer_radius"`
	ConeAngle            float64 `mapstructure:"cone_angle"`
	ConeDistance         float64 `mapstructure:"cone_distance"`
}

type RouteChoice struct {
	ThresholdTurn                     float64 `mapstructure:"threshold_turn"`
	MinTripDistance                   float64 `mapstructure:"min_trip_distance"`
	AvgTripDistance                   float64 `mapstructure:"avg_trip_distance"`
	MaxTripDistance                   float64 `mapstructure:"max_trip_distance"`
	CityCentreRegions                 []int32 `mapstructure:"city_centre_regions"`
	IncludeTertiary                   bool    `mapstructure:"include_tertiary"`
	DistanceNodeLandmark              float64 `mapstructure:"distance_node_landmark"`
	DistanceAnchors                   float64 `mapstructure:"distance_anchors"`
	Threshold3dVisibility             float64 `mapstructure:"threshold_3d_visibility"`
	VisibilityRadius                  float64 `mapstructure:"visibility_radius"`
	SalientNodesPercentile            float64 `mapstructure:"salient_nodes_percentile"`
	NrAnchors                         int     `mapstructure:"nr_anchors"`
	GlobalLandmarkThresholdCommunity  float64 `mapstructure:"global_landmark_threshold_community"`
	LocalLandmarkThresholdCommunity   float64 `mapstructure:"local_landmark_threshold_community"`
	WayfindingEasinessThreshold       float64 `mapstructure:"wayfinding_easiness_threshold"`
	WayfindingEasinessThresholdRegion float64 `mapstructure:"wayfinding_easiness_threshold_region"`
	RegionNavActivationThreshold      float64 `mapstructure:"region_nav_activation_threshold"`
	// 全局地标程度与边代价结合时的权重（非学习者）
	GlobalLandmarkWeightDistance float64 `mapstructure:"global_landmark_weight_distance"`
	GlobalLandmarkWeightAngular  float64 `mapstructure:"global_landmark_weight_angular"`
	ViewFieldAngle               float64 `mapstructure:"view_field_angle"`
	// 中心性估计时采样的最短路数量
	CentralitySamples int `mapstructure:"centrality_samples"`
}

// Population 经验人群参数：各导航策略被选中的概率（均值与标准差）
type Population struct {
	ProbUsingElements        float64 `mapstructure:"prob_using_elements"`
	ProbUsingElementsSD      float64 `mapstructure:"prob_using_elements_sd"`
	ProbNotUsingElements     float64 `mapstructure:"prob_not_using_elements"`
	ProbNotUsingElementsSD   float64 `mapstructure:"prob_not_using_elements_sd"`
	ProbRoadDistance         float64 `mapstructure:"prob_road_distance"`
	ProbRoadDistanceSD       float64 `mapstructure:"prob_road_distance_sd"`
	ProbAngularChange        float64 `mapstructure:"prob_angular_change"`
	ProbAngularChangeSD      float64 `mapstructure:"prob_angular_change_sd"`
	ProbLocalRoadDistance    float64 `mapstructure:"prob_local_road_distance"`
	ProbLocalRoadDistanceSD  float64 `mapstructure:"prob_local_road_distance_sd"`
	ProbLocalAngularChange   float64 `mapstructure:"prob_local_angular_change"`
	ProbLocalAngularChangeSD float64 `mapstructure:"prob_local_angular_change_sd"`
	ProbRegionBased          float64 `mapstructure:"prob_region_based"`
	ProbRegionBasedSD        float64 `mapstructure:"prob_region_based_sd"`
	ProbLocalLandmarks       float64 `mapstructure:"prob_local_landmarks"`
	ProbLocalLandmarksSD     float64 `mapstructure:"prob_local_landmarks_sd"`
	ProbBarrierSubGoals      float64 `mapstructure:"prob_barrier_sub_goals"`
	ProbBarrierSubGoalsSD    float64 `mapstructure:"prob_barrier_sub_goals_sd"`
	ProbDistantLandmarks     float64 `mapstructure:"prob_distant_landmarks"`
	ProbDistantLandmarksSD   float64 `mapstructure:"prob_distant_landmarks_sd"`
	NaturalBarriers          float64 `mapstructure:"natural_barriers"`
	NaturalBarriersSD        float64 `mapstructure:"natural_barriers_sd"`
	SeveringBarriers         float64 `mapstructure:"severing_barriers"`
	SeveringBarriersSD       float64 `mapstructure:"severing_barriers_sd"`
	// 非学习者与学习者的比例，1表示全部学习，0表示全部不学习
	LearnerShare float64 `mapstructure:"learner_share"`
}

type Search struct {
	NeutralPerceptionMean float64 `mapstructure:"neutral_perception_mean"`
	NeutralPerceptionSD   float64 `mapstructure:"neutral_perception_sd"`
	// 偏态正态分布的形状参数（绝对值）
	SkewShape float64 `mapstructure:"skew_shape"`
	// 拼接路线时单段允许的最大回溯次数
	MaxBacktracks int `mapstructure:"max_backtracks"`
}

type Movement struct {
	PedestrianSpeed      float64 `mapstructure:"pedestrian_speed"`
	SpeedIncrementFactor float64 `mapstructure:"speed_increment_factor"`
	CrowdingPercentile   float64 `mapstructure:"crowding_percentile"`
	RerouteProbability   float64 `mapstructure:"reroute_probability"`
	DwellMinMinutes      int     `mapstructure:"dwell_min_minutes"`
	DwellMaxMinutes      int     `mapstructure:"dwell_max_minutes"`
}

// Export 每日结果输出
type Export struct {
	// 输出位置：.db/.sqlite文件，或{db}.{col}形式的mongo集合前缀，为空时不输出
	Output string `mapstructure:"output"`
	// 每次写入的批大小
	BatchSize int `mapstructure:"batch_size"`
	// 是否输出每次出行的路线
	Routes bool `mapstructure:"routes"`
}

type Config struct {
	Simulation  Simulation  `mapstructure:"simulation"`
	Time        Time        `mapstructure:"time"`
	Learning    Learning    `mapstructure:"learning"`
	RouteChoice RouteChoice `mapstructure:"route_choice"`
	Population  Population  `mapstructure:"population"`
	Search      Search      `mapstructure:"search"`
	Movement    Movement    `mapstructure:"movement"`
	Export      Export      `mapstructure:"export"`
}

// Agents 返回本次模拟的代理数量
func (c *Config) Agents() int {
	if c.Simulation.NumAgents > 0 {
		return c.Simulation.NumAgents
	}
	return int(float64(c.Simulation.Population) * c.Simulation.AgentShare)
}

// MoveRate 每步行走距离（米）
func (c *Config) MoveRate() float64 {
	return c.Time.StepDuration * c.Movement.PedestrianSpeed
}

// MetersPerDay 全体代理每天的期望步行总里程
func (c *Config) MetersPerDay() float64 {
	return c.Simulation.MetersPerDayPerPerson * float64(c.Agents())
}

// StepsPerDay 一天对应的步数
func (c *Config) StepsPerDay() int {
	return int(86400 / c.Time.StepDuration)
}

// MinutesToSteps 分钟换算为步数（至少为1）
func (c *Config) MinutesToSteps(minutes int) int {
	steps := int(float64(minutes) * 60 / c.Time.StepDuration)
	if steps < 1 {
		return 1
	}
	return steps
}

func (c *Config) Validate() error {
	if c.Time.StepDuration <= 0 {
		return ErrInvalidStepDuration
	}
	if c.Movement.CrowdingPercentile <= 0 || c.Movement.CrowdingPercentile > 100 {
		return fmt.Errorf("crowding percentile %v: %w", c.Movement.CrowdingPercentile, ErrInvalidPercentile)
	}
	if c.Learning.MemoryPercentile <= 0 || c.Learning.MemoryPercentile > 1 {
		return fmt.Errorf("memory percentile %v: %w", c.Learning.MemoryPercentile, ErrInvalidPercentile)
	}
	if len(c.Time.HourlyProfile) != 24 {
		return fmt.Errorf("hourly profile needs 24 values, got %d", len(c.Time.HourlyProfile))
	}
	return nil
}

// Load 读取配置文件（可为空）并叠加WAYFINDING_前缀的环境变量
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("wayfinding")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
		log.Infof("config loaded from %s", v.ConfigFileUsed())
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default 返回内置默认值，测试直接使用
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		log.Panicf("invalid built-in defaults: %v", err)
	}
	return cfg
}
