// Package config 负责仿真配置的默认值、YAML 文件与环境变量覆盖。
//
// 加载顺序：默认值 → 配置文件 → .env → EMT_* 环境变量 → 校验。
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"emt/cases"
	"emt/errs"
	"emt/network"
	"emt/scenario"
)

// 初始化模式
const (
	ModeFresh  = "fresh"  // 由基础案例求稳态
	ModeResume = "resume" // 从单点快照续算
)

// Simulation 单次运行的仿真参数，运行期间只读
type Simulation struct {
	TS         float64  `yaml:"ts"`         // 步长 s
	TLen       float64  `yaml:"tlen"`       // 仿真时长 s
	DSRate     int      `yaml:"ds_rate"`    // 每多少步保存一次
	NetMode    string   `yaml:"net_mode"`   // 网络求解模式 lu | gonum
	Partitions int      `yaml:"partitions"` // 网络分区数
	SystemN    int      `yaml:"system"`     // 网络规模标识
	Mode       string   `yaml:"mode"`       // fresh | resume
	OutputDir  string   `yaml:"output_dir"` // 快照与结果目录
	CaseDir    string   `yaml:"case_dir"`   // 案例文件目录，空表示使用内置案例
	Parallel   int      `yaml:"parallel"`   // 并行场景数
	Scenarios  []string `yaml:"scenarios"`  // 批量运行的场景
	LoadModel  string   `yaml:"load_model"` // 覆盖各场景的初始负荷模型，空表示按场景表
}

// InitialLoadModel 解析负荷模型覆盖值，未设置时 ok 为 false
func (s Simulation) InitialLoadModel() (m cases.LoadModel, ok bool, err error) {
	if s.LoadModel == "" {
		return 0, false, nil
	}
	m, err = cases.ParseLoadModel(s.LoadModel)
	if err != nil {
		return 0, false, err
	}
	return m, true, nil
}

// Logging 日志配置
type Logging struct {
	Level  string `yaml:"level"`  // info | debug | trace
	Format string `yaml:"format"` // text | json
}

// Catalog 运行记录库配置
type Catalog struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // 空表示 <output_dir>/catalog.db
}

// Metrics 指标汇总配置
type Metrics struct {
	CSV string `yaml:"csv"` // 汇总表文件名，位于输出目录
}

// Config 全部配置
type Config struct {
	Simulation Simulation `yaml:"simulation"`
	Logging    Logging    `yaml:"logging"`
	Catalog    Catalog    `yaml:"catalog"`
	Metrics    Metrics    `yaml:"metrics"`
}

// Default 默认配置：50 µs 步长、10 s、两区域系统、五个场景依次运行
func Default() *Config {
	return &Config{
		Simulation: Simulation{
			TS:         50e-6,
			TLen:       10,
			DSRate:     10,
			NetMode:    network.ModeLU,
			Partitions: 2,
			SystemN:    6,
			Mode:       ModeFresh,
			OutputDir:  "output",
			Parallel:   1,
			Scenarios:  scenario.Names(),
		},
		Logging: Logging{Level: "info", Format: "text"},
		Catalog: Catalog{Enabled: true},
		Metrics: Metrics{CSV: "all_metrics_fresh.csv"},
	}
}

// Load 读取配置。path 为空时只使用默认值与环境变量。
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errs.Config("config", "parse %s: %v", path, err)
		}
	}
	_ = godotenv.Load()
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验仿真参数，违反即为配置错误
func (c *Config) Validate() error {
	s := &c.Simulation
	if !(s.TS > 0) || math.IsInf(s.TS, 0) {
		return errs.Config("ts", "must be positive, got %g", s.TS)
	}
	if !(s.TLen > 0) || math.IsInf(s.TLen, 0) {
		return errs.Config("tlen", "must be positive, got %g", s.TLen)
	}
	if s.DSRate < 1 {
		return errs.Config("ds_rate", "must be >= 1, got %d", s.DSRate)
	}
	if s.Partitions < 1 {
		return errs.Config("partitions", "must be >= 1, got %d", s.Partitions)
	}
	if s.NetMode != network.ModeLU && s.NetMode != network.ModeGonum {
		return errs.Config("net_mode", "unknown network solve mode %q", s.NetMode)
	}
	if s.Mode != ModeFresh && s.Mode != ModeResume {
		return errs.Config("mode", "must be %q or %q, got %q", ModeFresh, ModeResume, s.Mode)
	}
	if s.Parallel < 1 {
		return errs.Config("parallel", "must be >= 1, got %d", s.Parallel)
	}
	if s.SystemN < 1 {
		return errs.Config("system", "must be positive, got %d", s.SystemN)
	}
	if _, _, err := s.InitialLoadModel(); err != nil {
		return err
	}
	return nil
}

// Steps 总步数 ceil(TLen/TS)，扣除浮点误差
func (s Simulation) Steps() int {
	return int(math.Ceil(s.TLen/s.TS - 1e-6))
}

// CatalogPath 运行记录库路径
func (c *Config) CatalogPath() string {
	if c.Catalog.Path != "" {
		return c.Catalog.Path
	}
	return filepath.Join(c.Simulation.OutputDir, "catalog.db")
}

func applyEnvOverrides(c *Config) error {
	s := &c.Simulation
	floatVar := func(name string, dst *float64) error {
		if v := os.Getenv(name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return errs.Config(name, "invalid number %q", v)
			}
			*dst = f
		}
		return nil
	}
	intVar := func(name string, dst *int) error {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return errs.Config(name, "invalid integer %q", v)
			}
			*dst = n
		}
		return nil
	}
	strVar := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	for _, f := range []struct {
		name string
		dst  *float64
	}{{"EMT_TS", &s.TS}, {"EMT_TLEN", &s.TLen}} {
		if err := floatVar(f.name, f.dst); err != nil {
			return err
		}
	}
	for _, f := range []struct {
		name string
		dst  *int
	}{{"EMT_DS_RATE", &s.DSRate}, {"EMT_PARTITIONS", &s.Partitions}, {"EMT_SYSTEM", &s.SystemN}, {"EMT_PARALLEL", &s.Parallel}} {
		if err := intVar(f.name, f.dst); err != nil {
			return err
		}
	}
	strVar("EMT_NET_MODE", &s.NetMode)
	strVar("EMT_MODE", &s.Mode)
	strVar("EMT_OUTPUT_DIR", &s.OutputDir)
	strVar("EMT_CASE_DIR", &s.CaseDir)
	strVar("EMT_LOAD_MODEL", &s.LoadModel)
	strVar("EMT_LOG_LEVEL", &c.Logging.Level)
	strVar("EMT_LOG_FORMAT", &c.Logging.Format)
	strVar("EMT_CATALOG", &c.Catalog.Path)
	if v := os.Getenv("EMT_SCENARIOS"); v != "" {
		var names []string
		for _, n := range strings.Split(v, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
		s.Scenarios = names
	}
	return nil
}
