package cases

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"emt/errs"
)

// 网络数据变体
const (
	VariantBase  = ""      // 基础数据
	VariantStiff = "stiff" // 强电网：线路阻抗减半
)

// stiffFactor 强电网变体的线路阻抗缩放系数
const stiffFactor = 0.5

// Provider 案例与初始化能力
type Provider interface {
	// Case 返回指定规模、分区数和数据变体的案例，每次调用返回独立副本
	Case(systemN, partitions int, variant string) (*Case, error)
}

// Builtin 内置案例
type Builtin struct{}

// Case 实现 Provider
func (Builtin) Case(systemN, partitions int, variant string) (*Case, error) {
	var c *Case
	switch systemN {
	case 3:
		c = System3()
	case 6:
		c = System6()
	default:
		return nil, errs.Config("system", "no built-in case for system %d", systemN)
	}
	c.Partitions = partitions
	if err := applyVariant(c, variant); err != nil {
		return nil, err
	}
	return c, nil
}

// FileProvider 从目录读取 system{N}.yaml
type FileProvider struct {
	Dir string
}

// Case 实现 Provider
func (p FileProvider) Case(systemN, partitions int, variant string) (*Case, error) {
	c, err := LoadFile(filepath.Join(p.Dir, fmt.Sprintf("system%d.yaml", systemN)))
	if err != nil {
		return nil, err
	}
	if c.SystemN != 0 && c.SystemN != systemN {
		return nil, errs.Config("system", "case file declares system %d, requested %d", c.SystemN, systemN)
	}
	c.SystemN = systemN
	c.Partitions = partitions
	if err := applyVariant(c, variant); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFile 读取 YAML 案例文件
func LoadFile(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read case file: %w", err)
	}
	c := &Case{Freq: 60, BaseMVA: 100, MeasureTf: 0.02, FaultCapable: true}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errs.Config("case", "parse %s: %v", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Save 写出 YAML 案例文件
func Save(path string, c *Case) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal case: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func applyVariant(c *Case, variant string) error {
	switch variant {
	case VariantBase:
	case VariantStiff:
		for i := range c.Branches {
			c.Branches[i].R *= stiffFactor
			c.Branches[i].X *= stiffFactor
		}
	default:
		return errs.Config("variant", "unknown network variant %q", variant)
	}
	return nil
}
