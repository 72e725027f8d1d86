// Package errs 定义仿真过程中的错误分类。
//
// 四类错误分别对应配置错误、数值发散、快照缺失和轨迹数据形状错误，
// 每一类都可以通过 errors.Is 与对应的哨兵错误匹配。
package errs

import (
	"errors"
	"fmt"
)

// 哨兵错误
var (
	ErrConfiguration = errors.New("configuration error")
	ErrDivergence    = errors.New("numerical divergence")
	ErrMissing       = errors.New("missing artifact")
	ErrDataShape     = errors.New("data shape error")
)

// ConfigurationError 配置错误，仿真开始前报告，不重试
type ConfigurationError struct {
	Field  string // 出错字段
	Reason string // 原因
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// Config 快速构造配置错误
func Config(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NumericalDivergence 网络求解得到非有限值或求解失败，仅终止当前场景
type NumericalDivergence struct {
	Scenario string  // 场景名称
	Step     int     // 步序号
	Time     float64 // 仿真时间
	Bus      int     // 首个异常母线索引，-1 表示求解器自身失败
	Err      error   // 底层错误
}

func (e *NumericalDivergence) Error() string {
	msg := fmt.Sprintf("numerical divergence in %s at step %d (t=%.6f s)", e.Scenario, e.Step, e.Time)
	if e.Bus >= 0 {
		msg += fmt.Sprintf(", bus index %d", e.Bus)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NumericalDivergence) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDivergence}
	}
	return []error{ErrDivergence, e.Err}
}

// MissingArtifact 恢复运行引用的快照不存在
type MissingArtifact struct {
	Scenario string
	Path     string
	Err      error
}

func (e *MissingArtifact) Error() string {
	return fmt.Sprintf("missing artifact for %s: %s", e.Scenario, e.Path)
}

func (e *MissingArtifact) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMissing}
	}
	return []error{ErrMissing, e.Err}
}

// DataShapeError 轨迹缺少字段或时间序列为空
type DataShapeError struct {
	Scenario string
	Reason   string
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("data shape error in %s: %s", e.Scenario, e.Reason)
}

func (e *DataShapeError) Unwrap() error { return ErrDataShape }
