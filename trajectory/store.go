package trajectory

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"emt/errs"
	"emt/integrator"
)

// Key 输出文件命名要素：网络规模、步长（微秒）与场景标签
type Key struct {
	SystemN int
	TS      float64
	Tag     string
}

func (k Key) micros() int64 { return int64(math.Round(k.TS * 1e6)) }

// SnapshotName 全量快照文件名
func (k Key) SnapshotName() string {
	return fmt.Sprintf("sim_snp_S%d_%du_%s.gob", k.SystemN, k.micros(), k.Tag)
}

// PointName 单点快照文件名
func (k Key) PointName() string {
	return fmt.Sprintf("sim_snp_S%d_%du_1pt_%s.gob", k.SystemN, k.micros(), k.Tag)
}

// ResultsName 结果文件名
func (k Key) ResultsName() string {
	return fmt.Sprintf("sim_res_S%d_%du_%s.json", k.SystemN, k.micros(), k.Tag)
}

// Meta 快照来源信息，恢复时用于匹配
type Meta struct {
	Scenario string
	SystemN  int
	TS       float64
	Step     int
	Time     float64
}

// Point 单点快照：仅最后一步的状态，用于续算
type Point struct {
	Meta
	State *integrator.State
}

// Snapshot 全量快照：最后状态加完整轨迹记录
type Snapshot struct {
	Meta
	State  *integrator.State
	Record *Record
}

// Store 输出目录
type Store struct {
	Dir string
}

// Path 文件完整路径
func (s Store) Path(name string) string { return filepath.Join(s.Dir, name) }

// SavePoint 写出单点快照
func (s Store) SavePoint(k Key, p *Point) error {
	return s.write(k.PointName(), func(w io.Writer) error { return gob.NewEncoder(w).Encode(p) })
}

// SaveSnapshot 写出全量快照
func (s Store) SaveSnapshot(k Key, snap *Snapshot) error {
	return s.write(k.SnapshotName(), func(w io.Writer) error { return gob.NewEncoder(w).Encode(snap) })
}

// SaveResults 写出结果文件
func (s Store) SaveResults(k Key, res *Results) error {
	return s.write(k.ResultsName(), func(w io.Writer) error { return json.NewEncoder(w).Encode(res) })
}

// LoadPoint 读取单点快照，文件不存在时返回 MissingArtifact
func (s Store) LoadPoint(scenario string, k Key) (*Point, error) {
	p := &Point{}
	if err := s.read(scenario, k.PointName(), func(r io.Reader) error { return gob.NewDecoder(r).Decode(p) }); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadSnapshot 读取全量快照
func (s Store) LoadSnapshot(scenario string, k Key) (*Snapshot, error) {
	snap := &Snapshot{}
	if err := s.read(scenario, k.SnapshotName(), func(r io.Reader) error { return gob.NewDecoder(r).Decode(snap) }); err != nil {
		return nil, err
	}
	return snap, nil
}

// LoadResults 读取结果文件
func (s Store) LoadResults(scenario string, k Key) (*Results, error) {
	res := &Results{}
	if err := s.read(scenario, k.ResultsName(), func(r io.Reader) error { return json.NewDecoder(r).Decode(res) }); err != nil {
		return nil, err
	}
	if res.Scenario == "" {
		res.Scenario = scenario
	}
	return res, nil
}

// write 先写临时文件再改名，避免留下半截文件
func (s Store) write(name string, encode func(io.Writer) error) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := s.Path(name)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if err := encode(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

func (s Store) read(scenario, name string, decode func(io.Reader) error) error {
	path := s.Path(name)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &errs.MissingArtifact{Scenario: scenario, Path: path, Err: err}
		}
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()
	if err := decode(f); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
