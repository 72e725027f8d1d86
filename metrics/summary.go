package metrics

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"emt/errs"
	"emt/logging"
	"emt/trajectory"
)

// Header 汇总表列名
var Header = []string{
	"Scenario", "Duration_s", "Timesteps", "Mean", "Min", "Max", "Std", "NadirDepth", "MaxRoCoF", "SettlingTime_s",
}

// Skipped 未能汇总的场景
type Skipped struct {
	Scenario string
	Err      error
}

// Summary 汇总结果，Rows 保持输入场景顺序
type Summary struct {
	Rows    []Row
	Skipped []Skipped
}

// Summarize 逐个场景读取结果文件并计算指标。
// 结果文件缺失或数据形状不符的场景记录到 Skipped 后跳过，其余错误直接返回。
func Summarize(store trajectory.Store, systemN int, ts float64, names []string, log *slog.Logger) (*Summary, error) {
	if log == nil {
		log = logging.Discard()
	}
	sum := &Summary{}
	for _, name := range names {
		key := trajectory.Key{SystemN: systemN, TS: ts, Tag: name}
		res, err := store.LoadResults(name, key)
		if err == nil {
			var row Row
			if row, err = FromResults(res); err == nil {
				log.Info("metrics extracted", "scenario", name, "samples", row.Timesteps)
				sum.Rows = append(sum.Rows, row)
				continue
			}
		}
		if !errors.Is(err, errs.ErrMissing) && !errors.Is(err, errs.ErrDataShape) {
			return nil, err
		}
		log.Warn("scenario skipped", "scenario", name, "error", err)
		sum.Skipped = append(sum.Skipped, Skipped{Scenario: name, Err: err})
	}
	return sum, nil
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

func (r Row) record() []string {
	settling := ""
	if r.Settling != nil {
		settling = formatFloat(*r.Settling)
	}
	return []string{
		r.Scenario,
		formatFloat(r.Duration),
		strconv.Itoa(r.Timesteps),
		formatFloat(r.Mean),
		formatFloat(r.Min),
		formatFloat(r.Max),
		formatFloat(r.Std),
		formatFloat(r.NadirDepth),
		formatFloat(r.MaxRoCoF),
		settling,
	}
}

// WriteCSV 写出 CSV 汇总表，未稳定的场景 SettlingTime_s 为空
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV 写出汇总表文件
func SaveCSV(path string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	if err := WriteCSV(f, rows); err != nil {
		f.Close()
		return fmt.Errorf("write metrics file: %w", err)
	}
	return f.Close()
}

// WriteTable 以对齐文本表格打印汇总
func WriteTable(w io.Writer, rows []Row) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No metrics extracted.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	line := func(cells []string) {
		for _, c := range cells {
			fmt.Fprint(tw, c, "\t")
		}
		fmt.Fprintln(tw)
	}
	line(Header)
	for _, r := range rows {
		fixed := func(f float64) string { return strconv.FormatFloat(f, 'f', 6, 64) }
		settling := "-"
		if r.Settling != nil {
			settling = fixed(*r.Settling)
		}
		line([]string{
			r.Scenario, fixed(r.Duration), strconv.Itoa(r.Timesteps), fixed(r.Mean), fixed(r.Min),
			fixed(r.Max), fixed(r.Std), fixed(r.NadirDepth), fixed(r.MaxRoCoF), settling,
		})
	}
	return tw.Flush()
}
