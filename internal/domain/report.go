package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	StatusProcessed = "processed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

const (
	ErrCodeFetchFailed    = "fetch_failed"
	ErrCodeParseFailed    = "parse_failed"
	ErrCodeExpandFailed   = "expand_failed"
	ErrCodeIOFailed       = "io_failed"
	ErrCodeSchemaInvalid  = "schema_invalid"
	ErrCodeConfigNotFound = "config_not_found"
	ErrCodeConfigInvalid  = "config_invalid"
)

// RunReport 是对外稳定输出（stdout JSON）的结构。
type RunReport struct {
	RunID     string `json:"run_id"`
	OutputDir string `json:"output_dir"`
	DryRun    bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Pages   []PageResult  `json:"pages"`
}

type ReportSummary struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Tracks    int `json:"tracks"`
}

// PageResult 是单个音乐室页面的处理结果。Page=="" 表示合成项（例如配置错误、页面列表获取失败）。
type PageResult struct {
	Page    string `json:"page"`
	Game    string `json:"game"`
	Release string `json:"release"`
	Output  string `json:"output"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	Tracks int `json:"tracks"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) pages 稳定排序：按 page 字典序；page=="" 的条目排在最后
// 3) summary 由 pages 计算得出
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Pages, func(i, j int) bool {
		a := r.Pages[i].Page
		b := r.Pages[j].Page
		if a == "" {
			return false
		}
		if b == "" {
			return true
		}
		return a < b
	})

	var s ReportSummary
	for _, p := range r.Pages {
		switch p.Status {
		case StatusProcessed:
			s.Processed++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
		s.Tracks += p.Tracks
	}
	r.Summary = s
}

// MarshalJSON 仅用于集中约束输出的稳定性。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	if r.Pages == nil {
		r.Pages = []PageResult{}
	}
	return json.Marshal(Alias(r))
}
