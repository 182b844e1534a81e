package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/thbost/internal/app/run"
	"github.com/John-Robertt/thbost/internal/config"
	"github.com/John-Robertt/thbost/internal/domain"
	"github.com/John-Robertt/thbost/internal/infra/fsx"
)

var runCmd = &cobra.Command{
	Use:   "run [page...]",
	Short: "处理音乐室页面并写出 TOML 文档",
	Long: `处理给定的音乐室页面（例如 "东方红魔乡/Music"）；不给页面时处理分类下的全部页面。

stdout 是终端时打印摘要；否则 stdout 只输出一个 RunReport JSON（日志与进度走 stderr）。
非 dry-run 时报告同时写入 <cache_dir>/report.json。`,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.String("output-dir", "", "TOML 输出目录")
	f.Int("concurrency", 1, "并发处理的页面数（1..16）")
	f.Int("batch-size", 40, "标题/分类展开的每批片段数")
	f.Bool("dry-run", false, "只解析与校验，不写出文档")
	f.Bool("offline", false, "只使用缓存，不访问网络")
	f.Bool("skip-existing", false, "输出文件已存在时跳过该页面")
	f.Bool("plain-text", true, "把展开结果中的 HTML 转为纯文本")
}

func runRun(cmd *cobra.Command, args []string) error {
	runID := uuid.NewString()

	eff, err := loadConfig(cmd)
	if err != nil {
		emitReport(reportForSetupError(runID, config.Code(err), err))
		return exitCode(1)
	}
	logger := newLogger(eff, runID)
	logger.Debug("配置已加载", "config", eff.ConfigPath, "api_url", eff.APIURL, "output_dir", eff.OutputDir)

	deps, err := run.Wire(eff, runID, logger)
	if err != nil {
		emitReport(reportForSetupError(runID, domain.ErrCodeConfigInvalid, err))
		return exitCode(1)
	}

	progressW, interactive := pickProgressWriter()
	var obs run.Observer
	if interactive {
		obs = newProgressUI(progressW)
	}

	rr := run.ExecuteWithObserver(cmd.Context(), eff, deps, args, obs)

	if !eff.DryRun {
		if err := writeReportFile(eff.CacheDir, rr); err != nil {
			logger.Error("写入 report.json 失败", "err", err)
			emitReport(rr)
			return exitCode(1)
		}
	}

	emitReport(rr)
	if interactive {
		emitLocations(progressW, eff)
	}
	if rr.Summary.Failed == 0 {
		return nil
	}
	return exitCode(1)
}

func emitReport(rr domain.RunReport) {
	if isTTY(os.Stdout) {
		fmt.Fprintf(os.Stdout, "完成：processed=%d skipped=%d failed=%d tracks=%d\n",
			rr.Summary.Processed, rr.Summary.Skipped, rr.Summary.Failed, rr.Summary.Tracks,
		)
		if rr.Summary.Failed > 0 {
			printFailures(os.Stderr, rr)
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON（日志/摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(rr)
	fmt.Fprintf(os.Stderr, "完成：processed=%d skipped=%d failed=%d tracks=%d\n",
		rr.Summary.Processed, rr.Summary.Skipped, rr.Summary.Failed, rr.Summary.Tracks,
	)
}

func printFailures(w io.Writer, rr domain.RunReport) {
	for _, p := range rr.Pages {
		if p.Status != domain.StatusFailed {
			continue
		}
		key := p.Page
		if key == "" {
			key = "<run>"
		}
		fmt.Fprintf(w, "%s %s: %s\n", key, p.ErrorCode, p.ErrorMsg)
	}
}

func reportForSetupError(runID, code string, err error) domain.RunReport {
	if code == "" {
		code = domain.ErrCodeConfigInvalid
	}
	now := time.Now().UTC()
	rr := domain.RunReport{
		RunID:      runID,
		StartedAt:  now,
		FinishedAt: now,
		Pages: []domain.PageResult{{
			Status:    domain.StatusFailed,
			ErrorCode: code,
			ErrorMsg:  err.Error(),
		}},
	}
	rr.Finalize()
	return rr
}

func writeReportFile(cacheDir string, rr domain.RunReport) error {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomic(cacheDir, "report.json", b)
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}

func emitLocations(w io.Writer, eff config.EffectiveConfig) {
	if w == nil {
		return
	}
	if !eff.DryRun {
		fmt.Fprintf(w, "report: %s\n", filepath.Join(eff.CacheDir, "report.json"))
	}
	fmt.Fprintf(w, "out: %s\n", eff.OutputDir)
}
