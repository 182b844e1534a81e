package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/thbost/internal/app/planner"
	"github.com/John-Robertt/thbost/internal/config"
	"github.com/John-Robertt/thbost/internal/domain"
	"github.com/John-Robertt/thbost/internal/infra/fsx"
	"github.com/John-Robertt/thbost/internal/infra/htmlx"
	"github.com/John-Robertt/thbost/internal/musicroom"
	"github.com/John-Robertt/thbost/internal/output"
	"github.com/John-Robertt/thbost/internal/thbwiki"
)

// Source 是一次运行需要的 wiki 操作（通常为 thbwiki.Wiki）。
type Source interface {
	ListMusicRoomPages(ctx context.Context) ([]string, error)
	FetchPage(ctx context.Context, title string) (string, error)
	Expand(ctx context.Context, text string) (string, error)
}

// Deps 是 Execute 的外部依赖；测试中以 stub 替换。
type Deps struct {
	RunID    string
	Source   Source
	Releases planner.Releases
	Logger   *slog.Logger
}

// PageOptions 把配置映射为单页解析选项。
func PageOptions(eff config.EffectiveConfig, logger *slog.Logger) musicroom.Options {
	opts := musicroom.Options{
		BatchSize:       eff.BatchSize,
		SourceBatchSize: eff.SourceBatchSize,
		Logger:          logger,
	}
	if eff.PlainText {
		opts.PlainText = htmlx.Text
	}
	return opts
}

// Execute 执行一次 run，并返回对外稳定的 RunReport。
// pages 为空时处理分类下的全部音乐室页面。
// 该函数尽量把错误“降级”为页面级失败（单页失败不影响其他页面）。
func Execute(ctx context.Context, eff config.EffectiveConfig, deps Deps, pages []string) domain.RunReport {
	return ExecuteWithObserver(ctx, eff, deps, pages, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出进度/阶段信息（由上层决定是否启用）。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, deps Deps, pages []string, obs Observer) domain.RunReport {
	started := time.Now().UTC()
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if obs != nil {
		obs.OnStart(eff)
	}

	rr := domain.RunReport{
		RunID:     deps.RunID,
		OutputDir: eff.OutputDir,
		DryRun:    eff.DryRun,
		StartedAt: started,
		Pages:     make([]domain.PageResult, 0, 64),
	}
	finish := func() domain.RunReport {
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr
	}

	if deps.Source == nil {
		rr.Pages = append(rr.Pages, syntheticFailed(domain.ErrCodeConfigInvalid, "未配置页面来源"))
		return finish()
	}

	if len(pages) == 0 {
		listStarted := time.Now()
		listed, err := deps.Source.ListMusicRoomPages(ctx)
		if err != nil {
			msg := fmt.Sprintf("获取音乐室页面列表失败：%v", err)
			if errors.Is(err, thbwiki.ErrTruncated) {
				msg = fmt.Sprintf("音乐室页面列表被截断（超过单次查询上限）：%v", err)
			}
			rr.Pages = append(rr.Pages, syntheticFailed(domain.ErrCodeFetchFailed, msg))
			return finish()
		}
		pages = listed
		if obs != nil {
			obs.OnPhaseDone("list", map[string]any{"pages": len(pages)}, time.Since(listStarted))
		}
	}

	if !eff.DryRun {
		if err := ensureDir(eff.OutputDir); err != nil {
			rr.Pages = append(rr.Pages, syntheticFailed(domain.ErrCodeIOFailed, fmt.Sprintf("创建输出目录失败：%v", err)))
			return finish()
		}
	}

	planStarted := time.Now()
	planned := planner.PlanPages(eff.OutputDir, pages, deps.Releases)
	if obs != nil {
		var matched, exists int
		for _, p := range planned {
			if p.Plan.Matched {
				matched++
			}
			if p.Plan.Exists {
				exists++
			}
		}
		obs.OnPhaseDone("plan", map[string]any{
			"pages":   len(planned),
			"matched": matched,
			"exists":  exists,
		}, time.Since(planStarted))
	}

	// 执行阶段：按页面并发（errgroup 限流），页面内串行。
	workers := eff.Concurrency
	if workers < 1 {
		workers = 1
	}
	if obs != nil {
		obs.OnPhaseDone("exec", map[string]any{
			"workers":     workers,
			"total_pages": len(planned),
		}, 0)
	}

	var (
		mu   sync.Mutex
		done int
		g    errgroup.Group
	)
	g.SetLimit(workers)
	for _, p := range planned {
		g.Go(func() error {
			oneStarted := time.Now()
			res := execOne(ctx, eff, deps.Source, p, logger.With("page", p.Plan.Page))
			dur := time.Since(oneStarted)

			mu.Lock()
			defer mu.Unlock()
			done++
			rr.Pages = append(rr.Pages, res)
			if obs != nil {
				obs.OnPageDone(done, len(planned), res, dur)
			}
			return nil
		})
	}
	_ = g.Wait()

	return finish()
}

func syntheticFailed(code, msg string) domain.PageResult {
	return domain.PageResult{
		Status:    domain.StatusFailed,
		ErrorCode: code,
		ErrorMsg:  msg,
	}
}

func execOne(ctx context.Context, eff config.EffectiveConfig, src Source, p planner.Planned, logger *slog.Logger) domain.PageResult {
	plan := p.Plan
	res := domain.PageResult{
		Page:   plan.Page,
		Game:   plan.Game,
		Output: plan.OutputPath,
		Status: domain.StatusProcessed, // 失败时覆盖
	}
	if plan.Matched {
		res.Release = "TH" + plan.Release.ID
	}
	fail := func(code string, err error) domain.PageResult {
		res.Status = domain.StatusFailed
		res.ErrorCode = code
		res.ErrorMsg = err.Error()
		res.Tracks = 0
		logger.Warn("页面处理失败", "error_code", code, "err", err)
		return res
	}

	if p.Err != nil {
		return fail(domain.ErrCodeIOFailed, fmt.Errorf("规划失败：%w", p.Err))
	}
	if eff.SkipExisting && plan.Exists {
		res.Status = domain.StatusSkipped
		return res
	}

	text, err := src.FetchPage(ctx, plan.Page)
	if err != nil {
		return fail(domain.ErrCodeFetchFailed, err)
	}

	tracks, err := musicroom.ParsePage(ctx, text, src, PageOptions(eff, logger))
	if err != nil {
		return fail(classify(err), err)
	}
	if len(tracks) == 0 {
		return fail(domain.ErrCodeParseFailed, errors.New("页面中没有任何曲目"))
	}
	res.Tracks = len(tracks)

	doc := domain.NewGameDocument(plan, tracks)
	if err := output.Validate(doc); err != nil {
		return fail(domain.ErrCodeSchemaInvalid, err)
	}
	if eff.DryRun {
		return res
	}
	if err := output.WriteTOML(eff.OutputDir, plan.OutputName, doc); err != nil {
		return fail(domain.ErrCodeIOFailed, err)
	}
	logger.Info("已写入", "output", plan.OutputPath, "tracks", res.Tracks)
	return res
}

// classify 把单页解析/展开错误映射为 error_code。
func classify(err error) string {
	var (
		pe *musicroom.ParseError
		ee *musicroom.ExpandError
		se *output.SchemaError
	)
	switch {
	case errors.As(err, &ee):
		return domain.ErrCodeExpandFailed
	case errors.As(err, &pe):
		return domain.ErrCodeParseFailed
	case errors.As(err, &se):
		return domain.ErrCodeSchemaInvalid
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domain.ErrCodeFetchFailed
	default:
		return domain.ErrCodeParseFailed
	}
}

func ensureDir(dir string) error {
	fi, err := os.Stat(dir)
	if err == nil {
		if fi.IsDir() {
			return nil
		}
		return &fsx.PathTypeConflictError{Path: dir, Want: "dir", Got: "file"}
	}
	if !os.IsNotExist(err) {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}
