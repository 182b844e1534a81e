package planner

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/John-Robertt/thbost/internal/domain"
	"github.com/John-Robertt/thbost/internal/infra/fsx"
)

// Releases 是发行表的只读查询面（通常为 *release.Table）。
type Releases interface {
	ByTitle(game string) (domain.Release, bool)
}

// GameOf 返回页面标题中第一个 "/" 之前的部分（例如 "东方红魔乡/Music" -> "东方红魔乡"）。
func GameOf(page string) string {
	game, _, _ := strings.Cut(page, "/")
	return strings.TrimSpace(game)
}

// PlanPage 为一个音乐室页面生成确定性的输出计划（只读 stat，不做任何写入）。
//
// 规则：
// - 发行表命中：文件名为 TH<release>.toml
// - 未命中：文件名为 <game>.toml
// - Exists 表示目标路径上已有普通文件
// - 出错时返回的计划仍带 Page（以及已算出的字段）
func PlanPage(outDir, page string, releases Releases) (domain.PagePlan, error) {
	game := GameOf(page)
	if game == "" {
		return domain.PagePlan{Page: page}, fmt.Errorf("页面标题无法得到作品名：%q", page)
	}

	plan := domain.PagePlan{Page: page, Game: game}
	if releases != nil {
		plan.Release, plan.Matched = releases.ByTitle(game)
	}
	if plan.Matched {
		plan.OutputName = "TH" + plan.Release.ID + ".toml"
	} else {
		plan.OutputName = game + ".toml"
	}
	return withPath(outDir, plan)
}

// Planned 是 PlanPages 的单页结果；Err 非 nil 时 Plan 只保证 Page 有效。
type Planned struct {
	Plan domain.PagePlan
	Err  error
}

// PlanPages 为一组页面生成计划，并保证同一次运行中输出文件名互不相同。
//
// 规则：
// - 结果按页面标题排序
// - 多个页面落到同一文件名时，后出现者改名为 <base>__2.toml、<base>__3.toml ...
// - 单页失败（例如目标路径是目录）只影响该页
func PlanPages(outDir string, pages []string, releases Releases) []Planned {
	sorted := append([]string(nil), pages...)
	sort.Strings(sorted)

	out := make([]Planned, 0, len(sorted))
	used := make(map[string]struct{}, len(sorted))
	for _, page := range sorted {
		plan, err := PlanPage(outDir, page, releases)
		if err != nil {
			out = append(out, Planned{Plan: plan, Err: err})
			continue
		}
		if name := allocName(plan.OutputName, used); name != plan.OutputName {
			plan.OutputName = name
			plan, err = withPath(outDir, plan)
		}
		used[plan.OutputName] = struct{}{}
		out = append(out, Planned{Plan: plan, Err: err})
	}
	return out
}

func withPath(outDir string, plan domain.PagePlan) (domain.PagePlan, error) {
	plan.OutputPath = filepath.Join(outDir, plan.OutputName)
	exists, err := fsx.RegularFileExists(plan.OutputPath)
	plan.Exists = exists
	return plan, err
}

func allocName(name string, used map[string]struct{}) string {
	if _, ok := used[name]; !ok {
		return name
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for n := 2; ; n++ {
		cand := fmt.Sprintf("%s__%d%s", base, n, ext)
		if _, ok := used[cand]; !ok {
			return cand
		}
	}
}
