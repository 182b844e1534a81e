package musicroom

import (
	"log/slog"
	"strings"

	"github.com/John-Robertt/thbost/internal/domain"
	"github.com/John-Robertt/thbost/internal/wikitext"
)

var (
	locationIndicators  = []string{"面", "boss", "场景", "对话曲", "对话用曲", "ending", "角色选择画面"}
	characterIndicators = []string{"角色", "路线", "过场曲"}
)

// Classify 把分类行拆成条目并分到角色列表与场景列表。
//
// 规则：
//   - 空格与换行都是分隔符；"路线" 之后强制断开。
//   - 小写后含角色指示词的归角色（优先），含场景指示词的归场景，其余待定。
//   - 待定条目：已有角色条目则归场景；否则已有场景条目则归角色；否则含内链的归角色，其余归场景。
//   - 条目含内链时，每个内链的目标页各成一项；否则原样保留。
//   - 空条目丢弃。
//
// 每个条目的归属以 debug 级别记录；logger 为 nil 时使用 slog.Default()。
func Classify(lines []string, logger *slog.Logger) domain.Context {
	if logger == nil {
		logger = slog.Default()
	}

	s := strings.Join(lines, "\n")
	s = strings.ReplaceAll(s, " ", "\n")
	s = strings.ReplaceAll(s, "路线", "路线\n")

	var chars, locs, ambiguous []string
	for _, item := range strings.Split(s, "\n") {
		if strings.TrimSpace(item) == "" {
			continue
		}
		lower := strings.ToLower(item)
		switch {
		case containsAny(lower, characterIndicators):
			logger.Debug("分类条目", "item", item, "route", "character", "by", "indicator")
			chars = append(chars, item)
		case containsAny(lower, locationIndicators):
			logger.Debug("分类条目", "item", item, "route", "scenario", "by", "indicator")
			locs = append(locs, item)
		default:
			ambiguous = append(ambiguous, item)
		}
	}

	for _, item := range ambiguous {
		switch {
		case len(chars) > 0:
			logger.Debug("分类条目", "item", item, "route", "scenario", "by", "has_character")
			locs = append(locs, item)
		case len(locs) > 0:
			logger.Debug("分类条目", "item", item, "route", "character", "by", "has_scenario")
			chars = append(chars, item)
		case strings.Contains(item, "[[") && strings.Contains(item, "]]"):
			logger.Debug("分类条目", "item", item, "route", "character", "by", "wikilink")
			chars = append(chars, item)
		default:
			logger.Debug("分类条目", "item", item, "route", "scenario", "by", "fallback")
			locs = append(locs, item)
		}
	}

	return domain.Context{
		CharacterList: domain.LangList{ZhHans: expandLinks(chars)},
		ScenarioList:  domain.LangList{ZhHans: expandLinks(locs)},
	}
}

func expandLinks(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		links := wikitext.Parse(item).WikiLinks()
		if len(links) == 0 {
			out = append(out, item)
			continue
		}
		for _, l := range links {
			out = append(out, l.Title)
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
