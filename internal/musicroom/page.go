package musicroom

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/John-Robertt/thbost/internal/domain"
)

// Options 控制一个页面的解析与展开。零值可用。
type Options struct {
	// Keyword 是曲目块分段关键字；空串表示 DefaultKeyword。
	Keyword string
	// BatchSize 用于标题与分类两遍展开；<=0 表示 DefaultBatchSize。
	BatchSize int
	// SourceBatchSize 用于按源文件评论的展开；<=0 表示 1。
	SourceBatchSize int
	// PlainText 非 nil 时作用于每个展开结果。
	PlainText func(string) (string, error)

	Logger *slog.Logger
}

func (o Options) normalized() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.SourceBatchSize <= 0 {
		o.SourceBatchSize = 1
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// ParsePage 把一个音乐室页面的 wikitext 解析为曲目列表。
//
// 流程：分段 -> 条目解释 -> 分类 ->（exp 非 nil 时）标题/分类/源文件三遍展开。
// 任何一步出错都使整个页面失败，不返回部分结果。
func ParsePage(ctx context.Context, text string, exp Expander, opts Options) ([]domain.TrackRecord, error) {
	opts = opts.normalized()

	tracks := []domain.TrackRecord{}
	lines := strings.Split(text, "\n")
	dropped := func(n int) {
		opts.Logger.Debug("丢弃未闭合的曲目块", "lines", n)
	}
	for block := range splitTracks(slices.Values(lines), opts.Keyword, dropped) {
		rec, err := Interpret(Fields(SplitEntries(block)), opts.Logger)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Track = len(tracks)
				return nil, pe
			}
			return nil, &ParseError{Track: len(tracks), Err: err}
		}
		rec.Context = Classify(rec.Extra.Thbwiki.Category.ZhHans, opts.Logger)
		tracks = append(tracks, rec)
	}
	opts.Logger.Debug("解析曲目", "tracks", len(tracks))

	if exp == nil {
		return tracks, nil
	}
	if err := EvaluateTitles(ctx, tracks, exp, opts); err != nil {
		return nil, err
	}
	if err := EvaluateCategories(ctx, tracks, exp, opts); err != nil {
		return nil, err
	}
	if err := EvaluateSources(ctx, tracks, exp, opts); err != nil {
		return nil, err
	}
	return tracks, nil
}
