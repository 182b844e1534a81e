package musicroom

import (
	"context"
	"strings"

	"github.com/John-Robertt/thbost/internal/domain"
	"github.com/John-Robertt/thbost/internal/wikitext"
)

// evaluator 持有一遍展开所需的依赖；每一遍使用各自独立的 Batch。
type evaluator struct {
	exp   Expander
	opts  Options
	batch Batch
}

func (e *evaluator) resolve(ctx context.Context, size int) error {
	if e.batch.Len() == 0 {
		return nil
	}
	e.opts.Logger.Debug("展开模板", "snippets", e.batch.Len(), "batch_size", size)
	return e.batch.Resolve(ctx, e.exp, size)
}

// substitute 回填展开结果，并按需转成纯文本。
func (e *evaluator) substitute(snippet string) (string, error) {
	v, err := e.batch.Substitute(snippet)
	if err != nil {
		return "", err
	}
	if e.opts.PlainText != nil {
		return e.opts.PlainText(v)
	}
	return v, nil
}

// EvaluateTitles 展开标题模板：每个标题模板以 zh/ja/en 三种语言代码各请求一次，
// 结果分别写入 title.zh-hans / title.ja / title.en。linked-page 的 page 含模板时，page 与 text 一并展开；
// page 不含模板时两者都保留原文。
func EvaluateTitles(ctx context.Context, tracks []domain.TrackRecord, exp Expander, opts Options) error {
	opts = opts.normalized()
	e := &evaluator{exp: exp, opts: opts}

	for _, t := range tracks {
		if tt := t.Extra.Thbwiki.TitleTemplate; tt != nil {
			m := Macro{Name: tt.Name, TrackID: tt.TrackID}
			e.batch.Append(m.Snippet(LangZH))
			e.batch.Append(m.Snippet(LangJA))
			e.batch.Append(m.Snippet(LangEN))
		}
		if lp := t.Extra.Thbwiki.LinkedPage; linkNeedsExpansion(lp) {
			e.batch.Append(lp.Page)
			e.batch.Append(lp.Text)
		}
	}
	if err := e.resolve(ctx, opts.BatchSize); err != nil {
		return &ExpandError{Pass: "title", Err: err}
	}

	for i := range tracks {
		t := &tracks[i]
		if tt := t.Extra.Thbwiki.TitleTemplate; tt != nil {
			m := Macro{Name: tt.Name, TrackID: tt.TrackID}
			var err error
			if t.Title.ZhHans, err = e.substitute(m.Snippet(LangZH)); err != nil {
				return &ExpandError{Pass: "title", Err: err}
			}
			if t.Title.Ja, err = e.substitute(m.Snippet(LangJA)); err != nil {
				return &ExpandError{Pass: "title", Err: err}
			}
			if t.Title.En, err = e.substitute(m.Snippet(LangEN)); err != nil {
				return &ExpandError{Pass: "title", Err: err}
			}
		}
		if lp := t.Extra.Thbwiki.LinkedPage; linkNeedsExpansion(lp) {
			expanded := *lp
			for _, s := range []*string{&expanded.Page, &expanded.Text} {
				v, err := e.substitute(*s)
				if err != nil {
					return &ExpandError{Pass: "title", Err: err}
				}
				*s = v
			}
			t.Extra.Thbwiki.LinkedPage = &expanded
		}
	}
	return nil
}

func linkNeedsExpansion(lp *domain.LinkedPage) bool {
	return lp != nil && strings.Contains(lp.Page, "{{")
}

// EvaluateCategories 展开角色/场景条目中的模板：条目替换为其（最后一个）模板的展开结果。
func EvaluateCategories(ctx context.Context, tracks []domain.TrackRecord, exp Expander, opts Options) error {
	opts = opts.normalized()
	e := &evaluator{exp: exp, opts: opts}

	eachItem(tracks, func(item *string) {
		for _, tpl := range wikitext.Parse(*item).Templates() {
			e.batch.Append(tpl.Raw)
		}
	})
	if err := e.resolve(ctx, opts.BatchSize); err != nil {
		return &ExpandError{Pass: "category", Err: err}
	}

	var firstErr error
	eachItem(tracks, func(item *string) {
		tpls := wikitext.Parse(*item).Templates()
		if len(tpls) == 0 || firstErr != nil {
			return
		}
		v, err := e.substitute(tpls[len(tpls)-1].Raw)
		if err != nil {
			firstErr = &ExpandError{Pass: "category", Err: err}
			return
		}
		*item = v
	})
	return firstErr
}

func eachItem(tracks []domain.TrackRecord, fn func(item *string)) {
	for i := range tracks {
		ctx := &tracks[i].Context
		for _, list := range [][]string{ctx.CharacterList.ZhHans, ctx.ScenarioList.ZhHans} {
			for j := range list {
				fn(&list[j])
			}
		}
	}
}

// EvaluateSources 展开按源文件评论中含模板的文本（默认每次只发一个片段）。
func EvaluateSources(ctx context.Context, tracks []domain.TrackRecord, exp Expander, opts Options) error {
	opts = opts.normalized()
	e := &evaluator{exp: exp, opts: opts}

	eachSourceText(tracks, func(s *string) {
		if hasTemplate(*s) {
			e.batch.Append(*s)
		}
	})
	if err := e.resolve(ctx, opts.SourceBatchSize); err != nil {
		return &ExpandError{Pass: "source", Err: err}
	}

	var firstErr error
	eachSourceText(tracks, func(s *string) {
		if firstErr != nil || !hasTemplate(*s) {
			return
		}
		v, err := e.substitute(*s)
		if err != nil {
			firstErr = &ExpandError{Pass: "source", Err: err}
			return
		}
		*s = v
	})
	return firstErr
}

func hasTemplate(s string) bool {
	return strings.Contains(s, "{{") && strings.Contains(s, "}}")
}

func eachSourceText(tracks []domain.TrackRecord, fn func(s *string)) {
	for i := range tracks {
		notes, ok := tracks[i].Notes.(domain.SourceNotes)
		if !ok {
			continue
		}
		for j := range notes.Buckets {
			md := &notes.Buckets[j].Metadata
			fn(&md.Ja)
			fn(&md.ZhHans)
		}
	}
}
