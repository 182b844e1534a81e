package musicroom

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/John-Robertt/thbost/internal/domain"
)

// Interpret 把一个曲目块的条目解释为 TrackRecord（标题模板与分类尚未展开）。
//
// 规则：
//   - category 条目的参数行依次追加到 extra.thbwiki.category。
//   - 标题条目必须恰有一个参数；含模板的交给 ParseMacro，含内链标记的去掉 "[[" "]]"，其余原样。
//   - composer 取最后一个条目，参数行以换行拼接。
//   - mp3 与未知条目忽略。
//   - 评论形态由 isPerSource 决定，二选一。
func Interpret(fields []Field, logger *slog.Logger) (domain.TrackRecord, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var rec domain.TrackRecord
	for _, f := range fields {
		switch f.Key() {
		case KeyCategory:
			rec.Extra.Thbwiki.Category.ZhHans = append(rec.Extra.Thbwiki.Category.ZhHans, f.Args...)
		case KeyTitleJA:
			v, err := interpretTitle(&rec, f, LangJA)
			if err != nil {
				return domain.TrackRecord{}, err
			}
			if v != "" {
				rec.Title.Ja = v
			}
		case KeyTitleZH:
			v, err := interpretTitle(&rec, f, LangZH)
			if err != nil {
				return domain.TrackRecord{}, err
			}
			if v != "" {
				rec.Title.ZhHans = v
			}
		case KeyComposer:
			rec.Composer.Ja = f.Text()
		}
	}

	if isPerSource(fields) {
		notes, err := sourceNotes(fields, logger)
		if err != nil {
			return domain.TrackRecord{}, &ParseError{Key: "source", Err: err}
		}
		rec.Notes = notes
	} else {
		rec.Notes = commonNotes(fields)
	}
	return rec, nil
}

// interpretTitle 返回字段的字面标题；字段为模板时写入 extra 并返回空串。
func interpretTitle(rec *domain.TrackRecord, f Field, lang int) (string, error) {
	if len(f.Args) != 1 {
		return "", &ParseError{Key: f.Name, Err: fmt.Errorf("%w: want 1 value, got %d", ErrMalformedEntry, len(f.Args))}
	}
	v := f.Args[0]
	switch {
	case strings.Contains(v, "{{") || strings.Contains(v, "}}"):
		m, err := ParseMacro(v)
		if err != nil {
			return "", &ParseError{Key: f.Name, Err: err}
		}
		if m.Language != lang {
			return "", &ParseError{Key: f.Name, Err: fmt.Errorf("%w: language code %d", ErrInvalidMacro, m.Language)}
		}
		rec.Extra.Thbwiki.TitleTemplate = &domain.TitleTemplate{Name: m.Name, TrackID: m.TrackID}
		if m.Linked {
			rec.Extra.Thbwiki.LinkedPage = &domain.LinkedPage{Page: m.LinkPage, Text: m.LinkText}
		}
		return "", nil
	case strings.Contains(v, "[[") || strings.Contains(v, "]]"):
		return strings.NewReplacer("[[", "", "]]", "").Replace(v), nil
	default:
		return v, nil
	}
}
