package musicroom

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/John-Robertt/thbost/internal/domain"
	"github.com/John-Robertt/thbost/internal/wikitext"
)

// defaultSourceToken 是第一个 source 条目出现之前评论所归属的占位来源。
const defaultSourceToken = "wav"

// formatRules 顺序固定：小写文件名包含某个子串即命中，先到先得。
var formatRules = []struct {
	substr string
	format domain.Format
}{
	{".m2", domain.FormatFM26},
	{".m26", domain.FormatFM26},
	{".m86", domain.FormatFM86},
	{".mmd", domain.FormatMIDI},
	{".mid", domain.FormatMIDI},
	{`music\`, domain.FormatData},
	{".dat", domain.FormatData},
	{"_music.txt", domain.FormatData},
	{".m", domain.FormatFM86},
}

// FormatOf 按文件名判定源文件格式；不命中任何规则时返回 ErrUnknownFormat。
func FormatOf(name string) (domain.Format, error) {
	lower := strings.ToLower(name)
	for _, r := range formatRules {
		if strings.Contains(lower, r.substr) {
			return r.format, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// isFilenameToken 判断来源 token 是否为文件名（含 "." 或反斜杠）。
func isFilenameToken(token string) bool {
	return strings.ContainsAny(token, `.\`)
}

// splitFilenames 把来源 token 拆成文件名列表：全角逗号归一、去掉 <ref> 注释、按逗号切分并去除空白。
// 空文件名保留，交由 FormatOf 报告未知格式。
func splitFilenames(token string) []string {
	token = strings.ReplaceAll(token, "，", ",")
	token = wikitext.StripRefs(token)
	out := strings.Split(token, ",")
	for i, name := range out {
		out[i] = strings.TrimSpace(name)
	}
	return out
}

// isPerSource 判断曲目评论是否按源文件分组：某个 source 条目出现在某个 ja/zh 条目之前。
func isPerSource(fields []Field) bool {
	seenSource := false
	for _, f := range fields {
		switch f.Key() {
		case KeySource:
			seenSource = true
		case KeyJA, KeyZH:
			if seenSource {
				return true
			}
		}
	}
	return false
}

// commonNotes 取最后一个 ja / zh 条目作为共用评论。
func commonNotes(fields []Field) domain.CommonNotes {
	var n domain.CommonNotes
	for _, f := range fields {
		switch f.Key() {
		case KeyJA:
			n.Commentary.Ja = f.Text()
		case KeyZH:
			n.Commentary.ZhHans = f.Text()
		}
	}
	return n
}

// sourceNotes 按来源 token 收集评论，再按文件名格式归组。
//
// 规则：
//   - 当前来源初始为占位 token；每个恰有一个参数的 source 条目更新当前来源。
//   - ja / zh 条目写入当前来源（同来源后写覆盖先写）。
//   - 文件名 token 拆成多个文件，各自按格式归组；同组的 file_metadata 由最后写入的 token 决定。
//   - 非文件名 token 上的评论无法归入任何格式，记录 warn 后丢弃。
func sourceNotes(fields []Field, logger *slog.Logger) (domain.SourceNotes, error) {
	var order []string
	texts := map[string]*domain.LangText{}
	current := defaultSourceToken
	touch := func(token string) *domain.LangText {
		if t, ok := texts[token]; ok {
			return t
		}
		t := &domain.LangText{}
		texts[token] = t
		order = append(order, token)
		return t
	}

	for _, f := range fields {
		key := f.Key()
		if key == KeySource && len(f.Args) == 1 {
			current = f.Args[0]
		}
		text := touch(current)
		switch key {
		case KeyJA:
			text.Ja = f.Text()
		case KeyZH:
			text.ZhHans = f.Text()
		}
	}

	var notes domain.SourceNotes
	for _, token := range order {
		text := *texts[token]
		if !isFilenameToken(token) {
			if text != (domain.LangText{}) {
				logger.Warn("丢弃未绑定文件的评论", "source", token)
			}
			continue
		}
		for _, name := range splitFilenames(token) {
			format, err := FormatOf(name)
			if err != nil {
				return domain.SourceNotes{}, err
			}
			b := notes.Bucket(format)
			b.FileList = append(b.FileList, name)
			b.Metadata = text
		}
	}
	return notes, nil
}
