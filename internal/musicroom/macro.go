package musicroom

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/John-Robertt/thbost/internal/wikitext"
)

// 标题模板的语言代码。
const (
	LangZH = 1
	LangJA = 2
	LangEN = 4
)

// Macro 是一次标题模板调用的解析结果。
type Macro struct {
	Name     string
	Language int
	TrackID  int

	// Linked 为 true 表示模板外层包了一层内链。
	Linked   bool
	LinkPage string
	LinkText string
}

// Snippet 返回以指定语言代码重新调用该模板的片段。
func (m Macro) Snippet(lang int) string {
	return fmt.Sprintf("{{%s|%d|%d}}", m.Name, lang, m.TrackID)
}

// ParseMacro 解析标题字段中的模板调用。
//
// 规则：
//   - 先去掉 <ref> 注释。
//   - 若整段文本恰为一个内链，取其显示文本（无显示文本时取目标页）继续解析，并记录目标页与显示文本。
//   - 剩余文本必须恰为一个模板，且恰有两个整数参数：语言代码与曲目序号。
func ParseMacro(text string) (Macro, error) {
	var m Macro
	text = wikitext.StripRefs(text)

	if links := wikitext.Parse(text).WikiLinks(); len(links) == 1 && links[0].Raw == text {
		l := links[0]
		m.Linked = true
		m.LinkPage = l.Title
		m.LinkText = l.Title
		if l.Text != "" {
			m.LinkText = l.Text
		}
		text = m.LinkText
		if text == "" {
			return Macro{}, fmt.Errorf("%w: empty link", ErrInvalidMacro)
		}
	}

	tpls := wikitext.Parse(text).Templates()
	if len(tpls) != 1 || tpls[0].Raw != text {
		return Macro{}, fmt.Errorf("%w: %q is not a single template", ErrInvalidMacro, text)
	}
	tpl := tpls[0]
	if len(tpl.Params) != 2 {
		return Macro{}, fmt.Errorf("%w: %q has %d params", ErrInvalidMacro, text, len(tpl.Params))
	}
	lang, err := strconv.Atoi(strings.TrimSpace(tpl.Params[0].Raw))
	if err != nil {
		return Macro{}, fmt.Errorf("%w: language %q", ErrInvalidMacro, tpl.Params[0].Raw)
	}
	id, err := strconv.Atoi(strings.TrimSpace(tpl.Params[1].Raw))
	if err != nil {
		return Macro{}, fmt.Errorf("%w: track id %q", ErrInvalidMacro, tpl.Params[1].Raw)
	}

	m.Name = tpl.Name
	m.Language = lang
	m.TrackID = id
	return m, nil
}
