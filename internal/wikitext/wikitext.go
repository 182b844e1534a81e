// Package wikitext 提供 MediaWiki 标记的最小扫描器：只识别模板 {{...}}、内链 [[...]] 与 <ref> 注释。
//
// 约束：
// - 不渲染、不校验完整标记；无法配对的 "{{" / "[["  按普通文本处理。
// - 每个节点保留原始文本（Raw），String() 拼回后与输入逐字节一致。
package wikitext

import (
	"regexp"
	"strings"
)

// Node 是 Wikicode 中的一个节点：Text、*Template 或 *WikiLink。
type Node interface {
	String() string
}

// Text 是不含模板/内链的原始文本。
type Text string

func (t Text) String() string { return string(t) }

// Param 是模板参数。命名参数（顶层含 "="）的 Raw 形如 "name=value"。
type Param struct {
	Raw   string
	Name  string
	Value string
	Named bool
}

func (p Param) String() string { return p.Raw }

// Template 是一次模板调用 {{name|p1|p2...}}。
type Template struct {
	Raw    string
	Name   string
	Params []Param
}

func (t *Template) String() string { return t.Raw }

// WikiLink 是内链 [[title|text]]。HasText 表示存在 "|"。
type WikiLink struct {
	Raw     string
	Title   string
	Text    string
	HasText bool
}

func (l *WikiLink) String() string { return l.Raw }

// Wikicode 是按文档顺序排列的节点序列。
type Wikicode []Node

func (w Wikicode) String() string {
	var b strings.Builder
	for _, n := range w {
		b.WriteString(n.String())
	}
	return b.String()
}

// Parse 把 s 扫描为顶层节点序列。
func Parse(s string) Wikicode {
	var out Wikicode
	textStart := 0
	flush := func(end int) {
		if end > textStart {
			out = append(out, Text(s[textStart:end]))
		}
	}

	i := 0
	for i < len(s) {
		switch {
		case strings.HasPrefix(s[i:], "{{"):
			end, ok := matchClose(s, i)
			if !ok {
				i++
				continue
			}
			flush(i)
			out = append(out, newTemplate(s[i:end]))
			i = end
			textStart = i
		case strings.HasPrefix(s[i:], "[["):
			end, ok := matchClose(s, i)
			if !ok {
				i++
				continue
			}
			flush(i)
			out = append(out, newWikiLink(s[i:end]))
			i = end
			textStart = i
		default:
			i++
		}
	}
	flush(len(s))
	return out
}

// Templates 递归返回全部模板（先外层后内层，文档顺序）。
func (w Wikicode) Templates() []*Template {
	var out []*Template
	w.walk(func(n Node) {
		if t, ok := n.(*Template); ok {
			out = append(out, t)
		}
	})
	return out
}

// WikiLinks 递归返回全部内链（先外层后内层，文档顺序）。
func (w Wikicode) WikiLinks() []*WikiLink {
	var out []*WikiLink
	w.walk(func(n Node) {
		if l, ok := n.(*WikiLink); ok {
			out = append(out, l)
		}
	})
	return out
}

func (w Wikicode) walk(fn func(Node)) {
	for _, n := range w {
		fn(n)
		switch v := n.(type) {
		case *Template:
			Parse(v.Name).walk(fn)
			for _, p := range v.Params {
				Parse(p.Raw).walk(fn)
			}
		case *WikiLink:
			Parse(v.Title).walk(fn)
			if v.HasText {
				Parse(v.Text).walk(fn)
			}
		}
	}
}

var refPattern = regexp.MustCompile(`<ref>.*?</ref>`)

// StripRefs 删除所有 <ref>...</ref> 片段（非贪婪，不跨行）。
func StripRefs(s string) string {
	return refPattern.ReplaceAllString(s, "")
}

// matchClose 从 s[start:] 的 "{{" 或 "[[" 开始找配对的结尾，返回结尾之后的下标。
// 规则：
// - "{{" 与 "}}"、"[[" 与 "]]" 各自配对，支持嵌套。
// - 与栈顶类型不符的闭合符号视为普通文本。
func matchClose(s string, start int) (int, bool) {
	stack := []byte{s[start]}
	j := start + 2
	for j < len(s) {
		rest := s[j:]
		switch {
		case strings.HasPrefix(rest, "{{"):
			stack = append(stack, '{')
			j += 2
		case strings.HasPrefix(rest, "[["):
			stack = append(stack, '[')
			j += 2
		case strings.HasPrefix(rest, "}}") && stack[len(stack)-1] == '{',
			strings.HasPrefix(rest, "]]") && stack[len(stack)-1] == '[':
			stack = stack[:len(stack)-1]
			j += 2
			if len(stack) == 0 {
				return j, true
			}
		default:
			j++
		}
	}
	return 0, false
}

// splitTop 按顶层（不在嵌套模板/内链内部）的 sep 切分。
func splitTop(s string, sep byte, limit int) []string {
	var out []string
	depth := 0
	last := 0
	for j := 0; j < len(s); {
		rest := s[j:]
		switch {
		case strings.HasPrefix(rest, "{{"), strings.HasPrefix(rest, "[["):
			depth++
			j += 2
		case depth > 0 && (strings.HasPrefix(rest, "}}") || strings.HasPrefix(rest, "]]")):
			depth--
			j += 2
		case depth == 0 && s[j] == sep && (limit <= 0 || len(out) < limit-1):
			out = append(out, s[last:j])
			j++
			last = j
		default:
			j++
		}
	}
	return append(out, s[last:])
}

func newTemplate(raw string) *Template {
	inner := raw[2 : len(raw)-2]
	parts := splitTop(inner, '|', 0)
	t := &Template{Raw: raw, Name: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		param := Param{Raw: p, Value: p}
		if kv := splitTop(p, '=', 2); len(kv) == 2 {
			param.Named = true
			param.Name = strings.TrimSpace(kv[0])
			param.Value = kv[1]
		}
		t.Params = append(t.Params, param)
	}
	return t
}

func newWikiLink(raw string) *WikiLink {
	inner := raw[2 : len(raw)-2]
	parts := splitTop(inner, '|', 2)
	l := &WikiLink{Raw: raw, Title: parts[0]}
	if len(parts) == 2 {
		l.HasText = true
		l.Text = parts[1]
	}
	return l
}
