package musicroom

import (
	"iter"
	"strings"
)

// Field 是解释后的条目：Name 为条目名，Args 为参数行（已去除首尾空白）。
type Field struct {
	Name string
	Args []string
}

// Key 返回条目名对应的 Key；标题键不区分大小写，其余精确匹配。
func (f Field) Key() Key { return lookupKey(f.Name) }

// Text 把参数行以换行拼接。
func (f Field) Text() string { return strings.Join(f.Args, "\n") }

// SplitField 把一个条目解释为 Field。
//
// 规则：
//   - 首行含 "=" 时，条目名为第一个 "=" 之前的文本，唯一参数为其后的全部文本（含后续行），二者均去除首尾空白。
//   - 否则若条目有多行，每行去除首尾空白后，首行为条目名，其余为参数。
//   - 单行且不含 "=" 的条目没有取值，返回 ok=false。
func SplitField(e Entry) (Field, bool) {
	if len(e.Lines) == 0 {
		return Field{}, false
	}
	if strings.Contains(e.Lines[0], "=") {
		joined := strings.Join(e.Lines, "\n")
		i := strings.Index(joined, "=")
		return Field{
			Name: strings.TrimSpace(joined[:i]),
			Args: []string{strings.TrimSpace(joined[i+1:])},
		}, true
	}
	if len(e.Lines) == 1 {
		return Field{}, false
	}
	args := make([]string, len(e.Lines))
	for i, l := range e.Lines {
		args[i] = strings.TrimSpace(l)
	}
	return Field{Name: args[0], Args: args[1:]}, true
}

// Fields 依次解释条目，跳过没有取值的条目。
func Fields(entries iter.Seq[Entry]) []Field {
	var out []Field
	for e := range entries {
		if f, ok := SplitField(e); ok {
			out = append(out, f)
		}
	}
	return out
}
