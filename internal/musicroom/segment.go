package musicroom

import (
	"iter"
	"strings"
)

// Key 是条目键的语义分类。titleJA/titleja 与 titleZH/titlezh 各归为同一个 Key。
type Key int

const (
	KeyNone Key = iota
	KeyCategory
	KeyTitleJA
	KeyTitleZH
	KeyComposer
	KeySource
	KeyMP3
	KeyJA
	KeyZH
)

// DefaultKeyword 是曲目块的分段关键字。
const DefaultKeyword = "category"

// vocabulary 顺序固定：按行前缀匹配时取第一个命中者。
var vocabulary = []struct {
	name string
	key  Key
}{
	{"category", KeyCategory},
	{"titleJA", KeyTitleJA},
	{"titleja", KeyTitleJA},
	{"titleZH", KeyTitleZH},
	{"titlezh", KeyTitleZH},
	{"composer", KeyComposer},
	{"source", KeySource},
	{"mp3", KeyMP3},
	{"ja", KeyJA},
	{"zh", KeyZH},
}

var sectionMarkers = []string{"==", "xx"}

// prefixKey 返回以某个键开头的行所对应的 Key；不以任何键开头则返回 KeyNone。
func prefixKey(line string) Key {
	for _, v := range vocabulary {
		if strings.HasPrefix(line, v.name) {
			return v.key
		}
	}
	return KeyNone
}

// lookupKey 按条目名精确匹配 Key；标题键不区分大小写。
func lookupKey(name string) Key {
	switch strings.ToLower(name) {
	case "titleja":
		return KeyTitleJA
	case "titlezh":
		return KeyTitleZH
	}
	for _, v := range vocabulary {
		if v.name == name {
			return v.key
		}
	}
	return KeyNone
}

// SplitTracks 把页面行序列切成曲目块。
//
// 规则：
// - 以 keyword 开头的行开启一个块；块内再遇到 keyword 行时先产出当前块再开启新块。
// - 块内遇到以 "==" 或 "xx" 开头的行时产出当前块并回到块外。
// - 第一个 keyword 行之前的行丢弃。
// - 输入结束时仍未闭合的块不产出。
func SplitTracks(lines iter.Seq[string], keyword string) iter.Seq[[]string] {
	return splitTracks(lines, keyword, nil)
}

// splitTracks 同 SplitTracks；dropped 非 nil 时以未闭合块的行数回调一次。
func splitTracks(lines iter.Seq[string], keyword string, dropped func(n int)) iter.Seq[[]string] {
	if keyword == "" {
		keyword = DefaultKeyword
	}
	return func(yield func([]string) bool) {
		var block []string
		inBlock := false
		for line := range lines {
			switch {
			case strings.HasPrefix(line, keyword):
				if inBlock && !yield(block) {
					return
				}
				block = []string{line}
				inBlock = true
			case !inBlock:
			case hasAnyPrefix(line, sectionMarkers):
				inBlock = false
				if !yield(block) {
					return
				}
				block = nil
			default:
				block = append(block, line)
			}
		}
		if inBlock && dropped != nil {
			dropped(len(block))
		}
	}
}

// Entry 是块内的一个条目：以键开头的行加上其后直到下一个键行的所有行。
type Entry struct {
	Key   Key
	Lines []string
}

// SplitEntries 把一个曲目块切成条目序列；第一个键行之前的行丢弃。
func SplitEntries(block []string) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		var cur *Entry
		for _, line := range block {
			if k := prefixKey(line); k != KeyNone {
				if cur != nil && !yield(*cur) {
					return
				}
				cur = &Entry{Key: k, Lines: []string{line}}
				continue
			}
			if cur != nil {
				cur.Lines = append(cur.Lines, line)
			}
		}
		if cur != nil {
			yield(*cur)
		}
	}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
