package musicroom

import (
	"errors"
	"testing"
)

func TestParseMacro_Plain(t *testing.T) {
	m, err := ParseMacro("{{萃梦想音乐名|1|3}}")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if m.Name != "萃梦想音乐名" || m.Language != 1 || m.TrackID != 3 || m.Linked {
		t.Fatalf("解析结果不符：%+v", m)
	}
}

func TestParseMacro_Linked(t *testing.T) {
	m, err := ParseMacro("[[Foo（曲目）|{{萃梦想音乐名|1|3}}]]")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if m.Name != "萃梦想音乐名" || m.Language != 1 || m.TrackID != 3 {
		t.Fatalf("模板字段不符：%+v", m)
	}
	if !m.Linked || m.LinkPage != "Foo（曲目）" || m.LinkText != "{{萃梦想音乐名|1|3}}" {
		t.Fatalf("内链字段不符：%+v", m)
	}
}

func TestParseMacro_BareLinkUsesTitle(t *testing.T) {
	m, err := ParseMacro("[[{{东方红魔乡音乐名|2|5}}]]<ref>出处</ref>")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if m.LinkPage != "{{东方红魔乡音乐名|2|5}}" || m.LinkText != m.LinkPage || m.TrackID != 5 {
		t.Fatalf("裸内链应以目标页作为显示文本：%+v", m)
	}
}

func TestParseMacro_Invalid(t *testing.T) {
	cases := []string{
		"{{萃梦想音乐名|1}}",
		"{{萃梦想音乐名|1|3|x}}",
		"{{萃梦想音乐名|zh|3}}",
		"{{萃梦想音乐名|1|3}} 后缀",
		"{{a|1|2}}{{b|1|2}}",
		"{{a|{{b|1|2}}|2}}",
		"[[Page|]]",
	}
	for _, in := range cases {
		if _, err := ParseMacro(in); !errors.Is(err, ErrInvalidMacro) {
			t.Fatalf("%q：期望 ErrInvalidMacro，实际 %v", in, err)
		}
	}
}

func TestMacro_Snippet(t *testing.T) {
	m := Macro{Name: "东方红魔乡音乐名", TrackID: 7}
	if got := m.Snippet(LangEN); got != "{{东方红魔乡音乐名|4|7}}" {
		t.Fatalf("片段不符：%q", got)
	}
}
