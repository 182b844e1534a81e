package wikitext

import "testing"

func TestParse_RoundTripsSource(t *testing.T) {
	cases := []string{
		"",
		"plain text",
		"a{{t|1|2}}b[[Page|text]]c",
		"{{outer|{{inner|x}}|[[L|{{t|1}}]]}}",
		"unclosed {{t|1 and [[link",
		"}} stray ]]",
	}
	for _, in := range cases {
		if got := Parse(in).String(); got != in {
			t.Fatalf("期望还原 %q，实际 %q", in, got)
		}
	}
}

func TestParse_TemplateParams(t *testing.T) {
	w := Parse("{{萃梦想音乐名| 1 |3}}")
	if len(w) != 1 {
		t.Fatalf("期望 1 个节点，实际 %d", len(w))
	}
	tpl, ok := w[0].(*Template)
	if !ok {
		t.Fatalf("期望模板节点，实际 %T", w[0])
	}
	if tpl.Name != "萃梦想音乐名" {
		t.Fatalf("模板名不符：%q", tpl.Name)
	}
	if len(tpl.Params) != 2 || tpl.Params[0].Raw != " 1 " || tpl.Params[1].Raw != "3" {
		t.Fatalf("参数不符：%+v", tpl.Params)
	}
	if tpl.Params[0].Named {
		t.Fatalf("位置参数不应被识别为命名参数")
	}
}

func TestParse_NamedParamAndNestedPipe(t *testing.T) {
	tpl := Parse("{{t|a=[[x|y]]|{{u|1}}}}")[0].(*Template)
	if len(tpl.Params) != 2 {
		t.Fatalf("嵌套内的 | 不应切分参数：%+v", tpl.Params)
	}
	if !tpl.Params[0].Named || tpl.Params[0].Name != "a" || tpl.Params[0].Value != "[[x|y]]" {
		t.Fatalf("命名参数不符：%+v", tpl.Params[0])
	}
}

func TestTemplates_RecursiveOrder(t *testing.T) {
	got := Parse("x{{a|{{b|1}}}}y[[P|{{c}}]]").Templates()
	want := []string{"{{a|{{b|1}}}}", "{{b|1}}", "{{c}}"}
	if len(got) != len(want) {
		t.Fatalf("期望 %d 个模板，实际 %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Raw != want[i] {
			t.Fatalf("第 %d 个模板期望 %q，实际 %q", i, want[i], got[i].Raw)
		}
	}
}

func TestWikiLinks_TitleAndText(t *testing.T) {
	links := Parse("[[博丽灵梦]] 与 [[雾雨魔理沙|魔理沙]]").WikiLinks()
	if len(links) != 2 {
		t.Fatalf("期望 2 个内链，实际 %d", len(links))
	}
	if links[0].Title != "博丽灵梦" || links[0].HasText {
		t.Fatalf("第一个内链不符：%+v", links[0])
	}
	if links[1].Title != "雾雨魔理沙" || links[1].Text != "魔理沙" || !links[1].HasText {
		t.Fatalf("第二个内链不符：%+v", links[1])
	}
}

func TestStripRefs(t *testing.T) {
	got := StripRefs("a<ref>note 1</ref>b<ref>x</ref>")
	if got != "ab" {
		t.Fatalf("期望 %q，实际 %q", "ab", got)
	}
}
