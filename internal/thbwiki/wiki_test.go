package thbwiki

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// stubGetter 按 action 返回固定响应，并记录请求参数。
type stubGetter struct {
	bodies map[string]string
	calls  []map[string]string
}

func (g *stubGetter) Get(ctx context.Context, params map[string]string) (string, error) {
	g.calls = append(g.calls, params)
	key := params["action"]
	if params["list"] != "" {
		key = params["list"]
	}
	return g.bodies[key], nil
}

func TestWiki_ListMusicRoomPages(t *testing.T) {
	g := &stubGetter{bodies: map[string]string{
		"categorymembers": `{"query":{"categorymembers":[{"title":"东方红魔乡/Music"},{"title":"东方妖妖梦/Music"}]}}`,
	}}
	got, err := Wiki{Getter: g}.ListMusicRoomPages(context.Background())
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !reflect.DeepEqual(got, []string{"东方红魔乡/Music", "东方妖妖梦/Music"}) {
		t.Fatalf("页面列表不符：%v", got)
	}
	if p := g.calls[0]; p["cmtitle"] != DefaultCategory || p["cmlimit"] != "50" {
		t.Fatalf("请求参数不符：%v", p)
	}
}

func TestWiki_ListMusicRoomPages_Truncated(t *testing.T) {
	g := &stubGetter{bodies: map[string]string{
		"categorymembers": `{"continue":{"cmcontinue":"x"},"query":{"categorymembers":[]}}`,
	}}
	_, err := Wiki{Getter: g, Category: "分类:测试"}.ListMusicRoomPages(context.Background())
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("期望 ErrTruncated，实际 %v", err)
	}
}

func TestWiki_FetchPage(t *testing.T) {
	g := &stubGetter{bodies: map[string]string{
		"query": `{"query":{"pages":[{"title":"T","revisions":[{"slots":{"main":{"content":"category=1面"}}}]}]}}`,
	}}
	got, err := Wiki{Getter: g}.FetchPage(context.Background(), "T")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got != "category=1面" {
		t.Fatalf("页面内容不符：%q", got)
	}
	if g.calls[0]["formatversion"] != "2" || g.calls[0]["titles"] != "T" {
		t.Fatalf("请求参数不符：%v", g.calls[0])
	}
}

func TestWiki_FetchPage_Missing(t *testing.T) {
	g := &stubGetter{bodies: map[string]string{
		"query": `{"query":{"pages":[{"title":"T","missing":true}]}}`,
	}}
	if _, err := (Wiki{Getter: g}).FetchPage(context.Background(), "T"); !errors.Is(err, ErrPageMissing) {
		t.Fatalf("期望 ErrPageMissing，实际 %v", err)
	}
}

func TestWiki_Expand(t *testing.T) {
	g := &stubGetter{bodies: map[string]string{
		"expandtemplates": `{"expandtemplates":{"wikitext":"赤より紅い夢|红符"}}`,
	}}
	got, err := Wiki{Getter: g}.Expand(context.Background(), "{{a|2|1}}|{{a|1|1}}")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got != "赤より紅い夢|红符" {
		t.Fatalf("展开结果不符：%q", got)
	}
	if g.calls[0]["text"] != "{{a|2|1}}|{{a|1|1}}" {
		t.Fatalf("请求参数不符：%v", g.calls[0])
	}
}

func TestWiki_APIError(t *testing.T) {
	g := &stubGetter{bodies: map[string]string{
		"expandtemplates": `{"error":{"code":"badvalue","info":"bad"}}`,
	}}
	_, err := Wiki{Getter: g}.Expand(context.Background(), "x")
	var ae *APIError
	if !errors.As(err, &ae) || ae.Code != "badvalue" {
		t.Fatalf("期望 APIError，实际 %v", err)
	}
}
