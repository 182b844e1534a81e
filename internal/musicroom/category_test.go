package musicroom

import (
	"bytes"
	"log/slog"
	"reflect"
	"strings"
	"testing"
)

func TestClassify_AmbiguousGoesToCharacterWhenOnlyLocations(t *testing.T) {
	ctx := Classify([]string{"ボス面", "霊夢の過場曲"}, discard)
	if !reflect.DeepEqual(ctx.ScenarioList.ZhHans, []string{"ボス面"}) {
		t.Fatalf("scenario-list 不符：%v", ctx.ScenarioList.ZhHans)
	}
	if !reflect.DeepEqual(ctx.CharacterList.ZhHans, []string{"霊夢の過場曲"}) {
		t.Fatalf("character-list 不符：%v", ctx.CharacterList.ZhHans)
	}
}

func TestClassify_SplitsOnSpaceAndRouteMarker(t *testing.T) {
	ctx := Classify([]string{"1面 [[博丽灵梦]]路线[[雾雨魔理沙]]路线"}, discard)
	wantChars := []string{"博丽灵梦", "雾雨魔理沙"}
	if !reflect.DeepEqual(ctx.CharacterList.ZhHans, wantChars) {
		t.Fatalf("character-list 期望 %v，实际 %v", wantChars, ctx.CharacterList.ZhHans)
	}
	if !reflect.DeepEqual(ctx.ScenarioList.ZhHans, []string{"1面"}) {
		t.Fatalf("scenario-list 不符：%v", ctx.ScenarioList.ZhHans)
	}
}

func TestClassify_CharacterIndicatorWins(t *testing.T) {
	// "角色选择画面" 同时含场景与角色指示词，角色优先。
	ctx := Classify([]string{"角色选择画面", "Stage1 BOSS"}, discard)
	if !reflect.DeepEqual(ctx.CharacterList.ZhHans, []string{"角色选择画面"}) {
		t.Fatalf("character-list 不符：%v", ctx.CharacterList.ZhHans)
	}
	if !reflect.DeepEqual(ctx.ScenarioList.ZhHans, []string{"BOSS", "Stage1"}) {
		t.Fatalf("scenario-list 不符：%v", ctx.ScenarioList.ZhHans)
	}
}

func TestClassify_AllAmbiguous(t *testing.T) {
	ctx := Classify([]string{"[[十六夜咲夜]]", "", "标题曲"}, discard)
	if !reflect.DeepEqual(ctx.CharacterList.ZhHans, []string{"十六夜咲夜"}) {
		t.Fatalf("character-list 不符：%v", ctx.CharacterList.ZhHans)
	}
	if !reflect.DeepEqual(ctx.ScenarioList.ZhHans, []string{"标题曲"}) {
		t.Fatalf("scenario-list 不符：%v", ctx.ScenarioList.ZhHans)
	}
}

func TestClassify_Empty(t *testing.T) {
	ctx := Classify(nil, discard)
	if len(ctx.CharacterList.ZhHans) != 0 || len(ctx.ScenarioList.ZhHans) != 0 {
		t.Fatalf("空输入应得到空列表：%+v", ctx)
	}
}

func TestClassify_LogsRoutingAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	Classify([]string{"ボス面", "霊夢の過場曲"}, logger)

	out := buf.String()
	for _, want := range []string{
		"item=ボス面 route=scenario by=indicator",
		"item=霊夢の過場曲 route=character by=has_scenario",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("日志缺少 %q：\n%s", want, out)
		}
	}
}
