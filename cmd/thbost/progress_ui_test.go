package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/John-Robertt/thbost/internal/config"
	"github.com/John-Robertt/thbost/internal/domain"
)

func TestProgressUI_PageLines(t *testing.T) {
	var buf bytes.Buffer
	ui := newProgressUI(&buf)

	ui.OnStart(config.EffectiveConfig{DryRun: true, OutputDir: "/tmp/ost", Concurrency: 1})
	ui.OnPageDone(1, 3, domain.PageResult{Page: "东方红魔乡/Music", Status: domain.StatusProcessed, Release: "TH6", Output: "/tmp/ost/TH6.toml", Tracks: 17}, time.Second)
	ui.OnPageDone(2, 3, domain.PageResult{Page: "秋霜玉/Music", Status: domain.StatusSkipped}, 0)
	ui.OnPageDone(3, 3, domain.PageResult{Page: "坏页面/Music", Status: domain.StatusFailed, ErrorCode: domain.ErrCodeParseFailed, ErrorMsg: "boom"}, 0)

	out := buf.String()
	for _, want := range []string{
		"thbost run (dry-run)",
		"[1/3] 东方红魔乡/Music OK tracks=17 TH6 -> /tmp/ost/TH6.toml",
		"[2/3] 秋霜玉/Music SKIP",
		"[3/3] 坏页面/Music FAIL parse_failed: boom",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("输出缺少 %q：\n%s", want, out)
		}
	}
	if ui.ok != 1 || ui.skip != 1 || ui.fail != 1 || ui.tracks != 17 {
		t.Fatalf("计数不符：ok=%d skip=%d fail=%d tracks=%d", ui.ok, ui.skip, ui.fail, ui.tracks)
	}
}

func TestProgressUI_TickerStopsAfterLastPage(t *testing.T) {
	var buf bytes.Buffer
	ui := newProgressUI(&buf)

	ui.OnPhaseDone("exec", map[string]any{"workers": 2, "total_pages": 1}, 0)
	if !ui.tickerStarted {
		t.Fatalf("期望 exec 阶段启动 ticker")
	}
	ui.OnPageDone(1, 1, domain.PageResult{Page: "p", Status: domain.StatusProcessed}, 0)
	if ui.tickerStarted {
		t.Fatalf("最后一页完成后应停止 ticker")
	}
}

func TestTruncate_RuneSafe(t *testing.T) {
	if got := truncate("东方红魔乡的音乐", 5); got != "东方..." {
		t.Fatalf("truncate=%q", got)
	}
	if got := truncate("  short  ", 10); got != "short" {
		t.Fatalf("truncate=%q", got)
	}
}

func TestFormatProxy(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", "off"},
		{"http://u:p@127.0.0.1:7890", "on (http://127.0.0.1:7890, auth=on)"},
		{"socks5://127.0.0.1:1080", "on (socks5://127.0.0.1:1080, auth=off)"},
	}
	for _, tc := range cases {
		if got := formatProxy(tc.in); got != tc.want {
			t.Fatalf("formatProxy(%q)=%q，期望 %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatElapsed(t *testing.T) {
	if got := formatElapsed(3723 * time.Second); got != "01:02:03" {
		t.Fatalf("formatElapsed=%q", got)
	}
	if got := formatElapsed(-time.Second); got != "00:00:00" {
		t.Fatalf("负值应归零：%q", got)
	}
}
