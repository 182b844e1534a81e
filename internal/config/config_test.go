package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func TestLoadEffective_Defaults(t *testing.T) {
	cwd := t.TempDir()

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ConfigPath != "" {
		t.Fatalf("未放配置文件时 ConfigPath 应为空，实际=%q", eff.ConfigPath)
	}
	if eff.APIURL != DefaultAPIURL || eff.Category != DefaultCategory || eff.UserAgent != DefaultUserAgent {
		t.Fatalf("默认值不符：%+v", eff)
	}
	if eff.BatchSize != 40 || eff.SourceBatchSize != 1 || eff.Concurrency != 1 {
		t.Fatalf("默认批大小/并发不符：%+v", eff)
	}
	if !eff.PlainText || eff.SkipExisting || eff.DryRun || eff.Offline {
		t.Fatalf("默认开关不符：%+v", eff)
	}
	if want := filepath.Join(cwd, "data", "ost"); eff.OutputDir != want {
		t.Fatalf("期望 output_dir=%q，实际=%q", want, eff.OutputDir)
	}
}

func TestLoadEffective_FileInCwd(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, DefaultFileName), []byte("batch_size: 8\noutput_dir: out\nplain_text: false\n"))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ConfigPath != filepath.Join(cwd, DefaultFileName) {
		t.Fatalf("ConfigPath=%q", eff.ConfigPath)
	}
	if eff.BatchSize != 8 || eff.PlainText {
		t.Fatalf("配置文件未生效：%+v", eff)
	}
	if want := filepath.Join(cwd, "out"); eff.OutputDir != want {
		t.Fatalf("期望 output_dir=%q，实际=%q", want, eff.OutputDir)
	}
}

func TestLoadEffective_MergeOrder(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, DefaultFileName), []byte("batch_size: 8\nconcurrency: 2\nlog_level: warn\n"))
	t.Setenv("THBOST_CONCURRENCY", "3")
	t.Setenv("THBOST_LOG_LEVEL", "debug")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	flags.Int("batch-size", 40, "")
	if err := flags.Parse([]string{"--log-level=error"}); err != nil {
		t.Fatalf("解析 flag 失败：%v", err)
	}

	eff, err := LoadEffective(cwd, CLIArgs{Flags: flags})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	// 未显式设置的 --batch-size 不覆盖配置文件。
	if eff.BatchSize != 8 {
		t.Fatalf("期望 batch_size=8，实际=%d", eff.BatchSize)
	}
	if eff.Concurrency != 3 {
		t.Fatalf("环境变量应覆盖配置文件：concurrency=%d", eff.Concurrency)
	}
	if eff.LogLevel != "error" {
		t.Fatalf("flag 应覆盖环境变量：log_level=%q", eff.LogLevel)
	}
}

func TestLoadEffective_ExplicitConfigNotFound(t *testing.T) {
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, CLIArgs{ConfigFile: "missing.yaml"})
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeNotFound, err, Code(err))
	}
}

func TestLoadEffective_ExplicitConfigFile(t *testing.T) {
	cwd := t.TempDir()
	p := filepath.Join(cwd, "conf", "my.yaml")
	writeFile(t, p, []byte("category: 分类:测试\n"))

	eff, err := LoadEffective(cwd, CLIArgs{ConfigFile: p})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Category != "分类:测试" || eff.ConfigPath != p {
		t.Fatalf("显式配置未生效：%+v", eff)
	}
}

func TestLoadEffective_InvalidYAML(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, DefaultFileName), []byte("batch_size: [\n"))

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func TestLoadEffective_InvalidValues(t *testing.T) {
	cases := []struct{ name, body string }{
		{"batch_size 为 0", "batch_size: 0\n"},
		{"source_batch_size 为负", "source_batch_size: -1\n"},
		{"并发超上限", "concurrency: 64\n"},
		{"未知日志级别", "log_level: verbose\n"},
		{"api_url 非 URL", "api_url: \"not a url\"\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cwd := t.TempDir()
			writeFile(t, filepath.Join(cwd, DefaultFileName), []byte(tc.body))

			_, err := LoadEffective(cwd, CLIArgs{})
			if Code(err) != ErrCodeInvalid {
				t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
			}
		})
	}
}

func TestEffectiveConfig_SlogLevel(t *testing.T) {
	for lvl, want := range map[string]string{"debug": "DEBUG", "info": "INFO", "warn": "WARN", "error": "ERROR", "": "INFO"} {
		if got := (EffectiveConfig{LogLevel: lvl}).SlogLevel().String(); got != want {
			t.Fatalf("SlogLevel(%q)=%s，期望 %s", lvl, got, want)
		}
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写文件失败：%v", err)
	}
}
