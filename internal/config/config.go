package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// ErrCodeNotFound 表示 --config 指定的配置文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

// DefaultFileName 是未指定 --config 时在 cwd 下查找的配置文件（可选）。
const DefaultFileName = "thbost.yaml"

// EnvPrefix 是环境变量前缀，例如 THBOST_API_URL。
const EnvPrefix = "THBOST"

const (
	DefaultAPIURL      = "https://thwiki.cc/api.php"
	DefaultCategory    = "分类:音乐室"
	DefaultUserAgent   = "Touhou Metadata Downloader, by https://thwiki.cc/User:NicoNicoNii"
	DefaultWikidataURL = "https://query.wikidata.org/sparql"
)

var defaults = map[string]any{
	"api_url":           DefaultAPIURL,
	"category":          DefaultCategory,
	"user_agent":        DefaultUserAgent,
	"proxy_url":         "",
	"wikidata_url":      DefaultWikidataURL,
	"cache_dir":         "./data/cache",
	"output_dir":        "./data/ost",
	"release_table":     "./data/threlease/threlease.toml",
	"batch_size":        40,
	"source_batch_size": 1,
	"concurrency":       1,
	"plain_text":        true,
	"skip_existing":     false,
	"dry_run":           false,
	"offline":           false,
	"log_level":         "info",
}

// CLIArgs 是命令行入口。Flags 中只有被显式设置（Changed）的 flag 参与覆盖；
// flag 名中的 "-" 对应配置键中的 "_"，例如 --output-dir -> output_dir。
type CLIArgs struct {
	ConfigFile string
	Flags      *pflag.FlagSet
}

// EffectiveConfig 是合并、规范化并校验后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// ConfigPath 是实际读取的配置文件；未读取任何文件时为空。
	ConfigPath string

	APIURL      string
	Category    string
	UserAgent   string
	ProxyURL    string
	WikidataURL string

	CacheDir     string
	OutputDir    string
	ReleaseTable string

	BatchSize       int
	SourceBatchSize int
	Concurrency     int

	PlainText    bool
	SkipExisting bool
	DryRun       bool
	Offline      bool

	LogLevel string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Path == "" {
			return fmt.Sprintf("%s：配置无效：%v", e.Code, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 读取配置文件与环境变量，并与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 --config：必须存在
// 2) 否则尝试读取 <cwd>/thbost.yaml（可选）
//
// 覆盖优先级（固定）：显式 flag > THBOST_* 环境变量 > 配置文件 > 内置默认值。
// 相对路径（cache_dir/output_dir/release_table）以 cwd 为基准转为绝对路径。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	cfgPath := ""
	if strings.TrimSpace(cli.ConfigFile) != "" {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigFile)
		exists, err := fileExists(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
	} else {
		p := filepath.Join(cwdAbs, DefaultFileName)
		exists, err := fileExists(p)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: p, Err: err}
		}
		if exists {
			cfgPath = p
		}
	}
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
		if ext := filepath.Ext(cfgPath); ext == "" {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
	}

	if cli.Flags != nil {
		cli.Flags.Visit(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if _, ok := defaults[key]; ok {
				v.Set(key, f.Value.String())
			}
		})
	}

	eff := EffectiveConfig{
		ConfigPath:      cfgPath,
		APIURL:          strings.TrimSpace(v.GetString("api_url")),
		Category:        strings.TrimSpace(v.GetString("category")),
		UserAgent:       strings.TrimSpace(v.GetString("user_agent")),
		ProxyURL:        strings.TrimSpace(v.GetString("proxy_url")),
		WikidataURL:     strings.TrimSpace(v.GetString("wikidata_url")),
		CacheDir:        absCleanFrom(cwdAbs, v.GetString("cache_dir")),
		OutputDir:       absCleanFrom(cwdAbs, v.GetString("output_dir")),
		ReleaseTable:    absCleanFrom(cwdAbs, v.GetString("release_table")),
		BatchSize:       v.GetInt("batch_size"),
		SourceBatchSize: v.GetInt("source_batch_size"),
		Concurrency:     v.GetInt("concurrency"),
		PlainText:       v.GetBool("plain_text"),
		SkipExisting:    v.GetBool("skip_existing"),
		DryRun:          v.GetBool("dry_run"),
		Offline:         v.GetBool("offline"),
		LogLevel:        strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
	}
	if err := eff.Validate(); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	return eff, nil
}

// Validate 校验字段取值范围。
//
// Min/Max 对零值放行，数值字段需同时挂 Required。
func (c EffectiveConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.APIURL, validation.Required, is.URL),
		validation.Field(&c.WikidataURL, validation.Required, is.URL),
		validation.Field(&c.ProxyURL, is.URL),
		validation.Field(&c.Category, validation.Required),
		validation.Field(&c.CacheDir, validation.Required),
		validation.Field(&c.OutputDir, validation.Required),
		validation.Field(&c.ReleaseTable, validation.Required),
		validation.Field(&c.BatchSize, validation.Required, validation.Min(1)),
		validation.Field(&c.SourceBatchSize, validation.Required, validation.Min(1)),
		validation.Field(&c.Concurrency, validation.Required, validation.Min(1), validation.Max(16)),
		validation.Field(&c.LogLevel, validation.Required, validation.In("debug", "info", "warn", "error")),
	)
}

// SlogLevel 把 log_level 映射到 slog.Level（未知值按 info）。
func (c EffectiveConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

func fileExists(path string) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if fi.IsDir() {
		return false, fmt.Errorf("%q 是目录", path)
	}
	return true, nil
}
