package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/thbost/internal/config"
)

var (
	cfgFile      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "thbost",
	Short: "从 THBWiki 音乐室页面提取东方原声曲目数据",
	Long: `thbost 读取 THBWiki 的音乐室页面，把曲目标题、作曲、评论与出场场景
整理为每个作品一个 TOML 文档。

配置来源（优先级从高到低）：命令行 flag > THBOST_* 环境变量 > thbost.yaml > 内置默认值。`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件（默认：./thbost.yaml，可选）")
	rootCmd.PersistentFlags().String("log-level", "info", "日志级别：debug|info|warn|error")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "yaml", "stdout 输出格式：yaml|json")

	rootCmd.AddCommand(runCmd, parseCmd, releaseCmd, versionCmd)
}

// loadConfig 读取最终配置；只有被显式设置的 flag 参与覆盖。
func loadConfig(cmd *cobra.Command) (config.EffectiveConfig, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return config.EffectiveConfig{}, err
	}
	return config.LoadEffective(cwd, config.CLIArgs{ConfigFile: cfgFile, Flags: cmd.Flags()})
}

// newLogger 构造写 stderr 的结构化日志（stdout 只留给机器可读输出）。
func newLogger(eff config.EffectiveConfig, runID string) *slog.Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: eff.SlogLevel()})
	return slog.New(h).With("run_id", runID)
}
