package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/thbost/internal/app/planner"
	"github.com/John-Robertt/thbost/internal/app/run"
	"github.com/John-Robertt/thbost/internal/output"
	"github.com/John-Robertt/thbost/internal/release"
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "发行表相关命令",
}

var releaseFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "从 Wikidata 重建发行表并写入 release_table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eff, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(eff, uuid.NewString())

		ep, err := run.NewEndpoint(eff, eff.WikidataURL, logger)
		if err != nil {
			return err
		}
		table, err := release.Fetch(cmd.Context(), ep)
		if err != nil {
			return fmt.Errorf("获取发行表失败：%w", err)
		}
		if err := table.Save(eff.ReleaseTable); err != nil {
			return fmt.Errorf("写入发行表失败：%w", err)
		}
		logger.Info("发行表已更新", "path", eff.ReleaseTable, "releases", table.Len())
		return nil
	},
}

var releaseLookupCmd = &cobra.Command{
	Use:   "lookup <page-or-game>",
	Short: "查询作品（或音乐室页面）对应的发行编号与标题",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(outputFormat)
		if err != nil {
			return err
		}
		eff, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		table, _, err := release.Load(eff.ReleaseTable)
		if err != nil {
			return err
		}

		game := planner.GameOf(args[0])
		r, ok := table.ByTitle(game)
		if !ok {
			return fmt.Errorf("发行表中没有 %q", game)
		}
		return output.Encode(cmd.OutOrStdout(), format, map[string]any{
			"threlease": "TH" + r.ID,
			"title":     r.Title,
		})
	},
}

func init() {
	releaseFetchCmd.Flags().Bool("offline", false, "只使用缓存，不访问网络")
	releaseCmd.AddCommand(releaseFetchCmd, releaseLookupCmd)
}
