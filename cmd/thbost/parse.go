package main

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/thbost/internal/app/run"
	"github.com/John-Robertt/thbost/internal/domain"
	"github.com/John-Robertt/thbost/internal/musicroom"
	"github.com/John-Robertt/thbost/internal/output"
	"github.com/John-Robertt/thbost/internal/thbwiki"
)

var parseNoExpand bool

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "解析本地 wikitext 并打印曲目列表",
	Long: `解析一个音乐室页面的 wikitext（文件，或省略/"-" 时读 stdin），
以 -o 指定的格式（yaml|json）把曲目列表打印到 stdout。

默认通过 API 展开模板；--no-expand 时保留模板记录，不访问网络。`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&parseNoExpand, "no-expand", false, "不展开模板（不访问网络）")
	parseCmd.Flags().Bool("offline", false, "只使用缓存，不访问网络")
	parseCmd.Flags().Bool("plain-text", true, "把展开结果中的 HTML 转为纯文本")
}

func runParse(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	eff, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(eff, uuid.NewString())

	text, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	var exp musicroom.Expander
	if !parseNoExpand {
		ep, err := run.NewEndpoint(eff, eff.APIURL, logger)
		if err != nil {
			return err
		}
		exp = thbwiki.Wiki{Getter: ep, Category: eff.Category}
	}

	tracks, err := musicroom.ParsePage(cmd.Context(), text, exp, run.PageOptions(eff, logger))
	if err != nil {
		return err
	}

	docs := make([]domain.TrackDocument, 0, len(tracks))
	for _, t := range tracks {
		docs = append(docs, t.Document())
	}
	return output.Encode(cmd.OutOrStdout(), format, docs)
}

func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("读取 stdin 失败：%w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(b), nil
}
