// cmd/scriptlens/root.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/Corphon/ScriptLensMCP/internal/models"
	"github.com/Corphon/ScriptLensMCP/internal/services"
	"github.com/spf13/cobra"
)

// newRootCommand 构建CLI命令树
// 服务器之外的离线入口：直接对拆解JSON文件做分析并打印表格
func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "scriptlens",
		Short:         "剧本拆解分析命令行工具",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newRankCommand())
	rootCmd.AddCommand(newElementsCommand())
	rootCmd.AddCommand(newAnalyzeCommand())

	return rootCmd
}

// loadBreakdownFile 读取并解析拆解JSON文件
func loadBreakdownFile(path string) (*models.ScriptBreakdown, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取文件失败: %w", err)
	}

	breakdown := &models.ScriptBreakdown{}
	if err := json.Unmarshal(data, breakdown); err != nil {
		// 兼容纯场景数组形式的输入
		var scenes []models.Scene
		if err2 := json.Unmarshal(data, &scenes); err2 != nil {
			return nil, fmt.Errorf("解析拆解JSON失败: %w", err)
		}
		breakdown.Scenes = scenes
	}

	return breakdown, nil
}

// newRankCommand 角色重要度排名子命令
func newRankCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rank <breakdown.json>",
		Short: "计算并打印角色重要度排名",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			breakdown, err := loadBreakdownFile(args[0])
			if err != nil {
				return err
			}

			canonicalizer := services.NewCanonicalizerService()
			salience := services.NewSalienceService(canonicalizer)
			ranking := salience.RankCharacters(breakdown.Scenes)

			fmt.Fprintln(cmd.OutOrStdout(), renderRankingTable(ranking))
			return nil
		},
	}
}

// newElementsCommand 元素分组子命令
func newElementsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "elements <breakdown.json>",
		Short: "构建并打印元素分组",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			breakdown, err := loadBreakdownFile(args[0])
			if err != nil {
				return err
			}

			canonicalizer := services.NewCanonicalizerService()
			elements := services.NewElementService(canonicalizer)
			results := elements.BuildGroups(breakdown.Scenes)

			// 类别按固定顺序输出，保证多次运行结果一致
			categories := make([]string, 0, len(results))
			for category := range results {
				categories = append(categories, category)
			}
			sort.Strings(categories)

			out := cmd.OutOrStdout()
			for _, category := range categories {
				fmt.Fprintf(out, "== %s ==\n", category)
				fmt.Fprintln(out, renderElementTable(results[category]))
			}
			return nil
		},
	}
}

// newAnalyzeCommand 完整分析子命令：排名 + 分组一次输出
func newAnalyzeCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "analyze <breakdown.json>",
		Short: "执行完整分析并打印排名与分组",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			breakdown, err := loadBreakdownFile(args[0])
			if err != nil {
				return err
			}

			canonicalizer := services.NewCanonicalizerService()
			salience := services.NewSalienceService(canonicalizer)
			elements := services.NewElementService(canonicalizer)

			ranking := salience.RankCharacters(breakdown.Scenes)
			groups := elements.BuildGroups(breakdown.Scenes)

			out := cmd.OutOrStdout()

			if jsonOutput {
				payload := map[string]interface{}{
					"ranking":  ranking,
					"elements": groups,
				}
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(payload)
			}

			fmt.Fprintln(out, "== 角色重要度 ==")
			fmt.Fprintln(out, renderRankingTable(ranking))

			categories := make([]string, 0, len(groups))
			for category := range groups {
				categories = append(categories, category)
			}
			sort.Strings(categories)
			for _, category := range categories {
				fmt.Fprintf(out, "== %s ==\n", category)
				fmt.Fprintln(out, renderElementTable(groups[category]))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "以JSON格式输出")
	return cmd
}
