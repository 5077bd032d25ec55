// cmd/scriptlens/table.go
package main

import (
	"fmt"
	"strings"

	"github.com/Corphon/ScriptLensMCP/internal/models"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// renderRankingTable 渲染角色重要度表格
func renderRankingTable(ranking []models.CharacterRanking) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	tw.AppendHeader(table.Row{"#", "角色", "层级", "得分", "对话场景", "出场", "页跨度"})

	for _, r := range ranking {
		tw.AppendRow(table.Row{
			r.Rank,
			r.Name,
			string(r.Tier),
			fmt.Sprintf("%.3f", r.Score),
			r.DialogueScenes,
			r.SceneCount,
			fmt.Sprintf("%d-%d", r.FirstPage, r.LastPage),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})

	return tw.Render()
}

// renderElementTable 渲染一个类别的分组结果
func renderElementTable(result models.ElementCategoryResult) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	tw.AppendHeader(table.Row{"分组", "成员"})

	for _, group := range result.Groups {
		tw.AppendRow(table.Row{group.ParentName, strings.Join(group.Variants, ", ")})
	}
	if len(result.Ungrouped) > 0 {
		tw.AppendRow(table.Row{"(未分组)", strings.Join(result.Ungrouped, ", ")})
	}

	return tw.Render()
}
