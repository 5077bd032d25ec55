// internal/models/breakdown.go
package models

import (
	"time"
)

// ScriptBreakdown 表示一份完整的剧本拆解输入
type ScriptBreakdown struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Source    string    `json:"source,omitempty"` // 上游提取端标识
	CreatedAt time.Time `json:"created_at"`
	Scenes    []Scene   `json:"scenes"`
}

// BreakdownAnalysis 表示对一份拆解的完整分析产出
// 纯可序列化结构，供下游制片规划工具持久化或展示
type BreakdownAnalysis struct {
	ID         string                           `json:"id"`
	Title      string                           `json:"title"`
	SceneCount int                              `json:"scene_count"`
	Elements   map[string]ElementCategoryResult `json:"elements"` // 类别 -> 归并结果
	Ranking    []CharacterRanking               `json:"ranking"`  // 按重要度排序
	AnalyzedAt time.Time                        `json:"analyzed_at"`
}

// BreakdownMetadata 用于拆解列表展示
type BreakdownMetadata struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	SceneCount int       `json:"scene_count"`
	CreatedAt  time.Time `json:"created_at"`
}
