// internal/models/element.go
package models

// 元素类别常量
const (
	CategoryLocation    = "locations"
	CategoryWardrobe    = "wardrobe"
	CategoryProp        = "props"
	CategoryVisualMotif = "visual_motifs"
)

// ElementGroup 表示同一类别下被归并到一起的一组元素变体
// 不变量：同一类别内各组的变体集合两两不相交
type ElementGroup struct {
	ID         string   `json:"id"`          // 本次构建内唯一
	ParentName string   `json:"parent_name"` // 组的展示名称
	Variants   []string `json:"variants"`    // 按发现顺序排列的成员
}

// ElementCategoryResult 表示一个类别的归并结果
// ungrouped ∪ (∪ groups.variants) 恰好等于该类别的全部规范化条目
type ElementCategoryResult struct {
	Ungrouped []string       `json:"ungrouped"`
	Groups    []ElementGroup `json:"groups"`
}
