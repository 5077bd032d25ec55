// internal/services/element_service_test.go
package services

import (
	"reflect"
	"strings"
	"testing"

	"github.com/Corphon/ScriptLensMCP/internal/models"
)

func newTestElementService() *ElementService {
	return NewElementService(NewCanonicalizerService())
}

func TestBuildWardrobeGroups(t *testing.T) {
	s := newTestElementService()

	result := s.BuildWardrobeGroups([]string{
		"JOHN - blue suit",
		"JOHN: gray coat",
		"unlabeled scarf",
	})

	if len(result.Groups) != 1 {
		t.Fatalf("期望1个分组, 得到 %d", len(result.Groups))
	}

	group := result.Groups[0]
	if group.ParentName != "John" {
		t.Errorf("ParentName = %q, want %q", group.ParentName, "John")
	}
	wantVariants := []string{"JOHN - blue suit", "JOHN: gray coat"}
	if !reflect.DeepEqual(group.Variants, wantVariants) {
		t.Errorf("Variants = %v, want %v", group.Variants, wantVariants)
	}
	if !reflect.DeepEqual(result.Ungrouped, []string{"unlabeled scarf"}) {
		t.Errorf("Ungrouped = %v, want [unlabeled scarf]", result.Ungrouped)
	}
}

func TestBuildWardrobeGroupsPossessive(t *testing.T) {
	s := newTestElementService()

	// 所有格形式与分隔符形式应合并到同一角色桶
	result := s.BuildWardrobeGroups([]string{
		"John's lab coat",
		"JOHN - blue suit",
	})

	if len(result.Groups) != 1 {
		t.Fatalf("期望1个分组, 得到 %d", len(result.Groups))
	}
	if got := len(result.Groups[0].Variants); got != 2 {
		t.Errorf("变体数 = %d, want 2", got)
	}
}

func TestBuildWardrobeGroupsEdgeCases(t *testing.T) {
	s := newTestElementService()

	tests := []struct {
		name          string
		phrases       []string
		wantGroups    int
		wantUngrouped int
	}{
		{"单字符名不成组", []string{"A - red hat"}, 0, 1},
		{"重复短语集合去重", []string{"JOHN - suit", "JOHN - suit"}, 1, 0},
		{"空输入", nil, 0, 0},
		{"无归属短语", []string{"leather gloves", "wool cap"}, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.BuildWardrobeGroups(tt.phrases)
			if len(result.Groups) != tt.wantGroups {
				t.Errorf("分组数 = %d, want %d", len(result.Groups), tt.wantGroups)
			}
			if len(result.Ungrouped) != tt.wantUngrouped {
				t.Errorf("未分组数 = %d, want %d", len(result.Ungrouped), tt.wantUngrouped)
			}
		})
	}
}

func TestBuildLocationGroups(t *testing.T) {
	s := newTestElementService()

	result := s.BuildLocationGroups([]string{
		"Hospital Room",
		"Hospital Hallway",
		"City Park",
	})

	if len(result.Groups) != 1 {
		t.Fatalf("期望1个分组, 得到 %d", len(result.Groups))
	}

	group := result.Groups[0]
	if group.ParentName != "Hospital" {
		t.Errorf("ParentName = %q, want %q", group.ParentName, "Hospital")
	}
	wantVariants := []string{"Hospital Room", "Hospital Hallway"}
	if !reflect.DeepEqual(group.Variants, wantVariants) {
		t.Errorf("Variants = %v, want %v", group.Variants, wantVariants)
	}
	if !reflect.DeepEqual(result.Ungrouped, []string{"City Park"}) {
		t.Errorf("Ungrouped = %v, want [City Park]", result.Ungrouped)
	}
}

// TestBuildLocationGroupsBridge 种子桥接效应：A与C互不相关，
// 但都与种子B各自共享根词时，三者归入同一簇
func TestBuildLocationGroupsBridge(t *testing.T) {
	s := newTestElementService()

	result := s.BuildLocationGroups([]string{
		"Harbor Bridge Checkpoint",
		"Harbor Warehouse",
		"Bridge Tower",
	})

	if len(result.Groups) != 1 {
		t.Fatalf("期望1个分组, 得到 %d", len(result.Groups))
	}
	if got := len(result.Groups[0].Variants); got != 3 {
		t.Errorf("簇大小 = %d, want 3", got)
	}
	// 没有贯穿全簇的根词，父名退回种子原名
	if got := result.Groups[0].ParentName; got != "Harbor Bridge Checkpoint" {
		t.Errorf("ParentName = %q, want 种子原名", got)
	}
}

func TestBuildLocationGroupsCanonicalization(t *testing.T) {
	s := newTestElementService()

	// 规范化后相同的地点应先被去重
	result := s.BuildLocationGroups([]string{
		"INT. HOSPITAL ROOM - DAY",
		"HOSPITAL ROOM",
		"EXT. HOSPITAL ROOFTOP - NIGHT",
	})

	if len(result.Groups) != 1 {
		t.Fatalf("期望1个分组, 得到 %d", len(result.Groups))
	}
	wantVariants := []string{"HOSPITAL ROOM", "HOSPITAL ROOFTOP"}
	if !reflect.DeepEqual(result.Groups[0].Variants, wantVariants) {
		t.Errorf("Variants = %v, want %v", result.Groups[0].Variants, wantVariants)
	}
}

func TestStopWordsNotUsedAsRoots(t *testing.T) {
	s := newTestElementService()

	// ROOM是停用词，不能把无关地点聚到一起
	result := s.BuildLocationGroups([]string{
		"Hotel Room",
		"Engine Room",
	})

	if len(result.Groups) != 0 {
		t.Errorf("停用词不应成簇, 得到 %d 个分组", len(result.Groups))
	}
	if len(result.Ungrouped) != 2 {
		t.Errorf("未分组数 = %d, want 2", len(result.Ungrouped))
	}
}

// TestElementPartitionInvariant 分区不变量：
// 未分组 ∪ 各组变体 = 全部条目，且各组变体两两不相交
func TestElementPartitionInvariant(t *testing.T) {
	s := newTestElementService()

	scenes := []models.Scene{
		{
			Index:     0,
			Locations: models.StringList{"INT. HOSPITAL ROOM - DAY", "EXT. CITY PARK - NIGHT"},
			Wardrobe:  models.StringList{"JOHN - blue suit", "unlabeled scarf"},
			Props:     models.StringList{"revolver"},
		},
		{
			Index:        1,
			Locations:    models.StringList{"INT. HOSPITAL HALLWAY - NIGHT", "City Park"},
			Wardrobe:     models.StringList{"JOHN: gray coat", "Mary's red scarf"},
			VisualMotifs: models.StringList{"rain on glass"},
		},
	}

	results := s.BuildGroups(scenes)

	for category, result := range results {
		seen := make(map[string]int)
		for _, entity := range result.Ungrouped {
			seen[entity]++
		}
		for _, group := range result.Groups {
			for _, variant := range group.Variants {
				seen[variant]++
			}
		}
		for entity, count := range seen {
			if count > 1 {
				t.Errorf("类别 %s: 条目 %q 出现在 %d 处，违反不相交不变量", category, entity, count)
			}
		}
	}
}

func TestGroupIDsUniqueWithinBuild(t *testing.T) {
	s := newTestElementService()

	scenes := []models.Scene{
		{
			Locations: models.StringList{"Hospital Room", "Hospital Hallway", "Harbor Docks", "Harbor Office"},
			Wardrobe:  models.StringList{"JOHN - suit", "MARY - dress"},
		},
	}

	results := s.BuildGroups(scenes)

	ids := make(map[string]bool)
	for _, result := range results {
		for _, group := range result.Groups {
			if group.ID == "" {
				t.Error("分组ID不能为空")
			}
			if !strings.HasPrefix(group.ID, "elem_") {
				t.Errorf("分组ID格式异常: %q", group.ID)
			}
			if ids[group.ID] {
				t.Errorf("分组ID重复: %q", group.ID)
			}
			ids[group.ID] = true
		}
	}
}

func TestPassthroughCategories(t *testing.T) {
	s := newTestElementService()

	// 去重必须发生在去空白之后：" map "与"map"是同一条目
	scenes := []models.Scene{
		{Props: models.StringList{"revolver", "revolver", " ", "map", " map "}},
	}

	results := s.BuildGroups(scenes)
	props := results[models.CategoryProp]

	if len(props.Groups) != 0 {
		t.Errorf("道具类别不应产生分组, 得到 %d", len(props.Groups))
	}
	if !reflect.DeepEqual(props.Ungrouped, []string{"revolver", "map"}) {
		t.Errorf("Ungrouped = %v, want [revolver map]", props.Ungrouped)
	}
}

func TestEmptyScenesProduceEmptyResults(t *testing.T) {
	s := newTestElementService()

	results := s.BuildGroups(nil)
	for category, result := range results {
		if len(result.Groups) != 0 || len(result.Ungrouped) != 0 {
			t.Errorf("类别 %s 对空输入应为空结果", category)
		}
	}
}
