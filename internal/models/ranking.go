// internal/models/ranking.go
package models

// CharacterTier 表示角色的叙事权重层级
type CharacterTier string

const (
	TierLead          CharacterTier = "LEAD"
	TierStrongSupport CharacterTier = "STRONG_SUPPORT"
	TierFeature       CharacterTier = "FEATURE"
	TierUnder5        CharacterTier = "UNDER_5"
	TierBackground    CharacterTier = "BACKGROUND"
)

// tierOrder 层级从低到高的序关系，守护规则晋升时使用
var tierOrder = []CharacterTier{
	TierBackground,
	TierUnder5,
	TierFeature,
	TierStrongSupport,
	TierLead,
}

// Promote 返回高一级的层级，已是最高级时原样返回
func (t CharacterTier) Promote() CharacterTier {
	for i, tier := range tierOrder {
		if tier == t && i+1 < len(tierOrder) {
			return tierOrder[i+1]
		}
	}
	return t
}

// Above 判断当前层级是否严格高于另一层级
func (t CharacterTier) Above(other CharacterTier) bool {
	return t.level() > other.level()
}

func (t CharacterTier) level() int {
	for i, tier := range tierOrder {
		if tier == t {
			return i
		}
	}
	return -1
}

// CharacterRanking 表示一个角色的重要度评估结果
// 每次调用都从完整场景序列重新计算，无增量状态
type CharacterRanking struct {
	Key            string        `json:"key"`             // 规范化大写去重键
	Name           string        `json:"name"`            // 展示名称
	WordCount      int           `json:"word_count"`      // 台词量代理的累计词数
	DialogueScenes int           `json:"dialogue_scenes"` // 含对话代理内容的场景数
	SceneCount     int           `json:"scene_count"`     // 出场场景总数
	PageCount      int           `json:"page_count"`      // 触及的不同页数
	FirstPage      int           `json:"first_page"`      // 首次出现页
	LastPage       int           `json:"last_page"`       // 末次出现页
	Dominance      int           `json:"dominance"`       // 进入场景前二话量的次数
	Score          float64       `json:"score"`           // 复合重要度得分 [0,1]
	Rank           int           `json:"rank"`            // 1为最重要
	Tier           CharacterTier `json:"tier"`            // 叙事权重层级
}
