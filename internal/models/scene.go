// internal/models/scene.go
package models

import (
	"bytes"
	"encoding/json"
)

// Scene 表示剧本拆解中的一个场景记录
// 由上游提取端产出，本系统只读不改
type Scene struct {
	Index        int                `json:"index"`                   // 场景在序列中的位置（0起）
	Number       string             `json:"number,omitempty"`        // 剧本中的显式场号
	Page         int                `json:"page,omitempty"`          // 显式页码，缺省时用位置代替
	Heading      string             `json:"heading,omitempty"`       // 场景标题（slugline）
	Synopsis     string             `json:"synopsis,omitempty"`      // 场景梗概
	Characters   []CharacterMention `json:"characters,omitempty"`    // 本场角色提及
	Locations    StringList         `json:"locations,omitempty"`     // 地点（单值或列表）
	Props        StringList         `json:"props,omitempty"`         // 道具
	Wardrobe     StringList         `json:"wardrobe,omitempty"`      // 服装
	VisualMotifs StringList         `json:"visual_motifs,omitempty"` // 视觉母题
}

// CharacterMention 表示场景中的一次角色提及
// Action/Emotion/Note 三个描述性子字段拼接后作为台词量代理
type CharacterMention struct {
	Name    string `json:"name"`
	Action  string `json:"action,omitempty"`  // 行为描述短语
	Emotion string `json:"emotion,omitempty"` // 情绪描述短语
	Note    string `json:"note,omitempty"`    // 补充说明
	Mood    string `json:"mood,omitempty"`    // 情绪基调，存在即计入对话场景
}

// PageOrPosition 返回该场景的页码代理值
// 有显式页码时使用页码，否则退回1起的序列位置
func (s *Scene) PageOrPosition() int {
	if s.Page > 0 {
		return s.Page
	}
	return s.Index + 1
}

// StringList 兼容"单个字符串"与"字符串列表"两种JSON形态
// 上游各类别字段的形状不统一，统一在反序列化时抹平
type StringList []string

// UnmarshalJSON 实现宽容解析：null、"x"、["x","y"] 均合法
func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	if data[0] == '[' {
		var values []string
		if err := json.Unmarshal(data, &values); err != nil {
			return err
		}
		*l = values
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	if single == "" {
		*l = nil
		return nil
	}
	*l = []string{single}
	return nil
}
