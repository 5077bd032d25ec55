// internal/models/scene_test.go
package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestStringListUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		data string
		want StringList
	}{
		{"单个字符串", `"Hospital Room"`, StringList{"Hospital Room"}},
		{"字符串列表", `["a","b"]`, StringList{"a", "b"}},
		{"空列表", `[]`, StringList{}},
		{"null", `null`, nil},
		{"空字符串", `""`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got StringList
			if err := json.Unmarshal([]byte(tt.data), &got); err != nil {
				t.Fatalf("Unmarshal(%s) 出错: %v", tt.data, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Unmarshal(%s) = %#v, want %#v", tt.data, got, tt.want)
			}
		})
	}
}

func TestStringListUnmarshalInvalid(t *testing.T) {
	var got StringList
	if err := json.Unmarshal([]byte(`123`), &got); err == nil {
		t.Error("数字输入应返回错误")
	}
}

func TestSceneUnmarshalMixedShapes(t *testing.T) {
	// 同一份输入里单值与列表混用
	data := `{
		"index": 3,
		"locations": "INT. LAB - DAY",
		"props": ["microscope", "notebook"],
		"characters": [{"name": "ANA", "action": "peers into the lens"}]
	}`

	var scene Scene
	if err := json.Unmarshal([]byte(data), &scene); err != nil {
		t.Fatalf("Unmarshal出错: %v", err)
	}

	if !reflect.DeepEqual(scene.Locations, StringList{"INT. LAB - DAY"}) {
		t.Errorf("Locations = %v", scene.Locations)
	}
	if !reflect.DeepEqual(scene.Props, StringList{"microscope", "notebook"}) {
		t.Errorf("Props = %v", scene.Props)
	}
	if len(scene.Characters) != 1 || scene.Characters[0].Name != "ANA" {
		t.Errorf("Characters = %v", scene.Characters)
	}
}

func TestPageOrPosition(t *testing.T) {
	tests := []struct {
		name  string
		scene Scene
		want  int
	}{
		{"显式页码优先", Scene{Index: 0, Page: 42}, 42},
		{"无页码用位置", Scene{Index: 4}, 5},
		{"零页码视为缺省", Scene{Index: 2, Page: 0}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.scene.PageOrPosition(); got != tt.want {
				t.Errorf("PageOrPosition() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTierPromote(t *testing.T) {
	tests := []struct {
		in   CharacterTier
		want CharacterTier
	}{
		{TierBackground, TierUnder5},
		{TierUnder5, TierFeature},
		{TierFeature, TierStrongSupport},
		{TierStrongSupport, TierLead},
		{TierLead, TierLead},
	}

	for _, tt := range tests {
		if got := tt.in.Promote(); got != tt.want {
			t.Errorf("%s.Promote() = %s, want %s", tt.in, got, tt.want)
		}
	}
}
