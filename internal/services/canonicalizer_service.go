// internal/services/canonicalizer_service.go
package services

import (
	"regexp"
	"strings"
	"unicode"
)

// 命名的解析规则，全部在包加载时编译
// 每条规则单独测试，避免散落的一次性匹配
var (
	// characterParenPattern 匹配角色名中任意位置的括号注释（年龄、描述等）
	characterParenPattern = regexp.MustCompile(`\([^)]*\)`)

	// locationDescriptorPattern 匹配由空白+破折号引入的尾部自由描述
	// 覆盖连字符、en-dash、em-dash三种写法
	locationDescriptorPattern = regexp.MustCompile(`\s+[-–—].*$`)

	// locationPrefixPattern 匹配开头的场景类型前缀及其后续标点
	// 注意交替顺序：INT/EXT 必须先于 INT 尝试
	locationPrefixPattern = regexp.MustCompile(`(?i)^(?:INT\s*/\s*EXT|I/E|INT|EXT)[\s.\-–—:]+`)

	// locationTimeSuffixPattern 匹配破折号引入的时间后缀
	locationTimeSuffixPattern = regexp.MustCompile(`(?i)[-–—]\s*(?:MOMENTS LATER|DAY|NIGHT|DAWN|DUSK|MORNING|EVENING|AFTERNOON|LATER|CONTINUOUS)\s*$`)
)

// characterCutMarkers 角色名截断标记，按首次出现位置取最早者
// 破折号标记兼容连字符与en/em-dash三种排版
var characterCutMarkers = []string{" - ", " – ", " — ", ": ", ", "}

// CanonicalizerService 将原始提及字符串规范化为展示名称
// 纯函数服务：确定、幂等、对任何输入都不报错
type CanonicalizerService struct{}

// NewCanonicalizerService 创建规范化服务
func NewCanonicalizerService() *CanonicalizerService {
	return &CanonicalizerService{}
}

// CleanCharacterName 规范化角色名
// 先去掉括号注释，再在最早出现的截断标记处截断，最后去除首尾空白
// 空串或纯噪声输入返回空串，由调用方过滤
func (s *CanonicalizerService) CleanCharacterName(raw string) string {
	name := characterParenPattern.ReplaceAllString(raw, "")

	cutAt := -1
	for _, marker := range characterCutMarkers {
		idx := strings.Index(name, marker)
		if idx > 0 && (cutAt < 0 || idx < cutAt) {
			cutAt = idx
		}
	}
	if cutAt > 0 {
		name = name[:cutAt]
	}

	return strings.TrimSpace(name)
}

// CharacterKey 返回角色的去重键：规范化后转大写
func (s *CanonicalizerService) CharacterKey(raw string) string {
	return strings.ToUpper(s.CleanCharacterName(raw))
}

// CleanLocationName 规范化地点名
// 依次剥离：尾部破折号描述、开头的INT/EXT前缀、破折号引入的时间后缀
func (s *CanonicalizerService) CleanLocationName(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return ""
	}

	name = locationDescriptorPattern.ReplaceAllString(name, "")
	name = locationPrefixPattern.ReplaceAllString(name, "")
	name = locationTimeSuffixPattern.ReplaceAllString(name, "")

	return strings.TrimSpace(name)
}

// TitleCase 首字母大写、其余小写的展示形式
func TitleCase(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
