// internal/services/element_service.go
package services

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Corphon/ScriptLensMCP/internal/models"
)

// 服装归属解析规则
var (
	// wardrobeSeparatorPattern 匹配"NAME - 描述"或"NAME: 描述"形式
	// 捕获的名称原样（仅去空白）使用
	wardrobeSeparatorPattern = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z0-9 .']*?)\s*[-–—:]\s*(\S.*)$`)

	// wardrobePossessivePattern 匹配"NAME's 描述"的所有格形式
	// 捕获的名称转大写后使用
	wardrobePossessivePattern = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z .]*?)'s\s+(\S.*)$`)
)

// locationStopWords 地点根词提取时忽略的通用空间词
// 这些词作为后缀名词出现频率过高，不能作为聚类依据
var locationStopWords = map[string]bool{
	"ROOM": true, "HALLWAY": true, "HALL": true, "OFFICE": true,
	"KITCHEN": true, "GARAGE": true, "PARKING": true, "ROOFTOP": true,
	"BASEMENT": true, "BEDROOM": true, "BATHROOM": true, "CORRIDOR": true,
	"LOBBY": true, "ENTRANCE": true, "STAIRS": true, "STAIRWELL": true,
	"ELEVATOR": true, "STREET": true, "ROAD": true, "ALLEY": true,
	"YARD": true, "GARDEN": true, "FLOOR": true, "AREA": true,
	"CORNER": true, "DOOR": true, "WINDOW": true, "BUILDING": true,
	"HOUSE": true, "APARTMENT": true, "FRONT": true, "BACK": true,
	"SIDE": true, "UPSTAIRS": true, "DOWNSTAIRS": true, "INSIDE": true,
	"OUTSIDE": true,
}

// rootTokenSplitPattern 按空白或斜杠切分地点名
var rootTokenSplitPattern = regexp.MustCompile(`[\s/]+`)

// LocationClusterStrategy 地点聚类策略接口
// 当前实现为种子贪心算法；保留接口以便将来替换为传递闭包（并查集）版本
type LocationClusterStrategy interface {
	// Cluster 将地点名列表划分为簇，每簇至少一个成员，保持输入顺序
	Cluster(locations []string) [][]string
}

// SeedClusterStrategy 种子贪心聚类
// 已知局限：成员资格只对种子判定、不传递——若A与B、B与C各共享不同根词，
// 三者仍会以B为隐式桥归入同一簇。该行为是既定语义的一部分，不做"修正"。
type SeedClusterStrategy struct{}

// Cluster 按列表顺序取未消费的地点作种子，向后扫描
// 候选地点与种子的根词集合共享至少一个长度≥4的词即并入
func (s *SeedClusterStrategy) Cluster(locations []string) [][]string {
	roots := make([]map[string]bool, len(locations))
	for i, loc := range locations {
		roots[i] = extractRootTokens(loc)
	}

	consumed := make([]bool, len(locations))
	var clusters [][]string

	for i := range locations {
		if consumed[i] {
			continue
		}
		consumed[i] = true
		cluster := []string{locations[i]}

		for j := i + 1; j < len(locations); j++ {
			if consumed[j] {
				continue
			}
			if shareSignificantRoot(roots[i], roots[j]) {
				consumed[j] = true
				cluster = append(cluster, locations[j])
			}
		}

		clusters = append(clusters, cluster)
	}

	return clusters
}

// extractRootTokens 提取地点名的根词集合
// 按空白/斜杠切分、转大写，保留长度>2且不在停用表中的词
func extractRootTokens(location string) map[string]bool {
	tokens := rootTokenSplitPattern.Split(location, -1)
	roots := make(map[string]bool)
	for _, token := range tokens {
		token = strings.ToUpper(strings.Trim(token, ".,;:!?'\""))
		if len(token) > 2 && !locationStopWords[token] {
			roots[token] = true
		}
	}
	return roots
}

// shareSignificantRoot 判断两个根词集合是否共享长度≥4的词
func shareSignificantRoot(a, b map[string]bool) bool {
	for token := range a {
		if len(token) >= 4 && b[token] {
			return true
		}
	}
	return false
}

// idGenerator 本次构建内的组ID生成器
// 局部对象而非包级计数器，避免跨调用的状态泄漏
type idGenerator struct {
	counter int
}

// next 生成"elem_<序号>_<纳秒时间戳>"形式的ID，构建内唯一
func (g *idGenerator) next() string {
	g.counter++
	return fmt.Sprintf("elem_%d_%d", g.counter, time.Now().UnixNano())
}

// ElementService 将规范化后的元素名单划分为组与未归组余集
type ElementService struct {
	canonicalizer *CanonicalizerService
	strategy      LocationClusterStrategy
}

// NewElementService 创建元素归并服务，默认使用种子贪心策略
func NewElementService(canonicalizer *CanonicalizerService) *ElementService {
	return &ElementService{
		canonicalizer: canonicalizer,
		strategy:      &SeedClusterStrategy{},
	}
}

// NewElementServiceWithStrategy 使用指定聚类策略创建服务
func NewElementServiceWithStrategy(canonicalizer *CanonicalizerService, strategy LocationClusterStrategy) *ElementService {
	return &ElementService{
		canonicalizer: canonicalizer,
		strategy:      strategy,
	}
}

// BuildGroups 对整个场景序列构建各类别的元素分组
// 地点与服装走各自的聚类算法，道具与视觉母题仅去重后全部归入未分组
func (s *ElementService) BuildGroups(scenes []models.Scene) map[string]models.ElementCategoryResult {
	gen := &idGenerator{}

	var rawLocations, rawWardrobe, rawProps, rawMotifs []string
	for _, scene := range scenes {
		rawLocations = append(rawLocations, scene.Locations...)
		rawWardrobe = append(rawWardrobe, scene.Wardrobe...)
		rawProps = append(rawProps, scene.Props...)
		rawMotifs = append(rawMotifs, scene.VisualMotifs...)
	}

	return map[string]models.ElementCategoryResult{
		models.CategoryLocation:    s.buildLocationGroups(rawLocations, gen),
		models.CategoryWardrobe:    s.buildWardrobeGroups(rawWardrobe, gen),
		models.CategoryProp:        passthroughCategory(rawProps),
		models.CategoryVisualMotif: passthroughCategory(rawMotifs),
	}
}

// BuildLocationGroups 单独对地点列表做共享根词聚类
func (s *ElementService) BuildLocationGroups(rawLocations []string) models.ElementCategoryResult {
	return s.buildLocationGroups(rawLocations, &idGenerator{})
}

// BuildWardrobeGroups 单独对服装短语做按角色归组
func (s *ElementService) BuildWardrobeGroups(rawPhrases []string) models.ElementCategoryResult {
	return s.buildWardrobeGroups(rawPhrases, &idGenerator{})
}

// buildLocationGroups 地点聚类：去重→规范化→再去重→策略聚类→命名
func (s *ElementService) buildLocationGroups(rawLocations []string, gen *idGenerator) models.ElementCategoryResult {
	var canonical []string
	seen := make(map[string]bool)
	for _, raw := range dedupeInOrder(rawLocations) {
		name := s.canonicalizer.CleanLocationName(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		canonical = append(canonical, name)
	}

	result := models.ElementCategoryResult{
		Ungrouped: []string{},
		Groups:    []models.ElementGroup{},
	}

	for _, cluster := range s.strategy.Cluster(canonical) {
		if len(cluster) < 2 {
			// 未找到同伴的地点留在未分组集合
			result.Ungrouped = append(result.Ungrouped, cluster...)
			continue
		}
		result.Groups = append(result.Groups, models.ElementGroup{
			ID:         gen.next(),
			ParentName: clusterParentName(cluster),
			Variants:   cluster,
		})
	}

	return result
}

// clusterParentName 为一个多成员簇计算父名称
// 统计所有成员中长度≥4的根词，保留出现次数≥簇大小者，
// 取次数最高的词；并列时先取更短的词，再按字典序
func clusterParentName(cluster []string) string {
	counts := make(map[string]int)
	for _, member := range cluster {
		for token := range extractRootTokens(member) {
			if len(token) >= 4 {
				counts[token]++
			}
		}
	}

	var candidates []string
	for token, count := range counts {
		if count >= len(cluster) {
			candidates = append(candidates, token)
		}
	}
	if len(candidates) == 0 {
		// 没有贯穿全簇的根词时退回种子地点原名
		return cluster[0]
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})

	return TitleCase(candidates[0])
}

// buildWardrobeGroups 服装按归属角色分桶
// 两种解析模式依次尝试：分隔符形式与所有格形式
func (s *ElementService) buildWardrobeGroups(rawPhrases []string, gen *idGenerator) models.ElementCategoryResult {
	result := models.ElementCategoryResult{
		Ungrouped: []string{},
		Groups:    []models.ElementGroup{},
	}

	buckets := make(map[string][]string) // 大写角色键 -> 原始短语
	var bucketOrder []string

	for _, phrase := range dedupeInOrder(rawPhrases) {
		owner := extractWardrobeOwner(phrase)
		if owner == "" {
			result.Ungrouped = append(result.Ungrouped, phrase)
			continue
		}

		key := strings.ToUpper(owner)
		if _, exists := buckets[key]; !exists {
			bucketOrder = append(bucketOrder, key)
		}
		buckets[key] = append(buckets[key], phrase)
	}

	for _, key := range bucketOrder {
		result.Groups = append(result.Groups, models.ElementGroup{
			ID:         gen.next(),
			ParentName: TitleCase(key),
			Variants:   buckets[key],
		})
	}

	return result
}

// extractWardrobeOwner 从服装短语中提取归属角色名
// 分隔符形式的名称原样保留，所有格形式的名称转大写
// 提取失败或名称不超过一个字符时返回空串
func extractWardrobeOwner(phrase string) string {
	if m := wardrobeSeparatorPattern.FindStringSubmatch(phrase); m != nil {
		name := strings.TrimSpace(m[1])
		if len(name) > 1 {
			return name
		}
		return ""
	}
	if m := wardrobePossessivePattern.FindStringSubmatch(phrase); m != nil {
		name := strings.ToUpper(strings.TrimSpace(m[1]))
		if len(name) > 1 {
			return name
		}
	}
	return ""
}

// passthroughCategory 不做聚类的类别：去空去重后全部归入未分组
// 先去空白再去重，"map"与" map "只保留一份
func passthroughCategory(raw []string) models.ElementCategoryResult {
	result := models.ElementCategoryResult{
		Ungrouped: []string{},
		Groups:    []models.ElementGroup{},
	}

	trimmed := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			trimmed = append(trimmed, item)
		}
	}
	result.Ungrouped = append(result.Ungrouped, dedupeInOrder(trimmed)...)

	return result
}

// dedupeInOrder 保序去重（按原始值的集合语义）
func dedupeInOrder(items []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, item := range items {
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
