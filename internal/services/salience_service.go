// internal/services/salience_service.go
package services

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/Corphon/ScriptLensMCP/internal/models"
)

// crowdRolePattern 匹配群众/背景角色标签
// 短的通用称谓可带"#数字"编号，必须整名匹配（OFFICER DANIELS 不受影响）
var crowdRolePattern = regexp.MustCompile(`^(?:COP|WAITER|OFFICER|GUARD|NURSE|DOCTOR|DRIVER|PATRON|CUSTOMER|BYSTANDER)(?:\s*#\s*\d+)?$`)

// 复合得分的权重配置
const (
	weightDialogueVolume = 0.50
	weightAppearance     = 0.30
	weightPageSpread     = 0.15
	weightSalienceBonus  = 0.05
)

// 守护规则阈值
const (
	recurringSceneFraction = 0.12 // 出场占比达标即晋升
	recurringPageFraction  = 0.10 // 页密度达标即晋升
)

// characterAccumulator 单个角色的逐场累计指标
type characterAccumulator struct {
	key            string
	name           string // 首次见到的展示名
	wordCount      int
	dialogueScenes int
	sceneCount     int
	pages          map[int]bool
	firstPage      int
	lastPage       int
	dominance      int
}

// SalienceService 计算角色重要度排名
// 对完整场景序列的纯函数：同一输入永远产出同一排序与得分
type SalienceService struct {
	canonicalizer *CanonicalizerService
}

// NewSalienceService 创建重要度排名服务
func NewSalienceService(canonicalizer *CanonicalizerService) *SalienceService {
	return &SalienceService{canonicalizer: canonicalizer}
}

// RankCharacters 对场景序列中的全部角色评分、排序并分层
// 空场景列表返回空结果，不报错
func (s *SalienceService) RankCharacters(scenes []models.Scene) []models.CharacterRanking {
	if len(scenes) == 0 {
		return []models.CharacterRanking{}
	}

	accumulators := s.accumulate(scenes)
	if len(accumulators) == 0 {
		return []models.CharacterRanking{}
	}

	rankings := s.score(accumulators, len(scenes))
	s.sortAndRank(rankings)
	s.assignTiers(rankings, len(scenes))

	return rankings
}

// accumulate 第一、二步：逐场累计指标并统计话量前二的支配次数
func (s *SalienceService) accumulate(scenes []models.Scene) map[string]*characterAccumulator {
	accumulators := make(map[string]*characterAccumulator)

	for _, scene := range scenes {
		page := scene.PageOrPosition()

		// 本场内按角色合并多次提及
		type sceneEntry struct {
			words   int
			hasMood bool
		}
		sceneLocal := make(map[string]*sceneEntry)
		var sceneOrder []string

		for _, mention := range scene.Characters {
			name := s.canonicalizer.CleanCharacterName(mention.Name)
			if name == "" {
				continue
			}
			key := strings.ToUpper(name)
			// 整名命中群众角色模式的提及直接丢弃
			if crowdRolePattern.MatchString(key) {
				continue
			}

			if _, exists := accumulators[key]; !exists {
				accumulators[key] = &characterAccumulator{
					key:   key,
					name:  name,
					pages: make(map[int]bool),
				}
			}

			entry, exists := sceneLocal[key]
			if !exists {
				entry = &sceneEntry{}
				sceneLocal[key] = entry
				sceneOrder = append(sceneOrder, key)
			}
			entry.words += countProxyWords(mention)
			if mention.Mood != "" {
				entry.hasMood = true
			}
		}

		for _, key := range sceneOrder {
			acc := accumulators[key]
			entry := sceneLocal[key]

			acc.sceneCount++
			acc.pages[page] = true
			if acc.firstPage == 0 || page < acc.firstPage {
				acc.firstPage = page
			}
			if page > acc.lastPage {
				acc.lastPage = page
			}

			// 词数为正或存在情绪基调字段都算对话场景
			if entry.words > 0 || entry.hasMood {
				acc.dialogueScenes++
				acc.wordCount += entry.words
			}
		}

		// 场内支配：按场内话量降序，前二各记一次
		sort.SliceStable(sceneOrder, func(i, j int) bool {
			wi, wj := sceneLocal[sceneOrder[i]].words, sceneLocal[sceneOrder[j]].words
			if wi != wj {
				return wi > wj
			}
			return sceneOrder[i] < sceneOrder[j]
		})
		for i, key := range sceneOrder {
			if i >= 2 {
				break
			}
			accumulators[key].dominance++
		}
	}

	return accumulators
}

// countProxyWords 拼接三个描述性子字段并按空白计词
// 描述性元数据作为台词量代理，是上游的既定近似而非缺陷
func countProxyWords(m models.CharacterMention) int {
	combined := strings.TrimSpace(m.Action + " " + m.Emotion + " " + m.Note)
	if combined == "" {
		return 0
	}
	return len(strings.Fields(combined))
}

// score 第三、四步：归一化并计算复合得分
func (s *SalienceService) score(accumulators map[string]*characterAccumulator, totalScenes int) []models.CharacterRanking {
	maxWords, maxDialogue, maxScenes, maxPages, maxDominance := 1, 1, 1, 1, 1
	maxLastPage := 0
	for _, acc := range accumulators {
		maxWords = maxInt(maxWords, acc.wordCount)
		maxDialogue = maxInt(maxDialogue, acc.dialogueScenes)
		maxScenes = maxInt(maxScenes, acc.sceneCount)
		maxPages = maxInt(maxPages, len(acc.pages))
		maxDominance = maxInt(maxDominance, acc.dominance)
		maxLastPage = maxInt(maxLastPage, acc.lastPage)
	}

	// 显式页码可能远大于场景数，总页数取两者较大值，
	// 保证跨度与密度以及复合得分都落在[0,1]内
	totalPages := float64(maxInt(maxInt(totalScenes, maxLastPage), 1))

	rankings := make([]models.CharacterRanking, 0, len(accumulators))
	for _, acc := range accumulators {
		pageCount := len(acc.pages)

		// 原始词数做对数压缩，防止单场独白拉高整体得分
		dialogueVolume := 0.6*logNorm(acc.wordCount, maxWords) +
			0.4*linNorm(acc.dialogueScenes, maxDialogue)

		appearance := 0.7*linNorm(acc.sceneCount, maxScenes) +
			0.3*linNorm(pageCount, maxPages)

		span := 0.0
		if acc.firstPage > 0 {
			span = float64(acc.lastPage-acc.firstPage) / totalPages
		}
		density := float64(pageCount) / totalPages
		pageSpread := 0.6*density + 0.4*span

		bonus := linNorm(acc.dominance, maxDominance)

		score := weightDialogueVolume*dialogueVolume +
			weightAppearance*appearance +
			weightPageSpread*pageSpread +
			weightSalienceBonus*bonus

		rankings = append(rankings, models.CharacterRanking{
			Key:            acc.key,
			Name:           acc.name,
			WordCount:      acc.wordCount,
			DialogueScenes: acc.dialogueScenes,
			SceneCount:     acc.sceneCount,
			PageCount:      pageCount,
			FirstPage:      acc.firstPage,
			LastPage:       acc.lastPage,
			Dominance:      acc.dominance,
			Score:          score,
		})
	}

	return rankings
}

// sortAndRank 第五步：排序与平局决胜
// 得分降序；并列依次比较对话场景数(降)、出场数(降)、首页(升)、页密度(降)
func (s *SalienceService) sortAndRank(rankings []models.CharacterRanking) {
	sort.SliceStable(rankings, func(i, j int) bool {
		a, b := rankings[i], rankings[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.DialogueScenes != b.DialogueScenes {
			return a.DialogueScenes > b.DialogueScenes
		}
		if a.SceneCount != b.SceneCount {
			return a.SceneCount > b.SceneCount
		}
		if a.FirstPage != b.FirstPage {
			return a.FirstPage < b.FirstPage
		}
		if a.PageCount != b.PageCount {
			return a.PageCount > b.PageCount
		}
		// 完全同分时按键名稳定排序，保证确定性
		return a.Key < b.Key
	})

	for i := range rankings {
		rankings[i].Rank = i + 1
	}
}

// assignTiers 第六步：按名次定基础层级并应用两条守护规则
func (s *SalienceService) assignTiers(rankings []models.CharacterRanking, totalScenes int) {
	total := float64(maxInt(totalScenes, 1))

	for i := range rankings {
		r := &rankings[i]

		// 零词且零对话场景的角色无条件归为背景
		if r.WordCount == 0 && r.DialogueScenes == 0 {
			r.Tier = models.TierBackground
			continue
		}

		tier := baseTierForRank(r.Rank)

		// 独白封顶：单场景撑起的高名次最多给到FEATURE
		if r.Rank <= 8 && r.DialogueScenes <= 1 && r.SceneCount <= 1 &&
			tier.Above(models.TierFeature) {
			tier = models.TierFeature
		}

		// 常驻但话少的角色向上提一级
		sceneFraction := float64(r.SceneCount) / total
		pageFraction := float64(r.PageCount) / total
		if (sceneFraction >= recurringSceneFraction || pageFraction >= recurringPageFraction) &&
			(tier == models.TierUnder5 || tier == models.TierFeature) {
			tier = tier.Promote()
		}

		r.Tier = tier
	}
}

// baseTierForRank 仅由名次决定的基础层级
func baseTierForRank(rank int) models.CharacterTier {
	switch {
	case rank <= 2:
		return models.TierLead
	case rank <= 8:
		return models.TierStrongSupport
	case rank <= 18:
		return models.TierFeature
	default:
		return models.TierUnder5
	}
}

// linNorm 线性归一化 x/max
func linNorm(x, max int) float64 {
	return float64(x) / float64(maxInt(max, 1))
}

// logNorm 对数压缩归一化 ln(1+x)/ln(1+max)
func logNorm(x, max int) float64 {
	return math.Log1p(float64(x)) / math.Log1p(float64(maxInt(max, 1)))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
