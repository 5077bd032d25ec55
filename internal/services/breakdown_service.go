// internal/services/breakdown_service.go
package services

import (
	"fmt"
	"time"

	"github.com/Corphon/ScriptLensMCP/internal/errors"
	"github.com/Corphon/ScriptLensMCP/internal/models"
	"github.com/Corphon/ScriptLensMCP/internal/storage"
	"github.com/Corphon/ScriptLensMCP/internal/utils"
	"github.com/google/uuid"
)

// 存储子目录
const (
	breakdownDir = "breakdowns"
	analysisDir  = "analyses"
)

// BreakdownService 编排两条分析通道并负责持久化
// 元素归并与重要度排名互不依赖，各自独立扫一遍场景序列
type BreakdownService struct {
	storage  *storage.FileStorage
	elements *ElementService
	salience *SalienceService
	progress *ProgressService
	stats    *StatsService
	logger   *utils.Logger
	metrics  *utils.MetricsCollector
}

// NewBreakdownService 创建拆解分析服务
func NewBreakdownService(
	fileStorage *storage.FileStorage,
	elements *ElementService,
	salience *SalienceService,
	progress *ProgressService,
	stats *StatsService,
) *BreakdownService {
	return &BreakdownService{
		storage:  fileStorage,
		elements: elements,
		salience: salience,
		progress: progress,
		stats:    stats,
		logger:   utils.GetLogger(),
		metrics:  utils.GetMetricsCollector(),
	}
}

// SaveBreakdown 保存一份拆解输入，缺失的ID与时间戳在此补齐
func (s *BreakdownService) SaveBreakdown(breakdown *models.ScriptBreakdown) error {
	if breakdown == nil {
		return errors.NewValidationError("拆解数据不能为空", nil)
	}
	if breakdown.Title == "" {
		return errors.NewValidationError("拆解标题不能为空", nil)
	}

	if breakdown.ID == "" {
		breakdown.ID = uuid.NewString()
	}
	if breakdown.CreatedAt.IsZero() {
		breakdown.CreatedAt = time.Now()
	}

	if err := s.storage.SaveJSONFile(breakdownDir, breakdown.ID+".json", breakdown); err != nil {
		return errors.NewProcessingError("保存拆解失败", err)
	}

	s.logger.Info("拆解已保存", map[string]interface{}{
		"breakdown_id": breakdown.ID,
		"scene_count":  len(breakdown.Scenes),
	})
	return nil
}

// GetBreakdown 按ID加载拆解输入
func (s *BreakdownService) GetBreakdown(id string) (*models.ScriptBreakdown, error) {
	if id == "" {
		return nil, errors.NewValidationError("拆解ID不能为空", nil)
	}

	breakdown := &models.ScriptBreakdown{}
	if err := s.storage.LoadJSONFile(breakdownDir, id+".json", breakdown); err != nil {
		return nil, errors.NewNotFoundError(fmt.Sprintf("拆解不存在: %s", id), err)
	}
	return breakdown, nil
}

// ListBreakdowns 列出全部拆解的元数据
func (s *BreakdownService) ListBreakdowns() ([]models.BreakdownMetadata, error) {
	ids, err := s.storage.ListJSONFiles(breakdownDir)
	if err != nil {
		return nil, errors.NewProcessingError("列出拆解失败", err)
	}

	metas := make([]models.BreakdownMetadata, 0, len(ids))
	for _, id := range ids {
		breakdown := &models.ScriptBreakdown{}
		if err := s.storage.LoadJSONFile(breakdownDir, id+".json", breakdown); err != nil {
			s.logger.Warning("跳过无法读取的拆解", map[string]interface{}{"id": id})
			continue
		}
		metas = append(metas, models.BreakdownMetadata{
			ID:         breakdown.ID,
			Title:      breakdown.Title,
			SceneCount: len(breakdown.Scenes),
			CreatedAt:  breakdown.CreatedAt,
		})
	}
	return metas, nil
}

// Analyze 同步执行完整分析：元素归并 + 重要度排名
// 两个组件都是输入的纯函数，分析结果在此统一落盘
func (s *BreakdownService) Analyze(breakdown *models.ScriptBreakdown) (*models.BreakdownAnalysis, error) {
	if breakdown == nil {
		return nil, errors.NewValidationError("拆解数据不能为空", nil)
	}

	start := time.Now()

	analysis := &models.BreakdownAnalysis{
		ID:         breakdown.ID,
		Title:      breakdown.Title,
		SceneCount: len(breakdown.Scenes),
		Elements:   s.elements.BuildGroups(breakdown.Scenes),
		Ranking:    s.salience.RankCharacters(breakdown.Scenes),
		AnalyzedAt: time.Now(),
	}
	if analysis.ID == "" {
		analysis.ID = uuid.NewString()
	}

	if err := s.storage.SaveJSONFile(analysisDir, analysis.ID+".json", analysis); err != nil {
		return nil, errors.NewProcessingError("保存分析结果失败", err)
	}

	s.stats.RecordAnalysis(analysis.SceneCount)
	s.metrics.IncrementCounter("breakdown.analyses", 1)
	s.metrics.IncrementCounter("breakdown.scenes_processed", int64(analysis.SceneCount))
	s.metrics.ObserveDuration("breakdown.analyze_duration", time.Since(start))

	s.logger.Info("分析完成", map[string]interface{}{
		"breakdown_id": analysis.ID,
		"scene_count":  analysis.SceneCount,
		"characters":   len(analysis.Ranking),
	})

	return analysis, nil
}

// AnalyzeAsync 启动后台分析任务，返回进度任务ID
// 调用方可通过 /ws/progress/<task_id> 订阅进度
func (s *BreakdownService) AnalyzeAsync(breakdown *models.ScriptBreakdown) (string, error) {
	if breakdown == nil {
		return "", errors.NewValidationError("拆解数据不能为空", nil)
	}

	taskID := "analyze_" + uuid.NewString()
	tracker := s.progress.CreateTracker(taskID)

	go func() {
		tracker.Update(10, "正在归并元素分组...")
		elements := s.elements.BuildGroups(breakdown.Scenes)

		tracker.Update(60, "正在计算角色重要度...")
		ranking := s.salience.RankCharacters(breakdown.Scenes)

		tracker.Update(90, "正在保存分析结果...")
		analysis := &models.BreakdownAnalysis{
			ID:         breakdown.ID,
			Title:      breakdown.Title,
			SceneCount: len(breakdown.Scenes),
			Elements:   elements,
			Ranking:    ranking,
			AnalyzedAt: time.Now(),
		}
		if analysis.ID == "" {
			analysis.ID = uuid.NewString()
		}

		if err := s.storage.SaveJSONFile(analysisDir, analysis.ID+".json", analysis); err != nil {
			s.logger.Error("保存分析结果失败", map[string]interface{}{"error": err.Error()})
			tracker.Fail(err)
			return
		}

		s.stats.RecordAnalysis(analysis.SceneCount)
		s.metrics.IncrementCounter("breakdown.analyses", 1)
		s.metrics.IncrementCounter("breakdown.scenes_processed", int64(analysis.SceneCount))

		tracker.Complete(fmt.Sprintf("分析完成，共 %d 个场景、%d 个角色",
			analysis.SceneCount, len(analysis.Ranking)))
	}()

	return taskID, nil
}

// GetAnalysis 按ID加载分析结果
func (s *BreakdownService) GetAnalysis(id string) (*models.BreakdownAnalysis, error) {
	if id == "" {
		return nil, errors.NewValidationError("分析ID不能为空", nil)
	}

	analysis := &models.BreakdownAnalysis{}
	if err := s.storage.LoadJSONFile(analysisDir, id+".json", analysis); err != nil {
		return nil, errors.NewNotFoundError(fmt.Sprintf("分析结果不存在: %s", id), err)
	}
	return analysis, nil
}
