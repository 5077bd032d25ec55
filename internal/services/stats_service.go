// internal/services/stats_service.go
package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// UsageStats 表示分析接口的使用统计
type UsageStats struct {
	TodayAnalyses   int            `json:"today_analyses"`
	TotalAnalyses   int            `json:"total_analyses"`
	ScenesProcessed int            `json:"scenes_processed"`
	DailyStats      map[string]int `json:"daily_stats"` // 日期 -> 分析次数
	LastUpdated     time.Time      `json:"last_updated"`
}

// StatsService 记录分析调用量
// 数据带脏标记批量落盘，避免每次调用都写文件
type StatsService struct {
	BasePath    string
	statsFile   string
	mutex       sync.Mutex
	cachedStats *UsageStats

	lastCheckDate string

	isDirty      bool
	lastSaveTime time.Time
	saveInterval time.Duration
}

// NewStatsService 创建统计服务实例
func NewStatsService(basePath string) *StatsService {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		fmt.Printf("警告: 创建统计目录失败: %v\n", err)
	}

	return &StatsService{
		BasePath:     basePath,
		statsFile:    filepath.Join(basePath, "usage_stats.json"),
		saveInterval: 30 * time.Second,
	}
}

// RecordAnalysis 记录一次分析及其处理的场景数
func (s *StatsService) RecordAnalysis(sceneCount int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stats := s.statsLocked()
	s.rolloverLocked(stats)

	today := time.Now().Format("2006-01-02")
	stats.TodayAnalyses++
	stats.TotalAnalyses++
	stats.ScenesProcessed += sceneCount
	stats.DailyStats[today]++
	stats.LastUpdated = time.Now()

	s.isDirty = true
	s.maybeSaveLocked()
}

// GetStats 返回统计数据的副本
func (s *StatsService) GetStats() UsageStats {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stats := s.statsLocked()
	s.rolloverLocked(stats)

	copied := *stats
	copied.DailyStats = make(map[string]int, len(stats.DailyStats))
	for k, v := range stats.DailyStats {
		copied.DailyStats[k] = v
	}
	return copied
}

// Flush 立即落盘，优雅关停时调用
func (s *StatsService) Flush() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isDirty {
		return nil
	}
	return s.saveLocked()
}

// statsLocked 返回缓存的统计数据，首次访问时从文件加载
func (s *StatsService) statsLocked() *UsageStats {
	if s.cachedStats != nil {
		return s.cachedStats
	}

	stats := &UsageStats{DailyStats: make(map[string]int)}
	if data, err := os.ReadFile(s.statsFile); err == nil {
		if err := json.Unmarshal(data, stats); err != nil {
			stats = &UsageStats{DailyStats: make(map[string]int)}
		}
		if stats.DailyStats == nil {
			stats.DailyStats = make(map[string]int)
		}
	}

	s.cachedStats = stats
	return stats
}

// rolloverLocked 跨日时重置当日计数
func (s *StatsService) rolloverLocked(stats *UsageStats) {
	today := time.Now().Format("2006-01-02")
	if s.lastCheckDate == today {
		return
	}

	if stats.LastUpdated.Format("2006-01-02") != today {
		stats.TodayAnalyses = 0
		s.isDirty = true
	}
	s.lastCheckDate = today
}

// maybeSaveLocked 脏数据超过保存间隔时批量落盘
func (s *StatsService) maybeSaveLocked() {
	if !s.isDirty || time.Since(s.lastSaveTime) < s.saveInterval {
		return
	}
	if err := s.saveLocked(); err != nil {
		fmt.Printf("警告: 保存统计数据失败: %v\n", err)
	}
}

// saveLocked 落盘统计数据，调用方必须持锁
func (s *StatsService) saveLocked() error {
	data, err := json.MarshalIndent(s.cachedStats, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.statsFile, data, 0644); err != nil {
		return err
	}

	s.isDirty = false
	s.lastSaveTime = time.Now()
	return nil
}
