// internal/services/progress_service.go
package services

import (
	"fmt"
	"sync"
	"time"
)

// ProgressUpdate 表示一次进度更新
type ProgressUpdate struct {
	Progress int    `json:"progress"` // 进度百分比 (0-100)
	Message  string `json:"message"`  // 描述性消息
	Status   string `json:"status"`   // 状态：running, completed, failed
}

// ProgressTracker 跟踪一次分析任务的进度
type ProgressTracker struct {
	TaskID      string
	Progress    int
	Message     string
	Status      string
	StartTime   time.Time
	UpdateTime  time.Time
	Subscribers map[chan ProgressUpdate]bool
	Done        chan struct{}
	mutex       sync.Mutex
}

// ProgressService 管理所有进度跟踪器
type ProgressService struct {
	trackers map[string]*ProgressTracker
	mutex    sync.RWMutex
}

// NewProgressService 创建进度服务实例
func NewProgressService() *ProgressService {
	return &ProgressService{
		trackers: make(map[string]*ProgressTracker),
	}
}

// CreateTracker 创建新的进度跟踪器，已存在时返回现有实例
func (s *ProgressService) CreateTracker(taskID string) *ProgressTracker {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if tracker, exists := s.trackers[taskID]; exists {
		return tracker
	}

	tracker := &ProgressTracker{
		TaskID:      taskID,
		Progress:    0,
		Message:     "任务初始化中...",
		Status:      "running",
		StartTime:   time.Now(),
		UpdateTime:  time.Now(),
		Subscribers: make(map[chan ProgressUpdate]bool),
		Done:        make(chan struct{}),
	}

	s.trackers[taskID] = tracker
	return tracker
}

// GetTracker 获取进度跟踪器
func (s *ProgressService) GetTracker(taskID string) (*ProgressTracker, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	tracker, exists := s.trackers[taskID]
	return tracker, exists
}

// RemoveTracker 移除已完成的跟踪器
func (s *ProgressService) RemoveTracker(taskID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.trackers, taskID)
}

// CleanupStale 移除到达终态且超过保留时长的跟踪器，返回移除数量
// 由服务器的后台清理任务定期调用，防止跟踪器无限累积
func (s *ProgressService) CleanupStale(maxAge time.Duration) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	removed := 0
	for taskID, tracker := range s.trackers {
		tracker.mutex.Lock()
		stale := tracker.Status != "running" && time.Since(tracker.UpdateTime) > maxAge
		tracker.mutex.Unlock()

		if stale {
			delete(s.trackers, taskID)
			removed++
		}
	}
	return removed
}

// Update 推进进度并通知全部订阅者
func (t *ProgressTracker) Update(progress int, message string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.Status != "running" {
		return
	}
	if progress > 100 {
		progress = 100
	}

	t.Progress = progress
	t.Message = message
	t.UpdateTime = time.Now()

	t.notifyLocked()
}

// Complete 标记任务完成
func (t *ProgressTracker) Complete(message string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.Status != "running" {
		return
	}

	t.Progress = 100
	t.Message = message
	t.Status = "completed"
	t.UpdateTime = time.Now()

	t.notifyLocked()
	close(t.Done)
}

// Fail 标记任务失败
func (t *ProgressTracker) Fail(err error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.Status != "running" {
		return
	}

	t.Message = fmt.Sprintf("任务失败: %v", err)
	t.Status = "failed"
	t.UpdateTime = time.Now()

	t.notifyLocked()
	close(t.Done)
}

// Subscribe 订阅进度更新，返回接收通道
// 订阅时立即收到当前状态的一帧
func (t *ProgressTracker) Subscribe() chan ProgressUpdate {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	ch := make(chan ProgressUpdate, 16)
	t.Subscribers[ch] = true

	ch <- ProgressUpdate{
		Progress: t.Progress,
		Message:  t.Message,
		Status:   t.Status,
	}

	return ch
}

// Unsubscribe 取消订阅并关闭通道
func (t *ProgressTracker) Unsubscribe(ch chan ProgressUpdate) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.Subscribers[ch] {
		delete(t.Subscribers, ch)
		close(ch)
	}
}

// notifyLocked 向全部订阅者推送当前状态，调用方必须持锁
// 通道已满时丢弃该帧，进度推送允许有损
func (t *ProgressTracker) notifyLocked() {
	update := ProgressUpdate{
		Progress: t.Progress,
		Message:  t.Message,
		Status:   t.Status,
	}

	for ch := range t.Subscribers {
		select {
		case ch <- update:
		default:
		}
	}
}
