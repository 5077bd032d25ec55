// internal/utils/metrics.go
package utils

import (
	"sync"
	"sync/atomic"
	"time"
)

// MetricsCollector 进程内指标收集器
// 分析服务用它记录调用次数、处理的场景量和耗时分布
type MetricsCollector struct {
	counters   map[string]*Counter
	histograms map[string]*Histogram

	mu sync.RWMutex
}

// Counter 计数器指标，值的更新用原子操作避免锁竞争
type Counter struct {
	name  string
	value int64
}

// Histogram 直方图指标（只记录count/sum/min/max的简化实现）
type Histogram struct {
	name  string
	count int64
	sum   int64
	min   int64
	max   int64
	mu    sync.Mutex
}

var (
	globalMetrics *MetricsCollector
	metricsOnce   sync.Once
)

// GetMetricsCollector 返回全局指标收集器
func GetMetricsCollector() *MetricsCollector {
	metricsOnce.Do(func() {
		globalMetrics = &MetricsCollector{
			counters:   make(map[string]*Counter),
			histograms: make(map[string]*Histogram),
		}
	})
	return globalMetrics
}

// IncrementCounter 按给定增量递增计数器，不存在时自动创建
func (m *MetricsCollector) IncrementCounter(name string, delta int64) {
	m.mu.RLock()
	counter, exists := m.counters[name]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		counter, exists = m.counters[name]
		if !exists {
			counter = &Counter{name: name}
			m.counters[name] = counter
		}
		m.mu.Unlock()
	}

	atomic.AddInt64(&counter.value, delta)
}

// CounterValue 读取计数器当前值，不存在时返回0
func (m *MetricsCollector) CounterValue(name string) int64 {
	m.mu.RLock()
	counter, exists := m.counters[name]
	m.mu.RUnlock()
	if !exists {
		return 0
	}
	return atomic.LoadInt64(&counter.value)
}

// ObserveDuration 向直方图记录一次耗时
func (m *MetricsCollector) ObserveDuration(name string, d time.Duration) {
	m.mu.RLock()
	hist, exists := m.histograms[name]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		hist, exists = m.histograms[name]
		if !exists {
			hist = &Histogram{name: name}
			m.histograms[name] = hist
		}
		m.mu.Unlock()
	}

	value := d.Milliseconds()
	hist.mu.Lock()
	defer hist.mu.Unlock()

	hist.count++
	hist.sum += value
	if hist.count == 1 || value < hist.min {
		hist.min = value
	}
	if value > hist.max {
		hist.max = value
	}
}

// HistogramSummary 直方图的快照
type HistogramSummary struct {
	Count int64 `json:"count"`
	Sum   int64 `json:"sum_ms"`
	Min   int64 `json:"min_ms"`
	Max   int64 `json:"max_ms"`
}

// Snapshot 返回全部指标的只读快照，供 /api/stats 输出
func (m *MetricsCollector) Snapshot() (map[string]int64, map[string]HistogramSummary) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counters := make(map[string]int64, len(m.counters))
	for name, counter := range m.counters {
		counters[name] = atomic.LoadInt64(&counter.value)
	}

	histograms := make(map[string]HistogramSummary, len(m.histograms))
	for name, hist := range m.histograms {
		hist.mu.Lock()
		histograms[name] = HistogramSummary{
			Count: hist.count,
			Sum:   hist.sum,
			Min:   hist.min,
			Max:   hist.max,
		}
		hist.mu.Unlock()
	}

	return counters, histograms
}
