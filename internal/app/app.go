// internal/app/app.go
package app

import (
	"fmt"
	"path/filepath"

	"github.com/Corphon/ScriptLensMCP/internal/config"
	"github.com/Corphon/ScriptLensMCP/internal/di"
	"github.com/Corphon/ScriptLensMCP/internal/services"
	"github.com/Corphon/ScriptLensMCP/internal/storage"
)

// InitServices 按依赖顺序初始化全部服务并注册到容器
// 路由层只从容器取服务，不自行创建
func InitServices() error {
	cfg := config.GetCurrentConfig()
	container := di.GetContainer()

	fileStorage, err := storage.NewFileStorage(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("初始化文件存储失败: %w", err)
	}
	container.Register("storage", fileStorage)

	canonicalizer := services.NewCanonicalizerService()
	container.Register("canonicalizer", canonicalizer)

	elementService := services.NewElementService(canonicalizer)
	container.Register("element", elementService)

	salienceService := services.NewSalienceService(canonicalizer)
	container.Register("salience", salienceService)

	progressService := services.NewProgressService()
	container.Register("progress", progressService)

	statsService := services.NewStatsService(filepath.Join(cfg.DataDir, "stats"))
	container.Register("stats", statsService)

	breakdownService := services.NewBreakdownService(
		fileStorage,
		elementService,
		salienceService,
		progressService,
		statsService,
	)
	container.Register("breakdown", breakdownService)

	return nil
}
