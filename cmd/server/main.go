// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Corphon/ScriptLensMCP/internal/api"
	"github.com/Corphon/ScriptLensMCP/internal/app"
	"github.com/Corphon/ScriptLensMCP/internal/config"
	"github.com/Corphon/ScriptLensMCP/internal/di"
	"github.com/Corphon/ScriptLensMCP/internal/services"
	"github.com/Corphon/ScriptLensMCP/internal/utils"
	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("启动 ScriptLensMCP 服务器...")

	// 1. 加载基础配置
	baseConfig, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 2. 创建必要的目录
	createDirectories(baseConfig)

	// 3. 初始化日志
	if err := utils.InitLogger(filepath.Join(baseConfig.LogDir, "scriptlens.log")); err != nil {
		log.Printf("警告: 初始化日志文件失败: %v", err)
	}

	// 4. 初始化配置系统
	if err := config.InitConfig(baseConfig.DataDir); err != nil {
		log.Fatalf("初始化配置系统失败: %v", err)
	}

	// 5. 初始化所有服务（按依赖顺序）
	if err := app.InitServices(); err != nil {
		log.Fatalf("初始化服务失败: %v", err)
	}
	log.Printf("服务初始化完成，共 %d 个", len(di.GetContainer().GetNames()))

	// 定期清理无人订阅的已完成进度跟踪器
	if progress, ok := di.GetContainer().Get("progress").(*services.ProgressService); ok {
		go func() {
			ticker := time.NewTicker(10 * time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				progress.CleanupStale(30 * time.Minute)
			}
		}()
	}

	// 6. 设置路由
	router, err := api.SetupRouter()
	if err != nil {
		log.Fatalf("设置路由失败: %v", err)
	}

	// 7. 启动服务器并等待关停信号
	log.Printf("服务器启动在端口 %s", baseConfig.Port)
	runWithGracefulShutdown(router, baseConfig.Port)
}

// createDirectories 创建数据与日志目录
func createDirectories(cfg *config.Config) {
	for _, dir := range []string{cfg.DataDir, cfg.LogDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Printf("警告: 创建目录 %s 失败: %v", dir, err)
		}
	}
}

// runWithGracefulShutdown 启动HTTP服务并在收到信号后优雅关停
func runWithGracefulShutdown(router *gin.Engine, port string) {
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务器异常退出: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("收到关停信号，正在关闭服务器...")

	// 落盘未保存的统计数据
	if stats, ok := di.GetContainer().Get("stats").(*services.StatsService); ok {
		if err := stats.Flush(); err != nil {
			log.Printf("警告: 保存统计数据失败: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("服务器强制关闭: %v", err)
	}
	log.Println("服务器已退出")
}
