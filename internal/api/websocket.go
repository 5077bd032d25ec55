// internal/api/websocket.go
package api

import (
	"net/http"
	"time"

	"github.com/Corphon/ScriptLensMCP/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WebSocket 升级器配置
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 生产环境应做更严格的来源检查
		return true
	},
}

// 进度推送的写超时与心跳间隔
const (
	progressWriteTimeout = 10 * time.Second
	progressPingInterval = 30 * time.Second
)

// ProgressWebSocketHandler 通过WebSocket推送分析任务进度
// GET /ws/progress/:task_id
func ProgressWebSocketHandler(progressService *services.ProgressService) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID := c.Param("task_id")

		tracker, exists := progressService.GetTracker(taskID)
		if !exists {
			c.JSON(http.StatusNotFound, gin.H{"error": "任务不存在: " + taskID})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		updates := tracker.Subscribe()
		defer tracker.Unsubscribe(updates)

		// 读循环只用于感知客户端断开
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(progressPingInterval)
		defer ticker.Stop()

		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(progressWriteTimeout))
				if err := conn.WriteJSON(update); err != nil {
					return
				}
				// 终态帧发出后正常关闭连接，跟踪器随之移除
				if update.Status != "running" {
					conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					progressService.RemoveTracker(taskID)
					return
				}

			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(progressWriteTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}

			case <-done:
				return
			}
		}
	}
}
