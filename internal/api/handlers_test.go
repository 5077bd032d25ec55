// internal/api/handlers_test.go
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Corphon/ScriptLensMCP/internal/services"
	"github.com/Corphon/ScriptLensMCP/internal/storage"
	"github.com/gin-gonic/gin"
)

// newTestRouter 用临时目录搭一套完整的服务与路由
func newTestRouter(t *testing.T) (*gin.Engine, *services.ProgressService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fileStorage, err := storage.NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("创建存储失败: %v", err)
	}

	canonicalizer := services.NewCanonicalizerService()
	elementService := services.NewElementService(canonicalizer)
	salienceService := services.NewSalienceService(canonicalizer)
	progressService := services.NewProgressService()
	statsService := services.NewStatsService(filepath.Join(fileStorage.BaseDir, "stats"))

	breakdownService := services.NewBreakdownService(
		fileStorage, elementService, salienceService, progressService, statsService)

	handler := NewHandler(breakdownService, progressService, statsService)

	r := gin.New()
	r.GET("/health", handler.HealthCheck)
	r.POST("/api/analyze", handler.AnalyzeDirect)
	r.GET("/api/stats", handler.GetStats)
	r.POST("/api/breakdowns", handler.CreateBreakdown)
	r.GET("/api/breakdowns", handler.ListBreakdowns)
	r.GET("/api/breakdowns/:id", handler.GetBreakdown)
	r.POST("/api/breakdowns/:id/analyze", handler.AnalyzeBreakdown)
	r.GET("/api/breakdowns/:id/analysis", handler.GetAnalysis)

	return r, progressService
}

func doRequest(r *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestAnalyzeDirect(t *testing.T) {
	r, _ := newTestRouter(t)

	body := []byte(`{
		"title": "Demo",
		"scenes": [
			{"index": 0,
			 "characters": [{"name": "JOHN (40s)", "action": "argues with the board"}],
			 "locations": "INT. HOSPITAL ROOM - DAY",
			 "wardrobe": ["JOHN - blue suit"]},
			{"index": 1,
			 "characters": [{"name": "JOHN", "note": "wins the vote"}],
			 "locations": ["INT. HOSPITAL HALLWAY - NIGHT"]}
		]
	}`)

	w := doRequest(r, http.MethodPost, "/api/analyze", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			SceneCount int `json:"scene_count"`
			Ranking    []struct {
				Key  string `json:"key"`
				Rank int    `json:"rank"`
				Tier string `json:"tier"`
			} `json:"ranking"`
			Elements map[string]struct {
				Ungrouped []string `json:"ungrouped"`
				Groups    []struct {
					ParentName string `json:"parent_name"`
				} `json:"groups"`
			} `json:"elements"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}

	if !resp.Success {
		t.Error("success = false")
	}
	if resp.Data.SceneCount != 2 {
		t.Errorf("scene_count = %d, want 2", resp.Data.SceneCount)
	}
	if len(resp.Data.Ranking) != 1 || resp.Data.Ranking[0].Key != "JOHN" || resp.Data.Ranking[0].Rank != 1 {
		t.Errorf("ranking异常: %+v", resp.Data.Ranking)
	}

	locations := resp.Data.Elements["locations"]
	if len(locations.Groups) != 1 || locations.Groups[0].ParentName != "Hospital" {
		t.Errorf("locations分组异常: %+v", locations)
	}
}

func TestAnalyzeDirectBadJSON(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodPost, "/api/analyze", []byte(`{not json`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetBreakdownNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/api/breakdowns/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestCreateBreakdownValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	// 缺少标题
	w := doRequest(r, http.MethodPost, "/api/breakdowns", []byte(`{"scenes": []}`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestBreakdownRoundtripAndAsyncAnalyze(t *testing.T) {
	r, progressService := newTestRouter(t)

	body := []byte(`{
		"title": "Roundtrip",
		"scenes": [
			{"index": 0, "characters": [{"name": "ANA", "action": "runs the numbers"}]}
		]
	}`)

	// 保存
	w := doRequest(r, http.MethodPost, "/api/breakdowns", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("创建 status = %d, want 201, body=%s", w.Code, w.Body.String())
	}

	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	id := created.Data.ID
	if id == "" {
		t.Fatal("创建响应缺少ID")
	}

	// 读取
	if w := doRequest(r, http.MethodGet, "/api/breakdowns/"+id, nil); w.Code != http.StatusOK {
		t.Fatalf("读取 status = %d, want 200", w.Code)
	}

	// 启动异步分析
	w = doRequest(r, http.MethodPost, "/api/breakdowns/"+id+"/analyze", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("分析 status = %d, want 202, body=%s", w.Code, w.Body.String())
	}

	var accepted struct {
		Data struct {
			TaskID string `json:"task_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &accepted); err != nil {
		t.Fatal(err)
	}

	tracker, exists := progressService.GetTracker(accepted.Data.TaskID)
	if !exists {
		t.Fatal("任务跟踪器不存在")
	}

	select {
	case <-tracker.Done:
	case <-time.After(5 * time.Second):
		t.Fatal("分析任务超时未完成")
	}
	if tracker.Status != "completed" {
		t.Fatalf("任务状态 = %s, want completed", tracker.Status)
	}

	// 结果可读
	if w := doRequest(r, http.MethodGet, "/api/breakdowns/"+id+"/analysis", nil); w.Code != http.StatusOK {
		t.Errorf("分析结果 status = %d, want 200, body=%s", w.Code, w.Body.String())
	}
}

func TestGetStats(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/api/stats", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
