package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/adapter/notification"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/core/automation"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/cache"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/config"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/database"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/llm"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/repository"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/service"
)

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Field   string          `json:"field"`
	Rule    string          `json:"rule"`
	Data    json.RawMessage `json:"data"`
	Total   int64           `json:"total"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	cfg := &config.Config{
		Server: config.ServerConfig{
			Mode:         "debug",
			APIPrefix:    "/api/v1",
			AllowedHosts: []string{"http://localhost:3000"},
		},
		Auth: config.AuthConfig{
			JWT: config.JWTConfig{
				Secret:             "router-test-secret",
				Algorithm:          "HS256",
				AccessTokenExpire:  1800,
				RefreshTokenExpire: 3600,
			},
		},
	}
	prev := config.GlobalConfig
	config.GlobalConfig = cfg
	t.Cleanup(func() { config.GlobalConfig = prev })

	log := zap.NewNop()
	teams := repository.NewTeamRepository(db)
	users := repository.NewUserRepository(db)
	projects := repository.NewProjectRepository(db)
	sprints := repository.NewSprintRepository(db)
	tasks := repository.NewTaskRepository(db)
	automations := repository.NewAutomationRepository(db)

	engine := automation.NewEngine(automations, tasks, users, notification.NewLogNotifier(log), log)
	bridge := llm.NewBridgeWithProviders(nil, nil, &cfg.LLM, log)

	svc := &Services{
		Auth:       service.NewAuthService(&cfg.Auth, users, teams, service.NewLDAPService(&cfg.Auth.LDAP), cache.NewMemoryTokenStore(), log),
		User:       service.NewUserService(users, teams, nil, log),
		Team:       service.NewTeamService(teams),
		Project:    service.NewProjectService(projects, users, teams, tasks, nil, log),
		Sprint:     service.NewSprintService(sprints, projects, tasks, engine),
		Task:       service.NewTaskService(tasks, projects, users, sprints, engine),
		Automation: service.NewAutomationService(automations, projects, nil, log),
		AI:         service.NewAIService(bridge, projects, sprints, tasks),
	}

	return &testServer{t: t, engine: Setup(cfg, svc, prometheus.NewRegistry())}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func dataOf(t *testing.T, resp apiResponse) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	return out
}

// register 注册并返回访问令牌
func (s *testServer) register(email, team string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":     email,
		"name":      "Someone",
		"password":  "secret-password",
		"team_name": team,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	data := dataOf(s.t, decode(s.t, w))
	return data["access_token"].(string)
}

func TestOpsEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"ai-project-management-api"}`, w.Body.String())

	w = s.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "AI-Powered Project Management API")

	w = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/projects", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/projects", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := s.register("owner@example.com", "Core")

	w = s.do(http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	me := dataOf(t, decode(t, w))
	assert.Equal(t, "owner@example.com", me["email"])
	assert.Equal(t, "owner", me["role"])
	assert.Equal(t, true, me["is_admin"])

	w = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "owner@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/users/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPermissionDenied(t *testing.T) {
	s := newTestServer(t)
	owner := s.register("owner@example.com", "Core")

	me := dataOf(t, decode(t, s.do(http.MethodGet, "/api/v1/users/me", owner, nil)))
	w := s.do(http.MethodPost, "/api/v1/users", owner, map[string]interface{}{
		"email":    "viewer@example.com",
		"name":     "Viewer",
		"password": "viewer-password",
		"role":     "viewer",
		"team_id":  me["team_id"],
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "viewer@example.com", "password": "viewer-password"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	viewer := dataOf(t, decode(t, w))["access_token"].(string)

	w = s.do(http.MethodGet, "/api/v1/projects", viewer, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/v1/projects", viewer, map[string]string{"name": "Nope"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestProjectTaskLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.register("owner@example.com", "Core")

	w := s.do(http.MethodPost, "/api/v1/projects", token, map[string]string{"name": "Apollo"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	project := dataOf(t, decode(t, w))
	projectID := project["id"].(string)
	assert.Equal(t, "active", project["status"])
	assert.Equal(t, float64(0), project["completion_percentage"])

	// 截止日期早于当前时间
	w = s.do(http.MethodPost, "/api/v1/tasks", token, map[string]interface{}{
		"title":      "Past",
		"project_id": projectID,
		"due_date":   time.Now().Add(-time.Hour).UTC().Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "due_date", decode(t, w).Field)

	w = s.do(http.MethodPost, "/api/v1/tasks", token, map[string]interface{}{
		"title":      "Bad status",
		"project_id": projectID,
		"status":     "blocked",
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "status", resp.Field)
	assert.Equal(t, "task_status", resp.Rule)

	taskIDs := make([]string, 0, 2)
	for _, status := range []string{"done", "todo"} {
		w = s.do(http.MethodPost, "/api/v1/tasks", token, map[string]interface{}{
			"title":      "Task " + status,
			"project_id": projectID,
			"status":     status,
			"due_date":   time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		taskIDs = append(taskIDs, dataOf(t, decode(t, w))["id"].(string))
	}

	w = s.do(http.MethodGet, "/api/v1/projects/"+projectID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	project = dataOf(t, decode(t, w))
	assert.Equal(t, float64(2), project["task_count"])
	assert.Equal(t, 50.0, project["completion_percentage"])

	w = s.do(http.MethodGet, "/api/v1/tasks?project_id="+projectID+"&status=todo", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decode(t, w).Total)

	w = s.do(http.MethodDelete, "/api/v1/projects/"+projectID, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/api/v1/tasks/"+taskIDs[0], token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Task not found", decode(t, w).Message)
}

func TestTaskClearAssigneeAndSprint(t *testing.T) {
	s := newTestServer(t)
	token := s.register("owner@example.com", "Core")
	me := dataOf(t, decode(t, s.do(http.MethodGet, "/api/v1/users/me", token, nil)))

	w := s.do(http.MethodPost, "/api/v1/projects", token, map[string]string{"name": "Apollo"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	projectID := dataOf(t, decode(t, w))["id"].(string)

	start := time.Now().UTC().Truncate(time.Second)
	w = s.do(http.MethodPost, "/api/v1/sprints", token, map[string]interface{}{
		"name":       "Sprint 1",
		"project_id": projectID,
		"start_date": start.Format(time.RFC3339),
		"end_date":   start.Add(14 * 24 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sprintID := dataOf(t, decode(t, w))["id"].(string)

	w = s.do(http.MethodPost, "/api/v1/tasks", token, map[string]interface{}{
		"title":       "Assigned",
		"project_id":  projectID,
		"assignee_id": me["id"],
		"sprint_id":   sprintID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	task := dataOf(t, decode(t, w))
	taskID := task["id"].(string)
	assert.Equal(t, me["id"], task["assignee_id"])
	assert.Equal(t, sprintID, task["sprint_id"])

	w = s.do(http.MethodPut, "/api/v1/tasks/"+taskID, token, map[string]interface{}{"assignee_id": ""})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	task = dataOf(t, decode(t, w))
	assert.Nil(t, task["assignee_id"])
	assert.Equal(t, sprintID, task["sprint_id"])

	w = s.do(http.MethodPut, "/api/v1/tasks/"+taskID, token, map[string]interface{}{"sprint_id": ""})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Nil(t, dataOf(t, decode(t, w))["sprint_id"])

	w = s.do(http.MethodPut, "/api/v1/tasks/"+taskID, token, map[string]interface{}{"assignee_id": "not-a-uuid"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "assignee_id", decode(t, w).Field)
}

func TestEmptyListAndBadID(t *testing.T) {
	s := newTestServer(t)
	token := s.register("owner@example.com", "Core")

	w := s.do(http.MethodGet, "/api/v1/sprints?skip=0&limit=100", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.JSONEq(t, `[]`, string(resp.Data))
	assert.Equal(t, int64(0), resp.Total)

	w = s.do(http.MethodGet, "/api/v1/sprints/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "id", decode(t, w).Field)

	w = s.do(http.MethodGet, "/api/v1/sprints/6f1c1f5e-8d4b-4e59-9a5e-2b7f3e0f6a11", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Sprint not found", decode(t, w).Message)
}

func TestAutomationEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.register("owner@example.com", "Core")

	w := s.do(http.MethodPost, "/api/v1/automations", token, map[string]interface{}{
		"name":       "Escalate urgent",
		"trigger":    map[string]interface{}{"type": "task_created"},
		"conditions": []map[string]interface{}{{"field": "priority", "operator": "equals", "value": "urgent"}},
		"actions":    []map[string]interface{}{{"type": "set_status", "config": map[string]interface{}{"status": "in_progress"}}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := dataOf(t, decode(t, w))["id"].(string)

	w = s.do(http.MethodPost, "/api/v1/automations/"+id+"/test", token, map[string]interface{}{
		"event": map[string]interface{}{"priority": "urgent"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := dataOf(t, decode(t, w))
	assert.Equal(t, true, result["matched"])

	w = s.do(http.MethodGet, "/api/v1/automations/"+id+"/export", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/x-yaml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="Escalate_urgent.yaml"`)
	assert.True(t, strings.HasPrefix(w.Body.String(), "name: Escalate urgent"))

	w = s.do(http.MethodPost, "/api/v1/automations", token, map[string]interface{}{
		"name":    "Broken",
		"trigger": map[string]interface{}{"type": "task_created"},
		"actions": []map[string]interface{}{},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAIPlanFallback(t *testing.T) {
	s := newTestServer(t)
	token := s.register("owner@example.com", "Core")

	w := s.do(http.MethodPost, "/api/v1/ai/plan", token, map[string]interface{}{"description": "Build a rocket"})
	require.Equal(t, http.StatusOK, w.Code)
	result := dataOf(t, decode(t, w))
	assert.Equal(t, "error", result["status"])
	assert.Equal(t, llm.PlanFallback, result["plan"])

	w = s.do(http.MethodPost, "/api/v1/ai/analyze", token, map[string]interface{}{
		"project_id": "6f1c1f5e-8d4b-4e59-9a5e-2b7f3e0f6a11",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
