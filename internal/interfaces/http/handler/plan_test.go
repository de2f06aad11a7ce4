package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideaplan-api/internal/application/planning"
	"ideaplan-api/internal/domain/entity"
	"ideaplan-api/internal/domain/service"
	"ideaplan-api/internal/interfaces/http/middleware"
	apperrors "ideaplan-api/pkg/errors"
	"ideaplan-api/pkg/utils"
)

const testSecret = "handler-secret"

const planJSON = `{
  "overview": "Dog walking marketplace",
  "startup_name_suggestions": ["Walkr", "Pawly", "Leash"],
  "target_audience": "Busy pet owners",
  "ui_design_suggestions": "Map-first",
  "database_schema": "Users: id, email",
  "typography_suggestions": "Inter, Poppins",
  "color_palette": ["#111111", "#222222", "#333333"],
  "user_pain_points": "Unreliable walkers",
  "required_features": "Booking",
  "competitors": "1) Rover - Marketplace",
  "industry_insights": "Growing"
}`

func init() {
	gin.SetMode(gin.TestMode)
}

type memoryPlanRepo struct {
	mu      sync.Mutex
	plans   map[string]*entity.StoredPlan
	saveErr error
	seq     int

	// lookupErr 模拟驱动层错误，设置后 GetByID/Delete 一律返回它
	lookupErr error

	// ignoreOwner 模拟未按用户过滤的存储
	ignoreOwner bool
}

func newMemoryPlanRepo() *memoryPlanRepo {
	return &memoryPlanRepo{plans: map[string]*entity.StoredPlan{}}
}

func (m *memoryPlanRepo) Save(_ context.Context, userID, idea string, plan entity.PlanData) (*entity.StoredPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.seq++
	p := entity.NewStoredPlan(userID, idea, plan)
	p.CreatedAt = time.Date(2026, 1, 1, 0, 0, m.seq, 0, time.UTC)
	m.plans[p.ID] = p
	return p, nil
}

func (m *memoryPlanRepo) ListByUser(_ context.Context, userID string) ([]*entity.StoredPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.StoredPlan
	for _, p := range m.plans {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryPlanRepo) GetByID(_ context.Context, planID, userID string) (*entity.StoredPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	p, ok := m.plans[planID]
	if !ok || (p.UserID != userID && !m.ignoreOwner) {
		return nil, apperrors.ErrPlanNotFound
	}
	return p, nil
}

func (m *memoryPlanRepo) Delete(_ context.Context, planID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return m.lookupErr
	}
	p, ok := m.plans[planID]
	if !ok || p.UserID != userID {
		return apperrors.ErrPlanNotFound
	}
	delete(m.plans, planID)
	return nil
}

func newTestEngine(completer service.Completer, repo *memoryPlanRepo) *gin.Engine {
	h := NewPlanHandler(planning.NewGenerator(completer), repo, nil)
	optional := middleware.Auth(middleware.AuthConfig{Secret: testSecret})
	required := middleware.Auth(middleware.AuthConfig{Secret: testSecret, Required: true})

	r := gin.New()
	r.POST("/v1/plans/generate", optional, h.GeneratePlan)
	plans := r.Group("/v1/plans", required)
	plans.GET("", h.ListPlans)
	plans.POST("", h.SavePlan)
	plans.GET("/:pid", h.GetPlan)
	plans.DELETE("/:pid", h.DeletePlan)
	plans.GET("/:pid/sections", h.GetPlanSections)
	return r
}

func staticCompleter(text string, err error) service.Completer {
	return service.CompleterFunc(func(context.Context, string) (string, error) {
		return text, err
	})
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := utils.NewJWTManager(testSecret, "", "").GenerateToken(userID, "", time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(r http.Handler, method, path, auth string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGeneratePlan_Success(t *testing.T) {
	r := newTestEngine(staticCompleter("```json\n"+planJSON+"\n```", nil), newMemoryPlanRepo())

	w := do(r, http.MethodPost, "/v1/plans/generate", "", map[string]string{"ideaDescription": "Dog walking app"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool            `json:"success"`
		Data    entity.PlanData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Dog walking marketplace", resp.Data.Overview)
	assert.Equal(t, "Users: id, email", resp.Data.DatabaseSchema.Text)
}

func TestGeneratePlan_Errors(t *testing.T) {
	calls := 0
	counting := service.CompleterFunc(func(context.Context, string) (string, error) {
		calls++
		return "", errors.New("429: rate limit reached for model")
	})
	r := newTestEngine(counting, newMemoryPlanRepo())

	w := do(r, http.MethodPost, "/v1/plans/generate", "", map[string]string{"ideaDescription": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Idea description is required"}`, w.Body.String())
	assert.Equal(t, 0, calls)

	w = do(r, http.MethodPost, "/v1/plans/generate", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/v1/plans/generate", "", map[string]string{"ideaDescription": "Dog walking app"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Rate limit exceeded. Please try again in a few moments."}`, w.Body.String())
	assert.Equal(t, 1, calls)
}

func TestSavePlan_Flow(t *testing.T) {
	repo := newMemoryPlanRepo()
	r := newTestEngine(staticCompleter("", nil), repo)
	auth := bearer(t, "user-1")

	body := map[string]any{"ideaDescription": "Dog walking app", "generatedData": json.RawMessage(planJSON)}

	w := do(r, http.MethodPost, "/v1/plans", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())

	w = do(r, http.MethodPost, "/v1/plans", auth, map[string]any{"ideaDescription": "Dog walking app"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Missing required fields"}`, w.Body.String())

	w = do(r, http.MethodPost, "/v1/plans", auth, map[string]any{
		"ideaDescription": "Dog walking app",
		"generatedData":   map[string]any{"overview": "only this"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "competitors")

	w = do(r, http.MethodPost, "/v1/plans", auth, body)
	require.Equal(t, http.StatusOK, w.Code)
	var saved struct {
		Success bool   `json:"success"`
		PlanID  string `json:"planId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	assert.True(t, saved.Success)
	require.NotEmpty(t, saved.PlanID)

	w = do(r, http.MethodGet, "/v1/plans", auth, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), saved.PlanID)

	w = do(r, http.MethodGet, "/v1/plans/"+saved.PlanID, auth, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"overview":"Dog walking marketplace"`)

	w = do(r, http.MethodGet, "/v1/plans/"+saved.PlanID+"/sections", auth, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"display":"competitors"`)

	// 其他用户不可见
	w = do(r, http.MethodGet, "/v1/plans/"+saved.PlanID, bearer(t, "user-2"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodDelete, "/v1/plans/"+saved.PlanID, auth, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodDelete, "/v1/plans/"+saved.PlanID, auth, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSavePlan_PersistenceFailure(t *testing.T) {
	repo := newMemoryPlanRepo()
	repo.saveErr = errors.New("connection reset")
	r := newTestEngine(staticCompleter("", nil), repo)

	w := do(r, http.MethodPost, "/v1/plans", bearer(t, "user-1"), map[string]any{
		"ideaDescription": "Dog walking app",
		"generatedData":   json.RawMessage(planJSON),
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to save plan"}`, w.Body.String())
}

func TestPlanByID_MalformedIDIsNotFound(t *testing.T) {
	repo := newMemoryPlanRepo()
	repo.lookupErr = errors.New(`ERROR: invalid input syntax for type uuid: "not-a-uuid" (SQLSTATE 22P02)`)
	r := newTestEngine(staticCompleter("", nil), repo)
	auth := bearer(t, "user-1")

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/v1/plans/not-a-uuid"},
		{http.MethodGet, "/v1/plans/not-a-uuid/sections"},
		{http.MethodDelete, "/v1/plans/not-a-uuid"},
	} {
		w := do(r, tc.method, tc.path, auth, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", tc.method, tc.path)
		assert.Contains(t, w.Body.String(), `"error_code":"3001"`)
	}
}

func TestGetPlan_RejectsForeignPlanFromStore(t *testing.T) {
	repo := newMemoryPlanRepo()
	repo.ignoreOwner = true
	stored, err := repo.Save(context.Background(), "user-2", "Dog walking app", entity.PlanData{Overview: "x"})
	require.NoError(t, err)
	r := newTestEngine(staticCompleter("", nil), repo)

	w := do(r, http.MethodGet, "/v1/plans/"+stored.ID, bearer(t, "user-1"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/v1/plans/"+stored.ID, bearer(t, "user-2"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
