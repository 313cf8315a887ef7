package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lhoward/shiftgrid-api/pkg/auth"
	"github.com/lhoward/shiftgrid-api/pkg/config"
	"github.com/lhoward/shiftgrid-api/pkg/database"
	"github.com/lhoward/shiftgrid-api/pkg/logger"
)

type testEnv struct {
	handler *Handler
	router  *gin.Engine
	token   string
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth.Configure(config.AuthConfig{JWTSecret: "test-jwt", ExportSecret: "test-export"})

	db := database.InitDB("", filepath.Join(t.TempDir(), "test.db"))

	h := &Handler{DB: db, Log: logger.New("test")}
	r := gin.New()
	RegisterRoutes(r, h)

	hash, err := auth.HashPassword("admin123")
	require.NoError(t, err)
	admin := database.User{Username: "admin", PasswordHash: hash, IsAdmin: true}
	require.NoError(t, db.Create(&admin).Error)

	token, err := auth.CreateToken("admin", true)
	require.NoError(t, err)

	return &testEnv{handler: h, router: r, token: token}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (e *testEnv) createPeriod(t *testing.T, start, end string, capacity int) uint {
	t.Helper()
	w := e.do(t, http.MethodPost, "/admin/periods", gin.H{
		"name":            "Test Period",
		"start_date":      start,
		"end_date":        end,
		"needed_capacity": capacity,
	}, e.token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return uint(decode(t, w)["id"].(float64))
}

func (e *testEnv) createAssignedUser(t *testing.T, periodID uint, username string) uint {
	t.Helper()
	w := e.do(t, http.MethodPost, "/admin/users", gin.H{
		"username": username,
		"password": "pw123456",
	}, e.token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	userID := uint(decode(t, w)["id"].(float64))

	w = e.do(t, http.MethodPost, fmt.Sprintf("/admin/periods/%d/users", periodID), gin.H{"user_id": userID}, e.token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return userID
}

func TestLoginAndAuth(t *testing.T) {
	env := setupTest(t)

	w := env.do(t, http.MethodPost, "/login", gin.H{"username": "admin", "password": "admin123"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["access_token"])

	w = env.do(t, http.MethodPost, "/login", gin.H{"username": "admin", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/admin/periods", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	nonAdmin, err := auth.CreateToken("somebody", false)
	require.NoError(t, err)
	w = env.do(t, http.MethodGet, "/admin/periods", nil, nonAdmin)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreatePeriodRejectsInvalid(t *testing.T) {
	env := setupTest(t)

	w := env.do(t, http.MethodPost, "/admin/periods", gin.H{
		"name":       "Backwards",
		"start_date": "2024-01-05",
		"end_date":   "2024-01-01",
	}, env.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/admin/periods/validate", gin.H{
		"name":       "Backwards",
		"start_date": "2024-01-05",
		"end_date":   "2024-01-01",
	}, env.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["valid"])
}

func TestGridBuildAndToggle(t *testing.T) {
	env := setupTest(t)
	periodID := env.createPeriod(t, "2024-01-01", "2024-01-02", 1)
	userID := env.createAssignedUser(t, periodID, "worker1")

	gridPath := fmt.Sprintf("/admin/periods/%d/grid", periodID)
	w := env.do(t, http.MethodGet, gridPath, nil, env.token)
	require.Equal(t, http.StatusOK, w.Code)

	grid := decode(t, w)["grid"].(map[string]any)
	row := grid[fmt.Sprint(userID)].(map[string]any)
	require.Len(t, row, 2)
	cell := row["2024-01-01"].(map[string]any)
	assert.Equal(t, false, cell["assigned"])

	cellPath := fmt.Sprintf("%s/%d/2024-01-01", gridPath, userID)
	w = env.do(t, http.MethodPut, cellPath, gin.H{"assigned": true, "locked": true}, env.token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Locked cell rejects assignment changes.
	w = env.do(t, http.MethodPut, cellPath, gin.H{"assigned": false}, env.token)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Unlocking in the same request is allowed.
	w = env.do(t, http.MethodPut, cellPath, gin.H{"assigned": false, "locked": false}, env.token)
	assert.Equal(t, http.StatusOK, w.Code)

	// Out-of-range and malformed dates are rejected.
	w = env.do(t, http.MethodPut, fmt.Sprintf("%s/%d/2024-02-01", gridPath, userID), gin.H{"assigned": true}, env.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(t, http.MethodPut, fmt.Sprintf("%s/%d/yesterday", gridPath, userID), gin.H{"assigned": true}, env.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOptimizeEndToEnd(t *testing.T) {
	env := setupTest(t)
	periodID := env.createPeriod(t, "2024-01-01", "2024-01-02", 1)
	user1 := env.createAssignedUser(t, periodID, "alpha")
	user2 := env.createAssignedUser(t, periodID, "bravo")
	user3 := env.createAssignedUser(t, periodID, "charlie")

	w := env.do(t, http.MethodPost, fmt.Sprintf("/admin/periods/%d/optimize", periodID), nil, env.token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode(t, w)
	assert.Equal(t, float64(2), resp["cells_changed"])
	assert.Equal(t, float64(0), resp["cells_failed"])
	assert.NotEmpty(t, resp["run_token"])

	// Least-loaded first with input-order tie break: user1 gets day 1,
	// user2 gets day 2, user3 nothing.
	grid := resp["grid"].(map[string]any)
	day1 := grid[fmt.Sprint(user1)].(map[string]any)["2024-01-01"].(map[string]any)
	assert.Equal(t, true, day1["assigned"])
	day2 := grid[fmt.Sprint(user2)].(map[string]any)["2024-01-02"].(map[string]any)
	assert.Equal(t, true, day2["assigned"])
	for _, day := range []string{"2024-01-01", "2024-01-02"} {
		cell := grid[fmt.Sprint(user3)].(map[string]any)[day].(map[string]any)
		assert.Equal(t, false, cell["assigned"])
	}

	// The diff was persisted.
	var count int64
	env.handler.DB.Model(&database.ShiftRecord{}).Where("period_id = ? AND assigned = ?", periodID, true).Count(&count)
	assert.Equal(t, int64(2), count)

	// A second run is a fixed point.
	w = env.do(t, http.MethodPost, fmt.Sprintf("/admin/periods/%d/optimize", periodID), nil, env.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["cells_changed"])

	// Both runs were recorded.
	w = env.do(t, http.MethodGet, fmt.Sprintf("/admin/periods/%d/runs", periodID), nil, env.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["runs"], 2)
}

func TestOptimizeRespectsLocks(t *testing.T) {
	env := setupTest(t)
	periodID := env.createPeriod(t, "2024-01-01", "2024-01-01", 0)
	userID := env.createAssignedUser(t, periodID, "locked-worker")

	cellPath := fmt.Sprintf("/admin/periods/%d/grid/%d/2024-01-01", periodID, userID)
	w := env.do(t, http.MethodPut, cellPath, gin.H{"assigned": true, "locked": true}, env.token)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, fmt.Sprintf("/admin/periods/%d/optimize", periodID), nil, env.token)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	assert.Equal(t, float64(0), resp["cells_changed"])
	cell := resp["grid"].(map[string]any)[fmt.Sprint(userID)].(map[string]any)["2024-01-01"].(map[string]any)
	assert.Equal(t, true, cell["assigned"])
}

func TestExportGrid(t *testing.T) {
	env := setupTest(t)
	periodID := env.createPeriod(t, "2024-01-01", "2024-01-01", 1)

	w := env.do(t, http.MethodPost, "/admin/export-keys", gin.H{"name": "reporting"}, env.token)
	require.Equal(t, http.StatusOK, w.Code)
	key := decode(t, w)["key"].(string)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/periods/%d/grid", periodID), nil, key)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/periods/%d/grid", periodID), nil, "bogus.key")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
