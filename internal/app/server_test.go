package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appMiddleware "github.com/markdave123-py/studybuddy/internal/api/middlewares"
	"github.com/markdave123-py/studybuddy/internal/config"
	"github.com/markdave123-py/studybuddy/internal/core/logger"
	"github.com/markdave123-py/studybuddy/internal/core/progress"
	"github.com/markdave123-py/studybuddy/internal/models"
)

type stubProgress struct{}

func (stubProgress) RecordStudyActivity(context.Context, string) (progress.Streak, error) {
	return progress.Streak{Current: 3, Longest: 5}, nil
}

func (stubProgress) LogQuizResult(_ context.Context, userID, _ string, _ float64) (*models.ProgressRecord, error) {
	return models.NewProgressRecord(userID), nil
}

func (stubProgress) Dashboard(context.Context, string) (models.Dashboard, error) {
	return models.Dashboard{QuizScores: []models.QuizScore{}, KnowledgeHeatmap: map[string]float64{}}, nil
}

func testRouter() http.Handler {
	cfg := &config.Config{JWTSecret: "secret", CorsOrigins: []string{"http://localhost:5173"}, MaxUploadBytes: 1 << 20}
	return NewRouter(cfg, logger.Nop(), Deps{Progress: stubProgress{}})
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("health: %d %s", rec.Code, rec.Body.String())
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := testRouter()
	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/materials"},
		{http.MethodPost, "/api/materials/upload"},
		{http.MethodDelete, "/api/materials/m1"},
		{http.MethodPost, "/api/generate/m1/quiz"},
		{http.MethodPost, "/api/generate/translate"},
		{http.MethodGet, "/api/progress/dashboard"},
		{http.MethodPost, "/api/tutor/m1/ask"},
	}
	for _, p := range paths {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(p.method, p.path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: want=401 got=%d", p.method, p.path, rec.Code)
		}
	}
}

func TestAuthenticatedRouteReachesHandler(t *testing.T) {
	tok, err := appMiddleware.IssueToken("secret", "u1", time.Now())
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/progress/update-streak", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"longestStreak":5`) {
		t.Fatalf("update-streak: %d %s", rec.Code, rec.Body.String())
	}
}
