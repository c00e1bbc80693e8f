package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/mockdrive/config"
	"github.com/lshigami/mockdrive/internal/apperror"
	"github.com/lshigami/mockdrive/internal/dto"
	"github.com/lshigami/mockdrive/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMigration struct {
	gotThresholds service.Thresholds
	gotDryRun     bool
	gotPreserve   bool
	err           error
}

func (s *stubMigration) Defaults() service.Thresholds {
	return service.Thresholds{MinQuality: 0.7, MinQuestionAttempts: 10, MinProblemAttempts: 5, Similarity: 0.85}
}

func (s *stubMigration) Migrate(_ context.Context, driveID uint, th service.Thresholds, dryRun bool) (*dto.MigrationReportResponse, error) {
	s.gotThresholds, s.gotDryRun = th, dryRun
	if s.err != nil {
		return nil, s.err
	}
	return &dto.MigrationReportResponse{RunID: "run-1", MockDriveID: driveID, DryRun: dryRun}, nil
}

func (s *stubMigration) Cleanup(_ context.Context, driveID uint, preserve bool) (*dto.CleanupReportResponse, error) {
	s.gotPreserve = preserve
	return &dto.CleanupReportResponse{MockDriveID: driveID, QuestionsDeleted: 2}, nil
}

type stubAttempts struct {
	service.AttemptService
}

func (stubAttempts) Reap(context.Context) (int, error) { return 3, nil }

func newRouter(m *stubMigration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	reaper := service.NewReaper(stubAttempts{}, &config.Config{})
	NewContentController(m, reaper).RegisterRoutes(r.Group("/admin"))
	return r
}

func post(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestContentController_MigrateUsesDefaults(t *testing.T) {
	m := &stubMigration{}
	w := post(newRouter(m), "/admin/mock-drives/4/content/migrate", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, m.Defaults(), m.gotThresholds)
	assert.False(t, m.gotDryRun)
}

func TestContentController_MigrateOverrides(t *testing.T) {
	m := &stubMigration{}
	w := post(newRouter(m), "/admin/mock-drives/4/content/migrate", `{"dry_run":true,"min_quality":0.9,"min_problem_attempts":20}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, m.gotDryRun)
	assert.Equal(t, 0.9, m.gotThresholds.MinQuality)
	assert.Equal(t, 20, m.gotThresholds.MinProblemAttempts)
	assert.Equal(t, 10, m.gotThresholds.MinQuestionAttempts)

	var report dto.MigrationReportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, uint(4), report.MockDriveID)
}

func TestContentController_MigrateRejectsBadThreshold(t *testing.T) {
	m := &stubMigration{}
	w := post(newRouter(m), "/admin/mock-drives/4/content/migrate", `{"min_quality":1.5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContentController_MigrateOpenDrive(t *testing.T) {
	m := &stubMigration{err: apperror.InvalidState("mock drive 4 is still open to candidates")}
	w := post(newRouter(m), "/admin/mock-drives/4/content/migrate", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContentController_Cleanup(t *testing.T) {
	m := &stubMigration{}
	w := post(newRouter(m), "/admin/mock-drives/4/content/cleanup", `{"preserve_high_quality":true}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, m.gotPreserve)
}

func TestContentController_Reap(t *testing.T) {
	w := post(newRouter(&stubMigration{}), "/admin/attempts/reap", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"expired":3}`, w.Body.String())
}
