package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/mockdrive/internal/controller"
	"github.com/lshigami/mockdrive/internal/dto"
	"github.com/lshigami/mockdrive/internal/service"
	"github.com/rs/zerolog/log"
)

// ContentController exposes drive content maintenance and the expiry sweep.
type ContentController struct {
	migration service.MigrationService
	reaper    *service.Reaper
}

func NewContentController(migration service.MigrationService, reaper *service.Reaper) *ContentController {
	return &ContentController{migration: migration, reaper: reaper}
}

// RegisterRoutes mounts the admin routes on a group already restricted to admins.
func (c *ContentController) RegisterRoutes(admin *gin.RouterGroup) {
	content := admin.Group("/mock-drives/:drive_id/content")
	content.POST("/migrate", c.Migrate)
	content.POST("/cleanup", c.Cleanup)

	admin.POST("/attempts/reap", c.Reap)
}

// Migrate godoc
// @Summary (Admin) Promote good drive content to the permanent bank
// @Description Evaluates every un-migrated question and problem of a finished drive. Thresholds default to the server configuration.
// @Tags Admin - Content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param drive_id path int true "Mock drive ID"
// @Param request body dto.MigrateContentRequest false "Dry run flag and threshold overrides"
// @Success 200 {object} dto.MigrationReportResponse
// @Failure 400 {object} dto.ErrorResponse "Drive still open"
// @Failure 404 {object} dto.ErrorResponse "Mock drive not found"
// @Router /admin/mock-drives/{drive_id}/content/migrate [post]
func (c *ContentController) Migrate(ctx *gin.Context) {
	driveID, ok := controller.ParseID(ctx, "drive_id")
	if !ok {
		return
	}
	var req dto.MigrateContentRequest
	if ctx.Request.ContentLength > 0 && !controller.BindJSON(ctx, &req) {
		return
	}

	th := c.migration.Defaults()
	if req.MinQuality != nil {
		th.MinQuality = *req.MinQuality
	}
	if req.MinQuestionAttempts != nil {
		th.MinQuestionAttempts = *req.MinQuestionAttempts
	}
	if req.MinProblemAttempts != nil {
		th.MinProblemAttempts = *req.MinProblemAttempts
	}

	report, err := c.migration.Migrate(ctx.Request.Context(), driveID, th, req.DryRun)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, report)
}

// Cleanup godoc
// @Summary (Admin) Remove worthless drive content
// @Description Soft-deletes un-migrated content with too few attempts or an extreme success rate.
// @Tags Admin - Content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param drive_id path int true "Mock drive ID"
// @Param request body dto.CleanupContentRequest false "Keep high quality items"
// @Success 200 {object} dto.CleanupReportResponse
// @Failure 400 {object} dto.ErrorResponse "Drive still open"
// @Failure 404 {object} dto.ErrorResponse "Mock drive not found"
// @Router /admin/mock-drives/{drive_id}/content/cleanup [post]
func (c *ContentController) Cleanup(ctx *gin.Context) {
	driveID, ok := controller.ParseID(ctx, "drive_id")
	if !ok {
		return
	}
	var req dto.CleanupContentRequest
	if ctx.Request.ContentLength > 0 && !controller.BindJSON(ctx, &req) {
		return
	}

	report, err := c.migration.Cleanup(ctx.Request.Context(), driveID, req.PreserveHighQuality)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, report)
}

// Reap godoc
// @Summary (Admin) Expire overdue attempts now
// @Tags Admin - Attempts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ReapResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /admin/attempts/reap [post]
func (c *ContentController) Reap(ctx *gin.Context) {
	n, err := c.reaper.RunOnce(ctx.Request.Context())
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	log.Info().Int("expired", n).Msg("Manual expiry sweep finished")
	ctx.JSON(http.StatusOK, dto.ReapResponse{Expired: n})
}
