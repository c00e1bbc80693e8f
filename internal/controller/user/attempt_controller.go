package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/mockdrive/internal/controller"
	"github.com/lshigami/mockdrive/internal/service"
	"github.com/rs/zerolog/log"
)

// AttemptController serves the candidate side of a mock drive.
type AttemptController struct {
	attempts   service.AttemptService
	aptitude   service.AptitudeService
	coding     service.CodingService
	interviews service.InterviewService
	results    service.ResultService
}

func NewAttemptController(
	attempts service.AttemptService,
	aptitude service.AptitudeService,
	coding service.CodingService,
	interviews service.InterviewService,
	results service.ResultService,
) *AttemptController {
	return &AttemptController{
		attempts:   attempts,
		aptitude:   aptitude,
		coding:     coding,
		interviews: interviews,
		results:    results,
	}
}

// RegisterRoutes mounts the candidate routes on an authenticated group.
func (c *AttemptController) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/mock-drives/:drive_id/attempts", c.StartAttempt)

	attempts := api.Group("/attempts/:attempt_id")
	attempts.GET("", c.GetAttempt)
	attempts.GET("/status", c.GetStatus)
	attempts.POST("/advance", c.Advance)
	attempts.POST("/abandon", c.Abandon)
	attempts.GET("/result", c.GetResult)

	attempts.GET("/aptitude", c.GetAptitudeQuestions)
	attempts.POST("/aptitude/submit", c.SubmitAptitude)

	attempts.GET("/machine-test/problems", c.GetProblems)
	attempts.POST("/machine-test/problems/:problem_id/submissions", c.SubmitCode)

	attempts.POST("/interview/start", c.StartInterview)
	attempts.POST("/interview/answers", c.SubmitInterviewAnswer)
}

// attemptScope reads the caller and the attempt id; on failure it has already replied.
func attemptScope(ctx *gin.Context) (service.Candidate, uint, bool) {
	candidate, ok := controller.Candidate(ctx)
	if !ok {
		return candidate, 0, false
	}
	attemptID, ok := controller.ParseID(ctx, "attempt_id")
	return candidate, attemptID, ok
}

// StartAttempt godoc
// @Summary Start or resume a mock drive attempt
// @Description Creates the caller's attempt for the drive, or returns the in-progress one.
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Param drive_id path int true "Mock drive ID"
// @Success 200 {object} dto.StartAttemptResponse
// @Failure 400 {object} dto.ErrorResponse "Drive not active, not registered or not eligible"
// @Failure 403 {object} dto.ErrorResponse "Drive belongs to another institution"
// @Failure 404 {object} dto.ErrorResponse "Mock drive not found"
// @Failure 409 {object} dto.ErrorResponse "Attempt already ended"
// @Router /mock-drives/{drive_id}/attempts [post]
func (c *AttemptController) StartAttempt(ctx *gin.Context) {
	candidate, ok := controller.Candidate(ctx)
	if !ok {
		return
	}
	driveID, ok := controller.ParseID(ctx, "drive_id")
	if !ok {
		return
	}

	resp, err := c.attempts.Start(ctx.Request.Context(), candidate, driveID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	log.Info().Uint("attemptID", resp.Attempt.ID).Uint("candidateID", candidate.ID).Bool("resumed", resp.Resumed).Msg("Attempt started")
	ctx.JSON(http.StatusOK, resp)
}

// GetAttempt godoc
// @Summary Get an attempt
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /attempts/{attempt_id} [get]
func (c *AttemptController) GetAttempt(ctx *gin.Context) {
	candidate, attemptID, ok := attemptScope(ctx)
	if !ok {
		return
	}
	resp, err := c.attempts.GetAttempt(ctx.Request.Context(), attemptID, candidate)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetStatus godoc
// @Summary Get component progress of an attempt
// @Description Reports the current and next component and whether the candidate may advance.
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptStatusResponse
// @Failure 400 {object} dto.ErrorResponse "Attempt expired"
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /attempts/{attempt_id}/status [get]
func (c *AttemptController) GetStatus(ctx *gin.Context) {
	candidate, attemptID, ok := attemptScope(ctx)
	if !ok {
		return
	}
	resp, err := c.attempts.GetStatus(ctx.Request.Context(), attemptID, candidate)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Advance godoc
// @Summary Move to the next component
// @Description Completes the attempt and returns its result once every enabled component is done.
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AdvanceResponse
// @Failure 400 {object} dto.ErrorResponse "Current component not finished or attempt ended"
// @Failure 502 {object} dto.ErrorResponse "Interview service unavailable"
// @Router /attempts/{attempt_id}/advance [post]
func (c *AttemptController) Advance(ctx *gin.Context) {
	candidate, attemptID, ok := attemptScope(ctx)
	if !ok {
		return
	}
	resp, err := c.attempts.Advance(ctx.Request.Context(), attemptID, candidate)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Abandon godoc
// @Summary Abandon an attempt
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptResponse
// @Failure 400 {object} dto.ErrorResponse "Attempt already ended"
// @Router /attempts/{attempt_id}/abandon [post]
func (c *AttemptController) Abandon(ctx *gin.Context) {
	candidate, attemptID, ok := attemptScope(ctx)
	if !ok {
		return
	}
	resp, err := c.attempts.Abandon(ctx.Request.Context(), attemptID, candidate)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetResult godoc
// @Summary Get the final result of a completed attempt
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.ResultResponse
// @Failure 400 {object} dto.ErrorResponse "Attempt not completed"
// @Router /attempts/{attempt_id}/result [get]
func (c *AttemptController) GetResult(ctx *gin.Context) {
	candidate, attemptID, ok := attemptScope(ctx)
	if !ok {
		return
	}
	resp, err := c.results.GetResult(ctx.Request.Context(), attemptID, candidate)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
