package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/mockdrive/internal/controller"
	"github.com/lshigami/mockdrive/internal/dto"
)

// GetAptitudeQuestions godoc
// @Summary Get the aptitude test
// @Description Correct options are never included.
// @Tags Aptitude
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AptitudeTestResponse
// @Failure 400 {object} dto.ErrorResponse "Aptitude not reachable or disabled"
// @Failure 409 {object} dto.ErrorResponse "Aptitude already submitted"
// @Router /attempts/{attempt_id}/aptitude [get]
func (c *AttemptController) GetAptitudeQuestions(ctx *gin.Context) {
	candidate, attemptID, ok := attemptScope(ctx)
	if !ok {
		return
	}
	resp, err := c.aptitude.GetQuestions(ctx.Request.Context(), attemptID, candidate)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// SubmitAptitude godoc
// @Summary Submit aptitude answers
// @Description Accepted once per attempt.
// @Tags Aptitude
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Param answers body dto.SubmitAptitudeRequest true "Selected options by question"
// @Success 200 {object} dto.AptitudeResultResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Aptitude already submitted"
// @Router /attempts/{attempt_id}/aptitude/submit [post]
func (c *AttemptController) SubmitAptitude(ctx *gin.Context) {
	candidate, attemptID, ok := attemptScope(ctx)
	if !ok {
		return
	}
	var req dto.SubmitAptitudeRequest
	if !controller.BindJSON(ctx, &req) {
		return
	}
	resp, err := c.aptitude.Submit(ctx.Request.Context(), attemptID, candidate, req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetProblems godoc
// @Summary Get the machine test problems
// @Description Only sample test cases are shown; hidden ones are counted.
// @Tags Machine Test
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.MachineTestResponse
// @Failure 400 {object} dto.ErrorResponse "Machine test not reachable or closed"
// @Router /attempts/{attempt_id}/machine-test/problems [get]
func (c *AttemptController) GetProblems(ctx *gin.Context) {
	candidate, attemptID, ok := attemptScope(ctx)
	if !ok {
		return
	}
	resp, err := c.coding.GetProblems(ctx.Request.Context(), attemptID, candidate)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// SubmitCode godoc
// @Summary Submit code for a problem
// @Description Runs every test case through the judge and records the verdict.
// @Tags Machine Test
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Param problem_id path int true "Problem ID"
// @Param submission body dto.SubmitCodeRequest true "Language and source"
// @Success 200 {object} dto.CodeSubmissionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Problem not found in this drive"
// @Failure 502 {object} dto.ErrorResponse "Judge unavailable"
// @Router /attempts/{attempt_id}/machine-test/problems/{problem_id}/submissions [post]
func (c *AttemptController) SubmitCode(ctx *gin.Context) {
	candidate, attemptID, ok := attemptScope(ctx)
	if !ok {
		return
	}
	problemID, ok := controller.ParseID(ctx, "problem_id")
	if !ok {
		return
	}
	var req dto.SubmitCodeRequest
	if !controller.BindJSON(ctx, &req) {
		return
	}
	resp, err := c.coding.Submit(ctx.Request.Context(), attemptID, problemID, candidate, req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// StartInterview godoc
// @Summary Start the AI interview
// @Description Returns the existing session when one was already started.
// @Tags Interview
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Param request body dto.StartInterviewRequest false "Optional resume reference"
// @Success 200 {object} dto.InterviewSessionResponse
// @Failure 400 {object} dto.ErrorResponse "Interview not reachable"
// @Failure 502 {object} dto.ErrorResponse "Interview service unavailable"
// @Router /attempts/{attempt_id}/interview/start [post]
func (c *AttemptController) StartInterview(ctx *gin.Context) {
	candidate, attemptID, ok := attemptScope(ctx)
	if !ok {
		return
	}
	var req dto.StartInterviewRequest
	if ctx.Request.ContentLength > 0 && !controller.BindJSON(ctx, &req) {
		return
	}
	resp, err := c.interviews.Start(ctx.Request.Context(), attemptID, candidate, req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// SubmitInterviewAnswer godoc
// @Summary Answer the current interview question
// @Tags Interview
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Param answer body dto.SubmitInterviewAnswerRequest true "Answer text"
// @Success 200 {object} dto.InterviewSessionResponse
// @Failure 400 {object} dto.ErrorResponse "Interview not started"
// @Failure 409 {object} dto.ErrorResponse "Interview already completed"
// @Failure 502 {object} dto.ErrorResponse "Interview service unavailable"
// @Router /attempts/{attempt_id}/interview/answers [post]
func (c *AttemptController) SubmitInterviewAnswer(ctx *gin.Context) {
	candidate, attemptID, ok := attemptScope(ctx)
	if !ok {
		return
	}
	var req dto.SubmitInterviewAnswerRequest
	if !controller.BindJSON(ctx, &req) {
		return
	}
	resp, err := c.interviews.SubmitAnswer(ctx.Request.Context(), attemptID, candidate, req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
