package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/mockdrive/internal/apperror"
	"github.com/lshigami/mockdrive/internal/dto"
	"github.com/lshigami/mockdrive/internal/middleware"
	"github.com/lshigami/mockdrive/internal/service"
	"github.com/rs/zerolog/log"
)

// ParseID reads a positive numeric path parameter. On failure it has already replied.
func ParseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: fmt.Sprintf("Invalid %s format", name)})
		return 0, false
	}
	return uint(id), true
}

// Candidate returns the authenticated caller. On failure it has already replied.
func Candidate(ctx *gin.Context) (service.Candidate, bool) {
	candidate, ok := middleware.CandidateFrom(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Unauthenticated"})
		return service.Candidate{}, false
	}
	return candidate, true
}

// BindJSON decodes the request body. On failure it has already replied.
func BindJSON(ctx *gin.Context, req any) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		log.Warn().Err(err).Str("path", ctx.FullPath()).Msg("Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return false
	}
	return true
}

// RespondError maps a service error onto its HTTP status.
func RespondError(ctx *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).Str("method", ctx.Request.Method).Str("path", ctx.FullPath()).Int("status", status).Msg("Request failed")

	resp := dto.ErrorResponse{Message: "Internal server error"}
	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Kind != apperror.KindInternal {
		resp.Message = appErr.Message
		if appErr.Err != nil {
			resp.Details = []string{appErr.Err.Error()}
		}
	}
	ctx.JSON(status, resp)
}
