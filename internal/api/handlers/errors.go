package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/kpi-visualizer/internal/kpi"
	"github.com/andresuchdata/kpi-visualizer/internal/llm"
	"github.com/andresuchdata/kpi-visualizer/internal/service"
)

// statusFor maps service and core errors onto HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, kpi.ErrMalformedInput):
		return http.StatusUnprocessableEntity, "malformed order data"
	case errors.Is(err, kpi.ErrEmptyInput):
		return http.StatusNotFound, "no order data"
	case errors.Is(err, llm.ErrNotConfigured), errors.Is(err, llm.ErrUnavailable):
		return http.StatusServiceUnavailable, "assistant unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func respondError(c *gin.Context, err error) {
	code, message := statusFor(err)
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg(message)
	}
	_ = c.Error(err)
	c.JSON(code, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}
