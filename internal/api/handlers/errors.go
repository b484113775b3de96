package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

// statusFor maps an error to its HTTP status and a short public message.
func statusFor(err error) (int, string) {
	var (
		dataErr    *domain.DataError
		notFound   *domain.NotFoundError
		fitErr     *domain.ModelFitError
		timeoutErr *domain.TimeoutError
		tooLarge   *http.MaxBytesError
	)
	switch {
	case errors.As(err, &dataErr):
		return http.StatusBadRequest, "invalid data"
	case errors.As(err, &notFound):
		return http.StatusNotFound, "not found"
	case errors.As(err, &fitErr):
		return http.StatusUnprocessableEntity, "model fit failed"
	case errors.As(err, &timeoutErr):
		return http.StatusGatewayTimeout, "forecast timed out"
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "upload too large"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout, "request cancelled"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func respondError(c *gin.Context, err error) {
	status, message := statusFor(err)

	event := log.Warn()
	if status >= http.StatusInternalServerError && status != http.StatusGatewayTimeout {
		event = log.Error()
	}
	event.Err(err).Str("path", c.Request.URL.Path).Int("status", status).Msg(message)

	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}
