package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/accord/internal/middleware"
	"github.com/xxxsen/accord/internal/pkg/errcode"
	appErr "github.com/xxxsen/accord/internal/pkg/errors"
	"github.com/xxxsen/accord/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserIDKey)
}

// getIdentity returns the signed-in email. Access control is keyed on it.
func getIdentity(c *gin.Context) string {
	return c.GetString(middleware.ContextUserEmailKey)
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logger := logutil.GetLogger(c.Request.Context()).With(
		zap.String("request_id", c.GetString(middleware.ContextRequestIDKey)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("identity", getIdentity(c)),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		logger.Info("request unauthorized")
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		logger.Info("request forbidden")
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, invalidMessage(err))
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	case errors.Is(err, appErr.ErrTooMany):
		response.Error(c, errcode.ErrTooMany, "too many requests")
	case errors.Is(err, appErr.ErrUnavailable):
		logger.Warn("downstream unavailable")
		response.Error(c, errcode.ErrUnavailable, "service temporarily unavailable")
	default:
		logger.Error("request failed")
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}

// invalidMessage keeps the field detail of a validation error.
func invalidMessage(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, appErr.ErrInvalid.Error()+": "); idx >= 0 {
		return msg[idx+len(appErr.ErrInvalid.Error())+2:]
	}
	return "invalid request"
}
