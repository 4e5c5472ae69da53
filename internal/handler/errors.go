// internal/handler/errors.go
package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tatsuya-ogawa/migan-inpaint/internal/inference"
	"github.com/tatsuya-ogawa/migan-inpaint/internal/pipeline"
)

// writeError maps pipeline failures to HTTP statuses. Every error body
// carries both a machine-checkable kind and the human-readable message.
func writeError(c *gin.Context, err error) {
	var perr *pipeline.Error
	if !errors.As(err, &perr) {
		c.JSON(http.StatusInternalServerError, errorBody("internal", err.Error()))
		return
	}

	status := http.StatusInternalServerError
	switch perr.Kind {
	case pipeline.KindInvalidInput:
		status = http.StatusBadRequest
	case pipeline.KindInfer:
		if errors.Is(perr, inference.ErrModelNotLoaded) {
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, errorBody(string(perr.Kind), perr.Error()))
}

func errorBody(kind, message string) gin.H {
	return gin.H{"error": gin.H{"kind": kind, "message": message}}
}

// invalidArgument writes a 400 response with an invalid_input kind
func invalidArgument(c *gin.Context, format string, args ...interface{}) {
	c.JSON(http.StatusBadRequest, errorBody(string(pipeline.KindInvalidInput), fmt.Sprintf(format, args...)))
}

// failedPrecondition writes a 503 response
func failedPrecondition(c *gin.Context, format string, args ...interface{}) {
	c.JSON(http.StatusServiceUnavailable, errorBody("failed_precondition", fmt.Sprintf(format, args...)))
}

// internalError writes a 500 response
func internalError(c *gin.Context, format string, args ...interface{}) {
	c.JSON(http.StatusInternalServerError, errorBody("internal", fmt.Sprintf(format, args...)))
}
