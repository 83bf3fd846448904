// Package handlers holds the gin HTTP handlers of the public API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Qubut/IP-Claim/pkg/errors"
)

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondError maps an application error onto its HTTP status.  Server-side
// failures are masked so internals never leak to clients.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = errors.DefaultMessageForCode(code)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:    code.String(),
		Message: message,
	})
}
