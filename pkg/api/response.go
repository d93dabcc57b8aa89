package api

import (
	"errors"
	"net/http"

	"github.com/Baryonic/aida/pkg/apperr"

	"github.com/gin-gonic/gin"
)

const msgInternal = "Internal server error"

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondMessage(c *gin.Context, status int, message string, data any) {
	c.JSON(status, gin.H{"success": true, "message": message, "data": data})
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": message})
}

// respondErr maps err onto an error envelope. Internal errors are logged
// in full; in production the caller only sees a generic message.
func (s *Server) respondErr(c *gin.Context, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = apperr.Wrap(err, apperr.CodeInternal, msgInternal)
	}

	status := ae.HTTPStatus()
	if status < http.StatusInternalServerError {
		respondError(c, status, ae.Message)
		return
	}

	s.log.Error("request failed",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", c.GetString(requestIDKey),
		"error", err,
	)
	msg := err.Error()
	if s.production {
		msg = msgInternal
	}
	respondError(c, status, msg)
}
