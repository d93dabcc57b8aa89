package api

import (
	"errors"
	"net/http"

	"github.com/Baryonic/aida/pkg/apperr"
	"github.com/Baryonic/aida/pkg/contact"
	"github.com/Baryonic/aida/pkg/validation"

	"github.com/gin-gonic/gin"
)

func (s *Server) submitContact(c *gin.Context) {
	var form contact.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	clean, err := contact.Sanitize(s.validate, form)
	if err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
				"success": false,
				"errors":  validation.Fields(err),
			})
			return
		}
		s.respondErr(c, err)
		return
	}

	if _, err := s.contact.Submit(c.Request.Context(), clean.Name, clean.Email, clean.Message); err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": contact.ReceivedMessage})
}

// listContactMessages is an admin listing. It is not access controlled.
func (s *Server) listContactMessages(c *gin.Context) {
	msgs, err := s.contact.ListAll(c.Request.Context())
	if err != nil {
		s.respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, msgs)
}
