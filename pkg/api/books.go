package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (s *Server) listBooks(c *gin.Context) {
	books, err := s.catalog.ListAll(c.Request.Context())
	if err != nil {
		s.respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, books)
}

func (s *Server) listFeaturedBooks(c *gin.Context) {
	books, err := s.catalog.ListFeatured(c.Request.Context())
	if err != nil {
		s.respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, books)
}

func (s *Server) getBook(c *gin.Context) {
	id, ok := parseID(c, "Invalid book id")
	if !ok {
		return
	}
	book, err := s.catalog.GetByID(c.Request.Context(), id)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, book)
}

func (s *Server) getBookBySlug(c *gin.Context) {
	book, err := s.catalog.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		s.respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, book)
}

// parseID reads the :id path parameter, answering 400 with msg when it is
// not a positive integer.
func parseID(c *gin.Context, msg string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, msg)
		return 0, false
	}
	return uint(id), true
}
