package api

import (
	"bytes"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/Baryonic/aida/pkg/cart"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const msgSessionQuery = "session query parameter required"

var errIntRange = errors.New("number out of range")

// looseInt accepts a JSON number or a numeric string. Non-numeric values
// decode as zero; numbers outside the int32 range are rejected.
type looseInt int

func (n *looseInt) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return errIntRange
		}
		*n = 0
		return nil
	}
	if math.IsNaN(v) || v > math.MaxInt32 || v < math.MinInt32 {
		return errIntRange
	}
	*n = looseInt(v)
	return nil
}

type addToCartRequest struct {
	Session  string   `json:"session"`
	BookID   looseInt `json:"bookId"`
	Quantity looseInt `json:"quantity"`
}

type updateCartRequest struct {
	Session  string   `json:"session"`
	Quantity looseInt `json:"quantity"`
}

func (s *Server) getCart(c *gin.Context) {
	session := c.Query("session")
	if session == "" {
		respondError(c, http.StatusBadRequest, msgSessionQuery)
		return
	}
	view, err := s.cart.Get(c.Request.Context(), session)
	s.respondCart(c, http.StatusOK, view, err)
}

func (s *Server) addToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Session == "" || req.BookID <= 0 {
		respondError(c, http.StatusBadRequest, "session and bookId are required")
		return
	}
	view, err := s.cart.Add(c.Request.Context(), req.Session, uint(req.BookID), int(req.Quantity))
	s.respondCart(c, http.StatusCreated, view, err)
}

func (s *Server) updateCartItem(c *gin.Context) {
	id, ok := parseID(c, "Invalid cart item id")
	if !ok {
		return
	}
	var req updateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Session == "" || req.Quantity == 0 {
		respondError(c, http.StatusBadRequest, "session and quantity are required")
		return
	}
	view, err := s.cart.SetQuantity(c.Request.Context(), id, req.Session, int(req.Quantity))
	s.respondCart(c, http.StatusOK, view, err)
}

func (s *Server) removeCartItem(c *gin.Context) {
	session := c.Query("session")
	if session == "" {
		respondError(c, http.StatusBadRequest, msgSessionQuery)
		return
	}
	id, ok := parseID(c, "Invalid cart item id")
	if !ok {
		return
	}
	view, err := s.cart.Remove(c.Request.Context(), id, session)
	s.respondCart(c, http.StatusOK, view, err)
}

func (s *Server) clearCart(c *gin.Context) {
	session := c.Query("session")
	if session == "" {
		respondError(c, http.StatusBadRequest, msgSessionQuery)
		return
	}
	view, err := s.cart.Clear(c.Request.Context(), session)
	s.respondCart(c, http.StatusOK, view, err)
}

func (s *Server) checkout(c *gin.Context) {
	respondMessage(c, http.StatusOK, s.cart.Checkout(c.Request.Context()), nil)
}

// newSession hands out an opaque cart session id. Nothing is stored.
func (s *Server) newSession(c *gin.Context) {
	respondData(c, http.StatusCreated, gin.H{"session": uuid.NewString()})
}

func (s *Server) respondCart(c *gin.Context, status int, view *cart.View, err error) {
	if err != nil {
		s.respondErr(c, err)
		return
	}
	respondData(c, status, view)
}
