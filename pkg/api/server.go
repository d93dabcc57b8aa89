// Package api is the HTTP edge: gin routes, JSON envelopes and the
// middleware chain in front of the catalog, cart and contact services.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Baryonic/aida/pkg/cart"
	"github.com/Baryonic/aida/pkg/catalog"
	"github.com/Baryonic/aida/pkg/circuitbreaker"
	"github.com/Baryonic/aida/pkg/contact"
	"github.com/Baryonic/aida/pkg/ratelimit"
	"github.com/Baryonic/aida/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"gorm.io/gorm"
)

// Deps is everything the router needs. Optional parts are disabled when
// nil.
type Deps struct {
	DB      *gorm.DB
	Catalog *catalog.Service
	Cart    *cart.Service
	Contact *contact.Service
	Log     *slog.Logger

	Production bool

	RateLimiter  *ratelimit.KeyedRateLimiter
	RateLimitMax int

	Cache        Cache
	CacheBreaker *circuitbreaker.CircuitBreaker
	CachePrefix  string
	CacheTTL     time.Duration

	CORSOrigins []string
}

type Server struct {
	db         *gorm.DB
	catalog    *catalog.Service
	cart       *cart.Service
	contact    *contact.Service
	validate   *validation.Validator
	log        *slog.Logger
	production bool

	engine  *gin.Engine
	handler http.Handler
}

func NewServer(d Deps) *Server {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		db:         d.DB,
		catalog:    d.Catalog,
		cart:       d.Cart,
		contact:    d.Contact,
		validate:   validation.New(),
		log:        log,
		production: d.Production,
	}

	r := gin.New()
	r.Use(requestID(), requestLogger(log), s.recovery(), securityHeaders())

	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "Not found")
	})

	r.GET("/manage/health", s.healthCheck)

	apiGroup := r.Group("/api")
	if d.RateLimiter != nil {
		apiGroup.Use(s.rateLimit(d.RateLimiter, d.RateLimitMax))
	}

	books := apiGroup.Group("/books")
	if d.Cache != nil {
		breaker := d.CacheBreaker
		if breaker == nil {
			breaker = circuitbreaker.NewCircuitBreaker(5, 30*time.Second)
		}
		ttl := d.CacheTTL
		if ttl <= 0 {
			ttl = 30 * time.Second
		}
		books.Use(s.responseCache(d.Cache, breaker, d.CachePrefix, ttl))
	}
	books.GET("", s.listBooks)
	books.GET("/featured", s.listFeaturedBooks)
	books.GET("/slug/:slug", s.getBookBySlug)
	books.GET("/:id", s.getBook)

	carts := apiGroup.Group("/cart")
	carts.GET("", s.getCart)
	carts.POST("", s.addToCart)
	carts.DELETE("", s.clearCart)
	carts.POST("/checkout", s.checkout)
	carts.POST("/session", s.newSession)
	carts.PATCH("/:id", s.updateCartItem)
	carts.DELETE("/:id", s.removeCartItem)

	contacts := apiGroup.Group("/contact")
	contacts.POST("", s.submitContact)
	contacts.GET("", s.listContactMessages)

	s.engine = r
	s.handler = corsHandler(d.CORSOrigins)(r)
	return s
}

// Engine is the bare gin router, without CORS.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Handler is the full HTTP handler, CORS included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader, "X-Cache"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}
