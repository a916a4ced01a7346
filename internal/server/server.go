package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rdine/go-storefront/internal/config"
	"github.com/rdine/go-storefront/internal/handlers"
	"github.com/rdine/go-storefront/internal/metrics"
)

type Server struct {
	cfg      *config.Config
	router   *gin.Engine
	handlers *handlers.Handlers
	httpSrv  *http.Server
}

func New(cfg *config.Config, h *handlers.Handlers) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.Middleware())

	s := &Server{
		cfg:      cfg,
		router:   router,
		handlers: h,
	}

	s.setupRoutes()

	s.httpSrv = &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.GET("/health", h.Health)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Everything below runs with a session cookie and a resolved principal.
	root := s.router.Group("/", h.Session())

	root.POST("/register", h.Register)
	root.POST("/login", h.Login)
	root.POST("/logout", h.Logout)

	root.GET("/products", h.ListProducts)
	root.GET("/products/:id", h.GetProduct)

	root.GET("/cart", h.GetCart)
	root.POST("/cart/add", h.AddToCart)
	root.POST("/cart/update", h.UpdateCart)
	root.DELETE("/cart/remove/:id", h.RemoveFromCart)
	root.POST("/cart/clear", h.ClearCart)
	root.POST("/cart/checkout", h.Checkout)

	user := root.Group("/", h.RequireUser())
	{
		user.GET("/orders", h.ListOrders)
		user.GET("/orders/:id", h.GetOrder)
		user.POST("/products/:id/review", h.SubmitReview)
	}

	admin := root.Group("/admin", h.RequireAdmin())
	{
		admin.GET("/orders", h.AdminListOrders)
		admin.GET("/orders/:id", h.AdminGetOrder)
		admin.POST("/products", h.AdminCreateProduct)
		admin.PUT("/products/:id", h.AdminUpdateProduct)
		admin.DELETE("/products/:id", h.AdminDeleteProduct)
	}
}

func (s *Server) Start() error {
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}
