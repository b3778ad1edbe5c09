package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"booking-intelligence/internal/logger"
	"booking-intelligence/internal/middleware"
)

type Handlers struct {
	Health         *HealthHandler
	Catalog        *CatalogHandler
	Recommendation *RecommendationHandler
	Pricing        *PricingHandler
	AB             *ABHandler
	Admin          *AdminHandler
}

type RouterConfig struct {
	JWTSecret string
	Issuer    string
	RateLimit int
}

func SetupRouter(h *Handlers, cfg RouterConfig, log *logger.Logger) *gin.Engine {
	router := gin.New()

	router.Use(middleware.EnhancedLogger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.SecurityHeaders(log))
	router.Use(middleware.CORS())
	router.Use(middleware.Metrics())
	if cfg.RateLimit > 0 {
		router.Use(middleware.RateLimit(cfg.RateLimit, log))
	}

	router.GET("/health", h.Health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.GET("/room-types", h.Catalog.ListRoomTypes)

	authed := v1.Group("", middleware.Auth(cfg.JWTSecret, cfg.Issuer, log))
	{
		authed.POST("/recommendations", h.Recommendation.Recommend)

		pricing := authed.Group("/pricing")
		{
			pricing.POST("/quotes", h.Pricing.CreateQuote)
			pricing.GET("/quotes/:id", h.Pricing.GetQuote)
		}

		authed.GET("/ab/me", h.AB.Me)
	}

	admin := v1.Group("/admin",
		middleware.Auth(cfg.JWTSecret, cfg.Issuer, log),
		middleware.RequireRole(middleware.RoleAdmin, log))
	{
		admin.PUT("/room-types/:code", h.Catalog.UpsertRoomType)
		admin.PUT("/ab/:userId", h.AB.Override)
		admin.GET("/model", h.Admin.ModelInfo)
		admin.POST("/model/train", h.Admin.TrainModel)
		admin.GET("/analytics/ab", h.Admin.ABReport)
		admin.POST("/rates/publish", h.Admin.PublishRates)
	}

	log.LogProcess("ROUTER", "All routes registered successfully")
	return router
}
