// api/router.go
package main

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"visitstats/api/config"
	"visitstats/api/handlers"
	"visitstats/api/middleware"
)

func newRouter(cfg config.ServerConfig, h *handlers.VisitHandlers, limiter *middleware.IPRateLimiter) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies %v: %w", cfg.TrustedProxies, err)
	}

	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	{
		api.POST("/visits", middleware.RateLimit(limiter), h.AddVisit)
		api.GET("/visits", h.ListVisits)
		api.GET("/stats", h.GetStats)
		api.GET("/stats/:date", h.GetStats)
	}

	return r, nil
}
