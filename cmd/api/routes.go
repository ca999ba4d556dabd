package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"session-gateway/internal/auth"
	"session-gateway/internal/entitlement"
	"session-gateway/internal/httpapi"
	"session-gateway/internal/metrics"
	"session-gateway/pkg/utils"
)

type routeDeps struct {
	handlers  httpapi.Handlers
	session   gin.HandlerFunc
	bearer    gin.HandlerFunc
	metrics   prometheus.Gatherer
	readiness readiness
}

// readiness holds the optional backing stores checked by /readyz.
type readiness struct {
	db  *sql.DB
	rdb *redis.Client
}

func (rd readiness) check(ctx context.Context) map[string]string {
	out := map[string]string{}
	if rd.db != nil {
		out["postgres"] = status(utils.HealthCheck(ctx, rd.db, 2*time.Second))
	}
	if rd.rdb != nil {
		out["redis"] = status(utils.RedisHealthCheck(ctx, rd.rdb, time.Second))
	}
	return out
}

func status(err error) string {
	if err != nil {
		return "down"
	}
	return "ok"
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		checks := d.readiness.check(c.Request.Context())
		code := http.StatusOK
		for _, s := range checks {
			if s != "ok" {
				code = http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{"checks": checks})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler(d.metrics)))

	// cookie session endpoints
	a := r.Group("/auth")
	{
		a.POST("/signin", d.handlers.SignIn)
		a.POST("/signout", d.handlers.SignOut)
		a.GET("/session", d.session, d.handlers.Session)
	}

	// API for browser clients, resolved from cookies with transparent refresh.
	v1 := r.Group("/v1", d.session, entitlement.RequireSession())
	{
		v1.GET("/me", d.handlers.Me)
		v1.GET("/features/plus", entitlement.RequireTier(auth.TierPlus), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"feature": "plus"})
		})
		v1.GET("/features/pro", entitlement.RequireTier(auth.TierPro), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"feature": "pro"})
		})
	}

	// API for service clients holding a token; no refresh.
	svc := r.Group("/api", d.bearer)
	{
		svc.GET("/me", d.handlers.Me)
	}
}
