package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthCheckTimeout = 3 * time.Second

// HealthCheck reports whether one dependency is reachable.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type RootController struct {
	checks []HealthCheck
	log    *zap.Logger
}

func NewRootController(log *zap.Logger, checks ...HealthCheck) *RootController {
	return &RootController{checks: checks, log: log}
}

// rootHandler handles requests to the root path
func (rc *RootController) rootHandler(c *gin.Context) {
	c.String(http.StatusOK, "Jagannath OPD booking service")
}

func (rc *RootController) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(rc.checks))
	for _, check := range rc.checks {
		if err := check.Check(ctx); err != nil {
			rc.log.Warn("health check failed", zap.String("dependency", check.Name), zap.Error(err))
			results[check.Name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		results[check.Name] = "up"
	}

	c.JSON(status, gin.H{"status": http.StatusText(status), "checks": results})
}

// RegisterRoutes sets up the unauthenticated root and health routes
func (rc *RootController) RegisterRoutes(router gin.IRouter) {
	router.GET("/", rc.rootHandler)
	router.GET("/healthz", rc.healthHandler)
}
