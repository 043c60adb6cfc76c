package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// dashboardCORS returns the CORS middleware for the owner dashboard routes, or nil
// when CORS is disabled or no origin is configured.
//
// Only the read-only dashboard is ever exposed cross-origin. Privileged routes are
// called server-to-server with the internal key and never get CORS headers.
func dashboardCORS(enabled bool, allowOrigins string, logger *slog.Logger) gin.HandlerFunc {
	if !enabled {
		return nil
	}

	origins := parseOrigins(allowOrigins)
	if len(origins) == 0 {
		logger.Warn("CORS enabled but no origins configured, dashboard stays same-origin")
		return nil
	}

	logger.Info("dashboard CORS enabled", slog.Int("origin_count", len(origins)))

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet},
		AllowHeaders:     []string{"Content-Type"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}

// preflight answers OPTIONS requests that the CORS middleware let through.
func preflight(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func parseOrigins(raw string) []string {
	var origins []string
	for _, part := range strings.Split(raw, ",") {
		if origin := strings.TrimSpace(part); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
