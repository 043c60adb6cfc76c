// Package http provides the HTTP handlers for the Tier-1 analytics surface.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	analyticsDomain "github.com/allisson/viewvault/internal/analytics/domain"
	"github.com/allisson/viewvault/internal/analytics/http/dto"
	analyticsUseCase "github.com/allisson/viewvault/internal/analytics/usecase"
	"github.com/allisson/viewvault/internal/httputil"
)

// OwnerHeader names the authenticated profile owner on privacy requests.
const OwnerHeader = "X-Profile-Owner"

// AnalyticsHandler handles HTTP requests for the owner dashboard.
type AnalyticsHandler struct {
	analyticsUseCase analyticsUseCase.AnalyticsUseCase
	logger           *slog.Logger
}

// NewAnalyticsHandler creates a new analytics handler with required dependencies.
func NewAnalyticsHandler(analyticsUseCase analyticsUseCase.AnalyticsUseCase, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsUseCase: analyticsUseCase,
		logger:           logger,
	}
}

// DashboardHandler aggregates a profile's views.
// GET /v1/profiles/:profileId/analytics?from=<millis>&to=<millis>&group_by=city|device|browser|hour
// from defaults to 30 days before to; to defaults to now.
func (h *AnalyticsHandler) DashboardHandler(c *gin.Context) {
	to := time.Now().UTC()
	if raw := c.Query("to"); raw != "" {
		parsed, err := parseMillis("to", raw)
		if err != nil {
			httputil.HandleValidationErrorGin(c, err, h.logger)
			return
		}
		to = parsed
	}

	from := to.AddDate(0, 0, -30)
	if raw := c.Query("from"); raw != "" {
		parsed, err := parseMillis("from", raw)
		if err != nil {
			httputil.HandleValidationErrorGin(c, err, h.logger)
			return
		}
		from = parsed
	}

	q := analyticsDomain.DashboardQuery{
		ProfileID: c.Param("profileId"),
		From:      from,
		To:        to,
		GroupBy:   analyticsDomain.GroupBy(c.DefaultQuery("group_by", string(analyticsDomain.GroupByCity))),
	}

	buckets, err := h.analyticsUseCase.Dashboard(c.Request.Context(), q)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapBucketsToResponse(q, buckets))
}

// PrivacySummaryHandler reports, in aggregate, what is held about a profile's viewers.
// GET /v1/profiles/:profileId/privacy?to=<millis> - Requires the internal API key and
// an X-Profile-Owner header naming the profile.
func (h *AnalyticsHandler) PrivacySummaryHandler(c *gin.Context) {
	to := time.Now().UTC()
	if raw := c.Query("to"); raw != "" {
		parsed, err := parseMillis("to", raw)
		if err != nil {
			httputil.HandleValidationErrorGin(c, err, h.logger)
			return
		}
		to = parsed
	}

	q := analyticsDomain.PrivacyQuery{
		Owner:     strings.TrimSpace(c.GetHeader(OwnerHeader)),
		ProfileID: c.Param("profileId"),
		To:        to,
	}

	summary, err := h.analyticsUseCase.PrivacySummary(c.Request.Context(), q)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPrivacySummaryToResponse(summary))
}

// DeleteProfileHandler removes a profile's Tier-1 views on owner account deletion.
// DELETE /v1/profiles/:profileId/analytics - Requires the internal API key.
func (h *AnalyticsHandler) DeleteProfileHandler(c *gin.Context) {
	deleted, err := h.analyticsUseCase.DeleteProfile(c.Request.Context(), c.Param("profileId"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.DeleteProfileResponse{DeletedCount: deleted})
}

func parseMillis(name, raw string) (time.Time, error) {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a unix timestamp in milliseconds", name)
	}
	return time.UnixMilli(ms).UTC(), nil
}
