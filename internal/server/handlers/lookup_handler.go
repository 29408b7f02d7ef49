package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	calendarsvc "github.com/mamadbah2/hivelog/internal/service/calendar"
	"github.com/mamadbah2/hivelog/pkg/clients/anthropic"
	"github.com/mamadbah2/hivelog/pkg/clients/weather"
)

// LookupHandler bundles the read-only integrations: weather, AI advice and
// calendar export. Each is a single outbound request/response.
type LookupHandler struct {
	weather  weather.Client
	ai       anthropic.Client
	exporter *calendarsvc.Exporter
	logger   *zap.Logger
}

// NewLookupHandler constructs the HTTP handler adapter. The AI client may be
// nil when no API key is configured.
func NewLookupHandler(weatherClient weather.Client, aiClient anthropic.Client, exporter *calendarsvc.Exporter, logger *zap.Logger) *LookupHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupHandler{weather: weatherClient, ai: aiClient, exporter: exporter, logger: logger}
}

// CurrentWeather fetches present conditions for a coordinate.
func (h *LookupHandler) CurrentWeather(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	if latErr != nil || lonErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon must be valid coordinates"})
		return
	}

	current, err := h.weather.Current(c.Request.Context(), lat, lon)
	if err != nil {
		h.logger.Warn("weather lookup failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "weather service unavailable"})
		return
	}

	c.JSON(http.StatusOK, current)
}

// SearchPlaces geocodes a free-text place name.
func (h *LookupHandler) SearchPlaces(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	places, err := h.weather.Geocode(c.Request.Context(), query)
	if err != nil {
		h.logger.Warn("geocoding failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "geocoding service unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": places})
}

// Advice forwards a prompt (and optional image) to the AI assistant.
func (h *LookupHandler) Advice(c *gin.Context) {
	if h.ai == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "advice assistant not configured"})
		return
	}

	var req anthropic.AdviceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}

	advice, err := h.ai.Advise(c.Request.Context(), req)
	if err != nil {
		h.logger.Warn("advice request failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "advice assistant unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"advice": advice})
}

// ExportEvent places an event on the user's calendar, reporting whether the
// native insert succeeded or the web-compose fallback URL should be opened.
func (h *LookupHandler) ExportEvent(c *gin.Context) {
	var req calendarsvc.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid export payload"})
		return
	}

	result, err := h.exporter.Export(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
