package calendar

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/mamadbah2/hivelog/internal/config"
)

const composeBaseURL = "https://calendar.google.com/calendar/render"

// ExportRequest describes the event to place on the user's calendar.
type ExportRequest struct {
	Title    string    `json:"title"`
	Location string    `json:"location,omitempty"`
	Notes    string    `json:"notes,omitempty"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// ExportResult reports which path the export took: a natively created event
// or a web-compose fallback URL carrying the same fields.
type ExportResult struct {
	Created     bool   `json:"created"`
	EventID     string `json:"eventId,omitempty"`
	FallbackURL string `json:"fallbackUrl,omitempty"`
}

// Exporter writes events to Google Calendar when credentials are available
// and always has the web-compose URL to fall back on.
type Exporter struct {
	service    *calendarapi.Service
	calendarID string
	logger     *zap.Logger
}

// NewExporter builds the exporter. A missing or unusable credentials file is
// not fatal: the exporter degrades to fallback URLs only.
func NewExporter(ctx context.Context, cfg config.CalendarConfig, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}

	exporter := &Exporter{calendarID: cfg.CalendarID, logger: logger}
	if exporter.calendarID == "" {
		exporter.calendarID = "primary"
	}

	if cfg.CredentialsPath == "" {
		logger.Info("no calendar credentials configured, using web-compose fallback only")
		return exporter
	}

	service, err := calendarapi.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsPath),
		option.WithScopes(calendarapi.CalendarEventsScope))
	if err != nil {
		logger.Warn("failed to initialize calendar client, using web-compose fallback only", zap.Error(err))
		return exporter
	}

	exporter.service = service
	return exporter
}

// Export attempts the native insert first and falls back to building the
// compose URL on any failure.
func (e *Exporter) Export(ctx context.Context, req ExportRequest) (ExportResult, error) {
	if req.Title == "" {
		return ExportResult{}, fmt.Errorf("event title must not be empty")
	}
	if req.End.Before(req.Start) || req.End.Equal(req.Start) {
		req.End = req.Start.Add(time.Hour)
	}

	if e.service != nil {
		event := &calendarapi.Event{
			Summary:     req.Title,
			Location:    req.Location,
			Description: req.Notes,
			Start:       &calendarapi.EventDateTime{DateTime: req.Start.Format(time.RFC3339)},
			End:         &calendarapi.EventDateTime{DateTime: req.End.Format(time.RFC3339)},
		}

		created, err := e.service.Events.Insert(e.calendarID, event).Context(ctx).Do()
		if err == nil {
			e.logger.Debug("calendar event created", zap.String("event_id", created.Id))
			return ExportResult{Created: true, EventID: created.Id}, nil
		}
		e.logger.Warn("native calendar insert failed, falling back to compose url", zap.Error(err))
	}

	return ExportResult{FallbackURL: ComposeURL(req)}, nil
}

// ComposeURL builds the Google Calendar web-compose URL with the event
// fields URL-encoded.
func ComposeURL(req ExportRequest) string {
	const stampLayout = "20060102T150405Z"

	values := url.Values{}
	values.Set("action", "TEMPLATE")
	values.Set("text", req.Title)
	values.Set("dates", fmt.Sprintf("%s/%s",
		req.Start.UTC().Format(stampLayout),
		req.End.UTC().Format(stampLayout)))
	if req.Notes != "" {
		values.Set("details", req.Notes)
	}
	if req.Location != "" {
		values.Set("location", req.Location)
	}

	return composeBaseURL + "?" + values.Encode()
}
