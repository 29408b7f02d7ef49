package weather

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/hivelog/internal/config"
)

const maxGeocodeResults = 5

// Current holds the conditions relevant to deciding whether to open a hive.
type Current struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	WeatherCode int     `json:"weatherCode"`
	WindSpeed   float64 `json:"windSpeed"`
	Time        string  `json:"time,omitempty"`
}

// Place is a geocoding candidate for a free-text place name.
type Place struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country,omitempty"`
	Admin1    string  `json:"admin1,omitempty"`
}

// Client exposes the unauthenticated Open-Meteo lookups.
type Client interface {
	Current(ctx context.Context, lat, lon float64) (*Current, error)
	Geocode(ctx context.Context, name string) ([]Place, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	forecastClient  *resty.Client
	geocodingClient *resty.Client
}

// NewClient builds a weather client from the configured endpoints.
func NewClient(cfg config.WeatherConfig) *APIClient {
	newResty := func(baseURL string) *resty.Client {
		return resty.New().
			SetBaseURL(strings.TrimSuffix(baseURL, "/")).
			SetTimeout(15 * time.Second)
	}

	return &APIClient{
		forecastClient:  newResty(cfg.ForecastBaseURL),
		geocodingClient: newResty(cfg.GeocodingBaseURL),
	}
}

type forecastResponse struct {
	Current struct {
		Time             string  `json:"time"`
		Temperature2m    float64 `json:"temperature_2m"`
		RelativeHumidity float64 `json:"relative_humidity_2m"`
		WeatherCode      int     `json:"weather_code"`
		WindSpeed10m     float64 `json:"wind_speed_10m"`
	} `json:"current"`
}

type geocodeResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Country   string  `json:"country"`
		Admin1    string  `json:"admin1"`
	} `json:"results"`
}

// Current fetches present conditions for a coordinate.
func (c *APIClient) Current(ctx context.Context, lat, lon float64) (*Current, error) {
	result := new(forecastResponse)

	resp, err := c.forecastClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":  formatCoord(lat),
			"longitude": formatCoord(lon),
			"current":   "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m",
		}).
		SetResult(result).
		Get("/v1/forecast")
	if err != nil {
		return nil, fmt.Errorf("fetch current weather: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf("weather api error: code=%d", resp.StatusCode())
	}

	return &Current{
		Temperature: result.Current.Temperature2m,
		Humidity:    result.Current.RelativeHumidity,
		WeatherCode: result.Current.WeatherCode,
		WindSpeed:   result.Current.WindSpeed10m,
		Time:        result.Current.Time,
	}, nil
}

// Geocode resolves a free-text place name to up to five candidates.
func (c *APIClient) Geocode(ctx context.Context, name string) ([]Place, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("place name must not be empty")
	}

	result := new(geocodeResponse)

	resp, err := c.geocodingClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"name":  name,
			"count": strconv.Itoa(maxGeocodeResults),
		}).
		SetResult(result).
		Get("/v1/search")
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", name, err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf("geocoding api error: code=%d", resp.StatusCode())
	}

	places := make([]Place, 0, len(result.Results))
	for _, r := range result.Results {
		places = append(places, Place{
			Name:      r.Name,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Country:   r.Country,
			Admin1:    r.Admin1,
		})
	}
	return places, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
