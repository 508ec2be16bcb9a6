// Package geo resolves addresses to coordinates and driving routes between
// them using Nominatim- and OSRM-compatible HTTP APIs.
package geo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

var (
	// ErrAddressNotFound is returned when geocoding yields no match.
	ErrAddressNotFound = errors.New("address not found")
	// ErrNoRoute is returned when no driving route connects two points.
	ErrNoRoute = errors.New("no route found")
)

// Point is a resolved location.
type Point struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Label string  `json:"label"`
}

// Route is a driving route summary.
type Route struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// Config configures the client.
type Config struct {
	GeocodeURL string
	RouteURL   string
	UserAgent  string
	Timeout    time.Duration
	Logger     zerolog.Logger
}

// Client talks to the geocoding and routing services.
type Client struct {
	geocodeURL string
	routeURL   string
	userAgent  string
	timeout    time.Duration
	logger     zerolog.Logger
}

// New constructs a client.
func New(cfg Config) *Client {
	if cfg.GeocodeURL == "" {
		cfg.GeocodeURL = "https://nominatim.openstreetmap.org"
	}
	if cfg.RouteURL == "" {
		cfg.RouteURL = "https://router.project-osrm.org"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "occ-console-api"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		geocodeURL: strings.TrimRight(cfg.GeocodeURL, "/"),
		routeURL:   strings.TrimRight(cfg.RouteURL, "/"),
		userAgent:  cfg.UserAgent,
		timeout:    cfg.Timeout,
		logger:     cfg.Logger.With().Str("component", "geo_client").Logger(),
	}
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode resolves a free-form address.
func (c *Client) Geocode(ctx context.Context, address string) (Point, error) {
	if err := ctx.Err(); err != nil {
		return Point{}, err
	}

	query := url.Values{}
	query.Set("format", "json")
	query.Set("limit", "1")
	query.Set("q", address)

	var results []nominatimResult
	if err := c.getJSON(c.geocodeURL+"/search", query.Encode(), &results); err != nil {
		return Point{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	if len(results) == 0 {
		return Point{}, ErrAddressNotFound
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Point{}, fmt.Errorf("geocode %q: invalid latitude: %w", address, err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Point{}, fmt.Errorf("geocode %q: invalid longitude: %w", address, err)
	}

	label := results[0].DisplayName
	if label == "" {
		label = address
	}
	return Point{Lat: lat, Lng: lng, Label: label}, nil
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// Route returns the fastest driving route between two points.
func (c *Client) Route(ctx context.Context, from, to Point) (Route, error) {
	if err := ctx.Err(); err != nil {
		return Route{}, err
	}

	endpoint := fmt.Sprintf("%s/route/v1/driving/%s;%s", c.routeURL, coordinate(from), coordinate(to))

	var resp osrmResponse
	if err := c.getJSON(endpoint, "overview=false", &resp); err != nil {
		return Route{}, fmt.Errorf("route: %w", err)
	}
	if !strings.EqualFold(resp.Code, "ok") || len(resp.Routes) == 0 {
		return Route{}, ErrNoRoute
	}

	return Route{DistanceMeters: resp.Routes[0].Distance, DurationSeconds: resp.Routes[0].Duration}, nil
}

func (c *Client) getJSON(endpoint, rawQuery string, target interface{}) error {
	agent := fiber.Get(endpoint)
	agent.QueryString(rawQuery)
	agent.UserAgent(c.userAgent)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	agent.Timeout(c.timeout)

	status, body, errs := agent.Struct(target)
	if len(errs) > 0 {
		c.logger.Warn().Err(errs[0]).Str("endpoint", endpoint).Int("status", status).Msg("upstream request failed")
		if status >= fiber.StatusBadRequest {
			return fmt.Errorf("upstream returned status %d", status)
		}
		return errs[0]
	}
	if status >= fiber.StatusBadRequest {
		c.logger.Warn().Str("endpoint", endpoint).Int("status", status).Int("body_bytes", len(body)).Msg("upstream request rejected")
		return fmt.Errorf("upstream returned status %d", status)
	}
	return nil
}

func coordinate(p Point) string {
	return strconv.FormatFloat(p.Lng, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lat, 'f', 6, 64)
}
