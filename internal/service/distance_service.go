package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/occ-console-api/internal/dto"
	"github.com/noah-isme/occ-console-api/pkg/geo"
)

// Origin is a predefined starting point for distance lookups.
type Origin struct {
	ID      string
	Name    string
	Address string
}

var defaultOrigins = []Origin{
	{ID: "hub_jylland", Name: "HUB JYLLAND", Address: "Navervej 10, 7000 Fredericia"},
	{ID: "hub_frederikssund", Name: "HUB SJÆLLAND", Address: "Elsenbakken 7, 3600 Frederikssund"},
	{ID: "haraldskaer", Name: "HARALDSKÆR", Address: "Skibetvej 140, 7100 Vejle"},
}

// GeoClient resolves addresses and driving routes.
type GeoClient interface {
	Geocode(ctx context.Context, address string) (geo.Point, error)
	Route(ctx context.Context, from, to geo.Point) (geo.Route, error)
}

// GeocodeCache memoises geocoding results.
type GeocodeCache interface {
	Get(ctx context.Context, query string) (geo.Point, bool, error)
	Set(ctx context.Context, query string, point geo.Point) error
}

// DistanceService computes driving distance from a hub or the caller's
// position to a destination address.
type DistanceService interface {
	Origins() []dto.OriginResponse
	Distance(ctx context.Context, req dto.DistanceRequest) (dto.DistanceResponse, error)
}

type distanceService struct {
	client    GeoClient
	cache     GeocodeCache
	validator *validator.Validate
	origins   []Origin
	logger    zerolog.Logger
}

// NewDistanceService constructs the distance calculator. cache may be nil.
func NewDistanceService(client GeoClient, cache GeocodeCache, validate *validator.Validate, logger zerolog.Logger) DistanceService {
	return &distanceService{
		client:    client,
		cache:     cache,
		validator: validate,
		origins:   defaultOrigins,
		logger:    logger.With().Str("component", "distance_service").Logger(),
	}
}

func (s *distanceService) Origins() []dto.OriginResponse {
	responses := make([]dto.OriginResponse, 0, len(s.origins))
	for _, origin := range s.origins {
		responses = append(responses, dto.OriginResponse{ID: origin.ID, Name: origin.Name, Address: origin.Address})
	}
	return responses
}

func (s *distanceService) Distance(ctx context.Context, req dto.DistanceRequest) (dto.DistanceResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.DistanceResponse{}, err
	}
	destination := strings.TrimSpace(req.Destination)
	if destination == "" {
		return dto.DistanceResponse{}, validationError("destination is required")
	}

	from, originName, err := s.resolveOrigin(ctx, req)
	if err != nil {
		return dto.DistanceResponse{}, err
	}

	to, err := s.geocode(ctx, destination)
	if err != nil {
		return dto.DistanceResponse{}, err
	}

	route, err := s.client.Route(ctx, from, to)
	if err != nil {
		if errors.Is(err, geo.ErrNoRoute) {
			return dto.DistanceResponse{}, fmt.Errorf("%w: no driving route to %s", ErrNotFound, destination)
		}
		s.logger.Error().Err(err).Str("destination", destination).Msg("route lookup failed")
		return dto.DistanceResponse{}, fmt.Errorf("%w: route lookup failed, please try again", ErrUpstream)
	}

	km := math.Round(route.DistanceMeters/100) / 10
	minutes := int(math.Round(route.DurationSeconds / 60))
	return dto.DistanceResponse{
		Origin:          originName,
		Destination:     destination,
		DistanceKM:      km,
		DurationMinutes: minutes,
		Summary:         fmt.Sprintf("%.1f km, about %s by car from %s", km, formatMinutes(minutes), originName),
	}, nil
}

func (s *distanceService) resolveOrigin(ctx context.Context, req dto.DistanceRequest) (geo.Point, string, error) {
	if req.Lat != nil && req.Lng != nil {
		return geo.Point{Lat: *req.Lat, Lng: *req.Lng, Label: "current location"}, "current location", nil
	}
	if (req.Lat == nil) != (req.Lng == nil) {
		return geo.Point{}, "", validationError("lat and lng must be given together")
	}

	id := strings.TrimSpace(req.Origin)
	if id == "" {
		return geo.Point{}, "", validationError("origin or position is required")
	}
	for _, origin := range s.origins {
		if origin.ID != id {
			continue
		}
		point, err := s.geocode(ctx, origin.Address)
		if err != nil {
			return geo.Point{}, "", err
		}
		return point, origin.Name, nil
	}
	return geo.Point{}, "", validationError("unknown origin %q", id)
}

func (s *distanceService) geocode(ctx context.Context, address string) (geo.Point, error) {
	if s.cache != nil {
		point, ok, err := s.cache.Get(ctx, address)
		if err != nil {
			s.logger.Warn().Err(err).Str("address", address).Msg("geocode cache read failed")
		} else if ok {
			return point, nil
		}
	}

	point, err := s.client.Geocode(ctx, address)
	if err != nil {
		if errors.Is(err, geo.ErrAddressNotFound) {
			return geo.Point{}, fmt.Errorf("%w: address %q could not be found", ErrNotFound, address)
		}
		s.logger.Error().Err(err).Str("address", address).Msg("geocoding failed")
		return geo.Point{}, fmt.Errorf("%w: address lookup failed, please try again", ErrUpstream)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, address, point); err != nil {
			s.logger.Warn().Err(err).Str("address", address).Msg("geocode cache write failed")
		}
	}
	return point, nil
}

func formatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%d h %d min", minutes/60, minutes%60)
}
