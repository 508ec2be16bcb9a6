package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/occ-console-api/internal/dto"
	"github.com/noah-isme/occ-console-api/internal/repository"
	"github.com/noah-isme/occ-console-api/pkg/geo"
)

type geoStub struct {
	points   map[string]geo.Point
	geocodes int
	route    geo.Route
	routeErr error
	geoErr   error
	lastFrom geo.Point
	lastTo   geo.Point
}

func (g *geoStub) Geocode(_ context.Context, address string) (geo.Point, error) {
	g.geocodes++
	if g.geoErr != nil {
		return geo.Point{}, g.geoErr
	}
	point, ok := g.points[address]
	if !ok {
		return geo.Point{}, geo.ErrAddressNotFound
	}
	return point, nil
}

func (g *geoStub) Route(_ context.Context, from, to geo.Point) (geo.Route, error) {
	g.lastFrom, g.lastTo = from, to
	return g.route, g.routeErr
}

func newGeoStub() *geoStub {
	return &geoStub{
		points: map[string]geo.Point{
			"Navervej 10, 7000 Fredericia": {Lat: 55.56, Lng: 9.75},
			"Legoland, Billund":            {Lat: 55.73, Lng: 9.12},
		},
		route: geo.Route{DistanceMeters: 61849, DurationSeconds: 3930},
	}
}

func TestDistanceFromHub(t *testing.T) {
	client := newGeoStub()
	svc := NewDistanceService(client, nil, testValidator(), testLogger())

	resp, err := svc.Distance(context.Background(), dto.DistanceRequest{Origin: "hub_jylland", Destination: " Legoland, Billund "})
	require.NoError(t, err)
	require.Equal(t, "HUB JYLLAND", resp.Origin)
	require.Equal(t, "Legoland, Billund", resp.Destination)
	require.InDelta(t, 61.8, resp.DistanceKM, 1e-9)
	require.Equal(t, 66, resp.DurationMinutes)
	require.Equal(t, "61.8 km, about 1 h 6 min by car from HUB JYLLAND", resp.Summary)
	require.InDelta(t, 55.56, client.lastFrom.Lat, 1e-9)
}

func TestDistanceFromCurrentPosition(t *testing.T) {
	client := newGeoStub()
	client.route = geo.Route{DistanceMeters: 4200, DurationSeconds: 400}
	svc := NewDistanceService(client, nil, testValidator(), testLogger())

	lat, lng := 55.7, 9.5
	resp, err := svc.Distance(context.Background(), dto.DistanceRequest{Lat: &lat, Lng: &lng, Destination: "Legoland, Billund"})
	require.NoError(t, err)
	require.Equal(t, "current location", resp.Origin)
	require.Equal(t, "4.2 km, about 7 min by car from current location", resp.Summary)
	require.Equal(t, 1, client.geocodes)
}

func TestDistanceValidation(t *testing.T) {
	svc := NewDistanceService(newGeoStub(), nil, testValidator(), testLogger())
	lat := 55.0

	cases := map[string]dto.DistanceRequest{
		"missing destination": {Origin: "hub_jylland"},
		"blank destination":   {Origin: "hub_jylland", Destination: "   "},
		"missing origin":      {Destination: "Legoland, Billund"},
		"unknown origin":      {Origin: "mars", Destination: "Legoland, Billund"},
		"half position":       {Lat: &lat, Destination: "Legoland, Billund"},
	}
	for name, req := range cases {
		_, err := svc.Distance(context.Background(), req)
		require.Error(t, err, name)
	}
}

func TestDistanceMapsUpstreamErrors(t *testing.T) {
	client := newGeoStub()
	svc := NewDistanceService(client, nil, testValidator(), testLogger())

	_, err := svc.Distance(context.Background(), dto.DistanceRequest{Origin: "hub_jylland", Destination: "Atlantis"})
	require.ErrorIs(t, err, ErrNotFound)

	client.routeErr = geo.ErrNoRoute
	_, err = svc.Distance(context.Background(), dto.DistanceRequest{Origin: "hub_jylland", Destination: "Legoland, Billund"})
	require.ErrorIs(t, err, ErrNotFound)

	client.routeErr = errors.New("timeout")
	_, err = svc.Distance(context.Background(), dto.DistanceRequest{Origin: "hub_jylland", Destination: "Legoland, Billund"})
	require.ErrorIs(t, err, ErrUpstream)

	client.geoErr = errors.New("503")
	_, err = svc.Distance(context.Background(), dto.DistanceRequest{Origin: "hub_jylland", Destination: "Legoland, Billund"})
	require.ErrorIs(t, err, ErrUpstream)
}

func TestDistanceUsesGeocodeCache(t *testing.T) {
	_, redisClient := setupServiceTestRedis(t)
	client := newGeoStub()
	svc := NewDistanceService(client, repository.NewGeocodeCache(redisClient, 0), testValidator(), testLogger())
	req := dto.DistanceRequest{Origin: "hub_jylland", Destination: "Legoland, Billund"}

	_, err := svc.Distance(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 2, client.geocodes)

	_, err = svc.Distance(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 2, client.geocodes)
}

func TestOriginsAndFormatMinutes(t *testing.T) {
	svc := NewDistanceService(newGeoStub(), nil, testValidator(), testLogger())
	origins := svc.Origins()
	require.Len(t, origins, 3)
	require.Equal(t, "hub_jylland", origins[0].ID)

	require.Equal(t, "45 min", formatMinutes(45))
	require.Equal(t, "2 h 0 min", formatMinutes(120))
}
