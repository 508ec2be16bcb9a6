package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/occ-console-api/pkg/geo"
)

func TestGeocodeCacheNormalisesQueries(t *testing.T) {
	server, client := newTestRedis(t)
	cache := NewGeocodeCache(client, time.Hour)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "Navervej 10")
	require.NoError(t, err)
	require.False(t, ok)

	point := geo.Point{Lat: 55.56, Lng: 9.75, Label: "Navervej 10, Fredericia"}
	require.NoError(t, cache.Set(ctx, "  Navervej   10 ", point))

	cached, ok, err := cache.Get(ctx, "navervej 10")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, point, cached)
	require.Equal(t, time.Hour, server.TTL("occ:geocode:navervej 10"))
}

func TestGeocodeCacheWithoutClient(t *testing.T) {
	cache := NewGeocodeCache(nil, 0)
	require.NoError(t, cache.Set(context.Background(), "x", geo.Point{}))
	_, ok, err := cache.Get(context.Background(), "x")
	require.NoError(t, err)
	require.False(t, ok)
}
