package geocoding_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/desertoasis/servicemap/internal/geocoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"
)

// mockGoogleClient is a mock implementation of GoogleAPIClient for testing.
type mockGoogleClient struct {
	geocodeFunc func(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

func (m *mockGoogleClient) Geocode(
	ctx context.Context,
	r *maps.GeocodingRequest,
) ([]maps.GeocodingResult, error) {
	return m.geocodeFunc(ctx, r)
}

func TestGoogleProvider_Geocode(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("api returns error", func(t *testing.T) {
		mockClient := &mockGoogleClient{
			geocodeFunc: func(_ context.Context, _ *maps.GeocodingRequest) ([]maps.GeocodingResult, error) {
				return nil, assert.AnError
			},
		}

		provider := geocoding.NewGoogleProvider(mockClient, logger)
		result, err := provider.Geocode(ctx, "some invalid place")

		require.Nil(t, result)
		require.Error(t, err)
		require.ErrorIs(t, err, assert.AnError)
	})

	t.Run("api returns empty response", func(t *testing.T) {
		mockClient := &mockGoogleClient{
			geocodeFunc: func(_ context.Context, _ *maps.GeocodingRequest) ([]maps.GeocodingResult, error) {
				return nil, nil
			},
		}

		provider := geocoding.NewGoogleProvider(mockClient, logger)
		result, err := provider.Geocode(ctx, "some invalid place")

		require.Nil(t, result)
		require.ErrorIs(t, err, geocoding.ErrNoResults)
	})

	t.Run("successful geocoding", func(t *testing.T) {
		mockClient := &mockGoogleClient{
			geocodeFunc: func(_ context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error) {
				assert.Equal(t, "Gilbert, Arizona", r.Address)
				return []maps.GeocodingResult{
					{
						FormattedAddress: "Gilbert, AZ, USA",
						Geometry: maps.AddressGeometry{
							Location: maps.LatLng{Lat: 33.35, Lng: -111.79},
						},
					},
				}, nil
			},
		}

		provider := geocoding.NewGoogleProvider(mockClient, logger)
		result, err := provider.Geocode(ctx, "Gilbert, Arizona")

		require.NoError(t, err)
		require.NotNil(t, result)
		require.InEpsilon(t, 33.35, result.Latitude, 0.01)
		require.InEpsilon(t, -111.79, result.Longitude, 0.01)
		assert.Equal(t, "Gilbert, AZ, USA", result.DisplayName)
	})
}
