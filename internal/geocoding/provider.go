package geocoding

import (
	"context"

	"github.com/desertoasis/servicemap/internal/models"
)

// Provider is an interface that defines a method for resolving a free-text
// place query to coordinates. The Geocode method takes a context and a query
// string as input, and returns the best matching result or an error. A query
// with no matches yields ErrNoResults.
type Provider interface {
	Geocode(ctx context.Context, query string) (*models.GeocodeResult, error)
}
