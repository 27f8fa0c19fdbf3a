package provider

import "context"

// Geocoder resolves a postal address to coordinates.
type Geocoder interface {
	// Name returns the provider name (e.g., "mock", "google-maps").
	Name() string

	// Geocode resolves address to a latitude/longitude pair.
	Geocode(ctx context.Context, address string) (latitude, longitude float64, err error)
}
