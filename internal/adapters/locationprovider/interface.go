package locationprovider

import "context"

type LocationProvider interface {
	// A human readable place name for the IP, e.g. "Pune, Maharashtra"
	LookupLocation(ctx context.Context, ip string) (string, error)
}
