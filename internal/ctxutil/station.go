// Package ctxutil carries request-scoped identity through context.
// It has no internal dependencies so any package can import it.
package ctxutil

import "context"

type stationKey struct{}

// Station identifies who is recording and where.
type Station struct {
	OperatorID   string
	WorkCenterID string
}

// WithStation returns a context carrying s.
func WithStation(ctx context.Context, s Station) context.Context {
	return context.WithValue(ctx, stationKey{}, s)
}

// StationFromContext returns the station stored in ctx, if any.
func StationFromContext(ctx context.Context) (Station, bool) {
	s, ok := ctx.Value(stationKey{}).(Station)
	return s, ok
}
