package internal

import (
	"context"
	"time"
)

// DefaultUpstreamTimeout bounds a single call to a rate source when the
// caller configured none.
const DefaultUpstreamTimeout = 5 * time.Second

type travelerKey struct{}

// TravelerIDFromContext returns the authenticated traveler, or "" for
// unauthenticated calls such as the offline CLI.
func TravelerIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(travelerKey{}).(string)
	return id
}

func ContextWithTravelerID(ctx context.Context, travelerID string) context.Context {
	return context.WithValue(ctx, travelerKey{}, travelerID)
}

// WithTimeout bounds one upstream call. A parent deadline that is already
// sooner still wins.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultUpstreamTimeout
	}
	return context.WithTimeout(ctx, d)
}
