package application

import "context"

// Worker represents a background loop (interval refresh, alert polling).
// Implementations must run until the context is canceled.
type Worker interface {
	Start(ctx context.Context)
}
