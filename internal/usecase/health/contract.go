package health

import "context"

// CollectionPinger checks collection backend availability.
type CollectionPinger interface {
	Ping(ctx context.Context) error
}

// APIChecker checks OpenAI API availability.
type APIChecker interface {
	HealthCheck(ctx context.Context) error
}
