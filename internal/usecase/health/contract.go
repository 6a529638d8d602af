package health

import "context"

// CachePinger checks response cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}
