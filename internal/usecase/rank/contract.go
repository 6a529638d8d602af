package rank

import (
	"context"

	"github.com/kailas-cloud/pemrank/internal/domain/rank/request"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/result"
)

// Cache stores composed responses keyed by request content and calibration
// fingerprint. Implementations degrade to a miss on storage failure.
type Cache interface {
	Get(ctx context.Context, fingerprint string, req request.Request) (result.Response, bool)
	Put(ctx context.Context, fingerprint string, req request.Request, resp result.Response)
}
