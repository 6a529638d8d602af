// Package pemrank ranks prior programming-error encounters for a learner and
// decides whether any of them is worth showing as guidance.
//
// The engine is deterministic: the same request and calibration always yield
// byte-identical responses. It never computes embeddings; callers supply
// vector similarities (or raw vectors, compared by cosine) from their own index.
//
// # In-process ranking
//
//	client, _ := pemrank.New(
//	    pemrank.WithCalibrationFile("calibration.yaml"),
//	    pemrank.WithLogger(slog.Default()),
//	)
//	defer client.Close()
//
//	resp, err := client.Rank(ctx, &apiv1.RankRequest{Query: q, Candidates: cands})
//	if errors.Is(err, pemrank.ErrInvalidRequest) {
//	    // caller bug: bad field, duplicate id, too many candidates
//	}
//	if !resp.Abstain {
//	    show(resp.Best)
//	}
//
// # Response cache
//
// WithValkey or WithRedis enables the same response cache the HTTP service
// uses. Cache failures never fail a Rank call.
package pemrank
