package domain

// KeyPrefix namespaces every key pemrank writes to the shared KV store.
const KeyPrefix = "pemrank:"

// Abstention reasons returned in RankResponse.reason.
const (
	ReasonNoCandidates         = "no_candidates"
	ReasonBelowConfidenceFloor = "below_confidence_floor"
)
