package chainfeed

import "errors"

var (
	// ErrFeedUnavailable wraps transient upstream RPC failures. Callers skip
	// the affected item and pick it up on the next natural cycle.
	ErrFeedUnavailable = errors.New("chain feed unavailable")

	// ErrNotYetMined means the receipt lookup found nothing; inclusion in a
	// block implies it will be mined, so ingestion proceeds anyway.
	ErrNotYetMined = errors.New("transaction not yet mined")
)
