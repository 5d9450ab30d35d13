package claims

import "errors"

// Claim rejection taxonomy. Handlers map these to stable HTTP responses;
// nothing below ever names the secret or checkpoint that failed.
var (
	// ErrValidation: malformed or missing input, client must correct and resubmit
	ErrValidation = errors.New("invalid claim request")
	// ErrNotFound: unknown checkpoint or quest, a configuration mismatch
	ErrNotFound = errors.New("unknown checkpoint or quest")
	// ErrVerificationFailed covers both a wholly invalid secret and a valid
	// secret presented against the wrong quest. Deliberately one error:
	// distinguishing them would aid brute-force discovery.
	ErrVerificationFailed = errors.New("verification failed")
	// ErrAlreadyRedeemed: the identity already holds this slot's lock
	ErrAlreadyRedeemed = errors.New("already redeemed")
	// ErrRateLimited: per-source throttle tripped
	ErrRateLimited = errors.New("too many requests")
	// ErrCapExceeded: the slot's daily redemption ceiling was reached
	ErrCapExceeded = errors.New("checkpoint temporarily unavailable")
	// ErrDependencyUnavailable: the coordination store could not be reached;
	// redemption fails closed
	ErrDependencyUnavailable = errors.New("verification service unavailable")
)
