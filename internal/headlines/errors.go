package headlines

import "errors"

var (
	// ErrConfiguration means no usable credential is configured.
	ErrConfiguration = errors.New("headline source credential is not configured")
	// ErrAuth means the headline source rejected the credential.
	ErrAuth = errors.New("invalid API key")
	// ErrRateLimit means the headline source quota is exhausted.
	ErrRateLimit = errors.New("API rate limit exceeded")
	// ErrUpstream covers every other headline source failure.
	ErrUpstream = errors.New("headline source failed")
)

// recoverable reports whether err may be masked by fallback data.
func recoverable(err error) bool {
	return !errors.Is(err, ErrAuth) &&
		!errors.Is(err, ErrRateLimit) &&
		!errors.Is(err, ErrConfiguration)
}
