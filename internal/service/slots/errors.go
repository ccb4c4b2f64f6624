package slots

import "errors"

var (
	ErrUnknownVariant = errors.New("unknown theater variant")
	ErrBadDate        = errors.New("bad date")
	// ErrFeedUnavailable means the booking store could not be read; the
	// returned view reports every slot as unknown and the caller should
	// offer a retry.
	ErrFeedUnavailable = errors.New("booking feed unavailable")
)
