package drafts

import "errors"

var (
	ErrDraftNotFound  = errors.New("draft not found")
	ErrUnknownVariant = errors.New("unknown theater variant")
	ErrUnknownSlot    = errors.New("slot not in catalog")
	ErrUnknownStep    = errors.New("unknown step")
	ErrBadDate        = errors.New("bad date")
)
