package redis

import (
	"fmt"

	"github.com/stagebook/stagebook/internal/domain"
)

const ns = "stagebook:v1"

func KeyAvailability(variant domain.Variant, date string) string {
	return fmt.Sprintf("%s:availability:%s:%s", ns, variant, date)
}

func KeyDraft(id string) string {
	return fmt.Sprintf("%s:draft:%s", ns, id)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func ChannelBookingsChanged() string {
	return ns + ":bookings:changed"
}
