package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stagebook/stagebook/internal/domain"
)

// BookingsPubSub broadcasts "the booking set for (date, variant) changed"
// over a single Redis channel. Subscribers filter on their own pair; payloads
// carry no booking data, only the pointer to re-query.
type BookingsPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewBookingsPubSub(rdb *redis.Client) *BookingsPubSub {
	return &BookingsPubSub{
		rdb:     rdb,
		channel: ChannelBookingsChanged(),
	}
}

type bookingsChangedMsg struct {
	Type    string `json:"type"`
	Date    string `json:"date"`
	Variant string `json:"variant"`
	TsUnix  int64  `json:"ts_unix"`
}

func (p *BookingsPubSub) PublishBookingsChanged(
	ctx context.Context,
	date string,
	variant domain.Variant,
) error {
	msg := bookingsChangedMsg{
		Type:    "bookings_changed",
		Date:    date,
		Variant: string(variant),
		TsUnix:  time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

// Subscribe blocks until ctx is done or the subscription fails, invoking fn
// for every change signal matching (date, variant). Signals for other pairs
// on the shared channel are skipped. Satisfies feed.Notifier.
func (p *BookingsPubSub) Subscribe(
	ctx context.Context,
	date string,
	variant domain.Variant,
	fn func(ctx context.Context),
) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	// Verify the subscription actually established so a broken Redis
	// surfaces as a feed error instead of a silent empty stream.
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg bookingsChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &msg); err == nil &&
				msg.Date == date && msg.Variant == string(variant) {
				fn(ctx)
			}
		}
	}
}
