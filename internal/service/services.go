package service

import (
	"github.com/stagebook/stagebook/internal/clock"
	"github.com/stagebook/stagebook/internal/draft"
	postgres "github.com/stagebook/stagebook/internal/repository/postgres"
	redis "github.com/stagebook/stagebook/internal/repository/redis"
	"github.com/stagebook/stagebook/internal/service/booking"
	"github.com/stagebook/stagebook/internal/service/drafts"
	"github.com/stagebook/stagebook/internal/service/slots"
	"github.com/stagebook/stagebook/internal/uow"
)

type Services struct {
	Slots   *slots.Service
	Drafts  *drafts.Service
	Booking *booking.Service
}

type Config struct {
	Slots   slots.Config
	Booking booking.Config
}

func NewServices(
	store *postgres.Store,
	cache *redis.Cache,
	pubsub *redis.BookingsPubSub,
	limiter *redis.SlidingWindowLimiter,
	draftStore draft.Store,
	pay booking.OrderCreator,
	clk clock.Clock,
	cfg Config,
) *Services {
	return &Services{
		Slots:   slots.New(store, cache, pubsub, clk, cfg.Slots),
		Drafts:  drafts.New(draftStore, clk),
		Booking: booking.New(store, uow.NewUoW(store), cache, pubsub, limiter, draftStore, pay, clk, cfg.Booking),
	}
}
