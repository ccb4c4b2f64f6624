package httpgin

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/stagebook/stagebook/internal/domain"
	"github.com/stagebook/stagebook/internal/guard"
	"github.com/stagebook/stagebook/internal/metrics"
	"github.com/stagebook/stagebook/internal/payment"
	redisrepo "github.com/stagebook/stagebook/internal/repository/redis"
	"github.com/stagebook/stagebook/internal/service"
	"github.com/stagebook/stagebook/internal/service/booking"
	"github.com/stagebook/stagebook/internal/service/drafts"
	"github.com/stagebook/stagebook/internal/service/slots"
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	m *metrics.Metrics,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	if m != nil {
		r.Use(MetricsMiddleware(m))
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	for _, mw := range middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	r.GET("/theaters/:variant/slots", handleCatalog(svcs))
	r.GET("/theaters/:variant/availability", handleAvailability(svcs))
	r.GET("/theaters/:variant/availability/watch", handleWatchAvailability(svcs, m))
	r.POST("/theaters/:variant/availability/refresh", handleRefreshAvailability(svcs))
	r.GET("/theaters/:variant/bookings", handleListBookings(svcs))

	// Booking flow
	r.POST("/drafts", handleCreateDraft(svcs))
	r.GET("/drafts/:id", handleGetDraft(svcs))
	r.PATCH("/drafts/:id", handleUpdateDraft(svcs))
	r.GET("/drafts/:id/steps/:step", handleResolveStep(svcs))
	r.POST("/drafts/:id/order", handleCreateOrder(svcs, idem))
	r.POST("/drafts/:id/payment", handlePaymentOutcome(svcs))
	r.POST("/drafts/:id/reset", handleResetDraft(svcs))

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  List slot catalog
// @Param    variant  path  string  true  "Theater variant"
// @Success  200  {object}  CatalogResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /theaters/{variant}/slots [get]
func handleCatalog(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		variant := domain.Variant(c.Param("variant"))
		cat, err := svcs.Slots.Catalog(variant)
		if err != nil {
			respondErr(c, err)
			return
		}
		// Catalog is static configuration; cache generously.
		writeJSONWithCache(c, http.StatusOK, CatalogResponse{Variant: variant, Slots: cat},
			"public, max-age=3600", true)
	}
}

// @Summary  Availability view for a day
// @Param    variant  path   string  true  "Theater variant"
// @Param    date     query  string  true  "Day (YYYY-MM-DD)"
// @Success  200  {object}  availability.View
// @Failure  503  {object}  UnavailableResponse "feed unavailable; retry"
// @Router   /theaters/{variant}/availability [get]
func handleAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		variant := domain.Variant(c.Param("variant"))
		date := c.Query("date")

		view, err := svcs.Slots.View(c.Request.Context(), variant, date)
		if err != nil {
			if errors.Is(err, slots.ErrFeedUnavailable) {
				// Degrade to unknown, never to "all available".
				c.JSON(http.StatusServiceUnavailable, UnavailableResponse{
					Error: "unable to load availability",
					View:  view,
					Retry: true,
				})
				return
			}
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, view, "public, max-age=15", true)
	}
}

// @Summary  Stream availability views (SSE)
// @Param    variant  path   string  true  "Theater variant"
// @Param    date     query  string  true  "Day (YYYY-MM-DD)"
// @Success  200  {string}  string  "text/event-stream"
// @Router   /theaters/{variant}/availability/watch [get]
func handleWatchAvailability(svcs *service.Services, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		variant := domain.Variant(c.Param("variant"))
		date := c.Query("date")

		tracker, err := svcs.Slots.Watch(c.Request.Context(), variant, date)
		if err != nil {
			respondErr(c, err)
			return
		}
		defer tracker.Stop()

		if m != nil {
			m.WatchersActive.Inc()
			defer m.WatchersActive.Dec()
		}

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")

		// First event is the current view, unknown until the feed's first
		// snapshot lands.
		c.SSEvent("availability", tracker.Current())
		c.Writer.Flush()

		c.Stream(func(w io.Writer) bool {
			select {
			case <-c.Request.Context().Done():
				return false
			case v := <-tracker.Updates():
				c.SSEvent("availability", v)
				return true
			}
		})
	}
}

// @Summary  Force an availability refresh
// @Param    variant  path   string  true  "Theater variant"
// @Param    date     query  string  true  "Day (YYYY-MM-DD)"
// @Success  204
// @Router   /theaters/{variant}/availability/refresh [post]
func handleRefreshAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		variant := domain.Variant(c.Param("variant"))
		date := c.Query("date")

		if err := svcs.Slots.Refresh(c.Request.Context(), variant, date); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  List confirmed bookings for a day
// @Param    variant  path   string  true  "Theater variant"
// @Param    date     query  string  true  "Day (YYYY-MM-DD)"
// @Success  200  {array}   domain.BookingRecord
// @Router   /theaters/{variant}/bookings [get]
func handleListBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		variant := domain.Variant(c.Param("variant"))
		date := c.Query("date")

		records, err := svcs.Slots.Bookings(c.Request.Context(), variant, date)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, records, "public, max-age=15", true)
	}
}

// @Summary  Start a booking draft
// @Param    req  body  CreateDraftRequest  true  "payload"
// @Success  201  {object}  domain.Draft
// @Failure  400  {object}  ErrorResponse
// @Router   /drafts [post]
func handleCreateDraft(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateDraftRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		d, err := svcs.Drafts.Create(c.Request.Context(), req.Date, domain.Variant(req.Variant))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, d)
	}
}

// @Summary  Get a draft
// @Param    id  path  string  true  "Draft ID"
// @Success  200  {object}  domain.Draft
// @Failure  404  {object}  ErrorResponse
// @Router   /drafts/{id} [get]
func handleGetDraft(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := svcs.Drafts.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

// @Summary  Update a draft
// @Param    id   path  string              true  "Draft ID"
// @Param    req  body  UpdateDraftRequest  true  "payload"
// @Success  200  {object}  domain.Draft
// @Failure  400  {object}  ErrorResponse
// @Router   /drafts/{id} [patch]
func handleUpdateDraft(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateDraftRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		params := drafts.UpdateParams{
			Date:        req.Date,
			SlotID:      req.SlotID,
			PackageName: req.PackageName,
			Name:        req.Name,
			Email:       req.Email,
			Phone:       req.Phone,
			Persons:     req.Persons,
		}
		if req.Variant != nil {
			v := domain.Variant(*req.Variant)
			params.Variant = &v
		}

		d, err := svcs.Drafts.Update(c.Request.Context(), c.Param("id"), params)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

// @Summary  Resolve a navigation step
// @Description  Returns the step the visitor actually lands on: the requested
// @Description  step when its predicate holds, otherwise the furthest step
// @Description  the draft has earned.
// @Param    id    path  string  true  "Draft ID"
// @Param    step  path  string  true  "Requested step"
// @Success  200  {object}  ResolveStepResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /drafts/{id}/steps/{step} [get]
func handleResolveStep(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		requested := guard.Step(c.Param("step"))

		landed, err := svcs.Drafts.ResolveStep(c.Request.Context(), c.Param("id"), requested)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ResolveStepResponse{
			Requested:  string(requested),
			Step:       string(landed),
			Redirected: landed != requested,
		})
	}
}

// @Summary  Create a payment order (idempotent)
// @Param    id  path  string  true  "Draft ID"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} CreateOrderResponse
// @Failure  409 {object} ErrorResponse "guard violation / idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /drafts/{id}/order [post]
func handleCreateOrder(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		draftID := c.Param("id")

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemOrder(draftID, idemKey)

			if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
				return
			}

			locked, err := idem.AcquireLock(c.Request.Context(), idemStorageKey, 60*time.Second)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
		}

		rlKey := "ip:" + c.ClientIP()

		orderID, amount, err := svcs.Booking.CreateOrder(c.Request.Context(), draftID, rlKey)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			if errors.Is(err, booking.ErrRateLimited) {
				c.Header("Retry-After", "60")
				c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: err.Error()})
				return
			}
			respondErr(c, err)
			return
		}

		resp := CreateOrderResponse{OrderID: orderID, AdvanceCents: amount}

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  Submit the checkout outcome
// @Description  Success confirms the booking; dismissal returns the visitor
// @Description  to the pre-payment step with the draft intact.
// @Param    id   path  string                 true  "Draft ID"
// @Param    req  body  PaymentOutcomeRequest  true  "payload"
// @Success  200  {object}  PaymentOutcomeResponse
// @Failure  409  {object}  ErrorResponse
// @Router   /drafts/{id}/payment [post]
func handlePaymentOutcome(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PaymentOutcomeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		step, bookingID, err := svcs.Booking.SubmitOutcome(
			c.Request.Context(),
			c.Param("id"),
			payment.Outcome{PaymentID: req.PaymentID, Dismissed: req.Dismissed},
		)
		if err != nil {
			respondErr(c, err)
			return
		}

		resp := PaymentOutcomeResponse{Step: string(step)}
		if bookingID != uuid.Nil {
			resp.BookingID = bookingID.String()
		}
		c.JSON(http.StatusOK, resp)
	}
}

// @Summary  Start a new booking
// @Param    id  path  string  true  "Draft ID"
// @Success  204
// @Router   /drafts/{id}/reset [post]
func handleResetDraft(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svcs.Drafts.Reset(c.Request.Context(), c.Param("id")); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// --- Helpers ---

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// slots service
	case errors.Is(err, slots.ErrUnknownVariant):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "unknown theater variant"})
		return
	case errors.Is(err, slots.ErrBadDate):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad date, want YYYY-MM-DD"})
		return
	case errors.Is(err, slots.ErrFeedUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "unable to load availability"})
		return
	// drafts service
	case errors.Is(err, drafts.ErrDraftNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "draft not found"})
		return
	case errors.Is(err, drafts.ErrUnknownVariant):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown theater variant"})
		return
	case errors.Is(err, drafts.ErrUnknownSlot):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "slot not in catalog"})
		return
	case errors.Is(err, drafts.ErrUnknownStep):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown step"})
		return
	case errors.Is(err, drafts.ErrBadDate):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad date, want YYYY-MM-DD"})
		return
	// booking service
	case errors.Is(err, booking.ErrDraftNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "draft not found"})
		return
	case errors.Is(err, booking.ErrNotPayable):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "draft not ready for payment"})
		return
	case errors.Is(err, booking.ErrNoOrder):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "no order on draft"})
		return
	case errors.Is(err, booking.ErrBadOutcome):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "payment outcome carries no payment id"})
		return
	// payment provider
	case errors.Is(err, payment.ErrOrderRejected):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "payment provider rejected the order"})
		return
	case errors.Is(err, payment.ErrUnavailable):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "payment provider unavailable"})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
