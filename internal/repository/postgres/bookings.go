package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stagebook/stagebook/internal/domain"
)

type BookingRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *BookingRepo) With(db DB) *BookingRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *BookingRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// ConfirmedBookings returns the raw confirmed booking documents for one
// calendar day and variant, in insertion order. Documents are returned as
// stored; slot extraction from legacy payload shapes happens at the feed
// boundary.
//
// Returns:
//   - []domain.BookingDocument: the matching documents (possibly empty).
//   - error: on query failure.
func (r *BookingRepo) ConfirmedBookings(
	ctx context.Context,
	date string,
	variant domain.Variant,
) ([]domain.BookingDocument, error) {
	const op = "postgres.BookingRepo.ConfirmedBookings"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, booking_date::text, variant, status, payload
		 FROM bookings
		 WHERE booking_date = $1 AND variant = $2 AND status = 'confirmed'
		 ORDER BY created_at`,
		date, string(variant),
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.BookingDocument
	for rows.Next() {
		var d domain.BookingDocument
		if err := rows.Scan(&d.ID, &d.Date, &d.Variant, &d.Status, &d.Payload); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}

// Create inserts one confirmed booking. The payload is written in the
// canonical shape (designated "slot" field); legacy shapes only ever enter
// through older data, never through this writer.
//
// No uniqueness is enforced on (booking_date, variant, slot): two visitors
// racing for the same slot both insert, last write wins. Known accepted gap.
func (r *BookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	const op = "postgres.BookingRepo.Create"

	db := r.handle()

	payload, err := json.Marshal(map[string]any{
		"slot":    b.Slot,
		"package": b.PackageName,
		"persons": b.Persons,
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	_, err = db.Exec(ctx,
		`INSERT INTO bookings
		   (id, booking_date, variant, status, payload,
		    customer_name, customer_email, customer_phone,
		    advance_cents, order_id, payment_id, created_at)
		 VALUES ($1, $2, $3, 'confirmed', $4, $5, $6, $7, $8, $9, $10, $11)`,
		b.ID, b.Date, string(b.Variant), payload,
		b.Name, b.Email, b.Phone,
		b.AdvanceCents, b.OrderID, b.PaymentID, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}
