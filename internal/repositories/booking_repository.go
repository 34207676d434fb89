package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	intconfig "railbook/internal/config"
	intdb "railbook/internal/db"
	"railbook/internal/domain"
	"railbook/internal/domain/models"
)

// BookingRepository persists bookings and passengers. Reserve, booking insert,
// passenger inserts and seat assignment happen in one transaction: they all
// commit or none do.
type BookingRepository struct {
	DB           *sql.DB
	Availability AvailabilityRepository
}

func (r BookingRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r BookingRepository) availability() AvailabilityRepository {
	if r.Availability.DB != nil {
		return r.Availability
	}
	return AvailabilityRepository{DB: r.db()}
}

// CreateWithReservation runs the booking transaction: lock the availability
// row, split the request across confirmed/RAC/waitlist, insert the booking
// and its passengers, write the counters back, commit. The PNR unique key is
// the collision check; a duplicate surfaces as ConflictError{Resource:"pnr"}
// for the caller to retry with a fresh draw.
func (r BookingRepository) CreateWithReservation(ctx context.Context, req models.BookingRequest, seg models.Segment, classCode, pnr string) (models.Booking, error) {
	tx, err := r.db().BeginTx(ctx, nil)
	if err != nil {
		return models.Booking{}, intdb.WrapErr(err)
	}
	defer tx.Rollback()

	avail := r.availability()
	rec, err := avail.LockRecord(ctx, tx, req.ScheduleID, req.ClassID, seg)
	if err != nil {
		return models.Booking{}, err
	}

	out, updated, err := rec.Allocate(len(req.Passengers))
	if err != nil {
		return models.Booking{}, err
	}

	b := models.ComposeBooking(req, seg, pnr, classCode, out, rec.SeatsIssued)

	res, err := tx.ExecContext(ctx, `
		INSERT INTO bookings
			(pnr, idempotency_key, user_id, schedule_id, class_id,
			 from_station_id, to_station_id, journey_date,
			 total_passengers, total_fare, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.PNR, intdb.NullIfEmpty(req.IdempotencyKey), b.UserID, b.ScheduleID, b.ClassID,
		b.FromStationID, b.ToStationID, b.JourneyDate,
		b.TotalPassengers, b.TotalFare, string(b.Status))
	if err != nil {
		switch {
		case intdb.IsDuplicate(err, "uniq_pnr"):
			return models.Booking{}, domain.ConflictError{Resource: "pnr", Err: err}
		case intdb.IsDuplicate(err, "uniq_idempotency_key"):
			return models.Booking{}, domain.ConflictError{Resource: "idempotency_key", Err: err}
		default:
			return models.Booking{}, intdb.WrapErr(err)
		}
	}
	b.ID, _ = res.LastInsertId()

	for i := range b.Passengers {
		p := &b.Passengers[i]
		var pos any
		if p.WaitlistPosition > 0 {
			pos = p.WaitlistPosition
		}
		pr, err := tx.ExecContext(ctx, `
			INSERT INTO passengers
				(booking_id, name, age, gender, berth_preference, seat_number, waitlist_position, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, p.Name, p.Age, p.Gender,
			intdb.NullIfEmpty(p.BerthPreference), intdb.NullIfEmpty(p.SeatNumber), pos, string(p.Status))
		if err != nil {
			return models.Booking{}, intdb.WrapErr(err)
		}
		p.ID, _ = pr.LastInsertId()
		p.BookingID = b.ID
	}

	if err := avail.SaveCounters(ctx, tx, updated); err != nil {
		return models.Booking{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Booking{}, intdb.WrapErr(err)
	}
	b.CreatedAt = time.Now()
	return b, nil
}

const bookingSelect = `
	SELECT b.id, b.pnr, b.user_id, b.schedule_id, b.class_id,
	       b.from_station_id, b.to_station_id,
	       DATE_FORMAT(b.journey_date, '%Y-%m-%d'),
	       b.total_passengers, b.total_fare, b.status, b.created_at,
	       t.train_number, t.train_name,
	       tc.class_code, tc.class_name,
	       s_from.station_code, s_from.station_name,
	       s_to.station_code, s_to.station_name
	FROM bookings b
	JOIN train_schedules ts ON b.schedule_id = ts.id
	JOIN trains t ON ts.train_id = t.id
	JOIN train_classes tc ON b.class_id = tc.id
	JOIN stations s_from ON b.from_station_id = s_from.id
	JOIN stations s_to ON b.to_station_id = s_to.id`

// FindByPNR reconstructs a booking's full state from its PNR, passengers
// included. Reads committed state directly, no cache in between.
func (r BookingRepository) FindByPNR(ctx context.Context, pnr string) (models.Booking, error) {
	b, err := r.scanBooking(r.db().QueryRowContext(ctx, bookingSelect+` WHERE b.pnr = ? LIMIT 1`, pnr))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Booking{}, domain.NotFoundError{Resource: "pnr"}
		}
		return models.Booking{}, intdb.WrapErr(err)
	}
	if b.Passengers, err = r.loadPassengers(ctx, b.ID); err != nil {
		return models.Booking{}, err
	}
	return b, nil
}

// FindByIdempotencyKey returns the booking a previous identical request
// created, so client retries never double-book.
func (r BookingRepository) FindByIdempotencyKey(ctx context.Context, key string) (models.Booking, error) {
	b, err := r.scanBooking(r.db().QueryRowContext(ctx, bookingSelect+` WHERE b.idempotency_key = ? LIMIT 1`, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Booking{}, domain.NotFoundError{Resource: "booking"}
		}
		return models.Booking{}, intdb.WrapErr(err)
	}
	if b.Passengers, err = r.loadPassengers(ctx, b.ID); err != nil {
		return models.Booking{}, err
	}
	return b, nil
}

// ListByUser returns the user's booking history, newest first.
func (r BookingRepository) ListByUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	rows, err := r.db().QueryContext(ctx, bookingSelect+` WHERE b.user_id = ? ORDER BY b.created_at DESC`, userID)
	if err != nil {
		return nil, intdb.WrapErr(err)
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		b, err := r.scanBookingRows(rows)
		if err != nil {
			return nil, intdb.WrapErr(err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, intdb.WrapErr(err)
	}
	for i := range out {
		if out[i].Passengers, err = r.loadPassengers(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// CancelAndPromote cancels a booking and, in the same transaction, feeds the
// freed seats to the oldest waiting bookings on the same key. Cancellation is
// irreversible; cancelling twice is a conflict.
func (r BookingRepository) CancelAndPromote(ctx context.Context, pnr string, userID int64) (models.Booking, []models.Booking, error) {
	tx, err := r.db().BeginTx(ctx, nil)
	if err != nil {
		return models.Booking{}, nil, intdb.WrapErr(err)
	}
	defer tx.Rollback()

	var (
		b         models.Booking
		classCode string
		status    string
	)
	err = tx.QueryRowContext(ctx, `
		SELECT b.id, b.user_id, b.schedule_id, b.class_id, b.from_station_id, b.to_station_id,
		       b.total_passengers, b.status, tc.class_code
		FROM bookings b
		JOIN train_classes tc ON tc.id = b.class_id
		WHERE b.pnr = ?
		FOR UPDATE`, pnr).
		Scan(&b.ID, &b.UserID, &b.ScheduleID, &b.ClassID, &b.FromStationID, &b.ToStationID,
			&b.TotalPassengers, &status, &classCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Booking{}, nil, domain.NotFoundError{Resource: "pnr"}
		}
		return models.Booking{}, nil, intdb.WrapErr(err)
	}
	b.PNR = pnr
	b.Status = models.BookingStatus(status)
	if userID > 0 && b.UserID != userID {
		return models.Booking{}, nil, domain.NotFoundError{Resource: "pnr"}
	}
	if b.Status == models.StatusCancelled {
		return models.Booking{}, nil, domain.ConflictError{Resource: "booking", Msg: "already cancelled"}
	}

	freedConfirmed, freedRAC, freedWaiting, err := r.passengerStatusCounts(ctx, tx, b.ID)
	if err != nil {
		return models.Booking{}, nil, err
	}

	seg := models.Segment{FromStationID: b.FromStationID, ToStationID: b.ToStationID}
	avail := r.availability()
	rec, err := avail.LockRecord(ctx, tx, b.ScheduleID, b.ClassID, seg)
	if err != nil {
		return models.Booking{}, nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ? WHERE id = ?`, string(models.StatusCancelled), b.ID); err != nil {
		return models.Booking{}, nil, intdb.WrapErr(err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE passengers SET status = ?, seat_number = NULL, waitlist_position = NULL WHERE booking_id = ?`,
		string(models.StatusCancelled), b.ID); err != nil {
		return models.Booking{}, nil, intdb.WrapErr(err)
	}
	b.Status = models.StatusCancelled

	rec = rec.Release(freedConfirmed, freedRAC, freedWaiting)

	candidates, err := r.waitingCandidates(ctx, tx, b.ScheduleID, b.ClassID, seg)
	if err != nil {
		return models.Booking{}, nil, err
	}
	promoted, rec := models.PromoteWaiting(rec, classCode, candidates)

	for _, p := range promoted {
		if _, err := tx.ExecContext(ctx,
			`UPDATE bookings SET status = ? WHERE id = ?`, string(p.Status), p.ID); err != nil {
			return models.Booking{}, nil, intdb.WrapErr(err)
		}
		// RAC passengers stay as they are; only seated passengers are written.
		for _, pass := range p.Passengers {
			if pass.Status != models.StatusConfirmed {
				continue
			}
			if _, err := tx.ExecContext(ctx, `
				UPDATE passengers SET status = ?, seat_number = ?, waitlist_position = NULL
				WHERE id = ?`, string(pass.Status), pass.SeatNumber, pass.ID); err != nil {
				return models.Booking{}, nil, intdb.WrapErr(err)
			}
		}
	}

	if err := avail.SaveCounters(ctx, tx, rec); err != nil {
		return models.Booking{}, nil, err
	}
	if err := tx.Commit(); err != nil {
		return models.Booking{}, nil, intdb.WrapErr(err)
	}
	return b, promoted, nil
}

func (r BookingRepository) passengerStatusCounts(ctx context.Context, tx *sql.Tx, bookingID int64) (confirmed, rac, waiting int, err error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM passengers WHERE booking_id = ? GROUP BY status`, bookingID)
	if err != nil {
		return 0, 0, 0, intdb.WrapErr(err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return 0, 0, 0, intdb.WrapErr(err)
		}
		switch models.BookingStatus(status) {
		case models.StatusConfirmed:
			confirmed = n
		case models.StatusRAC:
			rac = n
		case models.StatusWaiting:
			waiting = n
		}
	}
	return confirmed, rac, waiting, intdb.WrapErr(rows.Err())
}

// waitingCandidates locks waiting bookings on the key oldest first so the
// promotion order is stable under concurrent cancellations.
func (r BookingRepository) waitingCandidates(ctx context.Context, tx *sql.Tx, scheduleID, classID int64, seg models.Segment) ([]models.Booking, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, pnr, total_passengers
		FROM bookings
		WHERE schedule_id = ? AND class_id = ? AND from_station_id = ? AND to_station_id = ?
		  AND status = ?
		ORDER BY created_at ASC
		FOR UPDATE`, scheduleID, classID, seg.FromStationID, seg.ToStationID, string(models.StatusWaiting))
	if err != nil {
		return nil, intdb.WrapErr(err)
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(&b.ID, &b.PNR, &b.TotalPassengers); err != nil {
			return nil, intdb.WrapErr(err)
		}
		b.Status = models.StatusWaiting
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, intdb.WrapErr(err)
	}

	for i := range out {
		if out[i].Passengers, err = r.loadPassengersTx(ctx, tx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

const passengerSelect = `
	SELECT id, booking_id, name, age, gender,
	       COALESCE(berth_preference, ''), COALESCE(seat_number, ''),
	       COALESCE(waitlist_position, 0), status
	FROM passengers
	WHERE booking_id = ?
	ORDER BY id ASC`

func (r BookingRepository) loadPassengers(ctx context.Context, bookingID int64) ([]models.Passenger, error) {
	rows, err := r.db().QueryContext(ctx, passengerSelect, bookingID)
	if err != nil {
		return nil, intdb.WrapErr(err)
	}
	defer rows.Close()
	return scanPassengers(rows)
}

func (r BookingRepository) loadPassengersTx(ctx context.Context, tx *sql.Tx, bookingID int64) ([]models.Passenger, error) {
	rows, err := tx.QueryContext(ctx, passengerSelect, bookingID)
	if err != nil {
		return nil, intdb.WrapErr(err)
	}
	defer rows.Close()
	return scanPassengers(rows)
}

func scanPassengers(rows *sql.Rows) ([]models.Passenger, error) {
	out := []models.Passenger{}
	for rows.Next() {
		var p models.Passenger
		var status string
		if err := rows.Scan(&p.ID, &p.BookingID, &p.Name, &p.Age, &p.Gender,
			&p.BerthPreference, &p.SeatNumber, &p.WaitlistPosition, &status); err != nil {
			return nil, intdb.WrapErr(err)
		}
		p.Status = models.BookingStatus(status)
		out = append(out, p)
	}
	return out, intdb.WrapErr(rows.Err())
}

type bookingScanner interface {
	Scan(dest ...any) error
}

func (r BookingRepository) scanBooking(row *sql.Row) (models.Booking, error) {
	return scanBookingFrom(row)
}

func (r BookingRepository) scanBookingRows(rows *sql.Rows) (models.Booking, error) {
	return scanBookingFrom(rows)
}

func scanBookingFrom(s bookingScanner) (models.Booking, error) {
	var b models.Booking
	var status string
	err := s.Scan(
		&b.ID, &b.PNR, &b.UserID, &b.ScheduleID, &b.ClassID,
		&b.FromStationID, &b.ToStationID,
		&b.JourneyDate,
		&b.TotalPassengers, &b.TotalFare, &status, &b.CreatedAt,
		&b.TrainNumber, &b.TrainName,
		&b.ClassCode, &b.ClassName,
		&b.FromCode, &b.FromName,
		&b.ToCode, &b.ToName,
	)
	if err != nil {
		return models.Booking{}, err
	}
	b.Status = models.BookingStatus(status)
	return b, nil
}
