package repositories

import (
	"context"
	"database/sql"
	"errors"

	intconfig "railbook/internal/config"
	intdb "railbook/internal/db"
	"railbook/internal/domain"
	"railbook/internal/domain/models"
)

// AvailabilityRepository owns the seat_availability counters. Counter rows
// are only ever mutated under LockRecord inside a booking or cancellation
// transaction; every check-then-act on them is a single locked step.
type AvailabilityRepository struct {
	DB *sql.DB
}

func (r AvailabilityRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const availabilityColumns = `schedule_id, class_id, from_station_id, to_station_id,
	       total_seats, available_seats, rac_available, waiting_list, seats_issued, base_fare, current_fare`

// Get is the plain read path used by search and fare quotes. Missing rows
// fall back to the class defaults (no seats sold yet).
func (r AvailabilityRepository) Get(ctx context.Context, scheduleID, classID int64, seg models.Segment) (models.AvailabilityRecord, error) {
	rec, err := scanAvailability(r.db().QueryRowContext(ctx, `
		SELECT `+availabilityColumns+`
		FROM seat_availability
		WHERE schedule_id = ? AND class_id = ? AND from_station_id = ? AND to_station_id = ?
		LIMIT 1`, scheduleID, classID, seg.FromStationID, seg.ToStationID))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.AvailabilityRecord{}, intdb.WrapErr(err)
	}
	return r.defaultsFromClass(ctx, scheduleID, classID, seg)
}

func (r AvailabilityRepository) defaultsFromClass(ctx context.Context, scheduleID, classID int64, seg models.Segment) (models.AvailabilityRecord, error) {
	rec := models.AvailabilityRecord{
		ScheduleID:    scheduleID,
		ClassID:       classID,
		FromStationID: seg.FromStationID,
		ToStationID:   seg.ToStationID,
	}
	err := r.db().QueryRowContext(ctx,
		`SELECT total_seats, rac_seats, base_fare FROM train_classes WHERE id = ? LIMIT 1`, classID).
		Scan(&rec.TotalSeats, &rec.RACAvailable, &rec.BaseFare)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.AvailabilityRecord{}, domain.NotFoundError{Resource: "class"}
		}
		return models.AvailabilityRecord{}, intdb.WrapErr(err)
	}
	rec.AvailableSeats = rec.TotalSeats
	rec.CurrentFare = rec.BaseFare
	return rec, nil
}

// LockRecord reads the counter row under FOR UPDATE, creating it lazily from
// the class defaults on the first booking of a segment. The row lock
// serializes all reservations on the same (schedule, class, segment) key.
func (r AvailabilityRepository) LockRecord(ctx context.Context, tx *sql.Tx, scheduleID, classID int64, seg models.Segment) (models.AvailabilityRecord, error) {
	rec, err := r.lockRow(ctx, tx, scheduleID, classID, seg)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.AvailabilityRecord{}, intdb.WrapErr(err)
	}

	// First booking on this segment: seed counters from the class. The no-op
	// upsert absorbs a concurrent seeding race.
	res, err := tx.ExecContext(ctx, `
		INSERT INTO seat_availability
			(schedule_id, class_id, from_station_id, to_station_id,
			 total_seats, available_seats, rac_available, waiting_list, seats_issued, base_fare, current_fare)
		SELECT ?, ?, ?, ?, tc.total_seats, tc.total_seats, tc.rac_seats, 0, 0, tc.base_fare, tc.base_fare
		FROM train_classes tc
		WHERE tc.id = ?
		ON DUPLICATE KEY UPDATE id = id`,
		scheduleID, classID, seg.FromStationID, seg.ToStationID, classID)
	if err != nil {
		return models.AvailabilityRecord{}, intdb.WrapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// INSERT ... SELECT matched no class row.
		if _, err := r.defaultsFromClass(ctx, scheduleID, classID, seg); err != nil {
			return models.AvailabilityRecord{}, err
		}
	}

	rec, err = r.lockRow(ctx, tx, scheduleID, classID, seg)
	if err != nil {
		return models.AvailabilityRecord{}, intdb.WrapErr(err)
	}
	return rec, nil
}

func (r AvailabilityRepository) lockRow(ctx context.Context, tx *sql.Tx, scheduleID, classID int64, seg models.Segment) (models.AvailabilityRecord, error) {
	return scanAvailability(tx.QueryRowContext(ctx, `
		SELECT `+availabilityColumns+`
		FROM seat_availability
		WHERE schedule_id = ? AND class_id = ? AND from_station_id = ? AND to_station_id = ?
		FOR UPDATE`, scheduleID, classID, seg.FromStationID, seg.ToStationID))
}

// SaveCounters writes back counters computed under the row lock.
func (r AvailabilityRepository) SaveCounters(ctx context.Context, tx *sql.Tx, rec models.AvailabilityRecord) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE seat_availability
		SET available_seats = ?, rac_available = ?, waiting_list = ?, seats_issued = ?, current_fare = ?
		WHERE schedule_id = ? AND class_id = ? AND from_station_id = ? AND to_station_id = ?`,
		rec.AvailableSeats, rec.RACAvailable, rec.WaitingList, rec.SeatsIssued, rec.CurrentFare,
		rec.ScheduleID, rec.ClassID, rec.FromStationID, rec.ToStationID)
	return intdb.WrapErr(err)
}

func scanAvailability(row *sql.Row) (models.AvailabilityRecord, error) {
	var rec models.AvailabilityRecord
	err := row.Scan(
		&rec.ScheduleID, &rec.ClassID, &rec.FromStationID, &rec.ToStationID,
		&rec.TotalSeats, &rec.AvailableSeats, &rec.RACAvailable, &rec.WaitingList,
		&rec.SeatsIssued, &rec.BaseFare, &rec.CurrentFare)
	return rec, err
}
