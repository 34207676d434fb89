package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	intconfig "railbook/internal/config"
	intdb "railbook/internal/db"
	"railbook/internal/domain"
	"railbook/internal/domain/models"
)

type DraftRepository struct {
	DB *sql.DB
}

func (r DraftRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r DraftRepository) Create(ctx context.Context, d models.BookingDraft) (models.BookingDraft, error) {
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO booking_drafts
			(token, user_id, state, from_code, to_code, journey_date, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.Token, d.UserID, string(d.State), d.FromCode, d.ToCode, d.JourneyDate, d.ExpiresAt)
	if err != nil {
		if intdb.IsDuplicate(err, "uniq_draft_token") {
			return models.BookingDraft{}, domain.ConflictError{Resource: "draft", Msg: "token collision"}
		}
		return models.BookingDraft{}, intdb.WrapErr(err)
	}
	d.ID, _ = res.LastInsertId()
	return d, nil
}

func (r DraftRepository) GetByToken(ctx context.Context, token string) (models.BookingDraft, error) {
	var d models.BookingDraft
	var state string
	var passengersJSON sql.NullString
	var scheduleID, classID sql.NullInt64
	var pnr sql.NullString
	var expires sql.NullTime
	err := r.db().QueryRowContext(ctx, `
		SELECT id, token, user_id, state, from_code, to_code,
		       DATE_FORMAT(journey_date, '%Y-%m-%d'),
		       schedule_id, class_id, passenger_count, passengers_json, quoted_fare, pnr,
		       created_at, updated_at, expires_at
		FROM booking_drafts
		WHERE token = ?
		LIMIT 1`, token).
		Scan(&d.ID, &d.Token, &d.UserID, &state, &d.FromCode, &d.ToCode,
			&d.JourneyDate,
			&scheduleID, &classID, &d.PassengerCount, &passengersJSON, &d.QuotedFare, &pnr,
			&d.CreatedAt, &d.UpdatedAt, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.BookingDraft{}, domain.NotFoundError{Resource: "draft"}
		}
		return models.BookingDraft{}, intdb.WrapErr(err)
	}
	d.State = models.DraftState(state)
	d.ScheduleID = scheduleID.Int64
	d.ClassID = classID.Int64
	d.PNR = pnr.String
	if expires.Valid {
		d.ExpiresAt = expires.Time
	}
	if passengersJSON.Valid && passengersJSON.String != "" {
		if err := json.Unmarshal([]byte(passengersJSON.String), &d.Passengers); err != nil {
			return models.BookingDraft{}, domain.InternalError{Msg: "corrupt draft passengers", Err: err}
		}
	}
	return d, nil
}

// Save persists the advancing draft state. The whole mutable slice of the
// draft is written on every step; drafts are small and short-lived.
func (r DraftRepository) Save(ctx context.Context, d models.BookingDraft) error {
	var passengersJSON any
	if len(d.Passengers) > 0 {
		raw, err := json.Marshal(d.Passengers)
		if err != nil {
			return domain.InternalError{Err: err}
		}
		passengersJSON = string(raw)
	}
	_, err := r.db().ExecContext(ctx, `
		UPDATE booking_drafts
		SET state = ?, schedule_id = ?, class_id = ?, passenger_count = ?,
		    passengers_json = ?, quoted_fare = ?, pnr = ?
		WHERE id = ?`,
		string(d.State), nullInt(d.ScheduleID), nullInt(d.ClassID), d.PassengerCount,
		passengersJSON, d.QuotedFare, intdb.NullIfEmpty(d.PNR), d.ID)
	return intdb.WrapErr(err)
}

func nullInt(n int64) any {
	if n == 0 {
		return nil
	}
	return n
}
