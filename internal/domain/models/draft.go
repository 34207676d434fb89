package models

import "time"

// DraftState tracks the multi-step booking flow. Each step advances exactly
// one state; the fare quoted at SELECT time is re-derived server side at
// payment, never taken from the client.
type DraftState string

const (
	DraftSearching         DraftState = "SEARCHING"
	DraftSelected          DraftState = "SELECTED"
	DraftPassengersEntered DraftState = "PASSENGERS_ENTERED"
	DraftPaid              DraftState = "PAID"
	DraftConfirmed         DraftState = "CONFIRMED"
)

// BookingDraft is the short-lived server-side record behind the multi-step
// booking flow. The opaque token doubles as the idempotency key for the final
// booking transaction.
type BookingDraft struct {
	ID             int64            `json:"-"`
	Token          string           `json:"token"`
	UserID         int64            `json:"user_id"`
	State          DraftState       `json:"state"`
	FromCode       string           `json:"from_station_code"`
	ToCode         string           `json:"to_station_code"`
	JourneyDate    string           `json:"journey_date"`
	ScheduleID     int64            `json:"schedule_id,omitempty"`
	ClassID        int64            `json:"class_id,omitempty"`
	PassengerCount int              `json:"passenger_count,omitempty"`
	Passengers     []PassengerInput `json:"passengers,omitempty"`
	QuotedFare     int64            `json:"quoted_fare,omitempty"`
	PNR            string           `json:"pnr,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	ExpiresAt      time.Time        `json:"expires_at"`
}

// Expired reports whether the draft can no longer advance.
func (d BookingDraft) Expired(now time.Time) bool {
	return !d.ExpiresAt.IsZero() && now.After(d.ExpiresAt)
}
