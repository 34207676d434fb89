package services

import (
	"context"
	"fmt"
	"time"

	"railbook/internal/domain"
	"railbook/internal/domain/models"
	"railbook/internal/utils"

	"github.com/google/uuid"
)

// DraftStore persists the short-lived multi-step booking drafts.
type DraftStore interface {
	Create(ctx context.Context, d models.BookingDraft) (models.BookingDraft, error)
	GetByToken(ctx context.Context, token string) (models.BookingDraft, error)
	Save(ctx context.Context, d models.BookingDraft) error
}

// AvailabilityReader is the read-only quote path of the ledger.
type AvailabilityReader interface {
	Get(ctx context.Context, scheduleID, classID int64, seg models.Segment) (models.AvailabilityRecord, error)
}

// StationReader resolves station codes against the catalog.
type StationReader interface {
	GetByCode(ctx context.Context, code string) (models.Station, error)
}

// DraftService drives the multi-step booking flow as a server-side state
// machine instead of client-carried URL state. Fares are quoted server side
// at selection and re-derived inside the booking transaction; nothing
// price-relevant is ever taken from the client at the final step. The draft
// token is the idempotency key of the final booking, so retrying the payment
// step can never double-book.
type DraftService struct {
	Drafts       DraftStore
	Stations     StationReader
	Schedules    ScheduleIndex
	Availability AvailabilityReader
	Booking      BookingService
	TTL          time.Duration
	Now          func() time.Time
	RequestID    string
}

func (s DraftService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

func (s DraftService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return 30 * time.Minute
}

// Start opens a draft in SEARCHING state for an (origin, destination, date)
// triple.
func (s DraftService) Start(ctx context.Context, userID int64, fromCode, toCode, date string) (models.BookingDraft, error) {
	fromCode = utils.NormalizeStationCode(fromCode)
	toCode = utils.NormalizeStationCode(toCode)
	if fromCode == "" || toCode == "" {
		return models.BookingDraft{}, domain.ValidationError{Field: "stations", Msg: "origin and destination required"}
	}
	if fromCode == toCode {
		return models.BookingDraft{}, domain.ValidationError{Field: "stations", Msg: "origin and destination must differ"}
	}
	for _, code := range []string{fromCode, toCode} {
		if _, err := s.Stations.GetByCode(ctx, code); err != nil {
			if domain.IsNotFound(err) {
				return models.BookingDraft{}, domain.ValidationError{Field: "stations", Msg: "unknown station " + code}
			}
			return models.BookingDraft{}, err
		}
	}
	day, err := utils.ParseDate(date)
	if err != nil {
		return models.BookingDraft{}, domain.ValidationError{Field: "journey_date", Msg: "expected YYYY-MM-DD", Err: err}
	}
	if day.Before(s.now().UTC().Truncate(24 * time.Hour)) {
		return models.BookingDraft{}, domain.ValidationError{Field: "journey_date", Msg: "journey date is in the past"}
	}

	d := models.BookingDraft{
		Token:       uuid.NewString(),
		UserID:      userID,
		State:       models.DraftSearching,
		FromCode:    fromCode,
		ToCode:      toCode,
		JourneyDate: utils.FormatDate(day),
		ExpiresAt:   s.now().Add(s.ttl()),
	}
	created, err := s.Drafts.Create(ctx, d)
	if err != nil {
		return models.BookingDraft{}, err
	}
	utils.LogEvent(s.RequestID, "draft", "start", "token="+created.Token)
	return created, nil
}

// Select pins the draft to a schedule and class and quotes the current fare.
// Re-selection is allowed until passengers are entered.
func (s DraftService) Select(ctx context.Context, token string, scheduleID, classID int64, passengerCount int) (models.BookingDraft, error) {
	d, err := s.loadLive(ctx, token)
	if err != nil {
		return models.BookingDraft{}, err
	}
	if d.State != models.DraftSearching && d.State != models.DraftSelected {
		return models.BookingDraft{}, stateConflict(d.State, models.DraftSelected)
	}
	if passengerCount < 1 || passengerCount > maxPassengersPerBooking {
		return models.BookingDraft{}, domain.ValidationError{Field: "passenger_count",
			Msg: fmt.Sprintf("must be between 1 and %d", maxPassengersPerBooking)}
	}

	sched, err := s.Schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		return models.BookingDraft{}, err
	}
	cls, err := s.Schedules.GetClass(ctx, classID)
	if err != nil {
		return models.BookingDraft{}, err
	}
	if cls.TrainID != sched.TrainID {
		return models.BookingDraft{}, domain.ValidationError{Field: "class_id", Msg: "class does not belong to this train"}
	}
	seg, err := s.Schedules.ResolveSegment(ctx, scheduleID, d.FromCode, d.ToCode)
	if err != nil {
		return models.BookingDraft{}, err
	}
	rec, err := s.Availability.Get(ctx, scheduleID, classID, seg)
	if err != nil {
		return models.BookingDraft{}, err
	}

	d.ScheduleID = scheduleID
	d.ClassID = classID
	d.PassengerCount = passengerCount
	d.QuotedFare = rec.CurrentFare * int64(passengerCount)
	d.Passengers = nil
	d.State = models.DraftSelected
	if err := s.Drafts.Save(ctx, d); err != nil {
		return models.BookingDraft{}, err
	}
	return d, nil
}

// EnterPassengers records the passenger list; the count has to match the
// selection.
func (s DraftService) EnterPassengers(ctx context.Context, token string, passengers []models.PassengerInput) (models.BookingDraft, error) {
	d, err := s.loadLive(ctx, token)
	if err != nil {
		return models.BookingDraft{}, err
	}
	if d.State != models.DraftSelected && d.State != models.DraftPassengersEntered {
		return models.BookingDraft{}, stateConflict(d.State, models.DraftPassengersEntered)
	}
	if len(passengers) != d.PassengerCount {
		return models.BookingDraft{}, domain.ValidationError{Field: "passengers",
			Msg: fmt.Sprintf("expected %d passengers", d.PassengerCount)}
	}
	if err := ValidatePassengers(passengers); err != nil {
		return models.BookingDraft{}, err
	}

	d.Passengers = passengers
	d.State = models.DraftPassengersEntered
	if err := s.Drafts.Save(ctx, d); err != nil {
		return models.BookingDraft{}, err
	}
	return d, nil
}

// Pay runs the mock payment and the booking transaction. Retrying after a
// transient failure re-enters here with the draft in PAID state and the same
// idempotency key, so the booking is created at most once.
func (s DraftService) Pay(ctx context.Context, token string) (models.Booking, error) {
	d, err := s.loadLive(ctx, token)
	if err != nil {
		return models.Booking{}, err
	}
	switch d.State {
	case models.DraftPassengersEntered, models.DraftPaid:
	case models.DraftConfirmed:
		return s.Booking.Store.FindByPNR(ctx, d.PNR)
	default:
		return models.Booking{}, stateConflict(d.State, models.DraftPaid)
	}

	if d.State != models.DraftPaid {
		d.State = models.DraftPaid
		if err := s.Drafts.Save(ctx, d); err != nil {
			return models.Booking{}, err
		}
	}

	b, err := s.Booking.Book(ctx, models.BookingRequest{
		UserID:         d.UserID,
		ScheduleID:     d.ScheduleID,
		ClassID:        d.ClassID,
		FromCode:       d.FromCode,
		ToCode:         d.ToCode,
		Passengers:     d.Passengers,
		IdempotencyKey: d.Token,
	})
	if err != nil {
		return models.Booking{}, err
	}

	d.PNR = b.PNR
	d.State = models.DraftConfirmed
	if err := s.Drafts.Save(ctx, d); err != nil {
		// Booking is committed; a stale draft state only costs an extra
		// idempotent retry.
		utils.LogEvent(s.RequestID, "draft", "pay", "confirm save failed: "+err.Error())
	}
	return b, nil
}

// Get returns the draft for progress display, expired or not.
func (s DraftService) Get(ctx context.Context, token string) (models.BookingDraft, error) {
	return s.Drafts.GetByToken(ctx, token)
}

func (s DraftService) loadLive(ctx context.Context, token string) (models.BookingDraft, error) {
	d, err := s.Drafts.GetByToken(ctx, token)
	if err != nil {
		return models.BookingDraft{}, err
	}
	if d.State != models.DraftConfirmed && d.Expired(s.now()) {
		return models.BookingDraft{}, domain.ConflictError{Resource: "draft", Msg: "expired"}
	}
	return d, nil
}

func stateConflict(got, want models.DraftState) error {
	return domain.ConflictError{Resource: "draft",
		Msg: fmt.Sprintf("cannot move to %s from %s", want, got)}
}
