package services

import (
	"context"
	"errors"
	"fmt"

	"railbook/internal/domain"
	"railbook/internal/domain/models"
	"railbook/internal/utils"

	"github.com/go-playground/validator/v10"
)

// maxPNRAttempts bounds the collision retry loop. The 10-digit space makes
// collisions rare; exhausting the retries indicates a generator defect and
// surfaces as an internal error.
const maxPNRAttempts = 5

const maxPassengersPerBooking = 6

var validate = validator.New()

// ScheduleIndex resolves schedules, classes and stop segments.
type ScheduleIndex interface {
	GetSchedule(ctx context.Context, id int64) (models.Schedule, error)
	GetClass(ctx context.Context, classID int64) (models.SeatClass, error)
	ResolveSegment(ctx context.Context, scheduleID int64, fromCode, toCode string) (models.Segment, error)
}

// BookingStore is the booking side of storage. CreateWithReservation must be
// atomic: seat reservation, booking row, passenger rows and seat assignment
// all commit together or not at all.
type BookingStore interface {
	CreateWithReservation(ctx context.Context, req models.BookingRequest, seg models.Segment, classCode, pnr string) (models.Booking, error)
	FindByIdempotencyKey(ctx context.Context, key string) (models.Booking, error)
	FindByPNR(ctx context.Context, pnr string) (models.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Booking, error)
	CancelAndPromote(ctx context.Context, pnr string, userID int64) (models.Booking, []models.Booking, error)
}

// BookingService is the booking transaction manager: it validates the
// request, applies idempotency, and drives PNR generation with collision
// retry around the storage transaction.
type BookingService struct {
	Schedules ScheduleIndex
	Store     BookingStore
	NewPNR    func() string
	RequestID string
}

func (s BookingService) pnrGen() func() string {
	if s.NewPNR != nil {
		return s.NewPNR
	}
	return utils.NewPNR
}

// Book reserves seats and creates the booking as one unit. A repeated call
// with the same idempotency key returns the original booking without touching
// inventory again.
func (s BookingService) Book(ctx context.Context, req models.BookingRequest) (models.Booking, error) {
	if err := ValidatePassengers(req.Passengers); err != nil {
		return models.Booking{}, err
	}

	if req.IdempotencyKey != "" {
		existing, err := s.Store.FindByIdempotencyKey(ctx, req.IdempotencyKey)
		if err == nil {
			return existing, nil
		}
		if !domain.IsNotFound(err) {
			return models.Booking{}, err
		}
	}

	sched, err := s.Schedules.GetSchedule(ctx, req.ScheduleID)
	if err != nil {
		return models.Booking{}, err
	}
	// The journey date always comes from the schedule, never the client.
	req.JourneyDate = sched.JourneyDate

	cls, err := s.Schedules.GetClass(ctx, req.ClassID)
	if err != nil {
		return models.Booking{}, err
	}
	if cls.TrainID != sched.TrainID {
		return models.Booking{}, domain.ValidationError{Field: "class_id", Msg: "class does not belong to this train"}
	}

	seg, err := s.Schedules.ResolveSegment(ctx, req.ScheduleID, req.FromCode, req.ToCode)
	if err != nil {
		return models.Booking{}, err
	}

	// The PNR is generated only after the request is fully validated, so a
	// failed reservation never leaves an orphaned PNR behind.
	for attempt := 0; attempt < maxPNRAttempts; attempt++ {
		pnr := s.pnrGen()()
		b, err := s.Store.CreateWithReservation(ctx, req, seg, cls.Code, pnr)
		if err == nil {
			utils.LogEvent(s.RequestID, "booking", "book",
				fmt.Sprintf("pnr=%s status=%s passengers=%d", b.PNR, b.Status, b.TotalPassengers))
			return b, nil
		}
		var conflict domain.ConflictError
		if errors.As(err, &conflict) {
			switch conflict.Resource {
			case "pnr":
				utils.LogEvent(s.RequestID, "booking", "book", "pnr collision, regenerating")
				continue
			case "idempotency_key":
				// Lost a race against our own retry; the winner's row is the answer.
				return s.Store.FindByIdempotencyKey(ctx, req.IdempotencyKey)
			}
		}
		return models.Booking{}, err
	}
	return models.Booking{}, domain.InternalError{Msg: "pnr generation exhausted retries"}
}

// Cancel transitions a booking to CANCELLED and promotes the oldest waiting
// bookings into the freed seats, all in one storage transaction.
func (s BookingService) Cancel(ctx context.Context, pnr string, userID int64) (models.Booking, error) {
	pnr = utils.TrimOrEmpty(pnr)
	if !utils.ValidPNR(pnr) {
		return models.Booking{}, domain.ValidationError{Field: "pnr", Msg: "must be exactly 10 digits"}
	}
	cancelled, promoted, err := s.Store.CancelAndPromote(ctx, pnr, userID)
	if err != nil {
		return models.Booking{}, err
	}
	for _, p := range promoted {
		utils.LogEvent(s.RequestID, "booking", "promote",
			fmt.Sprintf("pnr=%s confirmed after cancellation of %s", p.PNR, pnr))
	}
	return cancelled, nil
}

// History lists the user's bookings, newest first.
func (s BookingService) History(ctx context.Context, userID int64) ([]models.Booking, error) {
	return s.Store.ListByUser(ctx, userID)
}

// ValidatePassengers checks the caller-supplied passenger list before any
// storage work happens.
func ValidatePassengers(passengers []models.PassengerInput) error {
	if len(passengers) == 0 {
		return domain.ValidationError{Field: "passengers", Msg: "at least one passenger required"}
	}
	if len(passengers) > maxPassengersPerBooking {
		return domain.ValidationError{Field: "passengers",
			Msg: fmt.Sprintf("at most %d passengers per booking", maxPassengersPerBooking)}
	}
	for i, p := range passengers {
		if err := validate.Struct(p); err != nil {
			return domain.ValidationError{
				Field: fmt.Sprintf("passengers[%d]", i),
				Msg:   "invalid passenger data",
				Err:   err,
			}
		}
	}
	return nil
}
