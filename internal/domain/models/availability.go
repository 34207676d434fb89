package models

import (
	"railbook/internal/domain"
	"railbook/internal/utils"
)

// AvailabilityRecord holds the seat counters for one (schedule, class,
// segment) key. Rows are mutated only under a row lock held by the booking
// transaction, so the arithmetic here can stay plain. SeatsIssued counts
// every confirmed seat ever handed out on the key and never decreases;
// seat labels are derived from it so a label freed by cancellation is never
// reissued to a later passenger.
type AvailabilityRecord struct {
	ScheduleID     int64 `json:"schedule_id"`
	ClassID        int64 `json:"class_id"`
	FromStationID  int64 `json:"from_station_id"`
	ToStationID    int64 `json:"to_station_id"`
	TotalSeats     int   `json:"total_seats"`
	AvailableSeats int   `json:"available_seats"`
	RACAvailable   int   `json:"rac_available"`
	WaitingList    int   `json:"waiting_list"`
	SeatsIssued    int   `json:"seats_issued"`
	BaseFare       int64 `json:"base_fare"`
	CurrentFare    int64 `json:"current_fare"`
}

// ReservationOutcome describes how a reserve request was split across
// confirmed seats, RAC and the waiting list. FarePerSeat is the fare actually
// charged, read under the same lock as the counters.
type ReservationOutcome struct {
	Confirmed        int
	RAC              int
	Waitlisted       int
	FirstWaitlistPos int
	FarePerSeat      int64
}

// Allocate splits count seats across confirmed inventory, RAC quota and the
// waiting list, and returns the updated counters. The waiting list has no
// upper bound. A record with zero total inventory is a configuration fault.
func (r AvailabilityRecord) Allocate(count int) (ReservationOutcome, AvailabilityRecord, error) {
	if r.TotalSeats <= 0 {
		return ReservationOutcome{}, r, domain.CapacityError{Msg: "class has no seats configured"}
	}
	if count <= 0 {
		return ReservationOutcome{}, r, domain.ValidationError{Field: "count", Msg: "must be positive"}
	}

	out := ReservationOutcome{FarePerSeat: r.CurrentFare}

	out.Confirmed = count
	if out.Confirmed > r.AvailableSeats {
		out.Confirmed = r.AvailableSeats
	}
	rest := count - out.Confirmed

	out.RAC = rest
	if out.RAC > r.RACAvailable {
		out.RAC = r.RACAvailable
	}
	out.Waitlisted = rest - out.RAC
	if out.Waitlisted > 0 {
		out.FirstWaitlistPos = r.WaitingList + 1
	}

	r.AvailableSeats -= out.Confirmed
	r.SeatsIssued += out.Confirmed
	r.RACAvailable -= out.RAC
	r.WaitingList += out.Waitlisted
	r.CurrentFare = utils.TieredFare(r.BaseFare, r.TotalSeats, r.AvailableSeats)

	return out, r, nil
}

// Release returns seats freed by a cancellation and re-prices the record.
// Waiting-list entries cancelled before promotion shrink the counter here.
// SeatsIssued stays put: freed seat labels are retired, not reissued.
func (r AvailabilityRecord) Release(confirmed, rac, waitlisted int) AvailabilityRecord {
	r.AvailableSeats += confirmed
	if r.AvailableSeats > r.TotalSeats {
		r.AvailableSeats = r.TotalSeats
	}
	r.RACAvailable += rac
	r.WaitingList -= waitlisted
	if r.WaitingList < 0 {
		r.WaitingList = 0
	}
	r.CurrentFare = utils.TieredFare(r.BaseFare, r.TotalSeats, r.AvailableSeats)
	return r
}

// PromoteWaiting walks waiting bookings, oldest first, and confirms the
// waiting passengers of every booking whose waiting headcount fits the freed
// capacity. Passengers already holding seats keep them and cost nothing; only
// waiting passengers consume freed seats, get labels and come off the waiting
// list. Promotion is all-or-nothing per booking; the first booking that does
// not fit stops the walk so ordering is preserved. Returns the promoted
// bookings and the updated counters.
func PromoteWaiting(rec AvailabilityRecord, classCode string, candidates []Booking) ([]Booking, AvailabilityRecord) {
	promoted := make([]Booking, 0, len(candidates))
	for _, b := range candidates {
		needed := 0
		for _, p := range b.Passengers {
			if p.Status == StatusWaiting {
				needed++
			}
		}
		if needed == 0 || needed > rec.AvailableSeats {
			break
		}
		for i := range b.Passengers {
			if b.Passengers[i].Status != StatusWaiting {
				continue
			}
			rec.SeatsIssued++
			b.Passengers[i].Status = StatusConfirmed
			b.Passengers[i].SeatNumber = SeatNumber(classCode, rec.SeatsIssued)
			b.Passengers[i].WaitlistPosition = 0
		}
		b.Status = StatusConfirmed
		for _, p := range b.Passengers {
			if p.Status == StatusRAC {
				b.Status = StatusRAC
				break
			}
		}
		rec.AvailableSeats -= needed
		rec.WaitingList -= needed
		if rec.WaitingList < 0 {
			rec.WaitingList = 0
		}
		promoted = append(promoted, b)
	}
	rec.CurrentFare = utils.TieredFare(rec.BaseFare, rec.TotalSeats, rec.AvailableSeats)
	return promoted, rec
}
