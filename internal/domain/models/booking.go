package models

import (
	"fmt"
	"time"
)

// BookingStatus is shared by bookings and individual passengers.
type BookingStatus string

const (
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusRAC       BookingStatus = "RAC"
	StatusWaiting   BookingStatus = "WAITING"
	StatusCancelled BookingStatus = "CANCELLED"
)

// Booking is created once and mutated only by cancellation or
// waitlist-to-confirmed promotion. The PNR is globally unique and never
// reassigned, even after cancellation.
type Booking struct {
	ID              int64         `json:"id"`
	PNR             string        `json:"pnr"`
	UserID          int64         `json:"user_id"`
	ScheduleID      int64         `json:"schedule_id"`
	ClassID         int64         `json:"class_id"`
	ClassCode       string        `json:"class_code,omitempty"`
	ClassName       string        `json:"class_name,omitempty"`
	TrainNumber     string        `json:"train_number,omitempty"`
	TrainName       string        `json:"train_name,omitempty"`
	FromStationID   int64         `json:"from_station_id"`
	ToStationID     int64         `json:"to_station_id"`
	FromCode        string        `json:"from_station_code,omitempty"`
	FromName        string        `json:"from_station_name,omitempty"`
	ToCode          string        `json:"to_station_code,omitempty"`
	ToName          string        `json:"to_station_name,omitempty"`
	JourneyDate     string        `json:"journey_date"`
	TotalPassengers int           `json:"total_passengers"`
	TotalFare       int64         `json:"total_fare"`
	Status          BookingStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	Passengers      []Passenger   `json:"passengers"`
}

// Passenger belongs to exactly one booking. SeatNumber is empty until the
// passenger is confirmed; WaitlistPosition is zero unless waiting.
type Passenger struct {
	ID               int64         `json:"id,omitempty"`
	BookingID        int64         `json:"booking_id,omitempty"`
	Name             string        `json:"name"`
	Age              int           `json:"age"`
	Gender           string        `json:"gender"`
	BerthPreference  string        `json:"berth_preference,omitempty"`
	SeatNumber       string        `json:"seat_number,omitempty"`
	WaitlistPosition int           `json:"waitlist_position,omitempty"`
	Status           BookingStatus `json:"status"`
}

// PassengerInput is the caller-supplied passenger payload.
type PassengerInput struct {
	Name            string `json:"name" validate:"required,min=2,max=80"`
	Age             int    `json:"age" validate:"required,min=1,max=120"`
	Gender          string `json:"gender" validate:"required,oneof=M F O"`
	BerthPreference string `json:"berth_preference" validate:"omitempty,oneof=LOWER MIDDLE UPPER SIDE_LOWER SIDE_UPPER"`
}

// BookingRequest carries everything one booking transaction needs. A repeated
// request with the same IdempotencyKey returns the original booking.
type BookingRequest struct {
	UserID         int64            `json:"user_id"`
	ScheduleID     int64            `json:"schedule_id"`
	ClassID        int64            `json:"class_id"`
	FromCode       string           `json:"from_station_code"`
	ToCode         string           `json:"to_station_code"`
	JourneyDate    string           `json:"journey_date"`
	Passengers     []PassengerInput `json:"passengers"`
	IdempotencyKey string           `json:"idempotency_key,omitempty"`
}

// SeatNumber renders a class-scoped seat label, e.g. "2A-07".
func SeatNumber(classCode string, n int) string {
	return fmt.Sprintf("%s-%02d", classCode, n)
}

// ComposeBooking turns a reservation outcome into booking and passenger rows.
// Passengers are filled in request order: confirmed seats first, then RAC,
// then waiting-list positions. seatsIssuedBefore is the record's SeatsIssued
// counter before this allocation, read under the same lock as the counters;
// the counter never decreases, so seat labels never collide even after
// cancellations free seats.
func ComposeBooking(req BookingRequest, seg Segment, pnr, classCode string, out ReservationOutcome, seatsIssuedBefore int) Booking {
	b := Booking{
		PNR:             pnr,
		UserID:          req.UserID,
		ScheduleID:      req.ScheduleID,
		ClassID:         req.ClassID,
		ClassCode:       classCode,
		FromStationID:   seg.FromStationID,
		ToStationID:     seg.ToStationID,
		FromCode:        req.FromCode,
		ToCode:          req.ToCode,
		JourneyDate:     req.JourneyDate,
		TotalPassengers: len(req.Passengers),
		TotalFare:       out.FarePerSeat * int64(len(req.Passengers)),
		Passengers:      make([]Passenger, 0, len(req.Passengers)),
	}

	for i, in := range req.Passengers {
		p := Passenger{
			Name:            in.Name,
			Age:             in.Age,
			Gender:          in.Gender,
			BerthPreference: in.BerthPreference,
		}
		switch {
		case i < out.Confirmed:
			p.Status = StatusConfirmed
			p.SeatNumber = SeatNumber(classCode, seatsIssuedBefore+i+1)
		case i < out.Confirmed+out.RAC:
			p.Status = StatusRAC
		default:
			p.Status = StatusWaiting
			p.WaitlistPosition = out.FirstWaitlistPos + (i - out.Confirmed - out.RAC)
		}
		b.Passengers = append(b.Passengers, p)
	}

	// CONFIRMED only when every passenger is confirmed.
	switch {
	case out.Waitlisted > 0:
		b.Status = StatusWaiting
	case out.RAC > 0:
		b.Status = StatusRAC
	default:
		b.Status = StatusConfirmed
	}
	return b
}
