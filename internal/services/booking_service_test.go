package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"railbook/internal/domain"
	"railbook/internal/domain/models"
)

// memStore reproduces the storage contract in memory: one availability record,
// mutations under a single lock, the same allocation arithmetic as the SQL
// repository.
type memStore struct {
	mu        sync.Mutex
	rec       models.AvailabilityRecord
	classCode string
	nextID    int64
	bookings  map[string]*models.Booking
	byKey     map[string]string
	order     []string
}

func newMemStore(rec models.AvailabilityRecord, classCode string) *memStore {
	return &memStore{
		rec:       rec,
		classCode: classCode,
		bookings:  map[string]*models.Booking{},
		byKey:     map[string]string{},
	}
}

func (m *memStore) CreateWithReservation(ctx context.Context, req models.BookingRequest, seg models.Segment, classCode, pnr string) (models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if req.IdempotencyKey != "" {
		if _, ok := m.byKey[req.IdempotencyKey]; ok {
			return models.Booking{}, domain.ConflictError{Resource: "idempotency_key"}
		}
	}
	if _, ok := m.bookings[pnr]; ok {
		return models.Booking{}, domain.ConflictError{Resource: "pnr"}
	}

	out, updated, err := m.rec.Allocate(len(req.Passengers))
	if err != nil {
		return models.Booking{}, err
	}
	b := models.ComposeBooking(req, seg, pnr, classCode, out, m.rec.SeatsIssued)
	m.nextID++
	b.ID = m.nextID

	m.rec = updated
	m.bookings[pnr] = &b
	m.order = append(m.order, pnr)
	if req.IdempotencyKey != "" {
		m.byKey[req.IdempotencyKey] = pnr
	}
	return b, nil
}

func (m *memStore) FindByIdempotencyKey(ctx context.Context, key string) (models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pnr, ok := m.byKey[key]; ok {
		return *m.bookings[pnr], nil
	}
	return models.Booking{}, domain.NotFoundError{Resource: "booking"}
}

func (m *memStore) FindByPNR(ctx context.Context, pnr string) (models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bookings[pnr]; ok {
		return *b, nil
	}
	return models.Booking{}, domain.NotFoundError{Resource: "booking"}
}

func (m *memStore) ListByUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Booking
	for i := len(m.order) - 1; i >= 0; i-- {
		if b := m.bookings[m.order[i]]; b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *memStore) CancelAndPromote(ctx context.Context, pnr string, userID int64) (models.Booking, []models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[pnr]
	if !ok || b.UserID != userID {
		return models.Booking{}, nil, domain.NotFoundError{Resource: "booking"}
	}
	if b.Status == models.StatusCancelled {
		return models.Booking{}, nil, domain.ConflictError{Resource: "booking", Msg: "already cancelled"}
	}

	var confirmed, rac, waiting int
	for i := range b.Passengers {
		switch b.Passengers[i].Status {
		case models.StatusConfirmed:
			confirmed++
		case models.StatusRAC:
			rac++
		case models.StatusWaiting:
			waiting++
		}
		b.Passengers[i].Status = models.StatusCancelled
		b.Passengers[i].SeatNumber = ""
		b.Passengers[i].WaitlistPosition = 0
	}
	b.Status = models.StatusCancelled
	m.rec = m.rec.Release(confirmed, rac, waiting)

	var candidates []models.Booking
	for _, p := range m.order {
		if w := m.bookings[p]; w.Status == models.StatusWaiting {
			candidates = append(candidates, *w)
		}
	}
	promoted, updated := models.PromoteWaiting(m.rec, m.classCode, candidates)
	m.rec = updated
	for i := range promoted {
		*m.bookings[promoted[i].PNR] = promoted[i]
	}
	return *b, promoted, nil
}

// fakeSchedules serves a single schedule, class and segment.
type fakeSchedules struct {
	schedule models.Schedule
	class    models.SeatClass
	segment  models.Segment
}

func (f fakeSchedules) GetSchedule(ctx context.Context, id int64) (models.Schedule, error) {
	if id != f.schedule.ID {
		return models.Schedule{}, domain.NotFoundError{Resource: "schedule"}
	}
	return f.schedule, nil
}

func (f fakeSchedules) GetClass(ctx context.Context, classID int64) (models.SeatClass, error) {
	if classID != f.class.ID {
		return models.SeatClass{}, domain.NotFoundError{Resource: "class"}
	}
	return f.class, nil
}

func (f fakeSchedules) ResolveSegment(ctx context.Context, scheduleID int64, fromCode, toCode string) (models.Segment, error) {
	return f.segment, nil
}

func testFixture(available, racSeats int) (*memStore, BookingService) {
	store := newMemStore(models.AvailabilityRecord{
		ScheduleID:     1,
		ClassID:        2,
		FromStationID:  10,
		ToStationID:    20,
		TotalSeats:     available,
		AvailableSeats: available,
		RACAvailable:   racSeats,
		BaseFare:       1000,
		CurrentFare:    1000,
	}, "SL")

	var seq int64
	var seqMu sync.Mutex
	svc := BookingService{
		Schedules: fakeSchedules{
			schedule: models.Schedule{ID: 1, TrainID: 5, JourneyDate: "2026-09-15"},
			class:    models.SeatClass{ID: 2, TrainID: 5, Code: "SL", TotalSeats: available, RACSeats: racSeats, BaseFare: 1000},
			segment:  models.Segment{FromStationID: 10, ToStationID: 20, FromSequence: 1, ToSequence: 4},
		},
		Store: store,
		NewPNR: func() string {
			seqMu.Lock()
			defer seqMu.Unlock()
			seq++
			return fmt.Sprintf("%010d", seq)
		},
	}
	return store, svc
}

func bookingReq(userID int64, passengers int, key string) models.BookingRequest {
	req := models.BookingRequest{
		UserID:         userID,
		ScheduleID:     1,
		ClassID:        2,
		FromCode:       "NDLS",
		ToCode:         "BCT",
		IdempotencyKey: key,
	}
	for i := 0; i < passengers; i++ {
		req.Passengers = append(req.Passengers, models.PassengerInput{
			Name:   fmt.Sprintf("Passenger %d", i+1),
			Age:    30 + i,
			Gender: "M",
		})
	}
	return req
}

func TestBookConfirmsAndUsesScheduleDate(t *testing.T) {
	store, svc := testFixture(10, 2)

	b, err := svc.Book(context.Background(), bookingReq(1, 2, ""))
	if err != nil {
		t.Fatalf("Book returned error: %v", err)
	}
	if b.Status != models.StatusConfirmed {
		t.Fatalf("status = %s, want CONFIRMED", b.Status)
	}
	if b.JourneyDate != "2026-09-15" {
		t.Fatalf("journey date = %s, must come from the schedule", b.JourneyDate)
	}
	if b.Passengers[0].SeatNumber != "SL-01" || b.Passengers[1].SeatNumber != "SL-02" {
		t.Fatalf("seat labels = %s, %s", b.Passengers[0].SeatNumber, b.Passengers[1].SeatNumber)
	}
	if store.rec.AvailableSeats != 8 {
		t.Fatalf("available seats = %d, want 8", store.rec.AvailableSeats)
	}
}

func TestBookConcurrentNeverOversells(t *testing.T) {
	store, svc := testFixture(2, 0)

	const workers = 8
	var wg sync.WaitGroup
	results := make([]models.Booking, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := svc.Book(context.Background(), bookingReq(int64(i+1), 1, ""))
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			results[i] = b
		}(i)
	}
	wg.Wait()

	confirmed, waiting := 0, 0
	for _, b := range results {
		switch b.Status {
		case models.StatusConfirmed:
			confirmed++
		case models.StatusWaiting:
			waiting++
		}
	}
	if confirmed != 2 {
		t.Fatalf("confirmed bookings = %d, want exactly 2", confirmed)
	}
	if waiting != workers-2 {
		t.Fatalf("waiting bookings = %d, want %d", waiting, workers-2)
	}
	if store.rec.AvailableSeats != 0 {
		t.Fatalf("available seats = %d, want 0", store.rec.AvailableSeats)
	}
	if store.rec.WaitingList != workers-2 {
		t.Fatalf("waiting list = %d, want %d", store.rec.WaitingList, workers-2)
	}

	// Waitlist positions are unique and contiguous from 1.
	seen := map[int]bool{}
	for _, b := range results {
		if b.Status != models.StatusWaiting {
			continue
		}
		pos := b.Passengers[0].WaitlistPosition
		if pos < 1 || pos > workers-2 || seen[pos] {
			t.Fatalf("bad waitlist position %d", pos)
		}
		seen[pos] = true
	}
}

func TestBookIdempotentKeyReturnsOriginal(t *testing.T) {
	store, svc := testFixture(10, 0)

	first, err := svc.Book(context.Background(), bookingReq(1, 2, "key-1"))
	if err != nil {
		t.Fatalf("first Book: %v", err)
	}
	second, err := svc.Book(context.Background(), bookingReq(1, 2, "key-1"))
	if err != nil {
		t.Fatalf("second Book: %v", err)
	}
	if second.PNR != first.PNR {
		t.Fatalf("repeat returned different PNR: %s vs %s", second.PNR, first.PNR)
	}
	if store.rec.AvailableSeats != 8 {
		t.Fatalf("available seats = %d, inventory decremented twice", store.rec.AvailableSeats)
	}
}

func TestBookRetriesOnPNRCollision(t *testing.T) {
	store, svc := testFixture(10, 0)

	if _, err := svc.Book(context.Background(), bookingReq(1, 1, "")); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	// Generator first repeats the taken PNR, then produces a fresh one.
	calls := 0
	svc.NewPNR = func() string {
		calls++
		if calls == 1 {
			return "0000000001"
		}
		return "9999999999"
	}
	b, err := svc.Book(context.Background(), bookingReq(2, 1, ""))
	if err != nil {
		t.Fatalf("Book after collision: %v", err)
	}
	if b.PNR != "9999999999" {
		t.Fatalf("pnr = %s, want regenerated 9999999999", b.PNR)
	}
	if store.rec.AvailableSeats != 8 {
		t.Fatalf("available seats = %d, collision must not consume inventory", store.rec.AvailableSeats)
	}
}

func TestBookExhaustedPNRRetriesIsInternal(t *testing.T) {
	_, svc := testFixture(10, 0)
	if _, err := svc.Book(context.Background(), bookingReq(1, 1, "")); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	svc.NewPNR = func() string { return "0000000001" }
	_, err := svc.Book(context.Background(), bookingReq(2, 1, ""))
	if !domain.IsInternal(err) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestBookRejectsInvalidPassengers(t *testing.T) {
	_, svc := testFixture(10, 0)

	req := bookingReq(1, 1, "")
	req.Passengers[0].Gender = "X"
	if _, err := svc.Book(context.Background(), req); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	req = bookingReq(1, 0, "")
	if _, err := svc.Book(context.Background(), req); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for empty list, got %v", err)
	}

	req = bookingReq(1, maxPassengersPerBooking+1, "")
	if _, err := svc.Book(context.Background(), req); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for oversized list, got %v", err)
	}
}

func TestBookRejectsClassFromAnotherTrain(t *testing.T) {
	_, svc := testFixture(10, 0)
	fs := svc.Schedules.(fakeSchedules)
	fs.class.TrainID = 99
	svc.Schedules = fs

	_, err := svc.Book(context.Background(), bookingReq(1, 1, ""))
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCancelPromotesOldestWaiting(t *testing.T) {
	store, svc := testFixture(2, 0)
	ctx := context.Background()

	a, err := svc.Book(ctx, bookingReq(1, 2, ""))
	if err != nil {
		t.Fatalf("booking A: %v", err)
	}
	b, err := svc.Book(ctx, bookingReq(2, 1, ""))
	if err != nil {
		t.Fatalf("booking B: %v", err)
	}
	if b.Status != models.StatusWaiting || b.Passengers[0].WaitlistPosition != 1 {
		t.Fatalf("booking B should be WL/1, got %+v", b)
	}

	cancelled, err := svc.Cancel(ctx, a.PNR, 1)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != models.StatusCancelled {
		t.Fatalf("cancelled status = %s", cancelled.Status)
	}

	after, err := svc.Store.FindByPNR(ctx, b.PNR)
	if err != nil {
		t.Fatalf("FindByPNR: %v", err)
	}
	if after.Status != models.StatusConfirmed {
		t.Fatalf("booking B status = %s, want CONFIRMED after promotion", after.Status)
	}
	if after.Passengers[0].SeatNumber == "" || after.Passengers[0].WaitlistPosition != 0 {
		t.Fatalf("promoted passenger not seated: %+v", after.Passengers[0])
	}
	if store.rec.AvailableSeats != 1 {
		t.Fatalf("available seats = %d, want 1", store.rec.AvailableSeats)
	}
	if store.rec.WaitingList != 0 {
		t.Fatalf("waiting list = %d, want 0", store.rec.WaitingList)
	}
}

func TestCancelPromotesMixedBookingWithoutLeakingSeats(t *testing.T) {
	store, svc := testFixture(3, 0)
	ctx := context.Background()

	a, err := svc.Book(ctx, bookingReq(1, 2, ""))
	if err != nil {
		t.Fatalf("booking A: %v", err)
	}
	// B straddles the boundary: one passenger seated, one waitlisted.
	b, err := svc.Book(ctx, bookingReq(2, 2, ""))
	if err != nil {
		t.Fatalf("booking B: %v", err)
	}
	if b.Status != models.StatusWaiting || b.Passengers[0].Status != models.StatusConfirmed {
		t.Fatalf("booking B should be partially seated, got %+v", b)
	}

	if _, err := svc.Cancel(ctx, a.PNR, 1); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	after, err := svc.Store.FindByPNR(ctx, b.PNR)
	if err != nil {
		t.Fatalf("FindByPNR: %v", err)
	}
	if after.Status != models.StatusConfirmed {
		t.Fatalf("booking B status = %s, want CONFIRMED", after.Status)
	}
	if after.Passengers[0].SeatNumber != "SL-03" {
		t.Fatalf("seated passenger moved to %s, must keep SL-03", after.Passengers[0].SeatNumber)
	}
	if after.Passengers[1].SeatNumber != "SL-04" {
		t.Fatalf("promoted passenger seat = %s, want SL-04", after.Passengers[1].SeatNumber)
	}
	// Two seats freed, one consumed by the promotion: one stays sellable.
	if store.rec.AvailableSeats != 1 {
		t.Fatalf("available seats = %d, want 1", store.rec.AvailableSeats)
	}
	if store.rec.WaitingList != 0 {
		t.Fatalf("waiting list = %d, want 0", store.rec.WaitingList)
	}
}

func TestCancelNeverReissuesSeatLabels(t *testing.T) {
	_, svc := testFixture(3, 0)
	ctx := context.Background()

	a, err := svc.Book(ctx, bookingReq(1, 1, ""))
	if err != nil {
		t.Fatalf("booking A: %v", err)
	}
	b, err := svc.Book(ctx, bookingReq(2, 1, ""))
	if err != nil {
		t.Fatalf("booking B: %v", err)
	}
	if a.Passengers[0].SeatNumber != "SL-01" || b.Passengers[0].SeatNumber != "SL-02" {
		t.Fatalf("seed seats = %s, %s", a.Passengers[0].SeatNumber, b.Passengers[0].SeatNumber)
	}

	if _, err := svc.Cancel(ctx, a.PNR, 1); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	c, err := svc.Book(ctx, bookingReq(3, 1, ""))
	if err != nil {
		t.Fatalf("booking C: %v", err)
	}
	if c.Passengers[0].SeatNumber == b.Passengers[0].SeatNumber {
		t.Fatalf("seat label %s issued to two active passengers", c.Passengers[0].SeatNumber)
	}
	if c.Passengers[0].SeatNumber != "SL-03" {
		t.Fatalf("seat after cancellation = %s, want fresh SL-03", c.Passengers[0].SeatNumber)
	}
}

func TestCancelPromotionIsFIFOAndAllOrNothing(t *testing.T) {
	_, svc := testFixture(3, 0)
	ctx := context.Background()

	a, err := svc.Book(ctx, bookingReq(1, 3, ""))
	if err != nil {
		t.Fatalf("booking A: %v", err)
	}
	// B needs 2, C needs 3, D needs 1; freeing 3 seats fits B, then stops at C.
	bb, _ := svc.Book(ctx, bookingReq(2, 2, ""))
	cc, _ := svc.Book(ctx, bookingReq(3, 3, ""))
	dd, _ := svc.Book(ctx, bookingReq(4, 1, ""))

	if _, err := svc.Cancel(ctx, a.PNR, 1); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	wantStatus := map[string]models.BookingStatus{
		bb.PNR: models.StatusConfirmed,
		cc.PNR: models.StatusWaiting,
		dd.PNR: models.StatusWaiting,
	}
	for pnr, want := range wantStatus {
		got, err := svc.Store.FindByPNR(ctx, pnr)
		if err != nil {
			t.Fatalf("FindByPNR(%s): %v", pnr, err)
		}
		if got.Status != want {
			t.Fatalf("booking %s status = %s, want %s", pnr, got.Status, want)
		}
	}
}

func TestCancelTwiceIsConflict(t *testing.T) {
	_, svc := testFixture(5, 0)
	ctx := context.Background()

	b, err := svc.Book(ctx, bookingReq(1, 1, ""))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if _, err := svc.Cancel(ctx, b.PNR, 1); err != nil {
		t.Fatalf("first Cancel: %v", err)
	}
	if _, err := svc.Cancel(ctx, b.PNR, 1); !domain.IsConflict(err) {
		t.Fatalf("second Cancel should conflict, got %v", err)
	}
}

func TestCancelForeignBookingLooksMissing(t *testing.T) {
	_, svc := testFixture(5, 0)
	ctx := context.Background()

	b, err := svc.Book(ctx, bookingReq(1, 1, ""))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if _, err := svc.Cancel(ctx, b.PNR, 42); !domain.IsNotFound(err) {
		t.Fatalf("foreign cancel should look like not found, got %v", err)
	}
}

func TestCancelRejectsMalformedPNR(t *testing.T) {
	_, svc := testFixture(5, 0)
	if _, err := svc.Cancel(context.Background(), "not-a-pnr", 1); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	_, svc := testFixture(10, 0)
	ctx := context.Background()

	first, _ := svc.Book(ctx, bookingReq(1, 1, ""))
	second, _ := svc.Book(ctx, bookingReq(1, 1, ""))
	if _, err := svc.Book(ctx, bookingReq(2, 1, "")); err != nil {
		t.Fatalf("other user booking: %v", err)
	}

	history, err := svc.History(ctx, 1)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].PNR != second.PNR || history[1].PNR != first.PNR {
		t.Fatalf("history not newest first: %s, %s", history[0].PNR, history[1].PNR)
	}
}
