package repositories

import (
	"context"
	"testing"

	"railbook/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
)

func expectRouteStop(mock sqlmock.Sqlmock, trainID int64, code string, stationID int64, seq int) {
	mock.ExpectQuery("FROM train_routes").
		WithArgs(trainID, code).
		WillReturnRows(sqlmock.NewRows([]string{"id", "sequence_number"}).AddRow(stationID, seq))
}

func TestResolveSegmentOrdersStops(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT train_id FROM train_schedules").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"train_id"}).AddRow(5))
	expectRouteStop(mock, 5, "NDLS", 10, 1)
	expectRouteStop(mock, 5, "BCT", 20, 4)

	repo := ScheduleRepository{DB: db}
	seg, err := repo.ResolveSegment(context.Background(), 1, "ndls", "bct")
	if err != nil {
		t.Fatalf("ResolveSegment: %v", err)
	}
	if seg.FromStationID != 10 || seg.ToStationID != 20 {
		t.Fatalf("unexpected segment: %+v", seg)
	}
	if seg.FromSequence != 1 || seg.ToSequence != 4 {
		t.Fatalf("unexpected sequences: %+v", seg)
	}
}

func TestResolveSegmentRejectsBackwardTravel(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT train_id FROM train_schedules").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"train_id"}).AddRow(5))
	expectRouteStop(mock, 5, "BCT", 20, 4)
	expectRouteStop(mock, 5, "NDLS", 10, 1)

	repo := ScheduleRepository{DB: db}
	_, err = repo.ResolveSegment(context.Background(), 1, "BCT", "NDLS")
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolveSegmentStationOffRoute(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT train_id FROM train_schedules").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"train_id"}).AddRow(5))
	mock.ExpectQuery("FROM train_routes").
		WithArgs(int64(5), "SBC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "sequence_number"}))

	repo := ScheduleRepository{DB: db}
	_, err = repo.ResolveSegment(context.Background(), 1, "SBC", "BCT")
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolveSegmentUnknownSchedule(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT train_id FROM train_schedules").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"train_id"}))

	repo := ScheduleRepository{DB: db}
	if _, err := repo.ResolveSegment(context.Background(), 99, "NDLS", "BCT"); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
