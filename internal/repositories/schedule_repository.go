package repositories

import (
	"context"
	"database/sql"
	"errors"

	intconfig "railbook/internal/config"
	intdb "railbook/internal/db"
	"railbook/internal/domain"
	"railbook/internal/domain/models"
	"railbook/internal/utils"
)

type ScheduleRepository struct {
	DB *sql.DB
}

func (r ScheduleRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// SearchTrains finds candidate trains for an (origin, destination, date)
// triple. The double join on train_routes with an ordered sequence pair keeps
// wrong-direction pairs out of the result.
func (r ScheduleRepository) SearchTrains(ctx context.Context, fromCode, toCode, date string) ([]models.TrainSearchResult, error) {
	fromCode = utils.NormalizeStationCode(fromCode)
	toCode = utils.NormalizeStationCode(toCode)

	rows, err := r.db().QueryContext(ctx, `
		SELECT ts.id,
		       t.id, t.train_number, t.train_name, t.train_type,
		       tr_from.departure_time, tr_to.arrival_time,
		       s_from.id, s_from.station_code, s_from.station_name,
		       s_to.id, s_to.station_code, s_to.station_name
		FROM trains t
		JOIN train_schedules ts ON ts.train_id = t.id AND ts.journey_date = ?
		JOIN train_routes tr_from ON tr_from.train_id = t.id
		JOIN train_routes tr_to ON tr_to.train_id = t.id
		JOIN stations s_from ON tr_from.station_id = s_from.id
		JOIN stations s_to ON tr_to.station_id = s_to.id
		WHERE s_from.station_code = ?
		  AND s_to.station_code = ?
		  AND tr_from.sequence_number < tr_to.sequence_number
		ORDER BY tr_from.departure_time`, date, fromCode, toCode)
	if err != nil {
		return nil, intdb.WrapErr(err)
	}
	defer rows.Close()

	type hit struct {
		result  models.TrainSearchResult
		trainID int64
		fromID  int64
		toID    int64
	}
	hits := []hit{}
	for rows.Next() {
		var h hit
		if err := rows.Scan(
			&h.result.ScheduleID,
			&h.trainID, &h.result.TrainNumber, &h.result.TrainName, &h.result.TrainType,
			&h.result.DepartureTime, &h.result.ArrivalTime,
			&h.fromID, &h.result.FromCode, &h.result.FromName,
			&h.toID, &h.result.ToCode, &h.result.ToName,
		); err != nil {
			return nil, intdb.WrapErr(err)
		}
		h.result.JourneyDate = date
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, intdb.WrapErr(err)
	}

	out := make([]models.TrainSearchResult, 0, len(hits))
	for _, h := range hits {
		classes, err := r.classAvailability(ctx, h.trainID, h.result.ScheduleID, h.fromID, h.toID)
		if err != nil {
			return nil, err
		}
		h.result.Classes = classes
		out = append(out, h.result)
	}
	return out, nil
}

// classAvailability attaches segment counters to every class of a train.
// A class with no availability row yet reads as fully open at base fare.
func (r ScheduleRepository) classAvailability(ctx context.Context, trainID, scheduleID, fromID, toID int64) ([]models.ClassAvailability, error) {
	rows, err := r.db().QueryContext(ctx, `
		SELECT tc.id, tc.class_code, tc.class_name,
		       COALESCE(sa.available_seats, tc.total_seats),
		       COALESCE(sa.rac_available, tc.rac_seats),
		       COALESCE(sa.waiting_list, 0),
		       COALESCE(sa.current_fare, tc.base_fare)
		FROM train_classes tc
		LEFT JOIN seat_availability sa
		       ON sa.class_id = tc.id
		      AND sa.schedule_id = ?
		      AND sa.from_station_id = ?
		      AND sa.to_station_id = ?
		WHERE tc.train_id = ?
		ORDER BY tc.base_fare DESC`, scheduleID, fromID, toID, trainID)
	if err != nil {
		return nil, intdb.WrapErr(err)
	}
	defer rows.Close()

	out := []models.ClassAvailability{}
	for rows.Next() {
		var c models.ClassAvailability
		var rac int
		if err := rows.Scan(&c.ClassID, &c.Code, &c.Name, &c.AvailableSeats, &rac, &c.WaitingList, &c.CurrentFare); err != nil {
			return nil, intdb.WrapErr(err)
		}
		switch {
		case c.AvailableSeats > 0:
			c.Status = "AVAILABLE"
		case rac > 0:
			c.Status = "RAC"
		default:
			c.Status = "WAITING"
		}
		out = append(out, c)
	}
	return out, intdb.WrapErr(rows.Err())
}

// ResolveSegment maps station codes onto the schedule's stop sequence. The
// origin has to precede the destination on the route.
func (r ScheduleRepository) ResolveSegment(ctx context.Context, scheduleID int64, fromCode, toCode string) (models.Segment, error) {
	var trainID int64
	err := r.db().QueryRowContext(ctx,
		`SELECT train_id FROM train_schedules WHERE id = ? LIMIT 1`, scheduleID).Scan(&trainID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Segment{}, domain.NotFoundError{Resource: "schedule"}
		}
		return models.Segment{}, intdb.WrapErr(err)
	}

	var seg models.Segment
	if seg.FromStationID, seg.FromSequence, err = r.routeStop(ctx, trainID, fromCode); err != nil {
		return models.Segment{}, err
	}
	if seg.ToStationID, seg.ToSequence, err = r.routeStop(ctx, trainID, toCode); err != nil {
		return models.Segment{}, err
	}
	if seg.FromSequence >= seg.ToSequence {
		return models.Segment{}, domain.ValidationError{Field: "route", Msg: "origin must precede destination on this train"}
	}
	return seg, nil
}

func (r ScheduleRepository) routeStop(ctx context.Context, trainID int64, code string) (int64, int, error) {
	var stationID int64
	var seq int
	err := r.db().QueryRowContext(ctx, `
		SELECT s.id, tr.sequence_number
		FROM train_routes tr
		JOIN stations s ON s.id = tr.station_id
		WHERE tr.train_id = ? AND s.station_code = ?
		LIMIT 1`, trainID, utils.NormalizeStationCode(code)).Scan(&stationID, &seq)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, domain.ValidationError{Field: "route", Msg: "station " + code + " is not on this train's route"}
		}
		return 0, 0, intdb.WrapErr(err)
	}
	return stationID, seq, nil
}

// ListRoute returns a train's full ordered stop sequence.
func (r ScheduleRepository) ListRoute(ctx context.Context, trainNumber string) ([]models.RouteStop, error) {
	rows, err := r.db().QueryContext(ctx, `
		SELECT s.id, s.station_code, s.station_name, tr.sequence_number, tr.arrival_time, tr.departure_time
		FROM train_routes tr
		JOIN trains t ON t.id = tr.train_id
		JOIN stations s ON s.id = tr.station_id
		WHERE t.train_number = ?
		ORDER BY tr.sequence_number ASC`, utils.TrimOrEmpty(trainNumber))
	if err != nil {
		return nil, intdb.WrapErr(err)
	}
	defer rows.Close()

	out := []models.RouteStop{}
	for rows.Next() {
		var st models.RouteStop
		if err := rows.Scan(&st.StationID, &st.StationCode, &st.StationName,
			&st.Sequence, &st.ArrivalTime, &st.DepartureTime); err != nil {
			return nil, intdb.WrapErr(err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, intdb.WrapErr(err)
	}
	if len(out) == 0 {
		return nil, domain.NotFoundError{Resource: "train"}
	}
	return out, nil
}

// GetSchedule fetches one dated run.
func (r ScheduleRepository) GetSchedule(ctx context.Context, id int64) (models.Schedule, error) {
	var s models.Schedule
	err := r.db().QueryRowContext(ctx, `
		SELECT id, train_id, DATE_FORMAT(journey_date, '%Y-%m-%d')
		FROM train_schedules
		WHERE id = ?
		LIMIT 1`, id).Scan(&s.ID, &s.TrainID, &s.JourneyDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Schedule{}, domain.NotFoundError{Resource: "schedule"}
		}
		return models.Schedule{}, intdb.WrapErr(err)
	}
	return s, nil
}

// GetClass fetches one seat class by id.
func (r ScheduleRepository) GetClass(ctx context.Context, classID int64) (models.SeatClass, error) {
	var c models.SeatClass
	err := r.db().QueryRowContext(ctx, `
		SELECT id, train_id, class_code, class_name, total_seats, rac_seats, base_fare
		FROM train_classes
		WHERE id = ?
		LIMIT 1`, classID).
		Scan(&c.ID, &c.TrainID, &c.Code, &c.Name, &c.TotalSeats, &c.RACSeats, &c.BaseFare)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SeatClass{}, domain.NotFoundError{Resource: "class"}
		}
		return models.SeatClass{}, intdb.WrapErr(err)
	}
	return c, nil
}

// ListClassesByTrainNumber backs the seat-class browsing page.
func (r ScheduleRepository) ListClassesByTrainNumber(ctx context.Context, trainNumber string) ([]models.SeatClass, error) {
	rows, err := r.db().QueryContext(ctx, `
		SELECT tc.id, tc.train_id, tc.class_code, tc.class_name, tc.total_seats, tc.rac_seats, tc.base_fare
		FROM train_classes tc
		JOIN trains t ON t.id = tc.train_id
		WHERE t.train_number = ?
		ORDER BY tc.base_fare DESC`, utils.TrimOrEmpty(trainNumber))
	if err != nil {
		return nil, intdb.WrapErr(err)
	}
	defer rows.Close()

	out := []models.SeatClass{}
	for rows.Next() {
		var c models.SeatClass
		if err := rows.Scan(&c.ID, &c.TrainID, &c.Code, &c.Name, &c.TotalSeats, &c.RACSeats, &c.BaseFare); err != nil {
			return nil, intdb.WrapErr(err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, intdb.WrapErr(err)
	}
	if len(out) == 0 {
		return nil, domain.NotFoundError{Resource: "train"}
	}
	return out, nil
}
