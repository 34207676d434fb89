package models

// Schedule is a concrete calendar-dated run of a train; seats are tracked
// against schedules, never against trains directly.
type Schedule struct {
	ID          int64  `json:"id"`
	TrainID     int64  `json:"train_id"`
	JourneyDate string `json:"journey_date"`
}

// Segment is the origin-to-destination stop range a passenger travels within
// a schedule. FromSequence < ToSequence always holds for a resolved segment.
type Segment struct {
	FromStationID int64 `json:"from_station_id"`
	ToStationID   int64 `json:"to_station_id"`
	FromSequence  int   `json:"from_sequence"`
	ToSequence    int   `json:"to_sequence"`
}
