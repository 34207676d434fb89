package models

// Train is immutable reference data; a train owns an ordered stop sequence.
type Train struct {
	ID     int64  `json:"id"`
	Number string `json:"train_number"`
	Name   string `json:"train_name"`
	Type   string `json:"train_type"`
}

// RouteStop is one entry of a train's ordered stop sequence.
type RouteStop struct {
	StationID     int64  `json:"station_id"`
	StationCode   string `json:"station_code"`
	StationName   string `json:"station_name"`
	Sequence      int    `json:"sequence_number"`
	ArrivalTime   string `json:"arrival_time"`
	DepartureTime string `json:"departure_time"`
}

// SeatClass describes a bookable class on a train.
type SeatClass struct {
	ID         int64  `json:"id"`
	TrainID    int64  `json:"train_id"`
	Code       string `json:"class_code"`
	Name       string `json:"class_name"`
	TotalSeats int    `json:"total_seats"`
	RACSeats   int    `json:"rac_seats"`
	BaseFare   int64  `json:"base_fare"`
}

// ClassAvailability is the per-class slice of a search result.
type ClassAvailability struct {
	ClassID        int64  `json:"class_id"`
	Code           string `json:"class_code"`
	Name           string `json:"class_name"`
	AvailableSeats int    `json:"available_seats"`
	WaitingList    int    `json:"waiting_list"`
	CurrentFare    int64  `json:"current_fare"`
	Status         string `json:"status"` // AVAILABLE, RAC or WAITING
}

// TrainSearchResult is one candidate train for an (origin, destination, date)
// query, with its bookable classes attached.
type TrainSearchResult struct {
	ScheduleID    int64               `json:"schedule_id"`
	TrainNumber   string              `json:"train_number"`
	TrainName     string              `json:"train_name"`
	TrainType     string              `json:"train_type"`
	DepartureTime string              `json:"departure_time"`
	ArrivalTime   string              `json:"arrival_time"`
	FromCode      string              `json:"from_station_code"`
	FromName      string              `json:"from_station_name"`
	ToCode        string              `json:"to_station_code"`
	ToName        string              `json:"to_station_name"`
	JourneyDate   string              `json:"journey_date"`
	Classes       []ClassAvailability `json:"classes"`
}
