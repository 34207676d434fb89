package models

// Station is immutable reference data keyed by its short code.
type Station struct {
	ID    int64  `json:"id"`
	Code  string `json:"station_code"`
	Name  string `json:"station_name"`
	City  string `json:"city"`
	State string `json:"state"`
}
