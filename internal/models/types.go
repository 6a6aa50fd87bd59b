package models

import "time"

// Quantities stored as per-phase series.
const (
	QuantityVoltage = "voltage"
	QuantityCurrent = "current"
)

// PhaseVector is the three phase values of one quantity at one instant,
// projected from a single telegram.
type PhaseVector struct {
	Time   time.Time `json:"time"`
	Phase1 float64   `json:"phase_1"`
	Phase2 float64   `json:"phase_2"`
	Phase3 float64   `json:"phase_3"`
}

// SeriesPoint is one aggregated bucket returned by a series query.
type SeriesPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// EventMessage is a decoded event-log message with its severity bucket.
type EventMessage struct {
	Time     time.Time `json:"time"`
	Severity string    `json:"severity"`
	Message  string    `json:"message"`
}
