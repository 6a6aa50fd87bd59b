// Package series projects parsed telegrams into the shapes the service
// stores and serves: per-phase voltage and current time series, and
// severity-partitioned event-log messages.
package series

import (
	"time"

	"github.com/gridpulse/dsmrflow/internal/dsmr"
	"github.com/gridpulse/dsmrflow/internal/models"
)

// VoltagePoints flattens telegrams into per-telegram voltage vectors,
// tagged with the telegram's own timestamp.
func VoltagePoints(telegrams []dsmr.Telegram) []models.PhaseVector {
	points := make([]models.PhaseVector, len(telegrams))
	for i, tel := range telegrams {
		points[i] = models.PhaseVector{
			Time:   time.Unix(tel.Timestamp, 0).UTC(),
			Phase1: tel.Electricity.Voltage[0],
			Phase2: tel.Electricity.Voltage[1],
			Phase3: tel.Electricity.Voltage[2],
		}
	}
	return points
}

// CurrentPoints flattens telegrams into per-telegram current vectors.
func CurrentPoints(telegrams []dsmr.Telegram) []models.PhaseVector {
	points := make([]models.PhaseVector, len(telegrams))
	for i, tel := range telegrams {
		points[i] = models.PhaseVector{
			Time:   time.Unix(tel.Timestamp, 0).UTC(),
			Phase1: tel.Electricity.Current[0],
			Phase2: tel.Electricity.Current[1],
			Phase3: tel.Electricity.Current[2],
		}
	}
	return points
}

// EventMessages collects every event-log message across the telegrams,
// partitioned by severity. Within each partition messages keep telegram
// order, then event id order.
func EventMessages(telegrams []dsmr.Telegram) (low, high []models.EventMessage) {
	for _, tel := range telegrams {
		for _, ev := range tel.EventLog {
			msg := models.EventMessage{
				Time:     time.Unix(ev.Timestamp, 0).UTC(),
				Severity: ev.Severity.String(),
				Message:  ev.Message,
			}
			if ev.Severity == dsmr.SeverityHigh {
				high = append(high, msg)
			} else {
				low = append(low, msg)
			}
		}
	}
	return low, high
}
