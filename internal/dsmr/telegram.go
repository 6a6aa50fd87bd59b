// Package dsmr implements parsing of DSMR v10 smart-meter telegram streams.
//
// A stream is a newline-delimited ASCII text. The first line identifies the
// format version; every following line is classified by its leading tag byte
// and either contributes a field to the telegram currently being accumulated
// or marks a telegram boundary. Parsing is a single linear pass: there is no
// incremental mode, and the first malformed line fails the whole input.
//
// Example usage:
//
//	telegrams, err := dsmr.Parse(input)
//	if err != nil {
//	    var perr *dsmr.ParseError
//	    if errors.As(err, &perr) {
//	        log.Fatalf("line %d: %v", perr.Line, perr)
//	    }
//	}
package dsmr

// Severity classifies an event log entry.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityHigh
)

func (s Severity) String() string {
	if s == SeverityHigh {
		return "high"
	}
	return "low"
}

// Electricity holds one telegram's instantaneous per-phase readings and
// cumulative energy totals. Arrays are indexed 0..2 for phase 1..3. Every
// quantity defaults to 0.0 until an explicit field overwrites it; a repeated
// field for the same quantity and phase is last-write-wins.
type Electricity struct {
	Voltage [3]float64 `json:"voltage"`
	Current [3]float64 `json:"current"`
	Power   [3]float64 `json:"power"`

	TotalConsumed float64 `json:"total_consumed"`
	TotalProduced float64 `json:"total_produced"`
}

// EventLogEntry is one correlated event record: its wire-level id, the
// decoded severity, a Unix timestamp, and the hex-decoded message text.
type EventLogEntry struct {
	ID        int      `json:"id"`
	Severity  Severity `json:"severity"`
	Timestamp int64    `json:"timestamp"`
	Message   string   `json:"message"`
}

// Telegram is one completed meter reading record, bounded by start/end
// markers in the stream. Telegrams are immutable once appended to the
// parser's output.
type Telegram struct {
	Timestamp   int64           `json:"timestamp"`
	EventLog    []EventLogEntry `json:"event_log"`
	Electricity Electricity     `json:"electricity"`
}
