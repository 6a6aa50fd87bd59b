package dsmr

import "fmt"

// ErrorKind discriminates the fatal parse failures.
type ErrorKind int

const (
	// UnknownTelegramVersion means the header line does not identify the
	// supported format version.
	UnknownTelegramVersion ErrorKind = iota

	// NoDate means a telegram ended without ever receiving a date field.
	NoDate

	// DuplicateFieldID means the information-type marker appeared more than
	// once within one telegram.
	DuplicateFieldID

	// MissingElectricity means a telegram ended without any electricity
	// field, or an electricity field arrived before the information-type
	// marker.
	MissingElectricity

	// ChildTelegramNotSupported means a nested telegram marker was
	// encountered.
	ChildTelegramNotSupported

	// MalformedLine means a recognized line violated the fixed-width record
	// layout: wrong field width, a non-numeric field, a bad date token, or a
	// duplicate event sub-field.
	MalformedLine

	// IncompleteEvent means an event id reached telegram end with at least
	// one of its severity, date, or message sub-fields missing.
	IncompleteEvent
)

func (k ErrorKind) String() string {
	switch k {
	case UnknownTelegramVersion:
		return "unknown telegram version"
	case NoDate:
		return "no telegram date"
	case DuplicateFieldID:
		return "duplicate field id"
	case MissingElectricity:
		return "missing electricity"
	case ChildTelegramNotSupported:
		return "child telegram not supported"
	case MalformedLine:
		return "malformed line"
	case IncompleteEvent:
		return "incomplete event log entry"
	default:
		return fmt.Sprintf("error kind %d", int(k))
	}
}

// ParseError is the result of a failed parse. No partial output accompanies
// it: the first failing line terminates the pass. Line is 1-based within the
// input; 0 when the failure is not tied to one line.
type ParseError struct {
	Kind   ErrorKind
	Line   int
	Detail string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func parseErrorf(kind ErrorKind, line int, format string, args ...interface{}) *ParseError {
	return &ParseError{Kind: kind, Line: line, Detail: fmt.Sprintf(format, args...)}
}
