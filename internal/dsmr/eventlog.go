package dsmr

import "sort"

// partialEvent accumulates the three independently-arriving sub-fields of
// one event id. The sub-fields may appear in any order within a telegram;
// each may appear at most once per id.
type partialEvent struct {
	severity  Severity
	timestamp int64
	message   string

	hasSeverity  bool
	hasTimestamp bool
	hasMessage   bool
}

// eventLog correlates event sub-fields by id within one telegram. Keying
// everything on the id makes a missing or duplicated sub-field detectable
// per id, instead of surfacing later as mismatched list lengths.
type eventLog struct {
	events map[int]*partialEvent
}

func newEventLog() *eventLog {
	return &eventLog{events: make(map[int]*partialEvent)}
}

func (l *eventLog) reset() {
	l.events = make(map[int]*partialEvent)
}

func (l *eventLog) entry(id int) *partialEvent {
	e, ok := l.events[id]
	if !ok {
		e = &partialEvent{}
		l.events[id] = e
	}
	return e
}

func (l *eventLog) setSeverity(id int, s Severity, num int) error {
	e := l.entry(id)
	if e.hasSeverity {
		return parseErrorf(MalformedLine, num, "duplicate severity for event %d", id)
	}
	e.severity = s
	e.hasSeverity = true
	return nil
}

func (l *eventLog) setTimestamp(id int, ts int64, num int) error {
	e := l.entry(id)
	if e.hasTimestamp {
		return parseErrorf(MalformedLine, num, "duplicate date for event %d", id)
	}
	e.timestamp = ts
	e.hasTimestamp = true
	return nil
}

func (l *eventLog) setMessage(id int, msg string, num int) error {
	e := l.entry(id)
	if e.hasMessage {
		return parseErrorf(MalformedLine, num, "duplicate message for event %d", id)
	}
	e.message = msg
	e.hasMessage = true
	return nil
}

// finalize emits the completed entries in ascending id order. Any id missing
// one of its three sub-fields fails the telegram: the input omitted a
// severity, message, or date line for that id.
func (l *eventLog) finalize(num int) ([]EventLogEntry, error) {
	ids := make([]int, 0, len(l.events))
	for id := range l.events {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	entries := make([]EventLogEntry, 0, len(ids))
	for _, id := range ids {
		e := l.events[id]
		switch {
		case !e.hasSeverity:
			return nil, parseErrorf(IncompleteEvent, num, "event %d has no severity", id)
		case !e.hasTimestamp:
			return nil, parseErrorf(IncompleteEvent, num, "event %d has no date", id)
		case !e.hasMessage:
			return nil, parseErrorf(IncompleteEvent, num, "event %d has no message", id)
		}
		entries = append(entries, EventLogEntry{
			ID:        id,
			Severity:  e.severity,
			Timestamp: e.timestamp,
			Message:   e.message,
		})
	}
	return entries, nil
}

// decodeHexMessage decodes a wire message: a sequence of ASCII hex-digit
// pairs, each pair one output character's code point. "4142" decodes to
// "AB".
func decodeHexMessage(val string, num int) (string, error) {
	if len(val)%2 != 0 {
		return "", parseErrorf(MalformedLine, num, "odd-length message %q", val)
	}
	out := make([]rune, 0, len(val)/2)
	for i := 0; i < len(val); i += 2 {
		hi := hexDigit(val[i])
		lo := hexDigit(val[i+1])
		if hi < 0 || lo < 0 {
			return "", parseErrorf(MalformedLine, num, "message %q is not hex-encoded", val)
		}
		out = append(out, rune(hi*16+lo))
	}
	return string(out), nil
}

func hexDigit(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10
	default:
		return -1
	}
}
