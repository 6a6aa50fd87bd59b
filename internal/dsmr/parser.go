package dsmr

import (
	"strconv"
	"strings"
)

// Top-level field tags. Lines with any other leading byte are ignored so
// that future format additions do not break existing parsers.
const (
	tagBoundary    = '1'
	tagDate        = '2'
	tagEvent       = '3'
	tagInfoType    = '4'
	tagElectricity = '7'
)

// Boundary sub-discriminants.
const (
	boundaryStart = '1'
	boundaryEnd   = '2'
)

// Event sub-discriminants.
const (
	eventSeverity = '1'
	eventMessage  = '2'
	eventDate     = '3'
)

// Electricity sub-discriminants.
const (
	elecVoltage = '1'
	elecCurrent = '2'
	elecPower   = '3'
	elecTotal   = '4'
)

// Parser turns a raw DSMR v10 stream into validated telegrams. A Parser is
// not safe for concurrent use of a single Parse call's state, but distinct
// Parse calls share nothing and may run concurrently.
type Parser struct {
	epoch EpochFunc
}

// NewParser returns a Parser using DateToTimestamp for epoch conversion.
func NewParser() *Parser {
	return &Parser{epoch: DateToTimestamp}
}

// NewParserWithEpoch returns a Parser with a custom epoch converter.
func NewParserWithEpoch(fn EpochFunc) *Parser {
	return &Parser{epoch: fn}
}

// Parse is shorthand for NewParser().Parse.
func Parse(input string) ([]Telegram, error) {
	return NewParser().Parse(input)
}

// accumulator is the in-progress telegram state threaded through the
// dispatch loop. It is reset at every telegram boundary and cloned into a
// Telegram at telegram end.
type accumulator struct {
	electricity  Electricity
	telegramDate int64
	events       *eventLog

	seenInfoType    bool
	hasElectricity  bool
	hasTelegramDate bool
}

func newAccumulator() *accumulator {
	return &accumulator{events: newEventLog()}
}

func (a *accumulator) reset() {
	a.electricity = Electricity{}
	a.telegramDate = 0
	a.events.reset()
	a.seenInfoType = false
	a.hasElectricity = false
	a.hasTelegramDate = false
}

// Parse consumes a complete telegram stream and returns the telegrams it
// contains, in input order. The first line must identify format version
// v10; it is discarded before dispatch begins. Any failure is fatal: no
// partial output is returned.
func (p *Parser) Parse(input string) ([]Telegram, error) {
	lines := strings.Split(input, "\n")
	header := strings.TrimSuffix(lines[0], "\r")
	if len(header) < 4 || header[1:4] != "v10" {
		return nil, parseErrorf(UnknownTelegramVersion, 1, "header %q does not identify version v10", header)
	}

	var telegrams []Telegram
	acc := newAccumulator()

	for i, line := range lines[1:] {
		num := i + 2
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}

		var err error
		switch line[0] {
		case tagBoundary:
			telegrams, err = p.handleBoundary(line, num, acc, telegrams)
		case tagDate:
			err = p.handleDate(line, num, acc)
		case tagEvent:
			err = p.handleEvent(line, num, acc)
		case tagInfoType:
			if acc.seenInfoType {
				err = parseErrorf(DuplicateFieldID, num, "information type already declared in this telegram")
			} else {
				acc.seenInfoType = true
			}
		case tagElectricity:
			err = p.handleElectricity(line, num, acc)
		default:
			// Unrecognized tag: ignored for forward compatibility.
		}
		if err != nil {
			return nil, err
		}
	}
	return telegrams, nil
}

// handleBoundary processes a telegram start or end marker. An end marker
// flushes the accumulated telegram into the output; every boundary line
// resets the accumulator afterwards.
func (p *Parser) handleBoundary(line string, num int, acc *accumulator, telegrams []Telegram) ([]Telegram, error) {
	rec, err := scanLine(line, num)
	if err != nil {
		return nil, err
	}

	if rec.disc == boundaryStart && rec.sub != '0' {
		return nil, parseErrorf(ChildTelegramNotSupported, num, "telegram at depth %c", rec.sub)
	}
	if rec.disc == boundaryEnd {
		if !acc.hasElectricity {
			return nil, parseErrorf(MissingElectricity, num, "telegram ended without an electricity field")
		}
		if !acc.hasTelegramDate {
			return nil, parseErrorf(NoDate, num, "telegram ended without a date field")
		}
		entries, err := acc.events.finalize(num)
		if err != nil {
			return nil, err
		}
		telegrams = append(telegrams, Telegram{
			Timestamp:   acc.telegramDate,
			EventLog:    entries,
			Electricity: acc.electricity,
		})
	}

	acc.reset()
	return telegrams, nil
}

func (p *Parser) handleDate(line string, num int, acc *accumulator) error {
	rec, err := scanLine(line, num)
	if err != nil {
		return err
	}
	ts, err := p.decodeTimestamp(rec.val, num)
	if err != nil {
		return err
	}
	acc.telegramDate = ts
	acc.hasTelegramDate = true
	return nil
}

func (p *Parser) handleEvent(line string, num int, acc *accumulator) error {
	rec, err := scanLine(line, num)
	if err != nil {
		return err
	}
	id := int(rec.sub - '0')

	switch rec.disc {
	case eventSeverity:
		if len(rec.val) != 1 {
			return parseErrorf(MalformedLine, num, "severity flag %q is not one character", rec.val)
		}
		sev := SeverityLow
		if rec.val[0] == 'H' {
			sev = SeverityHigh
		}
		return acc.events.setSeverity(id, sev, num)
	case eventMessage:
		msg, err := decodeHexMessage(rec.val, num)
		if err != nil {
			return err
		}
		return acc.events.setMessage(id, msg, num)
	case eventDate:
		ts, err := p.decodeTimestamp(rec.val, num)
		if err != nil {
			return err
		}
		return acc.events.setTimestamp(id, ts, num)
	default:
		return parseErrorf(MalformedLine, num, "unknown event sub-field %c", rec.disc)
	}
}

func (p *Parser) handleElectricity(line string, num int, acc *accumulator) error {
	rec, err := scanLine(line, num)
	if err != nil {
		return err
	}
	if !acc.seenInfoType {
		return parseErrorf(MissingElectricity, num, "electricity field before information type marker")
	}

	star := strings.IndexByte(rec.val, '*')
	if star < 0 {
		return parseErrorf(MalformedLine, num, "measurement %q has no unit separator", rec.val)
	}
	value, err := strconv.ParseFloat(rec.val[:star], 64)
	if err != nil {
		return parseErrorf(MalformedLine, num, "measurement %q is not numeric", rec.val[:star])
	}

	if rec.disc == elecTotal {
		switch rec.sub {
		case '1':
			acc.electricity.TotalConsumed = value
		case '2':
			acc.electricity.TotalProduced = value
		default:
			return parseErrorf(MalformedLine, num, "unknown total direction %c", rec.sub)
		}
		acc.hasElectricity = true
		return nil
	}

	phase := int(rec.sub - '1')
	if phase < 0 || phase > 2 {
		return parseErrorf(MalformedLine, num, "phase %c out of range", rec.sub)
	}
	switch rec.disc {
	case elecVoltage:
		acc.electricity.Voltage[phase] = value
	case elecCurrent:
		acc.electricity.Current[phase] = value
	case elecPower:
		acc.electricity.Power[phase] = value
	default:
		return parseErrorf(MalformedLine, num, "unknown electricity sub-field %c", rec.disc)
	}
	acc.hasElectricity = true
	return nil
}

func (p *Parser) decodeTimestamp(token string, num int) (int64, error) {
	d, err := decodeDate(token, num)
	if err != nil {
		return 0, err
	}
	ts, err := p.epoch(d.year, d.month, d.day, d.hour, d.min, d.sec, d.daylight)
	if err != nil {
		return 0, parseErrorf(MalformedLine, num, "date token %q: %v", token, err)
	}
	return ts, nil
}
