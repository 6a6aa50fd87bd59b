package dsmr

import (
	"strconv"
	"time"
)

// EpochFunc converts a calendar date plus daylight-saving flag into signed
// seconds since the Unix epoch. Implementations must reject impossible
// calendar dates (e.g. day 31 in a 30-day month). The parser treats the
// function as opaque and fails the whole parse when it fails.
type EpochFunc func(year, month, day, hour, min, sec int, daylight bool) (int64, error)

// Date token layout: "YY-Mon-DD HH:MM:SS" followed by a one-character
// daylight indicator, 19 bytes total. Fields are declared as offset/length
// spans consumed by a validating scanner.
const dateTokenLen = 19

type span struct {
	off, len int
}

var (
	spanYear  = span{0, 2}
	spanMonth = span{3, 3}
	spanDay   = span{7, 2}
	spanHour  = span{10, 2}
	spanMin   = span{13, 2}
	spanSec   = span{16, 2}
)

var dateSeps = []struct {
	off  int
	want byte
}{
	{2, '-'},
	{6, '-'},
	{9, ' '},
	{12, ':'},
	{15, ':'},
}

// calendarDate is a decoded date token, before epoch conversion.
type calendarDate struct {
	year, month, day int
	hour, min, sec   int
	daylight         bool
}

// decodeDate scans a fixed-width date token such as "23-Jan-05 10:20:30S".
// Years are relative to 2000. The trailing byte is the daylight indicator:
// 'S' means daylight time, anything else standard time.
func decodeDate(token string, num int) (calendarDate, error) {
	if len(token) != dateTokenLen {
		return calendarDate{}, parseErrorf(MalformedLine, num, "date token %q is %d bytes, want %d", token, len(token), dateTokenLen)
	}
	for _, s := range dateSeps {
		if token[s.off] != s.want {
			return calendarDate{}, parseErrorf(MalformedLine, num, "date token %q: expected %q at offset %d", token, s.want, s.off)
		}
	}

	month := monthNumber(token[spanMonth.off : spanMonth.off+spanMonth.len])
	if month == 0 {
		return calendarDate{}, parseErrorf(MalformedLine, num, "date token %q: unknown month name", token)
	}

	d := calendarDate{month: month, daylight: token[dateTokenLen-1] == 'S'}
	for _, f := range []struct {
		s   span
		dst *int
	}{
		{spanYear, &d.year},
		{spanDay, &d.day},
		{spanHour, &d.hour},
		{spanMin, &d.min},
		{spanSec, &d.sec},
	} {
		n, err := strconv.Atoi(token[f.s.off : f.s.off+f.s.len])
		if err != nil {
			return calendarDate{}, parseErrorf(MalformedLine, num, "date token %q: non-numeric field at offset %d", token, f.s.off)
		}
		*f.dst = n
	}
	d.year += 2000
	return d, nil
}

// monthNumber maps a three-letter month name to its number, or 0 when the
// name is unknown. The first two letters select the month; the third
// disambiguates Mar/May and Jun/Jul.
func monthNumber(name string) int {
	switch name[:2] {
	case "Ja":
		return 1
	case "Fe":
		return 2
	case "Ma":
		if name[2] == 'y' {
			return 5
		}
		return 3
	case "Ap":
		return 4
	case "Ju":
		if name[2] == 'n' {
			return 6
		}
		return 7
	case "Au":
		return 8
	case "Se":
		return 9
	case "Oc":
		return 10
	case "No":
		return 11
	case "De":
		return 12
	default:
		return 0
	}
}

// DateToTimestamp is the default EpochFunc. The meter reports local time:
// UTC+2 when the daylight flag is set, UTC+1 otherwise. It fails when the
// calendar date does not exist.
func DateToTimestamp(year, month, day, hour, min, sec int, daylight bool) (int64, error) {
	if month < 1 || month > 12 {
		return 0, parseErrorf(MalformedLine, 0, "month %d out of range", month)
	}
	if day < 1 || day > daysInMonth(month, year) {
		return 0, parseErrorf(MalformedLine, 0, "day %d does not exist in month %d of %d", day, month, year)
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 || sec < 0 || sec > 59 {
		return 0, parseErrorf(MalformedLine, 0, "time %02d:%02d:%02d out of range", hour, min, sec)
	}

	offset := int64(3600)
	if daylight {
		offset = 7200
	}
	utc := time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC)
	return utc.Unix() - offset, nil
}

func daysInMonth(month, year int) int {
	switch month {
	case 4, 6, 9, 11:
		return 30
	case 2:
		if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
			return 29
		}
		return 28
	default:
		return 31
	}
}
