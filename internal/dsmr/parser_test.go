package dsmr

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2023-01-05 10:20:30 daylight time is 08:20:30 UTC.
const knownTimestamp = 1672906830

const goodTelegram = `1.1.0 (START)
2.1.0 (23-Jan-05 10:20:30S)
3.3.2 (23-Jan-05 10:20:30S)
3.1.2 (H)
3.2.2 (4142)
3.1.1 (L)
3.2.1 (48656C6C6F)
3.3.1 (23-Jan-05 09:15:00S)
4.1.0 (E)
7.1.1 (230.1*V)
7.1.2 (231.2*V)
7.1.3 (229.9*V)
7.2.1 (1.5*A)
7.2.2 (1.6*A)
7.2.3 (1.4*A)
7.3.1 (0.35*kW)
7.3.2 (0.40*kW)
7.3.3 (0.30*kW)
7.4.1 (12345.678*kWh)
7.4.2 (2345.1*kWh)
1.2.0 (END)
`

func stream(body string) string {
	return "#v10\n" + body
}

func TestParseSingleTelegram(t *testing.T) {
	telegrams, err := Parse(stream(goodTelegram))
	require.NoError(t, err)
	require.Len(t, telegrams, 1)

	tel := telegrams[0]
	assert.Equal(t, int64(knownTimestamp), tel.Timestamp)

	assert.Equal(t, [3]float64{230.1, 231.2, 229.9}, tel.Electricity.Voltage)
	assert.Equal(t, [3]float64{1.5, 1.6, 1.4}, tel.Electricity.Current)
	assert.Equal(t, [3]float64{0.35, 0.40, 0.30}, tel.Electricity.Power)
	assert.Equal(t, 12345.678, tel.Electricity.TotalConsumed)
	assert.Equal(t, 2345.1, tel.Electricity.TotalProduced)

	// Sub-fields for id 2 arrive before those for id 1; entries must still
	// come out in ascending id order.
	require.Len(t, tel.EventLog, 2)
	assert.Equal(t, 1, tel.EventLog[0].ID)
	assert.Equal(t, SeverityLow, tel.EventLog[0].Severity)
	assert.Equal(t, "Hello", tel.EventLog[0].Message)
	assert.Equal(t, 2, tel.EventLog[1].ID)
	assert.Equal(t, SeverityHigh, tel.EventLog[1].Severity)
	assert.Equal(t, "AB", tel.EventLog[1].Message)
	assert.Equal(t, int64(knownTimestamp), tel.EventLog[1].Timestamp)
}

func TestParseMultipleTelegrams(t *testing.T) {
	input := stream(strings.Repeat(goodTelegram, 3))
	telegrams, err := Parse(input)
	require.NoError(t, err)
	assert.Len(t, telegrams, 3)
}

func TestParseHeaderOnly(t *testing.T) {
	telegrams, err := Parse("#v10\n")
	require.NoError(t, err)
	assert.Empty(t, telegrams)
}

func TestParseLastWriteWins(t *testing.T) {
	body := `1.1.0 (START)
2.1.0 (23-Jan-05 10:20:30S)
4.1.0 (E)
7.1.1 (230.1*V)
7.1.1 (240.5*V)
1.2.0 (END)
`
	telegrams, err := Parse(stream(body))
	require.NoError(t, err)
	require.Len(t, telegrams, 1)
	assert.Equal(t, 240.5, telegrams[0].Electricity.Voltage[0])
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  ErrorKind
	}{
		{
			name:  "unknown version",
			input: "#v12\n" + goodTelegram,
			kind:  UnknownTelegramVersion,
		},
		{
			name:  "empty input",
			input: "",
			kind:  UnknownTelegramVersion,
		},
		{
			name: "electricity before info type",
			input: stream(`1.1.0 (START)
2.1.0 (23-Jan-05 10:20:30S)
7.1.1 (230.1*V)
`),
			kind: MissingElectricity,
		},
		{
			name: "telegram without electricity",
			input: stream(`1.1.0 (START)
2.1.0 (23-Jan-05 10:20:30S)
4.1.0 (E)
1.2.0 (END)
`),
			kind: MissingElectricity,
		},
		{
			name: "duplicate info type",
			input: stream(`1.1.0 (START)
2.1.0 (23-Jan-05 10:20:30S)
4.1.0 (E)
4.1.0 (E)
`),
			kind: DuplicateFieldID,
		},
		{
			name: "telegram without date",
			input: stream(`1.1.0 (START)
4.1.0 (E)
7.1.1 (230.1*V)
1.2.0 (END)
`),
			kind: NoDate,
		},
		{
			name: "child telegram",
			input: stream(`1.1.1 (START)
` + goodTelegram),
			kind: ChildTelegramNotSupported,
		},
		{
			name: "malformed date token",
			input: stream(`1.1.0 (START)
2.1.0 (23-Jan-5 10:20:30S)
`),
			kind: MalformedLine,
		},
		{
			name: "impossible calendar date",
			input: stream(`1.1.0 (START)
2.1.0 (23-Apr-31 10:20:30S)
`),
			kind: MalformedLine,
		},
		{
			name: "odd-length event message",
			input: stream(`1.1.0 (START)
3.2.1 (414)
`),
			kind: MalformedLine,
		},
		{
			name: "duplicate event severity",
			input: stream(`1.1.0 (START)
3.1.1 (H)
3.1.1 (L)
`),
			kind: MalformedLine,
		},
		{
			name: "event missing message",
			input: stream(`1.1.0 (START)
2.1.0 (23-Jan-05 10:20:30S)
3.1.1 (H)
3.3.1 (23-Jan-05 10:20:30S)
4.1.0 (E)
7.1.1 (230.1*V)
1.2.0 (END)
`),
			kind: IncompleteEvent,
		},
		{
			name: "measurement without unit",
			input: stream(`1.1.0 (START)
4.1.0 (E)
7.1.1 (230.1)
`),
			kind: MalformedLine,
		},
		{
			name: "phase out of range",
			input: stream(`1.1.0 (START)
4.1.0 (E)
7.1.4 (230.1*V)
`),
			kind: MalformedLine,
		},
		{
			name: "truncated record",
			input: stream(`1.1.0 (START)
7.1
`),
			kind: MalformedLine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			telegrams, err := Parse(tt.input)
			require.Error(t, err)
			assert.Nil(t, telegrams)

			var perr *ParseError
			require.True(t, errors.As(err, &perr), "expected *ParseError, got %T", err)
			assert.Equal(t, tt.kind, perr.Kind, "unexpected kind in %v", perr)
		})
	}
}

func TestParseIgnoresUnknownTags(t *testing.T) {
	body := `1.1.0 (START)
2.1.0 (23-Jan-05 10:20:30S)
5.0.0 (gas meter, not ours)
9 whatever this is
4.1.0 (E)
7.1.1 (230.1*V)
1.2.0 (END)
`
	telegrams, err := Parse(stream(body))
	require.NoError(t, err)
	assert.Len(t, telegrams, 1)
}

func TestParseSkipsBlankLines(t *testing.T) {
	body := "1.1.0 (START)\n\n2.1.0 (23-Jan-05 10:20:30S)\n\r\n4.1.0 (E)\n7.1.1 (230.1*V)\n1.2.0 (END)\n"
	telegrams, err := Parse(stream(body))
	require.NoError(t, err)
	assert.Len(t, telegrams, 1)
}

func TestParseDeterminism(t *testing.T) {
	input := stream(strings.Repeat(goodTelegram, 2))

	first, err := Parse(input)
	require.NoError(t, err)
	second, err := Parse(input)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestParseEpochFailureFailsParse(t *testing.T) {
	p := NewParserWithEpoch(func(year, month, day, hour, min, sec int, daylight bool) (int64, error) {
		return 0, errors.New("no calendar here")
	})
	_, err := p.Parse(stream(goodTelegram))
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, MalformedLine, perr.Kind)
}
