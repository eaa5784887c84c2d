package stream

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = "100,150,01 41 42 43 \n" +
	"160,210,02 44 45 46 \n" +
	"220,290,03 47 \n"

func TestParseLog(t *testing.T) {
	records, err := ParseLog(sampleLog, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, 1, records[0].Line)
	assert.Equal(t, "100", records[0].Start)
	assert.Equal(t, "150", records[0].End)
	assert.Equal(t, "01 41 42 43 ", records[0].Payload)
	assert.Empty(t, records[0].Header)
}

func TestParseLog_HeaderOffset(t *testing.T) {
	// One header byte is logged as "XX ".
	records, err := ParseLog(sampleLog, 3)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "01 ", records[0].Header)
	assert.Equal(t, "41 42 43 ", records[0].Payload)
	assert.Equal(t, "47 ", records[2].Payload)
}

func TestParseLog_OffsetBeyondPayload(t *testing.T) {
	records, err := ParseLog("1,2,ab\n", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ab", records[0].Header)
	assert.Empty(t, records[0].Payload)
}

func TestParseLog_NegativeOffset(t *testing.T) {
	_, err := ParseLog(sampleLog, -1)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestParseLog_MalformedLine(t *testing.T) {
	text := "1,2,aa \n3,4\n5,6,bb \n"
	records, err := ParseLog(text, 0)

	var malformed *MalformedRecordError
	require.True(t, errors.As(err, &malformed), "expected MalformedRecordError, got %v", err)
	assert.Equal(t, 2, malformed.Line)
	assert.Equal(t, 2, malformed.Fields)
	assert.Contains(t, err.Error(), "line 2")
	assert.Nil(t, records, "no partial results on error")
}

func TestParseLog_TooManyFields(t *testing.T) {
	_, err := ParseLog("1,2,aa,bb\n", 0)
	var malformed *MalformedRecordError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, 1, malformed.Line)
	assert.Equal(t, 4, malformed.Fields)
}

func TestParseLog_BlankLinesAndCRLF(t *testing.T) {
	text := "1,2,aa \r\n\r\n\n3,4,bb \r\n"
	records, err := ParseLog(text, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "aa ", records[0].Payload)
	assert.Equal(t, 4, records[1].Line)
}

func TestParseLog_Empty(t *testing.T) {
	records, err := ParseLog("", 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLogRecord_Tokens(t *testing.T) {
	testCases := []struct {
		payload string
		want    []string
	}{
		{"41 42 43 ", []string{"41", "42", "43"}},
		{"41 42 43", []string{"41", "42", "43"}},
		{"", nil},
		{" ", []string{""}},
	}
	for _, tc := range testCases {
		got := LogRecord{Payload: tc.payload}.Tokens()
		assert.Equal(t, tc.want, got, "payload %q", tc.payload)
	}
}

func TestLogUnitsAndTokens(t *testing.T) {
	records, err := ParseLog(sampleLog, 3)
	require.NoError(t, err)

	units := LogUnits(Sent, records)
	assert.Equal(t, 3, units.Len())
	assert.Equal(t, OriginLogRecords, units.Origin())
	assert.Equal(t, Unit("44 45 46 "), units.At(1))

	tokens := LogTokens(Received, records)
	assert.Equal(t, OriginLogTokens, tokens.Origin())
	assert.Equal(t, Received, tokens.Role())
	assert.Equal(t, []Unit{"41", "42", "43", "44", "45", "46", "47"}, tokens.Units())
}

func TestLogRecord_Cycles(t *testing.T) {
	c, ok := LogRecord{Start: "100", End: "150"}.Cycles()
	assert.True(t, ok)
	assert.Equal(t, uint64(50), c)

	_, ok = LogRecord{Start: "x", End: "150"}.Cycles()
	assert.False(t, ok)

	_, ok = LogRecord{Start: "200", End: "150"}.Cycles()
	assert.False(t, ok)
}

func TestSpan(t *testing.T) {
	records, err := ParseLog(sampleLog, 0)
	require.NoError(t, err)

	first, last, ok := Span(records)
	assert.True(t, ok)
	assert.Equal(t, uint64(100), first)
	assert.Equal(t, uint64(290), last)

	_, _, ok = Span(nil)
	assert.False(t, ok)
}
