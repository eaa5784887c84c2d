package stream

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	fieldDelimiter = ","
	tokenDelimiter = " "
)

// LogRecord is one line of a packet log: "start,end,payload".
type LogRecord struct {
	Line    int    // 1-based line number
	Start   string // timestamp as logged (TSC cycles for the C endpoints)
	End     string
	Header  string // leading bytes removed from the payload
	Payload string // payload after header trimming
}

// Cycles returns end-start when both timestamps are unsigned integers.
func (r LogRecord) Cycles() (uint64, bool) {
	start, err := strconv.ParseUint(strings.TrimSpace(r.Start), 10, 64)
	if err != nil {
		return 0, false
	}
	end, err := strconv.ParseUint(strings.TrimSpace(r.End), 10, 64)
	if err != nil || end < start {
		return 0, false
	}
	return end - start, true
}

// Tokens splits the payload on single spaces. A trailing empty token left by
// a trailing delimiter is dropped.
func (r LogRecord) Tokens() []string {
	if r.Payload == "" {
		return nil
	}
	tokens := strings.Split(r.Payload, tokenDelimiter)
	if tokens[len(tokens)-1] == "" {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

// ParseLog splits text into records. Empty lines are skipped (including
// the one after a final newline) but still count towards line numbers.
// headerOffset bytes are moved from the front of every payload into Header.
// A line without exactly three fields aborts parsing with a
// *MalformedRecordError and no records are returned.
func ParseLog(text string, headerOffset int) ([]LogRecord, error) {
	if headerOffset < 0 {
		return nil, fmt.Errorf("header offset must not be negative, got %d: %w", headerOffset, ErrInvalidArgument)
	}

	lines := strings.Split(text, "\n")
	records := make([]LogRecord, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}

		fields := strings.Split(line, fieldDelimiter)
		if len(fields) != 3 {
			return nil, &MalformedRecordError{Line: i + 1, Fields: len(fields), Text: line}
		}

		payload := fields[2]
		cut := headerOffset
		if cut > len(payload) {
			cut = len(payload)
		}
		records = append(records, LogRecord{
			Line:    i + 1,
			Start:   fields[0],
			End:     fields[1],
			Header:  payload[:cut],
			Payload: payload[cut:],
		})
	}
	return records, nil
}

// LogUnits returns one unit per record: its trimmed payload.
func LogUnits(role Role, records []LogRecord) Sequence {
	units := make([]Unit, len(records))
	for i, r := range records {
		units[i] = Unit(r.Payload)
	}
	return Sequence{role: role, origin: OriginLogRecords, units: units}
}

// LogTokens flattens the payload tokens of all records into one sequence.
func LogTokens(role Role, records []LogRecord) Sequence {
	var units []Unit
	for _, r := range records {
		for _, tok := range r.Tokens() {
			units = append(units, Unit(tok))
		}
	}
	return Sequence{role: role, origin: OriginLogTokens, units: units}
}

// Span returns the first start and last end timestamp of a log, for
// duration estimates. ok is false when the log is empty or the timestamps
// are not integers.
func Span(records []LogRecord) (first, last uint64, ok bool) {
	if len(records) == 0 {
		return 0, 0, false
	}
	first, err := strconv.ParseUint(strings.TrimSpace(records[0].Start), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	last, err = strconv.ParseUint(strings.TrimSpace(records[len(records)-1].End), 10, 64)
	if err != nil || last < first {
		return 0, 0, false
	}
	return first, last, true
}
