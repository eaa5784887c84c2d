package stream

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned for nonsensical extraction parameters such
// as a non-positive payload size.
var ErrInvalidArgument = errors.New("invalid argument")

// MalformedRecordError reports a log line that does not split into exactly
// start, end and payload fields.
type MalformedRecordError struct {
	Line   int // 1-based line number in the log text
	Fields int
	Text   string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record at line %d: expected 3 fields, got %d", e.Line, e.Fields)
}
