package ingest

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tracetree/tracetree/internal/proto"
)

var (
	ErrMissingSession = errors.New("missing session id")
	ErrInvalidJSON    = errors.New("invalid JSON")
	ErrInvalidTime    = errors.New("invalid timestamp")
	ErrInvalidTrace   = errors.New("invalid call trace")
)

// LineError reports a line that could not be turned into a record.
type LineError struct {
	Source string
	Line   int
	Err    error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// ReadResult contains the parsed records and non-fatal warnings.
type ReadResult struct {
	Records  []proto.Record
	Warnings []error
}

// ReadRecords parses one JSON object per line from r. Blank lines are
// skipped; lines that do not parse are reported as warnings and skipped.
// source only labels warnings.
func ReadRecords(r io.Reader, source string, fields Fields) (ReadResult, error) {
	fields = fields.WithDefaults()

	var result ReadResult
	scanner := newScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		rec, err := parseRecord(raw, fields)
		if err != nil {
			result.Warnings = append(result.Warnings, &LineError{Source: source, Line: line, Err: err})
			continue
		}
		result.Records = append(result.Records, rec)
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("scan %s: %w", source, err)
	}
	return result, nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	const maxCapacity = 8 * 1024 * 1024
	buf := make([]byte, 1024)
	scanner.Buffer(buf, maxCapacity)
	return scanner
}

func parseRecord(raw []byte, fields Fields) (proto.Record, error) {
	if !gjson.ValidBytes(raw) {
		return proto.Record{}, ErrInvalidJSON
	}

	results := gjson.GetManyBytes(raw, fields.Session, fields.Time, fields.Trace)
	session, ts, tr := results[0], results[1], results[2]

	rec := proto.Record{SessionID: session.String()}
	if rec.SessionID == "" {
		return proto.Record{}, ErrMissingSession
	}

	var err error
	if rec.Timestamp, err = parseTime(ts); err != nil {
		return proto.Record{}, err
	}
	if rec.Trace, err = parseTrace(tr); err != nil {
		return proto.Record{}, err
	}
	return rec, nil
}

// parseTime accepts a non-negative integer or an RFC 3339 string, which is
// converted to Unix milliseconds. A missing timestamp is zero.
func parseTime(v gjson.Result) (uint64, error) {
	switch v.Type {
	case gjson.Null:
		return 0, nil
	case gjson.Number:
		if v.Num < 0 || v.Num != math.Trunc(v.Num) {
			return 0, fmt.Errorf("%w: %s", ErrInvalidTime, v.Raw)
		}
		return v.Uint(), nil
	case gjson.String:
		t, err := time.Parse(time.RFC3339Nano, v.Str)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidTime, err)
		}
		if t.UnixMilli() < 0 {
			return 0, fmt.Errorf("%w: %s before epoch", ErrInvalidTime, v.Str)
		}
		return uint64(t.UnixMilli()), nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrInvalidTime, v.Raw)
	}
}

// parseTrace accepts an array of sibling indices. A missing trace denotes
// the root call.
func parseTrace(v gjson.Result) ([]uint32, error) {
	if v.Type == gjson.Null {
		return nil, nil
	}
	if !v.IsArray() {
		return nil, fmt.Errorf("%w: not an array: %s", ErrInvalidTrace, v.Raw)
	}

	elems := v.Array()
	path := make([]uint32, 0, len(elems))
	for i, e := range elems {
		if e.Type != gjson.Number || e.Num < 0 || e.Num >= math.MaxUint32 || e.Num != math.Trunc(e.Num) {
			return nil, fmt.Errorf("%w: entry %d: %s", ErrInvalidTrace, i, e.Raw)
		}
		path = append(path, uint32(e.Uint()))
	}
	return path, nil
}
