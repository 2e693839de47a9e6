// Package clf parses web server access logs in the Common Log Format.
//
// The parser is a pure function over single lines: it either yields a fully
// populated Record or reports that the line does not conform. It holds no
// state and is safe for concurrent use, so callers are free to fan lines out
// across as many goroutines as they like.
package clf

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// linePattern decomposes one access-log line into its nine fields. It is
// anchored at the start of the line only; trailing content beyond the last
// capture group (extra fields, stray whitespace) is tolerated, matching the
// behavior of the log format this was lifted from.
var linePattern = regexp.MustCompile(`^(\S+) (\S+) (\S+) \[([\w:/]+\s[+\-]\d{4})\] "(\S+) (\S+) (\S+)" (\d{3}) (\d+)`)

// ErrNoMatch reports that a line does not conform to the Common Log Format.
var ErrNoMatch = errors.New("line does not match common log format")

// ParseError carries the offending line alongside the underlying cause.
// It unwraps to ErrNoMatch so callers can test with errors.Is.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("clf: parse %q: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Record is one parsed access-log line. It is an immutable value with no
// identity; the Datetime field is kept as raw text rather than parsed into a
// time.Time, since downstream consumers group and join on the raw token.
type Record struct {
	IPAddress    string `json:"ipaddress"`
	ClientIdentd string `json:"client_identd"`
	UserID       string `json:"user_id"`
	Datetime     string `json:"datetime"`
	Method       string `json:"method"`
	Endpoint     string `json:"endpoint"`
	Protocol     string `json:"protocol"`
	ResponseCode int    `json:"response_code"`
	ContentSize  int64  `json:"content_size"`
}

// Parse attempts to decompose a single line into a Record.
//
// The whole line either matches and yields exactly nine fields, or it does
// not match at all; partial matches never produce a partially populated
// Record. On failure Parse returns a *ParseError wrapping ErrNoMatch.
func Parse(line string) (Record, error) {
	groups := linePattern.FindStringSubmatch(line)
	if groups == nil {
		return Record{}, &ParseError{Line: line, Err: ErrNoMatch}
	}

	// The pattern's digit-only groups should make these conversions
	// infallible, but a coercion failure must still surface as a non-match
	// rather than a fault.
	code, err := strconv.Atoi(groups[8])
	if err != nil {
		return Record{}, &ParseError{Line: line, Err: fmt.Errorf("%w: response code: %v", ErrNoMatch, err)}
	}
	size, err := strconv.ParseInt(groups[9], 10, 64)
	if err != nil {
		return Record{}, &ParseError{Line: line, Err: fmt.Errorf("%w: content size: %v", ErrNoMatch, err)}
	}

	return Record{
		IPAddress:    groups[1],
		ClientIdentd: groups[2],
		UserID:       groups[3],
		Datetime:     groups[4],
		Method:       groups[5],
		Endpoint:     groups[6],
		Protocol:     groups[7],
		ResponseCode: code,
		ContentSize:  size,
	}, nil
}
