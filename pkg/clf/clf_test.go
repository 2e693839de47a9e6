package clf

import (
	"errors"
	"testing"
)

func TestParse_ValidLine(t *testing.T) {
	line := `10.0.0.213 - 2185662 [14/Aug/2015:00:05:15 -0800] "GET /Hurricane+Ridge/rss.xml HTTP/1.1" 200 288`

	rec, err := Parse(line)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := Record{
		IPAddress:    "10.0.0.213",
		ClientIdentd: "-",
		UserID:       "2185662",
		Datetime:     "14/Aug/2015:00:05:15 -0800",
		Method:       "GET",
		Endpoint:     "/Hurricane+Ridge/rss.xml",
		Protocol:     "HTTP/1.1",
		ResponseCode: 200,
		ContentSize:  288,
	}
	if rec != want {
		t.Errorf("record mismatch:\n got %+v\nwant %+v", rec, want)
	}
}

func TestParse_Idempotent(t *testing.T) {
	line := `127.0.0.1 - frank [10/Oct/2000:13:55:36 -0700] "GET /apache_pb.gif HTTP/1.0" 200 2326`

	first, err1 := Parse(line)
	second, err2 := Parse(line)
	if err1 != nil || err2 != nil {
		t.Fatalf("expected no errors, got %v, %v", err1, err2)
	}
	if first != second {
		t.Errorf("parsing the same line twice gave different records: %+v vs %+v", first, second)
	}
}

func TestParse_TrailingContentTolerated(t *testing.T) {
	// Content beyond the last captured field is ignored, not an error.
	line := `10.0.0.1 - - [14/Aug/2015:00:05:15 -0800] "GET / HTTP/1.1" 404 0 "http://referer" "Mozilla/5.0"`

	rec, err := Parse(line)
	if err != nil {
		t.Fatalf("expected trailing content to be tolerated, got %v", err)
	}
	if rec.ResponseCode != 404 || rec.ContentSize != 0 {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestParse_ZeroContentSize(t *testing.T) {
	line := `10.0.0.1 - - [14/Aug/2015:00:05:15 -0800] "HEAD /index.html HTTP/1.1" 304 0`

	rec, err := Parse(line)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.ContentSize != 0 {
		t.Errorf("expected content size 0, got %d", rec.ContentSize)
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"Empty Line", ""},
		{"Missing Closing Bracket", `10.0.0.1 - - [14/Aug/2015:00:05:15 -0800 "GET / HTTP/1.1" 200 288`},
		{"Two Digit Status", `10.0.0.1 - - [14/Aug/2015:00:05:15 -0800] "GET / HTTP/1.1" 20 288`},
		{"Four Digit Status Short Size", `10.0.0.1 - - [14/Aug/2015:00:05:15 -0800] "GET / HTTP/1.1" 2000`},
		{"Missing Quoted Request", `10.0.0.1 - - [14/Aug/2015:00:05:15 -0800] GET / HTTP/1.1 200 288`},
		{"Plain Text", "not an access log line"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.line)
			if err == nil {
				t.Fatal("expected an error, got nil")
			}
			if !errors.Is(err, ErrNoMatch) {
				t.Errorf("expected ErrNoMatch, got %v", err)
			}

			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected a *ParseError, got %T", err)
			}
			if parseErr.Line != tt.line {
				t.Errorf("ParseError should carry the offending line: got %q, want %q", parseErr.Line, tt.line)
			}
		})
	}
}

func TestParse_FourDigitStatusWithTrailingDigitRuns(t *testing.T) {
	// A 4-digit status cannot satisfy the 3-digit group followed by a space.
	line := `10.0.0.1 - - [14/Aug/2015:00:05:15 -0800] "GET / HTTP/1.1" 2000 288`

	if _, err := Parse(line); !errors.Is(err, ErrNoMatch) {
		t.Errorf("expected ErrNoMatch for 4-digit status, got %v", err)
	}
}
