// Package timecode converts human-readable time-code strings into
// second offsets. A time code is one or more ":"-separated numeric
// fields; fields are weighted right-to-left by powers of 60, so
// "1:02:03.5" is 1 hour, 2 minutes and 3.5 seconds.
package timecode

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports a time code that could not be converted.
type ParseError struct {
	Code  string
	Field string
}

func (e *ParseError) Error() string {
	if strings.TrimSpace(e.Code) == "" {
		return "timecode: empty time code"
	}
	return fmt.Sprintf("timecode: invalid field %q in time code %q", e.Field, e.Code)
}

// Parse converts a time code into a number of seconds. A code with no
// separator is read as plain seconds. Negative field values are
// accepted; range checking against a video duration is the caller's
// concern.
func Parse(code string) (float64, error) {
	if strings.TrimSpace(code) == "" {
		return 0, &ParseError{Code: code}
	}

	fields := strings.Split(strings.TrimSpace(code), ":")

	var seconds float64
	weight := 1.0
	for i := len(fields) - 1; i >= 0; i-- {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		if err != nil {
			return 0, &ParseError{Code: code, Field: fields[i]}
		}
		seconds += v * weight
		weight *= 60
	}
	return seconds, nil
}
