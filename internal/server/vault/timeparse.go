package vault

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	appcommon "github.com/dmitrijs2005/memoire/internal/common"
)

// Layouts tried in order. Layouts without a zone are read as UTC.
var unlockLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// MaxUnlockTime is 9999-12-31T23:59:59Z, the last instant whose RFC 3339
// form has a four-digit year.
const MaxUnlockTime int64 = 253402300799

// ParseUnlockTime converts an ISO-8601 instant or a decimal count of epoch
// seconds into whole epoch seconds, rounding down. Instants before the
// epoch or after MaxUnlockTime are refused.
func ParseUnlockTime(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", appcommon.ErrInvalidUnlockTime)
	}

	if isDigits(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q out of range", appcommon.ErrInvalidUnlockTime, s)
		}
		return checkMax(n, s)
	}

	for _, layout := range unlockLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err != nil {
			continue
		}
		secs := t.Unix()
		if secs < 0 {
			return 0, fmt.Errorf("%w: %q is before 1970", appcommon.ErrInvalidUnlockTime, s)
		}
		return checkMax(secs, s)
	}

	return 0, fmt.Errorf("%w: %q", appcommon.ErrInvalidUnlockTime, s)
}

// FormatUnlockTime renders epoch seconds as RFC 3339 in UTC. Parsing the
// result yields secs again.
func FormatUnlockTime(secs int64) string {
	return time.Unix(secs, 0).UTC().Format(time.RFC3339)
}

func checkMax(secs int64, s string) (int64, error) {
	if secs > MaxUnlockTime {
		return 0, fmt.Errorf("%w: %q is after 9999-12-31T23:59:59Z", appcommon.ErrInvalidUnlockTime, s)
	}
	return secs, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
