package rank

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Composite member ids look like <20 digits>_<original id>, where the digits
// are InvertConst minus the write time in Unix milliseconds. Equal scores are
// ordered by member bytes in the store, so a more recent write sorts first in
// ascending order. Reverse queries flip that tie-break too, so descending
// ranks are resolved per score in RecencyLeaderboard rather than by ZREVRANK.
// The format is durable: data already written depends on it.
const (
	// InvertConst is larger than any timestamp the codec accepts.
	InvertConst int64 = 99_999_999_999_999

	compositeDigits = 20
	compositeSep    = "_"
)

// EncodeMemberID builds the composite id for id written at tsMillis.
func EncodeMemberID(id string, tsMillis int64) (string, error) {
	if tsMillis < 0 || tsMillis > InvertConst {
		return "", fmt.Errorf("%w: timestamp %d outside [0, %d]", ErrInvalidArgument, tsMillis, InvertConst)
	}
	return fmt.Sprintf("%0*d%s%s", compositeDigits, InvertConst-tsMillis, compositeSep, id), nil
}

// DecodeMemberID splits a composite id back into the original id and its
// write time in Unix milliseconds.
func DecodeMemberID(composite string) (string, int64, error) {
	prefix, id, ok := strings.Cut(composite, compositeSep)
	if !ok || len(prefix) != compositeDigits {
		return "", 0, fmt.Errorf("%w: malformed composite id %q", ErrInvalidArgument, composite)
	}
	for i := 0; i < len(prefix); i++ {
		if prefix[i] < '0' || prefix[i] > '9' {
			return "", 0, fmt.Errorf("%w: malformed composite id %q", ErrInvalidArgument, composite)
		}
	}
	inverted, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil || inverted > InvertConst {
		return "", 0, fmt.Errorf("%w: composite id %q out of range", ErrInvalidArgument, composite)
	}
	return id, InvertConst - inverted, nil
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
