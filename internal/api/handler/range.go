package handler

import (
	"strconv"
	"strings"
)

// parseByteRange parses a client Range header of the form
// "bytes=<start>-<end?>" into an inclusive window; end is -1 when the
// range is open-ended. Suffix ranges ("bytes=-500"), multiple ranges, and
// other units are reported as unparseable so callers forward them to the
// origin untouched.
func parseByteRange(h string) (int64, int64, bool) {
	const prefix = "bytes="
	if !strings.HasPrefix(h, prefix) {
		return 0, 0, false
	}

	spec := strings.TrimPrefix(h, prefix)
	if strings.Contains(spec, ",") {
		return 0, 0, false
	}

	first, last, found := strings.Cut(spec, "-")
	if !found {
		return 0, 0, false
	}
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)

	if first == "" {
		return 0, 0, false
	}
	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil || start < 0 {
		return 0, 0, false
	}

	if last == "" {
		return start, -1, true
	}
	end, err := strconv.ParseInt(last, 10, 64)
	if err != nil || end < start {
		return 0, 0, false
	}

	return start, end, true
}
