// --- Copyright © 2025 Gjorgji J. ---

package parsegrace

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// --- accepted grace syntax: hours, minutes and seconds, in that order ---
// Valid examples: "48hr", "3600s", "24hr30m".
var graceRegexp = regexp.MustCompile(`^((?P<hours>\d+)hr)?((?P<minutes>\d+)m)?((?P<seconds>\d+)s)?$`)

// --- parses a human-readable grace duration ---
// An empty expression means no grace period.
func Parse(expr string) (time.Duration, error) {
	if expr == "" {
		return 0, nil
	}

	groups := graceRegexp.FindStringSubmatch(expr)
	if groups == nil {
		return 0, fmt.Errorf("invalid grace duration %q", expr)
	}

	var grace time.Duration
	matched := false
	for i, name := range graceRegexp.SubexpNames() {
		if name == "" || groups[i] == "" {
			continue
		}
		value, err := strconv.Atoi(groups[i])
		if err != nil {
			return 0, fmt.Errorf("invalid grace duration %q: %w", expr, err)
		}
		matched = true
		switch name {
		case "hours":
			grace += time.Duration(value) * time.Hour
		case "minutes":
			grace += time.Duration(value) * time.Minute
		case "seconds":
			grace += time.Duration(value) * time.Second
		}
	}
	if !matched {
		return 0, fmt.Errorf("invalid grace duration %q", expr)
	}

	return grace, nil
}
