// --- Copyright © 2025 Gjorgji J. ---

package matchpattern

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// --- Matcher recovers a build timestamp from generated tag names ---
// The pattern must carry exactly one named capture group; the captured text
// is interpreted as Unix epoch seconds.
type Matcher struct {
	re    *regexp.Regexp
	group int
}

// --- compiles and validates the tag pattern before any registry call ---
// The pattern is anchored at the start of the tag, so an operator pattern
// like "main-..." never selects tags that merely contain it mid-string.
func Compile(expr string) (*Matcher, error) {
	re, err := regexp.Compile("^(?:" + expr + ")")
	if err != nil {
		return nil, fmt.Errorf("failed to compile tag pattern %q: %w", expr, err)
	}

	group := 0
	for i, name := range re.SubexpNames() {
		if name == "" {
			continue
		}
		if group != 0 {
			return nil, fmt.Errorf("tag pattern %q must contain exactly one named capture group, found %q and %q",
				expr, re.SubexpNames()[group], name)
		}
		group = i
	}
	if group == 0 {
		return nil, fmt.Errorf("tag pattern %q must contain a named capture group holding the build epoch", expr)
	}

	return &Matcher{re: re, group: group}, nil
}

// --- returns the timestamp embedded in a tag ---
// A tag that does not match the pattern, or whose captured group is not a
// positive integer, is excluded from all further consideration: it is
// neither kept nor deleted and never counts toward the keep floor.
func (m *Matcher) Extract(tag string) (time.Time, bool) {
	groups := m.re.FindStringSubmatch(tag)
	if groups == nil {
		return time.Time{}, false
	}

	epoch, err := strconv.ParseInt(groups[m.group], 10, 64)
	if err != nil || epoch <= 0 {
		return time.Time{}, false
	}

	return time.Unix(epoch, 0).UTC(), true
}
