package fingerprint

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// RangeSet is a set of build numbers. Membership is what matters; the
// canonical text form collapses contiguous runs into inclusive ranges,
// e.g. {1,2,5} serializes to "1-2,5". The empty set serializes to "".
type RangeSet map[int]struct{}

// NewRangeSet builds a set from the given build numbers.
func NewRangeSet(builds ...int) RangeSet {
	r := make(RangeSet, len(builds))
	for _, b := range builds {
		r[b] = struct{}{}
	}
	return r
}

// Add inserts a build number. Duplicates are no-ops.
func (r RangeSet) Add(build int) {
	r[build] = struct{}{}
}

// Len returns the number of distinct build numbers.
func (r RangeSet) Len() int {
	return len(r)
}

// Contains reports whether the build number is in the set.
func (r RangeSet) Contains(build int) bool {
	_, ok := r[build]
	return ok
}

// Numbers returns the build numbers in ascending order.
func (r RangeSet) Numbers() []int {
	nums := make([]int, 0, len(r))
	for n := range r {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// Equal reports set equality.
func (r RangeSet) Equal(other RangeSet) bool {
	if len(r) != len(other) {
		return false
	}
	for n := range r {
		if _, ok := other[n]; !ok {
			return false
		}
	}
	return true
}

// String returns the canonical text form: ascending, comma-separated,
// contiguous runs collapsed to "lo-hi".
func (r RangeSet) String() string {
	nums := r.Numbers()
	if len(nums) == 0 {
		return ""
	}

	var sb strings.Builder
	lo, hi := nums[0], nums[0]
	flush := func() {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		if lo == hi {
			sb.WriteString(strconv.Itoa(lo))
		} else {
			sb.WriteString(strconv.Itoa(lo))
			sb.WriteByte('-')
			sb.WriteString(strconv.Itoa(hi))
		}
	}
	for _, n := range nums[1:] {
		if n == hi+1 {
			hi = n
			continue
		}
		flush()
		lo, hi = n, n
	}
	flush()
	return sb.String()
}

// ParseRangeSet parses the canonical text form produced by String.
// Accepts single numbers ("5") and inclusive ranges ("1-3"); "" and
// whitespace-only input parse to the empty set.
func ParseRangeSet(s string) (RangeSet, error) {
	r := NewRangeSet()
	s = strings.TrimSpace(s)
	if s == "" {
		return r, nil
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("parse range set %q: empty element", s)
		}
		if n, err := strconv.Atoi(part); err == nil {
			r.Add(n)
			continue
		}
		lo, hi, ok := splitRange(part)
		if !ok {
			return nil, fmt.Errorf("parse range set %q: invalid element %q", s, part)
		}
		start, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("parse range set %q: %w", s, err)
		}
		end, err := strconv.Atoi(hi)
		if err != nil {
			return nil, fmt.Errorf("parse range set %q: %w", s, err)
		}
		if end < start {
			return nil, fmt.Errorf("parse range set %q: descending range %s", s, part)
		}
		for n := start; n <= end; n++ {
			r.Add(n)
		}
	}
	return r, nil
}

// splitRange finds the range separator in "lo-hi". A dash is a separator
// only when it follows a digit, so negative bounds like "-3--1" split on
// the middle dash rather than the sign.
func splitRange(part string) (lo, hi string, ok bool) {
	for i := 1; i < len(part); i++ {
		if part[i] == '-' && part[i-1] >= '0' && part[i-1] <= '9' {
			return part[:i], part[i+1:], true
		}
	}
	return "", "", false
}
