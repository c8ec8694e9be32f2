package signal

import (
	"strings"
)

// Probe reports a value when its source has a usable one.
type Probe func() (int, bool)

// First evaluates probes in order and returns the first value reported.
// The name of the winning probe is returned for diagnostics.
func First(probes ...NamedProbe) (int, string, bool) {
	for _, p := range probes {
		if v, ok := p.Probe(); ok {
			return v, p.Name, true
		}
	}
	return 0, "", false
}

// NamedProbe pairs a probe with a source name used in logs.
type NamedProbe struct {
	Name  string
	Probe Probe
}

// ParsePositive reads the leading integer of s the way a lenient form parser
// would: surrounding whitespace and an optional '+' are skipped, trailing
// garbage is ignored. Zero, negative and non-numeric inputs report false.
func ParsePositive(s string) (int, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "+")

	n := 0
	digits := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		digits++
		// Page numbers never get this large; stop before overflow.
		if n > 1_000_000_000 {
			return 0, false
		}
	}
	if digits == 0 || n <= 0 {
		return 0, false
	}
	return n, true
}

// positive adapts a raw integer to a probe result.
func positive(n int) (int, bool) {
	if n <= 0 {
		return 0, false
	}
	return n, true
}
