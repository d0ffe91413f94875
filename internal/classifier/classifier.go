// Package classifier decides which differ candidates are worth swapping
// between two sessions, using name/value heuristics plus a timestamp and
// float override.
package classifier

import (
	"strconv"
	"strings"
	"time"

	"github.com/saiid2001/vsf-analyzer/internal/constants"
	"github.com/saiid2001/vsf-analyzer/internal/patterns"
)

// SessionIdentity carries the identity-bearing fields of a session's
// account metadata, used to build the identity-keyword list.
type SessionIdentity struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
}

// Keywords returns the non-empty, lower-cased identity fields. An empty
// field is excluded rather than kept as a keyword, since an empty-string
// keyword would substring-match every value.
func (s SessionIdentity) Keywords() []string {
	var out []string
	for _, v := range []string{s.Username, s.Email, s.FirstName, s.LastName} {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// IdentityKeywords merges the keyword sets of two sessions, deduplicating.
func IdentityKeywords(a, b SessionIdentity) []string {
	seen := map[string]bool{}
	var out []string
	for _, kw := range append(a.Keywords(), b.Keywords()...) {
		if !seen[kw] {
			seen[kw] = true
			out = append(out, kw)
		}
	}
	return out
}

// Decision is the full record of a should-swap evaluation, kept for every
// variable considered (not just the swappable ones) so a reviewer can see
// why a variable was rejected.
type Decision struct {
	Swap              bool
	IgnoredNameRule    bool
	MatchingNameRule   bool
	MatchingValueRule  bool
	ExtraReason        string
}

// ShouldSwap evaluates whether name/value is worth swapping between two
// captured sessions, given the pattern rules and merged identity keywords.
func ShouldSwap(name, value string, rules *patterns.Rules, identityKeywords []string) Decision {
	if l := len(value); l < constants.MinSwapValueLen || l > constants.MaxSwapValueLen {
		return Decision{Swap: false}
	}

	if rules.VariableNameIgnore.Matches(name, false) {
		return Decision{Swap: false, IgnoredNameRule: true}
	}

	matchingName := rules.VariableNameSwap.Matches(name, false)
	matchingValue := rules.VariableValueSwap.Matches(value, false)

	d := Decision{MatchingNameRule: matchingName, MatchingValueRule: matchingValue}
	d.Swap = matchingName || matchingValue

	if !d.Swap && matchesIdentity(value, identityKeywords) {
		d.Swap = true
		d.ExtraReason = "matches_identity"
	}

	if d.Swap && isTimestamp(value) {
		d.Swap = false
		d.ExtraReason = "is_timestamp"
		return d
	}

	if d.Swap && isFloatNotInt(value) {
		d.Swap = false
		d.ExtraReason = "is_float"
	}

	return d
}

func matchesIdentity(value string, keywords []string) bool {
	lower := strings.ToLower(value)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// isTimestamp reports whether value parses as an integer interpretable as
// a Unix seconds- or milliseconds-epoch whose year falls strictly between
// 1990 and 2050.
func isTimestamp(value string) bool {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return false
	}
	if yearInRange(time.Unix(n, 0).UTC().Year()) {
		return true
	}
	return yearInRange(time.UnixMilli(n).UTC().Year())
}

func yearInRange(year int) bool {
	return year > constants.TimestampMinYear && year < constants.TimestampMaxYear
}

// isFloatNotInt reports whether value parses as a float but not as an
// integer, and is within the reject ceiling.
func isFloatNotInt(value string) bool {
	if _, err := strconv.ParseInt(value, 10, 64); err == nil {
		return false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return false
	}
	return f <= constants.FloatRejectCeiling
}
