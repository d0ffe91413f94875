// Package differ produces per-location variable candidates by structurally
// comparing two captured requests.
package differ

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/saiid2001/vsf-analyzer/internal/constants"
	"github.com/saiid2001/vsf-analyzer/internal/normalize"
	"github.com/saiid2001/vsf-analyzer/internal/patterns"
	"github.com/saiid2001/vsf-analyzer/internal/reqmodel"
)

// ErrOutOfScope is returned when the pair cannot be structurally compared
// at all: the URL paths have different segment counts.
var ErrOutOfScope = errors.New("differ: request pair is out of scope")

// ErrIncomparableHeaders is returned when the header diff spans more than
// one top-level kind of change (added, removed, and changed keys at once);
// callers downgrade this to "try manual" rather than failing the candidate.
var ErrIncomparableHeaders = errors.New("differ: header diff structurally incomparable")

// Candidate is a single location's observed value pair for one variable
// name, before classification.
type Candidate struct {
	Value1 string
	Value2 string
}

// Location names the four independently-diffed parts of a request.
type Location string

const (
	LocationURLPath Location = "url_path"
	LocationQuery   Location = "query"
	LocationHeaders Location = "header"
	LocationBody    Location = "body"
)

// Result is the output of Diff: a map of variable name to candidate, per
// location, plus a signal that the body (or headers) needs manual review.
type Result struct {
	Variables map[Location]map[string]Candidate
	TryManual bool
}

// Diff compares two RequestInstances and returns the variable candidates
// found in each location. It returns ErrOutOfScope when the request pair
// cannot be structurally compared at all.
func Diff(a, b reqmodel.RequestInstance, rules *patterns.Rules) (Result, error) {
	segA, segB := a.PathSegments(), b.PathSegments()
	if len(segA) != len(segB) {
		return Result{}, ErrOutOfScope
	}

	result := Result{Variables: map[Location]map[string]Candidate{
		LocationURLPath: {},
		LocationQuery:   {},
		LocationHeaders: {},
		LocationBody:    {},
	}}

	for i := range segA {
		if segA[i] != segB[i] {
			name := normalize.VariableName(fmt.Sprintf("url_%d", i))
			result.Variables[LocationURLPath][name] = Candidate{Value1: segA[i], Value2: segB[i]}
		}
	}

	result.Variables[LocationQuery] = diffMapping(
		filterMapping(normalize.Mapping(a.Query).(map[string]any), rules.QueryNameIgnore),
		filterMapping(normalize.Mapping(b.Query).(map[string]any), rules.QueryNameIgnore),
	)

	headerVars, err := diffHeaders(a.Headers, b.Headers, rules)
	if err != nil {
		result.TryManual = true
	} else {
		result.Variables[LocationHeaders] = headerVars
	}

	bodyVars, tryManual := diffBody(a.Body, b.Body)
	result.Variables[LocationBody] = bodyVars
	if tryManual {
		result.TryManual = true
	}

	postFilter(result.Variables)

	return result, nil
}

// ShouldProcess implements the preflight check: a pair is skipped when the
// two instances' URL paths and bodies are already identical, or when their
// path-segment counts differ.
func ShouldProcess(a, b reqmodel.RequestInstance) bool {
	if len(a.PathSegments()) != len(b.PathSegments()) {
		return false
	}
	bodyA, _ := a.Body.Compile()
	bodyB, _ := b.Body.Compile()
	if a.URLPath == b.URLPath && bodyA == bodyB {
		return false
	}
	return true
}

func filterMapping(m map[string]any, ignore *patterns.List) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if ignore.Matches(normalize.Identifier(k), false) {
			continue
		}
		out[k] = v
	}
	return out
}

// diffMapping walks two flat mappings and returns a Candidate for every key
// present on both sides whose stringified value differs. Keys present on
// only one side are not reported as variables, matching how the header diff
// treats additions/removals as out of scope rather than a diff against "".
func diffMapping(a, b map[string]any) map[string]Candidate {
	out := map[string]Candidate{}
	for _, k := range sortedKeys(a) {
		bv, ok := b[k]
		if !ok {
			continue
		}
		v1, v2 := stringify(a[k]), stringify(bv)
		if v1 == v2 {
			continue
		}
		out[normalize.VariableName(k)] = Candidate{Value1: v1, Value2: v2}
	}
	return out
}

// diffHeaders filters ignored headers/cookies then diffs the remainder. If
// the diff mixes additions, removals and value changes (more than one
// "kind" of structural difference at the top level) it signals
// ErrIncomparableHeaders.
func diffHeaders(a, b map[string]string, rules *patterns.Rules) (map[string]Candidate, error) {
	fa := filterHeaders(a, rules)
	fb := filterHeaders(b, rules)

	var added, removed, changed int
	for k := range fb {
		if _, ok := fa[k]; !ok {
			added++
		}
	}
	for k := range fa {
		if _, ok := fb[k]; !ok {
			removed++
		}
	}
	for k, v1 := range fa {
		if v2, ok := fb[k]; ok && v1 != v2 {
			changed++
		}
	}
	kinds := 0
	if added > 0 {
		kinds++
	}
	if removed > 0 {
		kinds++
	}
	if changed > 0 {
		kinds++
	}
	if kinds > 1 {
		return nil, ErrIncomparableHeaders
	}

	out := map[string]Candidate{}
	for k, v1 := range fa {
		v2, ok := fb[k]
		if !ok || v1 == v2 {
			continue
		}
		out[normalize.VariableName(k)] = Candidate{Value1: v1, Value2: v2}
	}
	return out, nil
}

func filterHeaders(h map[string]string, rules *patterns.Rules) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		lower := normalize.Identifier(k)
		if rules.HeaderIgnore.Matches(lower, false) {
			continue
		}
		if lower == "cookie" && rules.CookieIgnore.Matches(v, false) {
			continue
		}
		out[k] = v
	}
	return out
}

// diffBody emits leaf-level variable candidates from the two bodies' parse
// trees. A NONE body on either side means no body variables at all; an
// UNKNOWN body on either side means no variables can be derived and the
// caller should fall back to manual review.
func diffBody(a, b reqmodel.BodyInstance) (map[string]Candidate, bool) {
	if a.Encoding == reqmodel.BodyEncodingNone || b.Encoding == reqmodel.BodyEncodingNone {
		return map[string]Candidate{}, false
	}
	if a.Encoding == reqmodel.BodyEncodingUnknown || b.Encoding == reqmodel.BodyEncodingUnknown {
		return map[string]Candidate{}, true
	}

	out := map[string]Candidate{}
	walkBodyDiff("", a.Value, b.Value, out)
	return out, false
}

// walkBodyDiff recurses into matching map/list structure and reports a
// Candidate per changed leaf. Keys or indices present on only one side are
// not reported as variables; only values present on both sides and changed
// ("values_changed", not "item_added"/"item_removed") count as a diff.
func walkBodyDiff(path string, a, b any, out map[string]Candidate) {
	am, aIsMap := a.(map[string]any)
	bm, bIsMap := b.(map[string]any)
	if aIsMap && bIsMap {
		for k, av := range am {
			bv, ok := bm[k]
			if !ok {
				continue
			}
			walkBodyDiff(joinPath(path, k), av, bv, out)
		}
		return
	}

	al, aIsList := a.([]any)
	bl, bIsList := b.([]any)
	if aIsList && bIsList {
		n := len(al)
		if len(bl) < n {
			n = len(bl)
		}
		for i := 0; i < n; i++ {
			walkBodyDiff(joinPath(path, fmt.Sprintf("%d", i)), al[i], bl[i], out)
		}
		return
	}

	v1, v2 := stringify(a), stringify(b)
	if v1 == v2 {
		return
	}
	name := normalize.VariableName(path)
	if name == "" {
		name = "body"
	}
	out[name] = Candidate{Value1: v1, Value2: v2}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "_" + key
}

func postFilter(byLocation map[Location]map[string]Candidate) {
	for loc, vars := range byLocation {
		for name, cand := range vars {
			if len(cand.Value1) < constants.MinSwapValueLen {
				delete(vars, name)
				continue
			}
			if isFloatLiteral(cand.Value1) {
				delete(vars, name)
			}
		}
		byLocation[loc] = vars
	}
}

// isFloatLiteral reports whether s parses as a float but not as an
// integer, matching the post-filter's "is a float" rule.
func isFloatLiteral(s string) bool {
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}
