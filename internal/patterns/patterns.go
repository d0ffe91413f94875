// Package patterns loads and evaluates the regex pattern lists that drive
// the differ's ignore rules and the classifier's swappable-name/value rules.
package patterns

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// List holds an ordered set of compiled regular expressions loaded from a
// plain-text rules file, one pattern per line. Blank lines and lines
// starting with '!' are skipped.
type List struct {
	rules []*regexp.Regexp
}

// FromFile reads path and compiles every non-blank, non-'!'-comment line as
// a regular expression.
func FromFile(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pattern file %s: %w", path, err)
	}
	defer f.Close()

	var rules []*regexp.Regexp
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "!") {
			continue
		}
		re, err := regexp.Compile(line)
		if err != nil {
			return nil, fmt.Errorf("compiling pattern %q in %s: %w", line, path, err)
		}
		rules = append(rules, re)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading pattern file %s: %w", path, err)
	}
	return &List{rules: rules}, nil
}

// FromStrings builds a List directly from raw pattern strings, used by
// tests and by callers that keep rules inline rather than on disk.
func FromStrings(patterns []string) (*List, error) {
	var rules []*regexp.Regexp
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling pattern %q: %w", p, err)
		}
		rules = append(rules, re)
	}
	return &List{rules: rules}, nil
}

// Empty returns a List with no rules, so Matches is always false.
func Empty() *List {
	return &List{}
}

// Matches reports whether any rule matches text. full requires the whole
// string to match (regexp "fullmatch" semantics); otherwise a partial
// match ("search") anywhere in text is enough.
func (l *List) Matches(text string, full bool) bool {
	if l == nil {
		return false
	}
	for _, re := range l.rules {
		if full {
			if loc := re.FindStringIndex(text); loc != nil && loc[0] == 0 && loc[1] == len(text) {
				return true
			}
		} else if re.MatchString(text) {
			return true
		}
	}
	return false
}

// MatchingRule returns the first rule that matches text and true, or
// (nil, false) if none do. full behaves as in Matches.
func (l *List) MatchingRule(text string, full bool) (*regexp.Regexp, bool) {
	if l == nil {
		return nil, false
	}
	for _, re := range l.rules {
		if full {
			if loc := re.FindStringIndex(text); loc != nil && loc[0] == 0 && loc[1] == len(text) {
				return re, true
			}
		} else if re.MatchString(text) {
			return re, true
		}
	}
	return nil, false
}

// Len reports the number of compiled rules.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.rules)
}

// Rules bundles the six named pattern lists threaded explicitly through the
// differ and classifier, instead of the package-level globals used by the
// implementation this component is grounded on.
type Rules struct {
	HeaderIgnore       *List
	CookieIgnore       *List
	QueryNameIgnore    *List
	VariableNameIgnore *List
	VariableNameSwap   *List
	VariableValueSwap  *List
}

// LoadRules loads all six pattern files named by a RulesConfig-shaped set
// of paths. Any path left empty loads as an Empty list rather than erroring,
// so a deployment can opt out of a given rule category.
func LoadRules(headerIgnore, cookieIgnore, queryNameIgnore, variableNameIgnore, variableNameSwap, variableValueSwap string) (*Rules, error) {
	load := func(path string) (*List, error) {
		if path == "" {
			return Empty(), nil
		}
		return FromFile(path)
	}

	r := &Rules{}
	var err error
	if r.HeaderIgnore, err = load(headerIgnore); err != nil {
		return nil, err
	}
	if r.CookieIgnore, err = load(cookieIgnore); err != nil {
		return nil, err
	}
	if r.QueryNameIgnore, err = load(queryNameIgnore); err != nil {
		return nil, err
	}
	if r.VariableNameIgnore, err = load(variableNameIgnore); err != nil {
		return nil, err
	}
	if r.VariableNameSwap, err = load(variableNameSwap); err != nil {
		return nil, err
	}
	if r.VariableValueSwap, err = load(variableValueSwap); err != nil {
		return nil, err
	}
	return r, nil
}
