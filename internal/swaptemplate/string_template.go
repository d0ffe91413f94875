package swaptemplate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// segment is one piece of a StringTemplate's pattern: either literal text
// or a named capture hole. Building an explicit segment list instead of a
// single regex-escape-then-substitute string keeps escaping one-directional
// (applied once, at render time) instead of requiring a matching unescape
// pass during evaluation.
type segment struct {
	literal   string
	isCapture bool
	name      string
	index     int
}

// StringTemplate matches a literal string with zero or more substituted
// variable occurrences, each bordered by punctuation or whitespace so
// variable values never shadow partial matches inside neighbouring text.
type StringTemplate struct {
	segments []segment
}

// BuildString constructs a StringTemplate from one concrete string value
// and the flat set of candidate variables, substituting every bordered
// occurrence of a variable's value, longest value first.
func BuildString(valuatedStr string, variables map[string]string) *StringTemplate {
	type namedValue struct {
		name  string
		value string
	}
	ordered := make([]namedValue, 0, len(variables))
	for name, value := range variables {
		if value == "" {
			continue
		}
		ordered = append(ordered, namedValue{name, value})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if len(ordered[i].value) != len(ordered[j].value) {
			return len(ordered[i].value) > len(ordered[j].value)
		}
		return ordered[i].name < ordered[j].name
	})

	segs := []segment{{literal: valuatedStr}}
	for _, nv := range ordered {
		segs = substituteOccurrences(segs, nv.name, nv.value)
	}
	return &StringTemplate{segments: segs}
}

// substituteOccurrences scans every literal segment for bordered,
// non-overlapping occurrences of value and turns them into capture
// segments named name__0, name__1, ... in left-to-right order.
func substituteOccurrences(segs []segment, name, value string) []segment {
	occurrence := 0
	var out []segment
	for _, seg := range segs {
		if seg.isCapture {
			out = append(out, seg)
			continue
		}
		text := seg.literal
		pos := 0
		for {
			idx := strings.Index(text[pos:], value)
			if idx < 0 {
				break
			}
			start := pos + idx
			end := start + len(value)

			beforeOK := start == 0 || isBorderRune(lastRune(text[:start]))
			afterOK := end == len(text) || isBorderRune(firstRune(text[end:]))

			if beforeOK && afterOK {
				if start > 0 {
					out = append(out, segment{literal: text[:start]})
				}
				out = append(out, segment{isCapture: true, name: name, index: occurrence})
				occurrence++
				text = text[end:]
				pos = 0
				continue
			}
			pos = start + 1
		}
		if text != "" {
			out = append(out, segment{literal: text})
		}
	}
	return out
}

func lastRune(s string) rune {
	r := []rune(s)
	if len(r) == 0 {
		return 0
	}
	return r[len(r)-1]
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func groupName(name string, index int) string {
	return fmt.Sprintf("%s__%d", name, index)
}

// Pattern renders the segment list into a regular expression string.
func (t *StringTemplate) Pattern() string {
	var sb strings.Builder
	for _, seg := range t.segments {
		if seg.isCapture {
			sb.WriteString(fmt.Sprintf("(?P<%s>[^/]+)", groupName(seg.name, seg.index)))
		} else {
			sb.WriteString(regexp.QuoteMeta(seg.literal))
		}
	}
	return sb.String()
}

func (t *StringTemplate) TypeName() string { return "StringTemplate" }

func (t *StringTemplate) VariableNames() []string {
	seen := map[string]bool{}
	var out []string
	for _, seg := range t.segments {
		if seg.isCapture && !seen[seg.name] {
			seen[seg.name] = true
			out = append(out, seg.name)
		}
	}
	return out
}

func (t *StringTemplate) IsConstant() bool {
	return len(t.VariableNames()) == 0
}

// isSoleCapture reports whether the whole template is exactly one capture
// group with no surrounding literal text.
func (t *StringTemplate) isSoleCapture() (name string, ok bool) {
	if len(t.segments) != 1 || !t.segments[0].isCapture {
		return "", false
	}
	return t.segments[0].name, true
}

func (t *StringTemplate) ExtractVariableValues(instance any) (map[string]string, error) {
	instanceStr, _ := instance.(string)
	if t.IsConstant() {
		return map[string]string{}, nil
	}
	if name, ok := t.isSoleCapture(); ok {
		return map[string]string{name: instanceStr}, nil
	}

	re, err := regexp.Compile("^" + t.Pattern() + "$")
	if err != nil {
		return nil, fmt.Errorf("swaptemplate: compiling string pattern: %w", err)
	}
	match := re.FindStringSubmatch(instanceStr)
	if match == nil {
		return map[string]string{}, nil
	}
	names := re.SubexpNames()
	result := map[string]string{}
	for _, varName := range t.VariableNames() {
		want := groupName(varName, 0)
		for i, n := range names {
			if n == want && i < len(match) {
				result[varName] = match[i]
			}
		}
	}
	return result, nil
}

func (t *StringTemplate) Evaluate(bindings Bindings, locationTags []string) (any, error) {
	var sb strings.Builder
	for _, seg := range t.segments {
		if !seg.isCapture {
			sb.WriteString(seg.literal)
			continue
		}
		v, err := bindings.Value(seg.name, locationTags)
		if err != nil {
			return nil, err
		}
		sb.WriteString(v)
	}
	return sb.String(), nil
}

func (t *StringTemplate) ToDict() map[string]any {
	segs := make([]map[string]any, len(t.segments))
	for i, seg := range t.segments {
		if seg.isCapture {
			segs[i] = map[string]any{"capture": true, "name": seg.name, "index": seg.index}
		} else {
			segs[i] = map[string]any{"capture": false, "literal": seg.literal}
		}
	}
	return map[string]any{"type": t.TypeName(), "segments": segs}
}

func stringTemplateFromDict(data map[string]any) (*StringTemplate, error) {
	var rawSegs []any
	switch s := data["segments"].(type) {
	case []any:
		rawSegs = s
	case []map[string]any:
		for _, m := range s {
			rawSegs = append(rawSegs, m)
		}
	}
	segs := make([]segment, 0, len(rawSegs))
	for _, raw := range rawSegs {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: malformed segment", ErrInvalidTemplateData)
		}
		if capture, _ := m["capture"].(bool); capture {
			name, _ := m["name"].(string)
			index := toInt(m["index"])
			segs = append(segs, segment{isCapture: true, name: name, index: index})
		} else {
			literal, _ := m["literal"].(string)
			segs = append(segs, segment{literal: literal})
		}
	}
	return &StringTemplate{segments: segs}, nil
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
