package swaptemplate

import (
	"fmt"
	"sort"
)

// DictEntry pairs a constant key with the template built for its value.
type DictEntry struct {
	Key   string
	Value Template
}

// DictTemplate matches a JSON-object-shaped value: keys are constant,
// values recursively become the appropriate template variant.
type DictTemplate struct {
	Entries []DictEntry
}

// BuildDict constructs a DictTemplate by type-dispatching each value in
// valuatedDict to a StringTemplate, IntegerTemplate, DictTemplate or
// ListTemplate.
func BuildDict(valuatedDict map[string]any, variables map[string]string) *DictTemplate {
	keys := make([]string, 0, len(valuatedDict))
	for k := range valuatedDict {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]DictEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, DictEntry{Key: k, Value: buildValue(valuatedDict[k], variables)})
	}
	return &DictTemplate{Entries: entries}
}

// buildValue type-dispatches a single JSON leaf/branch value to the
// matching template variant.
func buildValue(v any, variables map[string]string) Template {
	switch val := v.(type) {
	case map[string]any:
		return BuildDict(val, variables)
	case []any:
		return BuildList(val, variables)
	case int64:
		return BuildInteger(val, variables)
	case int:
		return BuildInteger(int64(val), variables)
	case string:
		return BuildString(val, variables)
	case nil:
		return BuildString("", variables)
	default:
		return BuildString(fmt.Sprintf("%v", val), variables)
	}
}

func (t *DictTemplate) TypeName() string { return "DictTemplate" }

func (t *DictTemplate) VariableNames() []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range t.Entries {
		for _, n := range e.Value.VariableNames() {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}

func (t *DictTemplate) IsConstant() bool {
	for _, e := range t.Entries {
		if !e.Value.IsConstant() {
			return false
		}
	}
	return true
}

func (t *DictTemplate) ExtractVariableValues(instance any) (map[string]string, error) {
	instanceMap, ok := instance.(map[string]any)
	if !ok {
		return map[string]string{}, nil
	}
	result := map[string]string{}
	for _, e := range t.Entries {
		v, present := instanceMap[e.Key]
		if !present {
			continue
		}
		sub, err := e.Value.ExtractVariableValues(v)
		if err != nil {
			return nil, err
		}
		if err := mergeValues(result, sub); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (t *DictTemplate) Evaluate(bindings Bindings, locationTags []string) (any, error) {
	out := make(map[string]any, len(t.Entries))
	for _, e := range t.Entries {
		v, err := e.Value.Evaluate(bindings, locationTags)
		if err != nil {
			return nil, err
		}
		out[e.Key] = v
	}
	return out, nil
}

func (t *DictTemplate) ToDict() map[string]any {
	entries := make([]map[string]any, len(t.Entries))
	for i, e := range t.Entries {
		entries[i] = map[string]any{"key": e.Key, "value": e.Value.ToDict()}
	}
	return map[string]any{"type": t.TypeName(), "entries": entries}
}

func dictTemplateFromDict(data map[string]any) (*DictTemplate, error) {
	entries, err := entriesFromDict(data)
	if err != nil {
		return nil, err
	}
	return &DictTemplate{Entries: entries}, nil
}

func entriesFromDict(data map[string]any) ([]DictEntry, error) {
	var raw []any
	switch e := data["entries"].(type) {
	case []any:
		raw = e
	case []map[string]any:
		for _, m := range e {
			raw = append(raw, m)
		}
	}
	entries := make([]DictEntry, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: malformed dict entry", ErrInvalidTemplateData)
		}
		key, _ := m["key"].(string)
		valData, _ := m["value"].(map[string]any)
		val, err := FromDict(valData)
		if err != nil {
			return nil, err
		}
		entries = append(entries, DictEntry{Key: key, Value: val})
	}
	return entries, nil
}
