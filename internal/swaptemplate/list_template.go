package swaptemplate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const listItemPrefix = "list_item_"

// ListTemplate matches a JSON-array-shaped value by building a DictTemplate
// over synthetic "list_item_N" keys. The synthetic keys never appear in
// VariableNames, since they name positions, not substituted values.
type ListTemplate struct {
	dict *DictTemplate
}

// BuildList constructs a ListTemplate from one concrete list value.
func BuildList(valuatedList []any, variables map[string]string) *ListTemplate {
	entries := make([]DictEntry, len(valuatedList))
	for i, v := range valuatedList {
		entries[i] = DictEntry{Key: listItemKey(i), Value: buildValue(v, variables)}
	}
	return &ListTemplate{dict: &DictTemplate{Entries: entries}}
}

func listItemKey(i int) string {
	return fmt.Sprintf("%s%d", listItemPrefix, i)
}

func listItemIndex(key string) (int, bool) {
	if !strings.HasPrefix(key, listItemPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(key, listItemPrefix))
	if err != nil {
		return 0, false
	}
	return n, true
}

func (t *ListTemplate) TypeName() string        { return "ListTemplate" }
func (t *ListTemplate) VariableNames() []string { return t.dict.VariableNames() }
func (t *ListTemplate) IsConstant() bool        { return t.dict.IsConstant() }

func (t *ListTemplate) ExtractVariableValues(instance any) (map[string]string, error) {
	instanceList, ok := instance.([]any)
	if !ok {
		return map[string]string{}, nil
	}
	result := map[string]string{}
	for _, e := range t.dict.Entries {
		idx, ok := listItemIndex(e.Key)
		if !ok || idx >= len(instanceList) {
			continue
		}
		sub, err := e.Value.ExtractVariableValues(instanceList[idx])
		if err != nil {
			return nil, err
		}
		if err := mergeValues(result, sub); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (t *ListTemplate) Evaluate(bindings Bindings, locationTags []string) (any, error) {
	type indexed struct {
		idx int
		val any
	}
	items := make([]indexed, 0, len(t.dict.Entries))
	for _, e := range t.dict.Entries {
		idx, _ := listItemIndex(e.Key)
		v, err := e.Value.Evaluate(bindings, locationTags)
		if err != nil {
			return nil, err
		}
		items = append(items, indexed{idx: idx, val: v})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].idx < items[j].idx })
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = it.val
	}
	return out, nil
}

func (t *ListTemplate) ToDict() map[string]any {
	d := t.dict.ToDict()
	d["type"] = t.TypeName()
	return d
}

func listTemplateFromDict(data map[string]any) (*ListTemplate, error) {
	entries, err := entriesFromDict(data)
	if err != nil {
		return nil, err
	}
	return &ListTemplate{dict: &DictTemplate{Entries: entries}}, nil
}
