package swaptemplate

import (
	"fmt"
	"strconv"
)

// IntegerTemplate is a StringTemplate built over the decimal string form
// of an integer. Extraction that does not parse back to an integer is
// treated as a failed extraction for that variable rather than coerced
// into a boolean-like sentinel.
type IntegerTemplate struct {
	inner *StringTemplate
}

// BuildInteger constructs an IntegerTemplate from one concrete int value.
func BuildInteger(valuatedInt int64, variables map[string]string) *IntegerTemplate {
	return &IntegerTemplate{inner: BuildString(strconv.FormatInt(valuatedInt, 10), variables)}
}

func (t *IntegerTemplate) TypeName() string          { return "IntegerTemplate" }
func (t *IntegerTemplate) VariableNames() []string   { return t.inner.VariableNames() }
func (t *IntegerTemplate) IsConstant() bool          { return t.inner.IsConstant() }

func (t *IntegerTemplate) ExtractVariableValues(instance any) (map[string]string, error) {
	var instanceStr string
	switch v := instance.(type) {
	case string:
		instanceStr = v
	case int64:
		instanceStr = strconv.FormatInt(v, 10)
	case int:
		instanceStr = strconv.Itoa(v)
	default:
		instanceStr = fmt.Sprintf("%v", v)
	}

	values, err := t.inner.ExtractVariableValues(instanceStr)
	if err != nil {
		return nil, err
	}
	result := map[string]string{}
	for name, v := range values {
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			continue
		}
		result[name] = v
	}
	return result, nil
}

func (t *IntegerTemplate) Evaluate(bindings Bindings, locationTags []string) (any, error) {
	raw, err := t.inner.Evaluate(bindings, locationTags)
	if err != nil {
		return nil, err
	}
	s, _ := raw.(string)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("swaptemplate: evaluated integer template did not parse as int: %w", err)
	}
	return n, nil
}

func (t *IntegerTemplate) ToDict() map[string]any {
	d := t.inner.ToDict()
	d["type"] = t.TypeName()
	return d
}

func integerTemplateFromDict(data map[string]any) (*IntegerTemplate, error) {
	inner, err := stringTemplateFromDict(data)
	if err != nil {
		return nil, err
	}
	return &IntegerTemplate{inner: inner}, nil
}
