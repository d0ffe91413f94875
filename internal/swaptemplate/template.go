// Package swaptemplate implements the variable-extraction template engine:
// a tagged tree of template variants (string, integer, dict, list, body)
// that can build itself from one captured value, extract variable values
// from another, and evaluate back into a concrete value given bindings.
package swaptemplate

import (
	"errors"
	"fmt"
	"unicode"
)

// ErrMultipleValues is returned when a single variable name resolves to
// two different values within one extraction, or across locations.
var ErrMultipleValues = errors.New("swaptemplate: multiple values for variable")

// ErrInvalidEncoding is returned when a BodyTemplate is asked to extract
// from an instance whose body encoding disagrees with the template's.
var ErrInvalidEncoding = errors.New("swaptemplate: instance body encoding does not match template")

// ErrInvalidTemplateData is returned by FromDict on a missing or unknown
// "type" discriminator.
var ErrInvalidTemplateData = errors.New("swaptemplate: invalid template data")

// Bindings maps a variable name to its value under each location tag,
// "default" being the fallback used when no requested tag has an override.
type Bindings map[string]map[string]string

// Value resolves name's value, preferring the first of locationTags that
// has an entry, falling back to "default".
func (b Bindings) Value(name string, locationTags []string) (string, error) {
	vals, ok := b[name]
	if !ok {
		return "", fmt.Errorf("swaptemplate: no binding for variable %q", name)
	}
	for _, tag := range locationTags {
		if v, ok := vals[tag]; ok {
			return v, nil
		}
	}
	if v, ok := vals["default"]; ok {
		return v, nil
	}
	return "", fmt.Errorf("swaptemplate: no value for variable %q under tags %v or default", name, locationTags)
}

// DefaultBindings builds a Bindings where every variable's only available
// value is under the "default" tag, the common case for a flat
// name->value map produced by the differ/classifier.
func DefaultBindings(values map[string]string) Bindings {
	b := make(Bindings, len(values))
	for name, v := range values {
		b[name] = map[string]string{"default": v}
	}
	return b
}

// Template is the common interface implemented by every template variant.
// instance/evaluate values are passed as `any` because each variant
// operates on a different concrete shape (string, int, map, slice, body).
type Template interface {
	TypeName() string
	VariableNames() []string
	IsConstant() bool
	ExtractVariableValues(instance any) (map[string]string, error)
	Evaluate(bindings Bindings, locationTags []string) (any, error)
	ToDict() map[string]any
}

// mergeValues folds src into dst, returning ErrMultipleValues if a key
// exists in both with different values.
func mergeValues(dst, src map[string]string) error {
	for k, v := range src {
		if existing, ok := dst[k]; ok {
			if existing != v {
				return fmt.Errorf("%w: %q (%q vs %q)", ErrMultipleValues, k, existing, v)
			}
			continue
		}
		dst[k] = v
	}
	return nil
}

func isBorderRune(r rune) bool {
	switch r {
	case '/', ':', '.', '"', '\'', '&', ',', '=':
		return true
	}
	return unicode.IsSpace(r)
}

// FromDict dispatches on data["type"] to reconstruct a Template tree.
func FromDict(data map[string]any) (Template, error) {
	t, _ := data["type"].(string)
	switch t {
	case "StringTemplate":
		return stringTemplateFromDict(data)
	case "IntegerTemplate":
		return integerTemplateFromDict(data)
	case "DictTemplate":
		return dictTemplateFromDict(data)
	case "ListTemplate":
		return listTemplateFromDict(data)
	case "BodyTemplate":
		return bodyTemplateFromDict(data)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidTemplateData, t)
	}
}
