package swaptemplate

import (
	"fmt"

	"github.com/saiid2001/vsf-analyzer/internal/reqmodel"
)

// BodyTemplate wraps a structural template with the encoding it was built
// against, so evaluation can re-compile through the body codec.
type BodyTemplate struct {
	Encoding reqmodel.BodyEncoding
	Inner    Template
}

// BuildBody constructs a BodyTemplate from one concrete body instance.
func BuildBody(valuatedBody reqmodel.BodyInstance, variables map[string]string) *BodyTemplate {
	var inner Template
	switch v := valuatedBody.Value.(type) {
	case map[string]any:
		inner = BuildDict(v, variables)
	case []any:
		inner = BuildList(v, variables)
	case string:
		inner = BuildString(v, variables)
	default:
		inner = BuildString(fmt.Sprintf("%v", v), variables)
	}
	return &BodyTemplate{Encoding: valuatedBody.Encoding, Inner: inner}
}

func (t *BodyTemplate) TypeName() string        { return "BodyTemplate" }
func (t *BodyTemplate) VariableNames() []string { return t.Inner.VariableNames() }
func (t *BodyTemplate) IsConstant() bool        { return t.Inner.IsConstant() }

func (t *BodyTemplate) ExtractVariableValues(instance any) (map[string]string, error) {
	body, ok := instance.(reqmodel.BodyInstance)
	if !ok {
		return nil, fmt.Errorf("swaptemplate: BodyTemplate.ExtractVariableValues expects a BodyInstance")
	}
	if body.Encoding != t.Encoding {
		return nil, fmt.Errorf("%w: template encoding %q, instance encoding %q", ErrInvalidEncoding, t.Encoding, body.Encoding)
	}
	return t.Inner.ExtractVariableValues(body.Value)
}

func (t *BodyTemplate) Evaluate(bindings Bindings, locationTags []string) (any, error) {
	value, err := t.Inner.Evaluate(bindings, locationTags)
	if err != nil {
		return nil, err
	}
	body := reqmodel.BodyInstance{Value: value, Encoding: t.Encoding}
	return body.Compile()
}

func (t *BodyTemplate) ToDict() map[string]any {
	return map[string]any{
		"type":     t.TypeName(),
		"encoding": string(t.Encoding),
		"inner":    t.Inner.ToDict(),
	}
}

func bodyTemplateFromDict(data map[string]any) (*BodyTemplate, error) {
	encoding, _ := data["encoding"].(string)
	innerData, _ := data["inner"].(map[string]any)
	inner, err := FromDict(innerData)
	if err != nil {
		return nil, err
	}
	return &BodyTemplate{Encoding: reqmodel.BodyEncoding(encoding), Inner: inner}, nil
}
