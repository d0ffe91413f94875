package swaptemplate

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/saiid2001/vsf-analyzer/internal/reqmodel"
)

var (
	urlPathLocationTags = []string{"url_path", "url"}
	headerLocationTags  = []string{"header"}
	queryLocationTags   = []string{"query", "url"}
	bodyLocationTags    = []string{"body"}
)

// SwapRequestTemplate composes the four independently-built location
// templates into one request-level template.
type SwapRequestTemplate struct {
	Method  string
	URLPath *StringTemplate
	Headers *DictTemplate
	Query   *DictTemplate
	Body    *BodyTemplate
}

// Build constructs a SwapRequestTemplate from one reference request and the
// flat set of candidate variable values (name -> value) found by the differ.
func Build(instance reqmodel.RequestInstance, variables map[string]string) *SwapRequestTemplate {
	headersAny := make(map[string]any, len(instance.Headers))
	for k, v := range instance.Headers {
		headersAny[k] = v
	}
	return &SwapRequestTemplate{
		Method:  instance.Method,
		URLPath: BuildString(instance.URLPath, variables),
		Headers: BuildDict(headersAny, variables),
		Query:   BuildDict(instance.Query, variables),
		Body:    BuildBody(instance.Body, variables),
	}
}

// VariableNames returns the union of variable names across all four
// location templates.
func (t *SwapRequestTemplate) VariableNames() []string {
	seen := map[string]bool{}
	var out []string
	add := func(names []string) {
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	add(t.URLPath.VariableNames())
	add(t.Headers.VariableNames())
	add(t.Query.VariableNames())
	add(t.Body.VariableNames())
	return out
}

// ExtractVariableValues extracts values for every variable this template
// knows about from another captured instance, checking cross-location
// consistency (the same variable must resolve to the same value in every
// location it appears).
func (t *SwapRequestTemplate) ExtractVariableValues(instance reqmodel.RequestInstance) (map[string]string, error) {
	result := map[string]string{}

	urlVals, err := t.URLPath.ExtractVariableValues(instance.URLPath)
	if err != nil {
		return nil, err
	}
	if err := mergeValues(result, urlVals); err != nil {
		return nil, err
	}

	headersAny := make(map[string]any, len(instance.Headers))
	for k, v := range instance.Headers {
		headersAny[k] = v
	}
	headerVals, err := t.Headers.ExtractVariableValues(headersAny)
	if err != nil {
		return nil, err
	}
	if err := mergeValues(result, headerVals); err != nil {
		return nil, err
	}

	queryVals, err := t.Query.ExtractVariableValues(instance.Query)
	if err != nil {
		return nil, err
	}
	if err := mergeValues(result, queryVals); err != nil {
		return nil, err
	}

	bodyVals, err := t.Body.ExtractVariableValues(instance.Body)
	if err != nil {
		return nil, err
	}
	if err := mergeValues(result, bodyVals); err != nil {
		return nil, err
	}

	return result, nil
}

// Evaluate materializes a concrete RequestInstance (with an empty
// InstanceID) by substituting bindings into each location template using
// that location's tag precedence.
func (t *SwapRequestTemplate) Evaluate(bindings Bindings) (reqmodel.RequestInstance, error) {
	urlPathAny, err := t.URLPath.Evaluate(bindings, urlPathLocationTags)
	if err != nil {
		return reqmodel.RequestInstance{}, fmt.Errorf("evaluating url_path: %w", err)
	}
	headersAny, err := t.Headers.Evaluate(bindings, headerLocationTags)
	if err != nil {
		return reqmodel.RequestInstance{}, fmt.Errorf("evaluating headers: %w", err)
	}
	queryAny, err := t.Query.Evaluate(bindings, queryLocationTags)
	if err != nil {
		return reqmodel.RequestInstance{}, fmt.Errorf("evaluating query: %w", err)
	}
	bodyRaw, err := t.Body.Evaluate(bindings, bodyLocationTags)
	if err != nil {
		return reqmodel.RequestInstance{}, fmt.Errorf("evaluating body: %w", err)
	}

	headersMap, _ := headersAny.(map[string]any)
	headers := make(map[string]string, len(headersMap))
	for k, v := range headersMap {
		headers[k] = fmt.Sprintf("%v", v)
	}

	queryMap, _ := queryAny.(map[string]any)

	bodyStr, _ := bodyRaw.(string)
	body, err := reqmodel.ParseBody(bodyStr, "")
	if err != nil {
		return reqmodel.RequestInstance{}, fmt.Errorf("re-parsing evaluated body: %w", err)
	}

	urlPath, _ := urlPathAny.(string)

	return reqmodel.RequestInstance{
		InstanceID: "",
		Method:     t.Method,
		URLPath:    urlPath,
		Headers:    headers,
		Query:      queryMap,
		Body:       body,
	}, nil
}

// ToDict serializes the template with a "SwapRequestTemplate" type
// discriminator, matching the other variants' ToDict convention.
func (t *SwapRequestTemplate) ToDict() map[string]any {
	return map[string]any{
		"type":     "SwapRequestTemplate",
		"method":   t.Method,
		"url_path": t.URLPath.ToDict(),
		"headers":  t.Headers.ToDict(),
		"query":    t.Query.ToDict(),
		"body":     t.Body.ToDict(),
	}
}

// SwapRequestTemplateFromDict reconstructs a SwapRequestTemplate previously
// produced by ToDict.
func SwapRequestTemplateFromDict(data map[string]any) (*SwapRequestTemplate, error) {
	if t, _ := data["type"].(string); t != "SwapRequestTemplate" {
		return nil, fmt.Errorf("%w: expected SwapRequestTemplate, got %q", ErrInvalidTemplateData, t)
	}
	method, _ := data["method"].(string)

	urlPathData, _ := data["url_path"].(map[string]any)
	urlPath, err := stringTemplateFromDict(urlPathData)
	if err != nil {
		return nil, err
	}

	headersData, _ := data["headers"].(map[string]any)
	headers, err := dictTemplateFromDict(headersData)
	if err != nil {
		return nil, err
	}

	queryData, _ := data["query"].(map[string]any)
	query, err := dictTemplateFromDict(queryData)
	if err != nil {
		return nil, err
	}

	bodyData, _ := data["body"].(map[string]any)
	body, err := bodyTemplateFromDict(bodyData)
	if err != nil {
		return nil, err
	}

	return &SwapRequestTemplate{Method: method, URLPath: urlPath, Headers: headers, Query: query, Body: body}, nil
}

// Hash returns the SHA-1 digest over the canonical (sorted-keys) JSON
// rendering of ToDict, used downstream for (task_id, template_hash) dedup.
func (t *SwapRequestTemplate) Hash() (string, error) {
	canonical, err := canonicalJSON(t.ToDict())
	if err != nil {
		return "", err
	}
	sum := sha1.Sum([]byte(canonical))
	return hex.EncodeToString(sum[:]), nil
}

// canonicalJSON renders v with object keys sorted at every level, so the
// hash is stable regardless of map iteration order.
func canonicalJSON(v any) (string, error) {
	var sb strings.Builder
	if err := writeCanonical(&sb, v); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeCanonical(sb *strings.Builder, v any) error {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			sb.Write(kb)
			sb.WriteByte(':')
			if err := writeCanonical(sb, val[k]); err != nil {
				return err
			}
		}
		sb.WriteByte('}')
	case []map[string]any:
		sb.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				sb.WriteByte(',')
			}
			if err := writeCanonical(sb, item); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	case []any:
		sb.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				sb.WriteByte(',')
			}
			if err := writeCanonical(sb, item); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return err
		}
		sb.Write(b)
	}
	return nil
}

// Preview renders a human-readable summary for the review tool: the method
// and URL-path pattern, then the variable names found in the headers, query
// and body. When onlyVar is true, the header/query/body lines of constant
// locations are omitted; the URL-path line is always shown.
func (t *SwapRequestTemplate) Preview(onlyVar bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", t.Method, t.URLPath.Pattern())
	if !onlyVar || !t.Headers.IsConstant() {
		fmt.Fprintf(&sb, "headers: %v\n", t.Headers.VariableNames())
	}
	if !onlyVar || !t.Query.IsConstant() {
		fmt.Fprintf(&sb, "query: %v\n", t.Query.VariableNames())
	}
	if !onlyVar || !t.Body.IsConstant() {
		fmt.Fprintf(&sb, "body (%s): %v\n", t.Body.Encoding, t.Body.VariableNames())
	}
	return sb.String()
}
