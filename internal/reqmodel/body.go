// Package reqmodel defines the wire-level shapes the differ and template
// engine operate on: a captured request/response body with its detected
// encoding, and the flattened request instance built from it.
package reqmodel

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// BodyEncoding is the closed set of shapes a captured body can take.
// Detection tries each in a fixed order and stops at the first success.
type BodyEncoding string

const (
	BodyEncodingJSON            BodyEncoding = "JSON"
	BodyEncodingForm            BodyEncoding = "FORM"
	BodyEncodingURLEncodedForm  BodyEncoding = "URL_ENCODED_FORM"
	BodyEncodingURLEncodedJSON  BodyEncoding = "URL_ENCODED_JSON"
	BodyEncodingBase64JSON      BodyEncoding = "BASE64_JSON"
	BodyEncodingUnknown         BodyEncoding = "UNKNOWN"
	BodyEncodingNone            BodyEncoding = "NONE"
)

// BodyInstance is a captured body together with the encoding it was
// detected as. Value holds the decoded tree for structured encodings
// (map[string]any / []any), or the raw string for UNKNOWN/NONE.
type BodyInstance struct {
	Value    any
	Encoding BodyEncoding
}

// IsDict reports whether Value decoded to a JSON-object-shaped tree.
func (b BodyInstance) IsDict() bool {
	_, ok := b.Value.(map[string]any)
	return ok
}

// ParseBody detects the encoding of raw and decodes it accordingly. JSON is
// always tried first; when the contentType hint (e.g. "application/json")
// mentions json, the FORM and URL_ENCODED_FORM attempts are skipped.
// Detection never trusts contentType alone.
func ParseBody(raw string, contentType string) (BodyInstance, error) {
	if strings.TrimSpace(raw) == "" {
		return BodyInstance{Value: "", Encoding: BodyEncodingNone}, nil
	}

	if v, ok := tryJSON(raw); ok {
		return BodyInstance{Value: v, Encoding: BodyEncodingJSON}, nil
	}

	if !strings.Contains(strings.ToLower(contentType), "json") {
		if v, ok := tryForm(raw); ok {
			return BodyInstance{Value: v, Encoding: BodyEncodingForm}, nil
		}

		if decoded, err := url.QueryUnescape(raw); err == nil && decoded != raw {
			if v, ok := tryForm(decoded); ok {
				return BodyInstance{Value: v, Encoding: BodyEncodingURLEncodedForm}, nil
			}
		}
	}

	if decoded, err := url.QueryUnescape(raw); err == nil && decoded != raw {
		if v, ok := tryJSON(decoded); ok {
			return BodyInstance{Value: v, Encoding: BodyEncodingURLEncodedJSON}, nil
		}
	}

	if decoded, err := base64.StdEncoding.DecodeString(raw); err == nil {
		if v, ok := tryJSON(string(decoded)); ok {
			return BodyInstance{Value: v, Encoding: BodyEncodingBase64JSON}, nil
		}
	}

	return BodyInstance{Value: raw, Encoding: BodyEncodingUnknown}, nil
}

func tryJSON(raw string) (any, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return nil, false
	}
	var v any
	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return normalizeNumbers(v), true
}

// normalizeNumbers converts json.Number leaves into int64/float64 so the
// rest of the pipeline can type-switch on plain Go numeric kinds.
func normalizeNumbers(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeNumbers(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = normalizeNumbers(item)
		}
		return val
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	default:
		return v
	}
}

func tryForm(raw string) (map[string]any, bool) {
	for _, pair := range strings.Split(raw, "&") {
		if pair != "" && !strings.Contains(pair, "=") {
			return nil, false
		}
	}
	values, err := url.ParseQuery(raw)
	if err != nil || len(values) == 0 {
		return nil, false
	}
	out := make(map[string]any, len(values))
	for k, vs := range values {
		items := make([]any, len(vs))
		for i, v := range vs {
			items[i] = v
		}
		if len(items) == 1 {
			out[k] = items[0]
		} else {
			out[k] = items
		}
	}
	return out, true
}

// Compile serializes Value back into the wire form implied by Encoding.
// UNKNOWN round-trips the original string verbatim; NONE always compiles
// to the empty string.
func (b BodyInstance) Compile() (string, error) {
	switch b.Encoding {
	case BodyEncodingNone:
		return "", nil
	case BodyEncodingJSON:
		data, err := json.Marshal(b.Value)
		if err != nil {
			return "", fmt.Errorf("compiling JSON body: %w", err)
		}
		return string(data), nil
	case BodyEncodingForm:
		return encodeForm(b.Value), nil
	case BodyEncodingURLEncodedForm:
		// Re-escape the decoded form so compile(parse(b)) == b holds for
		// this encoding the same as every other one.
		return url.QueryEscape(encodeForm(b.Value)), nil
	case BodyEncodingURLEncodedJSON:
		data, err := json.Marshal(b.Value)
		if err != nil {
			return "", fmt.Errorf("compiling URL-encoded JSON body: %w", err)
		}
		return url.QueryEscape(string(data)), nil
	case BodyEncodingBase64JSON:
		data, err := json.Marshal(b.Value)
		if err != nil {
			return "", fmt.Errorf("compiling base64 JSON body: %w", err)
		}
		return base64.StdEncoding.EncodeToString(data), nil
	case BodyEncodingUnknown:
		if s, ok := b.Value.(string); ok {
			return s, nil
		}
		return fmt.Sprintf("%v", b.Value), nil
	default:
		return "", fmt.Errorf("compiling body: unrecognised encoding %q", b.Encoding)
	}
}

func encodeForm(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	values := url.Values{}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch item := m[k].(type) {
		case []any:
			for _, v := range item {
				values.Add(k, fmt.Sprintf("%v", v))
			}
		default:
			values.Add(k, fmt.Sprintf("%v", item))
		}
	}
	return values.Encode()
}
