package reqmodel

import "strings"

// RequestInstance is a single captured request, flattened to the four
// locations the differ and template engine reason about independently:
// the URL path, headers, query parameters and body.
type RequestInstance struct {
	InstanceID string
	Method     string
	URLPath    string
	Headers    map[string]string
	Query      map[string]any
	Body       BodyInstance
}

// HeaderIgnoreCase looks up a header by case-insensitive name, matching how
// captured requests are replayed over HTTP/1.1 where header names are not
// case sensitive.
func (r RequestInstance) HeaderIgnoreCase(name string) (string, bool) {
	want := strings.ToLower(name)
	for k, v := range r.Headers {
		if strings.ToLower(k) == want {
			return v, true
		}
	}
	return "", false
}

// PathSegments splits URLPath on '/', matching the segment-indexed diffing
// the differ performs on url_path.
func (r RequestInstance) PathSegments() []string {
	return strings.Split(r.URLPath, "/")
}
