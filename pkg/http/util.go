package http

import (
	"fmt"
	"net/url"
	"strings"
)

// Param is a single query or form parameter.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered, multi-valued parameter list. Duplicate keys are kept
// and encoded in insertion order.
type Params []Param

// Add appends a parameter and returns the extended list.
func (p Params) Add(key, value string) Params {
	return append(p, Param{Key: key, Value: value})
}

// Get returns the first value stored under key.
func (p Params) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Encode renders the parameters in "k=v&k=v" form, preserving order.
func (p Params) Encode() string {
	if len(p) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, kv := range p {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(kv.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(kv.Value))
	}
	return sb.String()
}

// BuildURL joins baseURL and path and appends params after any query the
// base already carries. An empty path keeps the base path.
func BuildURL(baseURL, path string, params Params) (string, error) {
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("error parsing base URL: %w", err)
	}

	if path != "" {
		parsedURL.Path = strings.TrimRight(parsedURL.Path, "/") + "/" + strings.TrimLeft(path, "/")
	}

	if encoded := params.Encode(); encoded != "" {
		if parsedURL.RawQuery != "" {
			parsedURL.RawQuery += "&" + encoded
		} else {
			parsedURL.RawQuery = encoded
		}
	}

	return parsedURL.String(), nil
}

// FormBody encodes params as an application/x-www-form-urlencoded body.
func FormBody(params Params) *Body {
	return &Body{
		Content:     []byte(params.Encode()),
		ContentType: "application/x-www-form-urlencoded",
	}
}

// JSONBody wraps an already-encoded JSON document.
func JSONBody(content []byte) *Body {
	return &Body{
		Content:     content,
		ContentType: "application/json",
	}
}
