package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/domain"
)

const maxErrorSummaryLen = 200

// Error is a failed request. Kind is one of domain.ErrNetwork,
// domain.ErrAuthExpired, domain.ErrValidation or domain.ErrServer, and
// errors.Is matches it.
type Error struct {
	Kind       error
	Method     string
	Path       string
	StatusCode int
	Message    string
	// Fields holds per-field messages of a rejected payload.
	Fields map[string][]string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Method != "" {
		fmt.Fprintf(&b, "%s %s: ", e.Method, e.Path)
	}
	b.WriteString(e.Kind.Error())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		// The cause tells a missing refresh token apart from a rejected one.
		if cause := e.Err.Error(); cause != "" && !strings.Contains(e.Message, cause) {
			b.WriteString(": ")
			b.WriteString(cause)
		}
	}
	for _, field := range sortedKeys(e.Fields) {
		fmt.Fprintf(&b, "; %s: %s", field, strings.Join(e.Fields[field], " "))
	}
	return b.String()
}

func (e *Error) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status of a failed request, if it got one.
func StatusCode(err error) (int, bool) {
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode == 0 {
		return 0, false
	}
	return apiErr.StatusCode, true
}

// FieldErrors returns the per-field messages of a validation failure.
func FieldErrors(err error) map[string][]string {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return nil
	}
	return apiErr.Fields
}

func kindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return domain.ErrAuthExpired
	case status >= http.StatusInternalServerError:
		return domain.ErrServer
	default:
		return domain.ErrValidation
	}
}

func errorFromResponse(method, path string, resp *Response) *Error {
	apiErr := &Error{
		Kind:       kindForStatus(resp.StatusCode),
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
	}

	contentType := resp.Header.Get("Content-Type")
	trimmed := strings.TrimSpace(string(resp.Body))
	switch {
	case trimmed == "":
		apiErr.Message = http.StatusText(resp.StatusCode)
	case isLikelyHTMLResponse(contentType, trimmed):
		apiErr.Message = "html response body omitted"
	default:
		summary, fields, ok := parseJSONError(resp.Body)
		if !ok {
			apiErr.Message = truncate(trimmed, maxErrorSummaryLen)
			break
		}
		apiErr.Message = summary
		if len(fields) > 0 {
			apiErr.Fields = fields
		}
	}

	return apiErr
}

// parseJSONError reads REST framework style bodies: a summary under detail,
// error, message or non_field_errors and per-field message lists.
func parseJSONError(payload []byte) (string, map[string][]string, bool) {
	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		var list []any
		if err := json.Unmarshal(payload, &list); err != nil {
			return "", nil, false
		}
		return strings.Join(messages(list), " "), nil, true
	}

	summary := ""
	for _, key := range []string{"detail", "error", "message", "non_field_errors"} {
		raw, ok := body[key]
		if !ok {
			continue
		}
		if text := strings.Join(messages(raw), " "); text != "" {
			summary = truncate(text, maxErrorSummaryLen)
			break
		}
		if nested, ok := raw.(map[string]any); ok {
			if text, ok := nested["message"].(string); ok && strings.TrimSpace(text) != "" {
				summary = truncate(strings.TrimSpace(text), maxErrorSummaryLen)
				break
			}
		}
	}

	fields := make(map[string][]string)
	for key, raw := range body {
		switch key {
		case "detail", "error", "message", "non_field_errors", "code":
			continue
		}
		if msgs := messages(raw); len(msgs) > 0 {
			fields[key] = msgs
		}
	}

	if summary == "" && len(fields) > 0 {
		summary = "invalid input"
	}
	return summary, fields, true
}

func messages(raw any) []string {
	switch value := raw.(type) {
	case string:
		if value = strings.TrimSpace(value); value != "" {
			return []string{value}
		}
	case []any:
		var out []string
		for _, item := range value {
			out = append(out, messages(item)...)
		}
		return out
	}
	return nil
}

func isLikelyHTMLResponse(contentType, body string) bool {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}
	lowerBody := strings.ToLower(body)
	return strings.HasPrefix(lowerBody, "<!doctype html") || strings.HasPrefix(lowerBody, "<html")
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max] + "..."
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
