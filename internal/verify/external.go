package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultHTTPTimeout bounds one network verification call.
const DefaultHTTPTimeout = 10 * time.Second

// ExternalSource verifies facts against HTTP endpoints. It claims the
// http_json and http_status prefixes and is only constructed when
// networking is explicitly enabled by the caller.
//
//	http_json:https://example.com/api|field  (field value from a JSON body)
//	http_status:https://example.com          (status code of a HEAD request)
type ExternalSource struct {
	client *http.Client
}

// NewExternalSource builds an external source with the given per-call
// timeout; zero selects DefaultHTTPTimeout.
func NewExternalSource(timeout time.Duration) *ExternalSource {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &ExternalSource{client: &http.Client{Timeout: timeout}}
}

// CanCheck implements Source.
func (s *ExternalSource) CanCheck(sourceID string) bool {
	switch prefixOf(sourceID) {
	case "http_json", "http_status":
		return true
	}
	return false
}

// Check implements Source.
func (s *ExternalSource) Check(ctx context.Context, sourceID, expected string) Result {
	prefix, arg, ok := splitSourceID(sourceID)
	if !ok {
		return unverifiable(expected, fmt.Sprintf("malformed source id: %s", sourceID))
	}
	switch prefix {
	case "http_json":
		return s.checkHTTPJSON(ctx, arg, expected)
	case "http_status":
		return s.checkHTTPStatus(ctx, arg, expected)
	}
	return unverifiable(expected, fmt.Sprintf("unknown source prefix: %s", prefix))
}

func (s *ExternalSource) checkHTTPJSON(ctx context.Context, arg, expected string) Result {
	// The URL may itself contain pipes in a query string, so the field
	// is split off the end.
	idx := strings.LastIndex(arg, "|")
	if idx < 0 {
		return unverifiable(expected, fmt.Sprintf("http_json requires URL|field format, got: %s", arg))
	}
	url, field := arg[:idx], arg[idx+1:]

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return unverifiable(expected, fmt.Sprintf("http request failed: %v", err))
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return unverifiable(expected, fmt.Sprintf("http request failed: %v", err))
	}
	defer resp.Body.Close()

	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return unverifiable(expected, fmt.Sprintf("http response decode failed: %v", err))
	}

	actual := stringifyJSON(data[field])
	if actual == "" {
		return unverifiable(expected, fmt.Sprintf("field %q not found in response", field))
	}
	if actual == expected {
		return match(expected, actual, fmt.Sprintf("http_json %s == %q", field, expected))
	}
	return contradiction(expected, actual, fmt.Sprintf("http_json %s: expected %q, got %q", field, expected, actual))
}

func (s *ExternalSource) checkHTTPStatus(ctx context.Context, url, expected string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return unverifiable(expected, fmt.Sprintf("http request failed: %v", err))
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return unverifiable(expected, fmt.Sprintf("http request failed: %v", err))
	}
	resp.Body.Close()

	actual := strconv.Itoa(resp.StatusCode)
	if actual == expected {
		return match(expected, actual, fmt.Sprintf("http_status == %s", expected))
	}
	return contradiction(expected, actual, fmt.Sprintf("http_status: expected %q, got %q", expected, actual))
}

// stringifyJSON renders a decoded JSON value the way it would appear in
// a record: integral floats without the decimal point, nil as empty.
func stringifyJSON(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
