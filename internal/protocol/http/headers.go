package http

import (
	"fmt"
	"io"
	"strings"
)

// Headers maps header names, exactly as sent, to their trimmed values.
//
// Keys are case-sensitive: a client sending "host:" does not satisfy a lookup
// for "Host".
type Headers map[string]string

// ParseHeaders collects the header lines of raw, stopping at the blank line
// that separates headers from the body. The request line is skipped.
//
// Each line is split at its first colon; the key is kept verbatim and the value
// is trimmed of surrounding whitespace. Lines without a colon are ignored and
// later duplicates win.
func ParseHeaders(raw string) Headers {
	headers := Headers{}

	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		if i == 0 {
			continue
		}
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			break
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers[key] = strings.TrimSpace(value)
	}

	return headers
}

// Get returns the value of name, or "" when absent.
func (h Headers) Get(name string) string {
	return h[name]
}

// Values returns the values of names in order, "" for missing ones.
func (h Headers) Values(names ...string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = h[name]
	}
	return out
}

// Missing reports which of required are not present.
func (h Headers) Missing(required ...string) []string {
	var missing []string
	for _, name := range required {
		if _, ok := h[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// ExpectHeaders checks that every required header is present.
//
// When one or more are missing it writes a 400 text response listing all of
// the required names, e.g. `Missing headers: ["Host" "Accept"]`, and returns
// false. The caller must not write anything else in that case.
func ExpectHeaders(w io.Writer, headers Headers, required ...string) (bool, error) {
	if len(headers.Missing(required...)) == 0 {
		return true, nil
	}

	body := fmt.Sprintf("Missing headers: %q", required)
	return false, WriteContent(w, StatusBadRequest, ContentTypeText, []byte(body))
}
