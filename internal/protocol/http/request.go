package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/marmos91/dittoweb/pkg/route"
)

// ErrMalformedRequest is returned when the request line has fewer than two
// space-separated tokens.
var ErrMalformedRequest = errors.New("malformed request line")

// RequestLine is the parsed first line of a request.
type RequestLine struct {
	// Token is the method token exactly as sent.
	Token string

	// Method is Token mapped onto the closed method set, ignoring case.
	Method route.Method

	// Path is the request target as sent, query string included.
	Path string

	// Version is the protocol token, empty when the client omitted it.
	Version string
}

// ParseRequestLine extracts the method and path from raw request text.
//
// The request line is everything before the first '\n' (a trailing '\r' is
// dropped). It is split on single spaces; element 0 is the method token and
// element 1 the path.
//
// Returns ErrMalformedRequest (wrapped) when either element is missing.
func ParseRequestLine(raw string) (RequestLine, error) {
	line := raw
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSuffix(line, "\r")

	parts := strings.Split(line, " ")
	if len(parts) < 2 || parts[0] == "" {
		return RequestLine{}, fmt.Errorf("%w: %q", ErrMalformedRequest, truncate(line, 64))
	}

	rl := RequestLine{
		Token:  parts[0],
		Method: route.ParseMethod(parts[0]),
		Path:   parts[1],
	}
	if len(parts) > 2 {
		rl.Version = parts[2]
	}
	return rl, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
