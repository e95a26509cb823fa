package route

import (
	"context"
	"fmt"
	"net"
	"strings"
)

// ParamPrefix marks a declared segment as a positional parameter.
const ParamPrefix = ":"

// DefaultNotFound is the fallback file used when no custom 404 file is configured.
const DefaultNotFound = "404.html"

// unboundParam is bound to a parameter whose position lies past the end of the request path.
const unboundParam = "null"

// ============================================================================
// Methods
// ============================================================================

// Method is the closed set of HTTP methods a handler can be bound to.
type Method int

const (
	// MethodUnrecognized never matches a handler endpoint.
	MethodUnrecognized Method = iota
	MethodGet
	MethodPost
	MethodPut
)

// ParseMethod maps a request-line token to a Method, ignoring case.
func ParseMethod(token string) Method {
	switch strings.ToUpper(token) {
	case "GET":
		return MethodGet
	case "POST":
		return MethodPost
	case "PUT":
		return MethodPut
	default:
		return MethodUnrecognized
	}
}

func (m Method) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodPost:
		return "POST"
	case MethodPut:
		return "PUT"
	default:
		return "UNRECOGNIZED"
	}
}

// ============================================================================
// Handlers
// ============================================================================

// Params holds the parameters bound while matching an endpoint, keyed by the
// declared name without ParamPrefix.
type Params map[string]string

// Handler serves a connection whose request resolved to a handler endpoint.
//
// The handler owns the connection for the duration of the call and must write
// a complete response before returning. request is the raw request text as
// read from the connection.
type Handler interface {
	Handle(ctx context.Context, conn net.Conn, request string, params Params)
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(ctx context.Context, conn net.Conn, request string, params Params)

// Handle calls f(ctx, conn, request, params).
func (f HandlerFunc) Handle(ctx context.Context, conn net.Conn, request string, params Params) {
	f(ctx, conn, request, params)
}

// ============================================================================
// Targets
// ============================================================================

// Target is what an endpoint resolves to: StaticFile, HandlerTarget or Unmatched.
type Target interface {
	isTarget()
}

// StaticFile resolves to a file relative to the static root.
type StaticFile struct {
	Path string
}

// HandlerTarget resolves to a handler bound to exactly one method.
type HandlerTarget struct {
	Method  Method
	Handler Handler

	// Name identifies the handler in listings. Optional.
	Name string
}

type unmatched struct{}

// Unmatched marks "no route here". As an endpoint target it records the
// not-found fallback without ending the scan.
var Unmatched Target = unmatched{}

func (StaticFile) isTarget()    {}
func (HandlerTarget) isTarget() {}
func (unmatched) isTarget()     {}

// File returns a StaticFile target.
func File(path string) Target {
	return StaticFile{Path: path}
}

// Handle returns a HandlerTarget for h bound to method.
func Handle(method Method, h Handler) Target {
	return HandlerTarget{Method: method, Handler: h}
}

// HandleFunc returns a HandlerTarget for fn bound to method.
func HandleFunc(method Method, fn func(ctx context.Context, conn net.Conn, request string, params Params)) Target {
	return HandlerTarget{Method: method, Handler: HandlerFunc(fn)}
}

// Named returns a HandlerTarget carrying a display name.
func Named(name string, method Method, h Handler) Target {
	return HandlerTarget{Method: method, Handler: h, Name: name}
}

// IsUnmatched reports whether t is the Unmatched sentinel (or nil).
func IsUnmatched(t Target) bool {
	if t == nil {
		return true
	}
	_, ok := t.(unmatched)
	return ok
}

// Describe renders a target for logs and route listings.
func Describe(t Target) string {
	switch v := t.(type) {
	case StaticFile:
		return fmt.Sprintf("file %s", v.Path)
	case HandlerTarget:
		if v.Name != "" {
			return fmt.Sprintf("handler %s %s", v.Method, v.Name)
		}
		return fmt.Sprintf("handler %s", v.Method)
	default:
		return "unmatched"
	}
}

// ============================================================================
// Nodes
// ============================================================================

// Node is a Stack or an Endpoint.
type Node interface {
	isNode()
}

// Stack groups child nodes under Prefix. Prefixes concatenate top-down.
type Stack struct {
	Prefix   string
	Children []Node
}

// Endpoint binds one segment path (relative to the enclosing prefixes) to a target.
type Endpoint struct {
	Segment string
	Target  Target
}

func (Stack) isNode()    {}
func (Endpoint) isNode() {}

// NewStack returns a Stack node.
func NewStack(prefix string, children ...Node) Node {
	return Stack{Prefix: prefix, Children: children}
}

// NewEndpoint returns an Endpoint node. A nil target is treated as Unmatched.
func NewEndpoint(segment string, target Target) Node {
	if target == nil {
		target = Unmatched
	}
	return Endpoint{Segment: segment, Target: target}
}

// Resolved is the outcome of one resolution.
type Resolved struct {
	Target Target
	Params Params
}
