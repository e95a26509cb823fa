package route

import (
	"strings"
)

// Tree is an immutable route tree plus the file served when nothing matches.
type Tree struct {
	nodes    []Node
	notFound string
}

// NewTree builds a tree from nodes in declaration order.
//
// The node slices are copied, so later changes by the caller do not affect the
// tree. An empty notFound selects DefaultNotFound.
func NewTree(notFound string, nodes ...Node) *Tree {
	if notFound == "" {
		notFound = DefaultNotFound
	}
	return &Tree{
		nodes:    cloneNodes(nodes),
		notFound: notFound,
	}
}

func cloneNodes(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		switch v := n.(type) {
		case Stack:
			out = append(out, Stack{Prefix: v.Prefix, Children: cloneNodes(v.Children)})
		case *Stack:
			out = append(out, Stack{Prefix: v.Prefix, Children: cloneNodes(v.Children)})
		case Endpoint:
			out = append(out, NewEndpoint(v.Segment, v.Target))
		case *Endpoint:
			out = append(out, NewEndpoint(v.Segment, v.Target))
		}
	}
	return out
}

// NotFound returns the fallback file path.
func (t *Tree) NotFound() string {
	return t.notFound
}

// Resolve walks the tree depth-first in declaration order and returns the
// first endpoint matching path and method.
//
// Matching rules:
//   - Request and declared paths are split on "/" with empty segments dropped,
//     so "//a/b/" and "/a/b" are the same path.
//   - Parameter segments bind the request segment at the same position; a
//     parameter past the end of the request path binds "null".
//   - A StaticFile endpoint matches on equal segments. A HandlerTarget also
//     requires the same method. A method mismatch keeps scanning.
//   - An Unmatched endpoint records StaticFile(NotFound()) as the result and
//     keeps scanning.
//   - Once a Stack yields anything other than Unmatched, including a recorded
//     not-found fallback, its siblings are not tried.
//
// When nothing matches the result is the last recorded fallback at the top
// level, or Unmatched with no params.
func (t *Tree) Resolve(path string, method Method) Resolved {
	return t.resolve(t.nodes, "", splitSegments(path), method)
}

func (t *Tree) resolve(nodes []Node, prefix string, input []string, method Method) Resolved {
	result := Resolved{Target: Unmatched, Params: Params{}}

	for _, node := range nodes {
		switch n := node.(type) {
		case Stack:
			inner := t.resolve(n.Children, prefix+n.Prefix, input, method)
			if !IsUnmatched(inner.Target) {
				return inner
			}

		case Endpoint:
			declared := splitSegments(joinPrefix(prefix, n.Segment))
			params, equal := matchSegments(declared, input)

			switch target := n.Target.(type) {
			case StaticFile:
				if equal {
					return Resolved{Target: target, Params: params}
				}
			case HandlerTarget:
				if equal && method != MethodUnrecognized && target.Method == method {
					return Resolved{Target: target, Params: params}
				}
			default:
				result = Resolved{Target: StaticFile{Path: t.notFound}, Params: params}
			}
		}
	}

	return result
}

// matchSegments binds parameters by position and compares the remaining
// literal segments. Parameter positions are excluded from the comparison on
// both sides, which leaves the two sequences equal only when their lengths
// match and every literal position agrees.
func matchSegments(declared, input []string) (Params, bool) {
	params := Params{}
	for i, seg := range declared {
		name, ok := paramName(seg)
		if !ok {
			continue
		}
		if i < len(input) {
			params[name] = input[i]
		} else {
			params[name] = unboundParam
		}
	}

	if len(declared) != len(input) {
		return params, false
	}
	for i, seg := range declared {
		if _, ok := paramName(seg); ok {
			continue
		}
		if seg != input[i] {
			return params, false
		}
	}
	return params, true
}

func paramName(segment string) (string, bool) {
	if !strings.HasPrefix(segment, ParamPrefix) {
		return "", false
	}
	return segment[len(ParamPrefix):], true
}

// joinPrefix appends segment to prefix without doubling a trailing slash.
func joinPrefix(prefix, segment string) string {
	if strings.HasSuffix(prefix, "/") {
		return prefix + segment
	}
	return prefix + "/" + segment
}

// splitSegments splits a path on "/" and drops empty segments.
func splitSegments(path string) []string {
	parts := strings.Split(path, "/")
	segments := parts[:0]
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// Entry is one endpoint as seen by Walk.
type Entry struct {
	// Path is the fully qualified, normalized path ("/" for the root).
	Path   string
	Target Target
}

// Walk calls fn for every endpoint in resolution order.
func (t *Tree) Walk(fn func(Entry)) {
	walk(t.nodes, "", fn)
}

// Entries returns every endpoint in resolution order.
func (t *Tree) Entries() []Entry {
	var entries []Entry
	t.Walk(func(e Entry) {
		entries = append(entries, e)
	})
	return entries
}

func walk(nodes []Node, prefix string, fn func(Entry)) {
	for _, node := range nodes {
		switch n := node.(type) {
		case Stack:
			walk(n.Children, prefix+n.Prefix, fn)
		case Endpoint:
			segments := splitSegments(joinPrefix(prefix, n.Segment))
			fn(Entry{Path: "/" + strings.Join(segments, "/"), Target: n.Target})
		}
	}
}
