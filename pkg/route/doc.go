// Package route provides the declarative route tree and its resolver.
//
// A tree is an ordered list of nodes. A Stack groups children under a path
// prefix, and an Endpoint binds one path segment (relative to the accumulated
// prefix) to a Target: a static file, a handler bound to one HTTP method, or
// the Unmatched sentinel which records the not-found fallback.
//
// Segments starting with ParamPrefix are positional parameters. They match any
// single non-empty segment at the same position of the request path and are
// returned in Resolved.Params.
//
// Example:
//
//	tree := route.NewTree("404.html",
//	    route.NewEndpoint("", route.File("index.html")),
//	    route.NewStack("/", route.NewEndpoint("user/:id", route.HandleFunc(route.MethodGet, showUser))),
//	)
//	resolved := tree.Resolve("/user/42", route.MethodGet)
//	// resolved.Params["id"] == "42"
//
// Trees are immutable after NewTree returns and safe for concurrent use.
package route
