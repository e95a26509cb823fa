package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/marmos91/dittoweb/pkg/handlers"
	"github.com/marmos91/dittoweb/pkg/route"
)

// RouteSpec is one node of the configured route tree.
//
// A spec is either a stack:
//
//	- stack: /api
//	  children: [...]
//
// or an endpoint with exactly one target:
//
//	- endpoint: "users/:id"
//	  handler: users.list
//	  method: GET
//	- endpoint: about
//	  file: about.html
//	- endpoint: "*"
//	  unmatched: true
//
// Stack and Endpoint are pointers because the empty string is a valid value
// for both ("" is the root endpoint).
type RouteSpec struct {
	Stack     *string     `mapstructure:"stack" yaml:"stack,omitempty"`
	Children  []RouteSpec `mapstructure:"children" yaml:"children,omitempty" validate:"dive"`
	Endpoint  *string     `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	File      string      `mapstructure:"file" yaml:"file,omitempty"`
	Handler   string      `mapstructure:"handler" yaml:"handler,omitempty"`
	Method    string      `mapstructure:"method" yaml:"method,omitempty" validate:"omitempty,oneof=GET POST PUT get post put"`
	Unmatched bool        `mapstructure:"unmatched" yaml:"unmatched,omitempty"`
}

// StackSpec returns a stack spec.
func StackSpec(prefix string, children ...RouteSpec) RouteSpec {
	return RouteSpec{Stack: &prefix, Children: children}
}

// FileSpec returns an endpoint spec serving a static file.
func FileSpec(segment, file string) RouteSpec {
	return RouteSpec{Endpoint: &segment, File: file}
}

// HandlerSpec returns an endpoint spec calling a registered handler.
func HandlerSpec(segment, handler, method string) RouteSpec {
	return RouteSpec{Endpoint: &segment, Handler: handler, Method: method}
}

// DefaultRoutes is the demo tree used when no routes are configured.
func DefaultRoutes() []RouteSpec {
	return []RouteSpec{
		FileSpec("", "index.html"),
		StackSpec("/",
			HandlerSpec("website/:url", handlers.NameFetch, "GET"),
			HandlerSpec("start/:url/:name/end", handlers.NameParams, "GET"),
			HandlerSpec("test", handlers.NameHeaders, "GET"),
		),
		StackSpec("/api",
			HandlerSpec("users", handlers.NameUsersList, "GET"),
			HandlerSpec("users", handlers.NameUsersInsert, "POST"),
			HandlerSpec("users/:name", handlers.NameUsersInsert, "POST"),
			StackSpec("/pages",
				FileSpec("hej", "index.html"),
				FileSpec("hej2", "index.html"),
			),
		),
	}
}

// knownHandlers lists the handler names a route may reference.
var knownHandlers = []string{
	handlers.NameParams,
	handlers.NameHeaders,
	handlers.NameUsersList,
	handlers.NameUsersInsert,
	handlers.NameFetch,
}

// validateRoutes checks the shape rules that struct tags cannot express.
func validateRoutes(specs []RouteSpec) error {
	for i, spec := range specs {
		if err := spec.check(fmt.Sprintf("routes[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

func (s RouteSpec) check(at string) error {
	switch {
	case s.Stack != nil && s.Endpoint != nil:
		return fmt.Errorf("%s: stack and endpoint are mutually exclusive", at)

	case s.Stack != nil:
		if s.File != "" || s.Handler != "" || s.Method != "" || s.Unmatched {
			return fmt.Errorf("%s: stack %q cannot have file, handler, method or unmatched", at, *s.Stack)
		}
		for i, child := range s.Children {
			if err := child.check(fmt.Sprintf("%s.children[%d]", at, i)); err != nil {
				return err
			}
		}
		return nil

	case s.Endpoint != nil:
		if len(s.Children) > 0 {
			return fmt.Errorf("%s: endpoint %q cannot have children", at, *s.Endpoint)
		}
		targets := 0
		if s.File != "" {
			targets++
		}
		if s.Handler != "" {
			targets++
		}
		if s.Unmatched {
			targets++
		}
		if targets != 1 {
			return fmt.Errorf("%s: endpoint %q needs exactly one of file, handler or unmatched", at, *s.Endpoint)
		}
		if s.Method != "" && s.Handler == "" {
			return fmt.Errorf("%s: method is only valid with a handler", at)
		}
		if s.Handler != "" && !slices.Contains(knownHandlers, s.Handler) {
			return fmt.Errorf("%s: unknown handler %q (available: %s)", at, s.Handler, strings.Join(knownHandlers, ", "))
		}
		return nil

	default:
		return fmt.Errorf("%s: one of stack or endpoint is required", at)
	}
}

// BuildRouteTree converts the configured routes into a route.Tree, resolving
// handler names against reg. The tree's not-found file is statics.custom_404.
func BuildRouteTree(cfg *Config, reg *handlers.Registry) (*route.Tree, error) {
	specs := cfg.Routes
	if len(specs) == 0 {
		specs = DefaultRoutes()
	}

	nodes, err := buildNodes(specs, reg, "routes")
	if err != nil {
		return nil, err
	}
	return route.NewTree(cfg.Statics.Custom404, nodes...), nil
}

func buildNodes(specs []RouteSpec, reg *handlers.Registry, at string) ([]route.Node, error) {
	nodes := make([]route.Node, 0, len(specs))
	for i, spec := range specs {
		node, err := spec.node(reg, fmt.Sprintf("%s[%d]", at, i))
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (s RouteSpec) node(reg *handlers.Registry, at string) (route.Node, error) {
	if err := s.check(at); err != nil {
		return nil, err
	}

	if s.Stack != nil {
		children, err := buildNodes(s.Children, reg, at+".children")
		if err != nil {
			return nil, err
		}
		return route.NewStack(*s.Stack, children...), nil
	}

	switch {
	case s.File != "":
		return route.NewEndpoint(*s.Endpoint, route.File(s.File)), nil
	case s.Unmatched:
		return route.NewEndpoint(*s.Endpoint, route.Unmatched), nil
	}

	method := route.MethodGet
	if s.Method != "" {
		method = route.ParseMethod(s.Method)
		if method == route.MethodUnrecognized {
			return nil, fmt.Errorf("%s: unknown method %q", at, s.Method)
		}
	}
	target, err := reg.Target(s.Handler, method)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", at, err)
	}
	return route.NewEndpoint(*s.Endpoint, target), nil
}
