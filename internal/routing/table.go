package routing

import (
	"net/http"
	"net/url"
	"sort"
)

// Params holds the percent-decoded path parameters of a dispatched request.
type Params map[string]string

// Route is one registered (method, pattern, handler) entry.
type Route struct {
	Method  string
	Pattern Pattern
	Handler http.Handler
}

// Builder accumulates routes before the table is frozen.
type Builder struct {
	routes   []Route
	notFound http.Handler
}

// NewBuilder returns an empty route table builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Handle compiles the template and records the route.
func (b *Builder) Handle(method, template string, h http.Handler) {
	b.routes = append(b.routes, Route{Method: method, Pattern: Compile(template), Handler: h})
}

// HandleFunc is Handle for plain handler functions.
func (b *Builder) HandleFunc(method, template string, h http.HandlerFunc) {
	b.Handle(method, template, h)
}

// NotFound sets the handler invoked when dispatch finds no match.
func (b *Builder) NotFound(h http.Handler) {
	b.notFound = h
}

// Build sorts the routes descending by specificity and returns the immutable
// table. The sort is stable, so ties keep registration order.
func (b *Builder) Build() *Table {
	routes := make([]Route, len(b.routes))
	copy(routes, b.routes)
	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].Pattern.Specificity() > routes[j].Pattern.Specificity()
	})
	notFound := b.notFound
	if notFound == nil {
		notFound = http.NotFoundHandler()
	}
	return &Table{routes: routes, notFound: notFound}
}

// Table is the frozen dispatch table. It is read-only after Build and safe
// for concurrent use without locking.
type Table struct {
	routes   []Route
	notFound http.Handler
}

// Dispatch scans the sorted routes and returns the first whose method matches
// exactly and whose pattern matches the full path, together with the decoded
// path parameters. ok is false when nothing matches.
func (t *Table) Dispatch(method, path string) (*Route, Params, bool) {
	for i := range t.routes {
		route := &t.routes[i]
		if route.Method != method {
			continue
		}
		values, matched := route.Pattern.Match(path)
		if !matched {
			continue
		}
		params := make(Params, len(values))
		for j, name := range route.Pattern.ParamNames {
			params[name] = decodeParam(values[j])
		}
		return route, params, true
	}
	return nil, nil, false
}

// ServeHTTP dispatches the request, attaches the matched route and params to
// the context and invokes the handler, or the not-found handler when no route
// matches.
func (t *Table) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route, params, ok := t.Dispatch(r.Method, r.URL.Path)
	if !ok {
		t.notFound.ServeHTTP(w, r)
		return
	}
	recordTemplate(r.Context(), route.Pattern.Template)
	ctx := contextWithMatch(r.Context(), route, params)
	route.Handler.ServeHTTP(w, r.WithContext(ctx))
}

// decodeParam percent-decodes a captured value, degrading to the raw value
// when the encoding is broken.
func decodeParam(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}
