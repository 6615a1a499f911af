package routing

import (
	"context"
	"net/http"
)

type matchContextKey struct{}

type match struct {
	route  *Route
	params Params
}

func contextWithMatch(ctx context.Context, route *Route, params Params) context.Context {
	return context.WithValue(ctx, matchContextKey{}, match{route: route, params: params})
}

// URLParam returns the decoded value of the named path parameter, or "" when
// the request was not dispatched through the table or the name is unbound.
func URLParam(r *http.Request, name string) string {
	m, _ := r.Context().Value(matchContextKey{}).(match)
	return m.params[name]
}

// RouteTemplate returns the template of the dispatched route, for logging.
// Empty when the request bypassed the table.
func RouteTemplate(ctx context.Context) string {
	m, _ := ctx.Value(matchContextKey{}).(match)
	if m.route == nil {
		return ""
	}
	return m.route.Pattern.Template
}

// Outer middleware cannot observe values the table adds to the inward-flowing
// context, so the matched template is reported through a mutable recorder the
// middleware installs before dispatch.

type recorderContextKey struct{}

type templateRecorder struct {
	template string
}

// WithRouteRecorder installs a route recorder the dispatch table fills in.
func WithRouteRecorder(ctx context.Context) context.Context {
	return context.WithValue(ctx, recorderContextKey{}, &templateRecorder{})
}

// RecordedTemplate returns the template filled in during dispatch, or "".
func RecordedTemplate(ctx context.Context) string {
	rec, _ := ctx.Value(recorderContextKey{}).(*templateRecorder)
	if rec == nil {
		return ""
	}
	return rec.template
}

func recordTemplate(ctx context.Context, template string) {
	if rec, ok := ctx.Value(recorderContextKey{}).(*templateRecorder); ok {
		rec.template = template
	}
}
