// Package routing implements the path router: template compilation and a
// specificity-sorted, first-match dispatch table.
package routing

import (
	"regexp"
	"strings"
)

const paramWeight = 100

// Pattern is a compiled path template. A segment of the form ":name" matches
// one or more non-slash characters and binds the capture to that name; every
// other character matches literally. Patterns are immutable once compiled.
type Pattern struct {
	// Template is the original template, with at most one trailing slash
	// stripped (the root "/" is preserved).
	Template string
	// ParamNames holds the bound names in left-to-right order; ParamNames[i]
	// corresponds to capture group i+1 of the matcher.
	ParamNames []string

	matcher     *regexp.Regexp
	staticCount int
	paramCount  int
}

// Compile turns a path template into an anchored matcher. Every template is
// compilable; duplicate parameter names are accepted, and the later
// occurrence wins when the decoded params map is built.
func Compile(template string) Pattern {
	if len(template) > 1 && strings.HasSuffix(template, "/") {
		template = template[:len(template)-1]
	}

	p := Pattern{Template: template}

	var expr strings.Builder
	expr.WriteString("^")
	segments := strings.Split(template, "/")
	for i, seg := range segments {
		if i > 0 {
			expr.WriteString("/")
		}
		if strings.HasPrefix(seg, ":") && len(seg) > 1 {
			p.ParamNames = append(p.ParamNames, seg[1:])
			p.paramCount++
			expr.WriteString("([^/]+)")
			continue
		}
		if seg != "" {
			p.staticCount++
		}
		expr.WriteString(regexp.QuoteMeta(seg))
	}
	expr.WriteString("$")

	p.matcher = regexp.MustCompile(expr.String())
	return p
}

// Match tests path against the compiled matcher. On success it returns the
// raw (still percent-encoded) capture values in ParamNames order. Matching is
// case-sensitive and anchored start-to-end.
func (p Pattern) Match(path string) ([]string, bool) {
	m := p.matcher.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	return m[1:], true
}

// Specificity scores the pattern so that routes with more literal segments
// and fewer parameters sort first at the same depth.
func (p Pattern) Specificity() int {
	return p.staticCount*paramWeight - p.paramCount
}
