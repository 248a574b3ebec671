package router

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/rdivossen/iotedge/internal/apiversion"
)

// Handler produces a response for a matched request. It returns an error
// rather than writing directly so the dispatcher can translate failures into
// the appropriate wire-form error uniformly, the same way every other
// handler's failures are translated. req is the matched inbound request,
// for handlers that need its body, headers, or context.
type Handler interface {
	ServeRoute(w ResponseWriter, req *http.Request, params Parameters) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(w ResponseWriter, req *http.Request, params Parameters) error

func (f HandlerFunc) ServeRoute(w ResponseWriter, req *http.Request, params Parameters) error {
	return f(w, req, params)
}

// ResponseWriter is the surface a Handler needs. http.ResponseWriter
// satisfies it directly.
type ResponseWriter interface {
	Header() http.Header
	WriteHeader(statusCode int)
	Write([]byte) (int, error)
}

// Route is one registered (method, version, path pattern) triple.
type Route struct {
	Method  string
	Version apiversion.ApiVersion
	Pattern string
	Handler Handler

	re    *regexp.Regexp
	names []string
}

var segmentName = regexp.MustCompile(`:([A-Za-z_][A-Za-z0-9_]*)`)

// compilePattern turns a pattern like "/modules/:name" into an anchored
// regexp with one named capture group per ":name" segment, plus the ordered
// list of capture names in appearance order.
func compilePattern(pattern string) (*regexp.Regexp, []string, error) {
	var names []string
	var out strings.Builder
	out.WriteByte('^')

	segments := strings.Split(pattern, "/")
	for i, seg := range segments {
		if i > 0 {
			out.WriteByte('/')
		}
		if seg == "" {
			continue
		}
		if m := segmentName.FindStringSubmatch(seg); m != nil && m[0] == seg {
			name := m[1]
			for _, n := range names {
				if n == name {
					return nil, nil, fmt.Errorf("router: duplicate capture name %q in pattern %q", name, pattern)
				}
			}
			names = append(names, name)
			out.WriteString(fmt.Sprintf("(?P<%s>[^/]+)", name))
			continue
		}
		out.WriteString(regexp.QuoteMeta(seg))
	}
	out.WriteByte('$')

	re, err := regexp.Compile(out.String())
	if err != nil {
		return nil, nil, fmt.Errorf("router: compiling pattern %q: %w", pattern, err)
	}
	return re, names, nil
}

func (r *Route) match(path string) (Parameters, bool) {
	m := r.re.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	params := make(Parameters, 0, len(r.names))
	for _, name := range r.names {
		idx := r.re.SubexpIndex(name)
		params = append(params, Parameter{Name: name, Value: m[idx]})
	}
	return params, true
}

func (r *Route) key() string {
	return r.Method + " " + r.Version.String() + " " + r.Pattern
}
