package sockjs

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// iframePattern matches "iframe.html" and "iframe{anything}.html".
var iframePattern = regexp.MustCompile(`^iframe[^/]*\.html$`)

// transportHandlerFunc serves one attempt at one of the
// /{server}/{session}/{transport} routes.
type transportHandlerFunc func(d *Dispatcher, c *gin.Context, sid string)

var transportHandlers = map[string]transportHandlerFunc{
	"websocket":     (*Dispatcher).serveSockJSWebsocket,
	"xhr":           (*Dispatcher).serveXHR,
	"xhr_send":      (*Dispatcher).serveXHRSend,
	"xhr_streaming": (*Dispatcher).serveXHRStreaming,
	"eventsource":   (*Dispatcher).serveEventSource,
	"htmlfile":      (*Dispatcher).serveHTMLFile,
	"jsonp":         (*Dispatcher).serveJSONP,
	"jsonp_send":    (*Dispatcher).serveJSONPSend,
}

// Dispatcher is the URL router for the SockJS endpoint family: greeting,
// /info, /iframe*.html, /websocket (raw), and
// /{server}/{session}/{transport}. It owns a Manager and
// is itself an http.Handler, so it can be mounted at any prefix.
type Dispatcher struct {
	opts    Options
	manager *Manager
	engine  *gin.Engine
	prefix  string
	log     zerolog.Logger
}

// NewDispatcher builds a Dispatcher serving the SockJS endpoint family
// rooted at prefix (e.g. "/echo"). prefix must not have a trailing
// slash; it is stripped from incoming request paths before matching.
func NewDispatcher(prefix string, opts Options) *Dispatcher {
	opts.setDefaults()

	d := &Dispatcher{
		opts:    opts,
		manager: NewManager(opts),
		prefix:  strings.TrimSuffix(prefix, "/"),
		log:     dispatcherLog(),
	}

	e := gin.New()
	e.Use(gin.Recovery())
	e.Use(d.requestIDMiddleware())
	e.NoRoute(d.route)
	d.engine = e

	return d
}

// Manager returns the session manager backing this dispatcher.
func (d *Dispatcher) Manager() *Manager { return d.manager }

// Start begins processing sessions (manager goroutine + expiry sweep).
func (d *Dispatcher) Start() { d.manager.Start() }

// Stop halts the manager.
func (d *Dispatcher) Stop() { d.manager.Stop() }

// ServeHTTP implements http.Handler.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.engine.ServeHTTP(w, r)
}

// requestIDMiddleware stamps every request with a correlation id.
func (d *Dispatcher) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-Id")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set("request_id", rid)
		c.Header("X-Request-Id", rid)
		c.Next()
	}
}

// route implements the ordered match across the endpoint family; gin's
// NoRoute hook is used as a catch-all so the ordering below, not gin's
// route tree, decides every match.
func (d *Dispatcher) route(c *gin.Context) {
	rest := strings.TrimPrefix(c.Request.URL.Path, d.prefix)
	rest = strings.TrimPrefix(rest, "/")

	switch {
	case rest == "":
		d.handleGreeting(c)
	case rest == "info":
		d.handleInfo(c)
	case iframePattern.MatchString(rest):
		serveIframe(c.Writer, c.Request)
	case rest == "websocket":
		d.serveRawWebsocket(c)
	default:
		d.routeSessionTransport(c, rest)
	}
}

func (d *Dispatcher) handleGreeting(c *gin.Context) {
	c.Data(http.StatusOK, "text/plain; charset=UTF-8", []byte("Welcome to SockJS!\n"))
}

// routeSessionTransport matches /{server}/{session}/{transport} and
// dispatches to the named transport's handler.
func (d *Dispatcher) routeSessionTransport(c *gin.Context, rest string) {
	parts := strings.Split(rest, "/")
	if len(parts) != 3 {
		c.Status(http.StatusNotFound)
		return
	}
	server, sid, transport := parts[0], parts[1], parts[2]

	if server == "" || sid == "" || strings.Contains(server, ".") || strings.Contains(sid, ".") {
		writeAppError(c.Writer, errBadServerOrSess)
		return
	}

	handler, known := transportHandlers[transport]
	if !known {
		c.Status(http.StatusNotFound)
		return
	}
	if !d.opts.transportEnabled(transport) {
		writeAppError(c.Writer, errTransportDisabl)
		return
	}

	handler(d, c, sid)
}
