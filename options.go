package sockjs

import "github.com/redis/go-redis/v9"

// transportNames lists every transport the dispatcher knows how to
// route (the keys of transportHandlers). Options.DisableTransports is not
// checked against it; /info's "websocket" flag comes from
// websocketEnabled.
var transportNames = []string{
	"websocket", "xhr", "xhr_send", "xhr_streaming",
	"eventsource", "htmlfile", "jsonp", "jsonp_send",
}

// defaultMaxSize is the per-connection byte budget for streaming
// transports, 128KiB.
const defaultMaxSize = 131072

// maxRequestBody bounds reads on _send endpoints.
const maxRequestBody = 131072

// Options configures a Dispatcher and the Manager it owns.
type Options struct {
	// DisableTransports names transports that should be treated as
	// absent: requests 404, and /info's "websocket" flag flips to false
	// if "websocket" is disabled.
	DisableTransports map[string]bool

	// MaxSize bounds bytes written per connection on streaming
	// transports before they are closed. Zero selects defaultMaxSize.
	MaxSize int64

	// CookieNeeded reports in /info and causes JSESSIONID to be set on
	// session-traffic responses.
	CookieNeeded bool

	// SessionFactory constructs the embedder's Handler for each new
	// session id. Defaults to a factory returning BaseHandler{}.
	SessionFactory SessionFactory

	// Redis, if non-nil, is used to fan broadcasts out across multiple
	// process instances sharing a SockJS endpoint behind a load
	// balancer. Nil (the default) keeps Broadcast single-process.
	Redis *redis.Options

	// RedisChannel is the pub/sub channel used for the broadcast bridge.
	// Defaults to "sockjs:broadcast".
	RedisChannel string
}

func (o *Options) setDefaults() {
	if o.DisableTransports == nil {
		o.DisableTransports = map[string]bool{}
	}
	if o.MaxSize == 0 {
		o.MaxSize = defaultMaxSize
	}
	if o.SessionFactory == nil {
		o.SessionFactory = func() Handler { return BaseHandler{} }
	}
	if o.RedisChannel == "" {
		o.RedisChannel = "sockjs:broadcast"
	}
}

// transportEnabled reports whether name is usable given o.
func (o *Options) transportEnabled(name string) bool {
	if o.DisableTransports[name] {
		return false
	}
	if (name == "websocket") && !o.websocketEnabled() {
		return false
	}
	return true
}

func (o *Options) websocketEnabled() bool {
	return !o.DisableTransports["websocket"]
}
