package sockjs

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// serveEventSource implements GET /{server}/{session}/eventsource: an
// EventSource stream, one frame per "data:" event.
func (d *Dispatcher) serveEventSource(c *gin.Context, sid string) {
	corsHeaders(c.Writer, c.Request)
	noCacheHeaders(c.Writer)
	if c.Request.Method != http.MethodGet {
		writeAppError(c.Writer, errMethodNotAllow)
		return
	}
	jsessionidCookie(c.Writer, c.Request, d.opts.CookieNeeded)
	c.Writer.Header().Set("Content-Type", "text/event-stream; charset=UTF-8")
	c.Writer.WriteHeader(http.StatusOK)

	// A leading blank line protects against a known Opera bug that drops
	// the first event if no prior data was seen on the stream.
	n, _ := writeAndFlush(c.Writer, "\r\n")

	d.runStreaming(c, sid, d.opts.MaxSize, n, func(f *Frame) (int, error) {
		return writeAndFlush(c.Writer, "data: "+f.Encode()+"\r\n\r\n")
	})
}
