package sockjs

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// xhrStreamingPrelude is the 2KiB 'h' padding sent before the first real
// frame, which forces IE/old-WebKit XHR implementations to fire their
// first onprogress/onreadystatechange event immediately instead of
// buffering the whole response.
var xhrStreamingPrelude = strings.Repeat("h", 2048) + "\n"

// serveXHRStreaming implements POST /{server}/{session}/xhr_streaming:
// a long-lived response that streams frames until max_size bytes have
// been written.
func (d *Dispatcher) serveXHRStreaming(c *gin.Context, sid string) {
	corsHeaders(c.Writer, c.Request)
	noCacheHeaders(c.Writer)
	if c.Request.Method == http.MethodOptions {
		preflightResponse(c.Writer, c.Request, "OPTIONS, POST")
		return
	}
	if c.Request.Method != http.MethodPost {
		writeAppError(c.Writer, errMethodNotAllow)
		return
	}
	jsessionidCookie(c.Writer, c.Request, d.opts.CookieNeeded)
	c.Writer.Header().Set("Content-Type", "application/javascript; charset=UTF-8")
	c.Writer.WriteHeader(http.StatusOK)

	n, _ := writeAndFlush(c.Writer, xhrStreamingPrelude)

	d.runStreaming(c, sid, d.opts.MaxSize, n, func(f *Frame) (int, error) {
		return writeAndFlush(c.Writer, f.Encode()+"\n")
	})
}
