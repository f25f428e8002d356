package sockjs

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// serveXHR implements POST /{server}/{session}/xhr: a single batch of
// buffered frames per response, then the connection closes.
func (d *Dispatcher) serveXHR(c *gin.Context, sid string) {
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

	d.runSingleShot(c, sid, func(f *Frame) (int, error) {
		return writeAndFlush(c.Writer, f.Encode()+"\n")
	})
}
