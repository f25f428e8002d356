package sockjs

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// serveJSONP implements GET /{server}/{session}/jsonp: one frame per
// response, wrapped in a callback invocation for browsers that load the
// transport via a <script> tag.
func (d *Dispatcher) serveJSONP(c *gin.Context, sid string) {
	corsHeaders(c.Writer, c.Request)
	noCacheHeaders(c.Writer)
	if c.Request.Method != http.MethodGet {
		writeAppError(c.Writer, errMethodNotAllow)
		return
	}
	callback, perr := requireCallback(c.Query("c"))
	if perr != nil {
		writeAppError(c.Writer, perr)
		return
	}

	jsessionidCookie(c.Writer, c.Request, d.opts.CookieNeeded)
	c.Writer.Header().Set("Content-Type", "application/javascript; charset=UTF-8")
	c.Writer.WriteHeader(http.StatusOK)

	d.runSingleShot(c, sid, func(f *Frame) (int, error) {
		body, _ := json.Marshal(f.Encode())
		return writeAndFlush(c.Writer, "/**/"+callback+"("+string(body)+");\r\n")
	})
}
