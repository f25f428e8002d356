package sockjs

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// htmlfilePreludeTemplate is the document head wrapped around every
// htmlfile response; the first %s is the validated callback name and the
// second the whitespace padding. It is padded past 1KiB
// so IE renders its contents incrementally instead of waiting for the
// whole document.
const htmlfilePreludeTemplate = `<!doctype html>
<html><head>
  <script>
    document.domain = document.domain;
    var c = parent.%s;
    c.start();
    function p(d) {c.message(d);};
    window.onload = function() {c.stop();};
  </script>
</head><body>
  <h2>Don't panic!</h2>
  <script>
    %s
  </script>
`

// serveHTMLFile implements GET /{server}/{session}/htmlfile: a
// long-lived document streaming <script>p("...")</script> blocks.
func (d *Dispatcher) serveHTMLFile(c *gin.Context, sid string) {
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
	c.Writer.Header().Set("Content-Type", "text/html; charset=UTF-8")
	c.Writer.WriteHeader(http.StatusOK)

	padding := strings.Repeat(" ", 1024)
	n, _ := writeAndFlush(c.Writer, fmt.Sprintf(htmlfilePreludeTemplate, callback, padding))

	d.runStreaming(c, sid, d.opts.MaxSize, n, func(f *Frame) (int, error) {
		body, _ := json.Marshal(f.Encode())
		return writeAndFlush(c.Writer, "<script>\np("+string(body)+");\n</script>\r\n")
	})
}
