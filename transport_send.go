package sockjs

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// readSendPayload implements the shared body contract for xhr_send and
// jsonp_send: a JSON array of strings, each one delivered to the
// session's Handle hook in order.
func readSendPayload(r *http.Request) ([]string, *AppError) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody+1))
	if err != nil {
		return nil, errPayloadExpected
	}
	if len(body) == 0 {
		return nil, errPayloadExpected
	}
	if len(body) > maxRequestBody {
		return nil, errPayloadTooLarge
	}
	var msgs []string
	if err := json.Unmarshal(body, &msgs); err != nil {
		return nil, errBrokenJSON
	}
	return msgs, nil
}

// deliverSendPayload delivers msgs to sid's Handle hook, in order,
// stopping at the first session-not-found error.
func deliverSendPayload(d *Dispatcher, sid string, msgs []string) *AppError {
	for _, msg := range msgs {
		if err := d.manager.deliver(sid, msg); err != nil {
			return err.(*AppError)
		}
	}
	return nil
}

// serveXHRSend implements POST /{server}/{session}/xhr_send: deliver the
// posted messages, respond 204 with no body.
func (d *Dispatcher) serveXHRSend(c *gin.Context, sid string) {
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
	msgs, perr := readSendPayload(c.Request)
	if perr != nil {
		writeAppError(c.Writer, perr)
		return
	}
	if perr := deliverSendPayload(d, sid, msgs); perr != nil {
		writeAppError(c.Writer, perr)
		return
	}
	jsessionidCookie(c.Writer, c.Request, d.opts.CookieNeeded)
	c.Writer.Header().Set("Content-Type", "text/plain; charset=UTF-8")
	c.Status(http.StatusNoContent)
}

// serveJSONPSend implements POST /{server}/{session}/jsonp_send. The body
// is either a raw JSON array (same as xhr_send) or a form-encoded
// "d=<json array>" payload, per the jsonp transport's browser-form
// fallback.
func (d *Dispatcher) serveJSONPSend(c *gin.Context, sid string) {
	corsHeaders(c.Writer, c.Request)
	noCacheHeaders(c.Writer)
	if c.Request.Method != http.MethodPost {
		writeAppError(c.Writer, errMethodNotAllow)
		return
	}

	ct := c.Request.Header.Get("Content-Type")
	var msgs []string
	var perr *AppError
	if ct == "application/x-www-form-urlencoded" {
		if err := c.Request.ParseForm(); err != nil {
			writeAppError(c.Writer, errBrokenJSON)
			return
		}
		raw := c.Request.PostForm.Get("d")
		if raw == "" {
			writeAppError(c.Writer, errPayloadExpected)
			return
		}
		if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
			writeAppError(c.Writer, errBrokenJSON)
			return
		}
	} else {
		msgs, perr = readSendPayload(c.Request)
		if perr != nil {
			writeAppError(c.Writer, perr)
			return
		}
	}

	if perr := deliverSendPayload(d, sid, msgs); perr != nil {
		writeAppError(c.Writer, perr)
		return
	}
	jsessionidCookie(c.Writer, c.Request, d.opts.CookieNeeded)
	c.Writer.Header().Set("Content-Type", "text/plain; charset=UTF-8")
	c.Data(http.StatusOK, "text/plain; charset=UTF-8", []byte("ok"))
}
