package sockjs

import (
	"math/rand/v2"
	"net/http"

	"github.com/gin-gonic/gin"
)

// infoResponse is the JSON body of GET /info.
type infoResponse struct {
	Entropy      uint32   `json:"entropy"`
	Websocket    bool     `json:"websocket"`
	CookieNeeded bool     `json:"cookie_needed"`
	Origins      []string `json:"origins"`
}

// handleInfo serves GET/OPTIONS /info. GET returns the JSON info body
// with a freshly drawn entropy value on every call; OPTIONS returns a
// bare 204 advertising the allowed methods.
func (d *Dispatcher) handleInfo(c *gin.Context) {
	corsHeaders(c.Writer, c.Request)

	switch c.Request.Method {
	case http.MethodGet:
		noCacheHeaders(c.Writer)
		jsessionidCookie(c.Writer, c.Request, d.opts.CookieNeeded)
		c.JSON(http.StatusOK, infoResponse{
			Entropy:      rand.Uint32(),
			Websocket:    d.opts.websocketEnabled(),
			CookieNeeded: d.opts.CookieNeeded,
			Origins:      []string{"*:*"},
		})
	case http.MethodOptions:
		preflightResponse(c.Writer, c.Request, "OPTIONS, GET")
	default:
		writeAppError(c.Writer, errMethodNotAllow)
	}
}
