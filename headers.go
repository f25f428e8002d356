package sockjs

import "net/http"

// corsHeaders mirrors the request's Origin (or "*") onto
// Access-Control-Allow-Origin, adds Allow-Credentials when an explicit
// origin was mirrored, and propagates Access-Control-Request-Headers
// onto Access-Control-Allow-Headers.
func corsHeaders(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = "*"
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	if origin != "*" {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
		w.Header().Set("Access-Control-Allow-Headers", reqHeaders)
	}
}

// noCacheHeaders is set on every session-traffic response.
func noCacheHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, no-cache, no-transform, must-revalidate, max-age=0")
}

// longCacheHeaders is the 1-year public cache policy used for CORS
// preflight responses (via preflightResponse) and the iframe responses.
func longCacheHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	w.Header().Set("Access-Control-Max-Age", "31536000")
	// Expires is not set here: serveIframe sets it next to this call, and
	// preflight responses carry no Expires header.
}

// preflightResponse answers a CORS preflight OPTIONS request with a bare
// 204, the allowed methods advertised on both Allow and
// Access-Control-Allow-Methods, a 1 year cache policy, and the session
// cookie (always set on preflight, regardless of CookieNeeded, matching
// the other transports' OPTIONS handling).
func preflightResponse(w http.ResponseWriter, r *http.Request, allowMethods string) {
	w.Header().Set("Allow", allowMethods)
	w.Header().Set("Access-Control-Allow-Methods", allowMethods)
	longCacheHeaders(w)
	jsessionidCookie(w, r, true)
	w.WriteHeader(http.StatusNoContent)
}

// jsessionidCookie applies the JSESSIONID policy: echo the cookie if the
// client sent one, else set "dummy", whenever needed is true.
func jsessionidCookie(w http.ResponseWriter, r *http.Request, needed bool) {
	if !needed {
		return
	}
	value := "dummy"
	if c, err := r.Cookie("JSESSIONID"); err == nil && c.Value != "" {
		value = c.Value
	}
	http.SetCookie(w, &http.Cookie{
		Name:  "JSESSIONID",
		Value: value,
		Path:  "/",
	})
}
