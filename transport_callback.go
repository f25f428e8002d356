package sockjs

import "regexp"

// callbackPattern restricts the jsonp/htmlfile "c" callback parameter to
// word characters and dots, preventing it from being used to inject
// script.
var callbackPattern = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

// requireCallback extracts and validates the "c" query parameter shared
// by the jsonp and htmlfile transports.
func requireCallback(query string) (string, *AppError) {
	if query == "" {
		return "", errMissingCallback
	}
	if !callbackPattern.MatchString(query) {
		return "", errInvalidCallback
	}
	return query, nil
}
