package errx

import "errors"

// PublicError is the only error shape that ever leaves the server. It carries
// a coarse status class and a generic message, with no codes, no details and
// no distinction between "unknown", "expired" and "wrong tenant". Detailed
// cause strings stay in server-side logs.
type PublicError struct {
	Status  int    `json:"status"`
	Class   string `json:"error"`
	Message string `json:"message"`
}

// Public collapses any error into its externally visible form.
func Public(err error) PublicError {
	status := 500
	var e *Error
	if errors.As(err, &e) {
		status = e.HTTPStatus
	}

	switch status {
	case 400:
		return PublicError{Status: 400, Class: "bad_request", Message: "The request could not be processed"}
	case 401:
		return PublicError{Status: 401, Class: "unauthorized", Message: "Authentication failed"}
	case 403:
		return PublicError{Status: 403, Class: "forbidden", Message: "Access denied"}
	case 404:
		return PublicError{Status: 404, Class: "not_found", Message: "Resource not found"}
	case 429:
		return PublicError{Status: 429, Class: "rate_limited", Message: "Too many requests"}
	default:
		return PublicError{Status: 500, Class: "internal", Message: "An unexpected error occurred"}
	}
}
