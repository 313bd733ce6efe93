package response

import (
	"net/http"

	"mangazone-api/internal/domain"
)

// StatusFor maps an error kind to its HTTP status. Conflicts answer 400,
// which existing clients rely on.
func StatusFor(k domain.Kind) int {
	switch k {
	case domain.KindBadRequest, domain.KindConflict:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// MsgMap holds the fallback message per status.
var MsgMap = map[int]string{
	http.StatusBadRequest:            "bad request",
	http.StatusUnauthorized:          "unauthorized",
	http.StatusForbidden:             "forbidden",
	http.StatusNotFound:              "not found",
	http.StatusRequestEntityTooLarge: "request body too large",
	http.StatusTooManyRequests:       "too many requests",
	http.StatusInternalServerError:   "internal server error",
	http.StatusServiceUnavailable:    "server busy",
	http.StatusGatewayTimeout:        "timeout",
}
