package authn

import (
	"fmt"
	"net/http"

	"github.com/redfield-bmc/redfield/internal/redfish"
)

// Rejection is a terminal authentication outcome: the request must stop and
// this response must be returned verbatim. Challenges carry WWW-Authenticate
// values enumerating the schemes the caller could have used.
type Rejection struct {
	Status     int
	Code       string
	Message    string
	Challenges []string
}

// Error implements the error interface.
func (r *Rejection) Error() string {
	return fmt.Sprintf("%d %s: %s", r.Status, r.Code, r.Message)
}

// Write renders the rejection, including any challenge headers.
func (r *Rejection) Write(w http.ResponseWriter) {
	for _, challenge := range r.Challenges {
		w.Header().Add("WWW-Authenticate", challenge)
	}
	redfish.WriteError(w, r.Status, r.Code, r.Message)
}

// Unauthorized builds a 401 rejection carrying the given challenges.
func Unauthorized(message string, challenges ...string) *Rejection {
	return &Rejection{
		Status:     http.StatusUnauthorized,
		Code:       redfish.CodeNoValidSession,
		Message:    message,
		Challenges: challenges,
	}
}

// Malformed builds a 400 rejection for credentials the caller presented but
// the server could not parse. Caller error, never escalated to 500.
func Malformed(message string) *Rejection {
	return &Rejection{
		Status:  http.StatusBadRequest,
		Code:    redfish.CodeAccessDenied,
		Message: message,
	}
}

// Internal builds a 500 rejection with a generic body. The underlying cause
// stays in the server log.
func Internal() *Rejection {
	return &Rejection{
		Status:  http.StatusInternalServerError,
		Code:    redfish.CodeGeneralError,
		Message: "An internal error occurred while processing the request.",
	}
}
