package redfish

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Message codes from the base message register. Handlers and middleware emit
// these so clients get a machine-readable reason alongside the status code.
const (
	CodeGeneralError          = "Base.1.15.GeneralError"
	CodeNoValidSession        = "Base.1.15.NoValidSession"
	CodeInsufficientPrivilege = "Base.1.15.InsufficientPrivilege"
	CodeResourceNotFound      = "Base.1.15.ResourceNotFound"
	CodeResourceMissingParam  = "Base.1.15.ActionParameterMissing"
	CodeMalformedJSON         = "Base.1.15.MalformedJSON"
	CodePropertyValueError    = "Base.1.15.PropertyValueError"
	CodeSessionLimitExceeded  = "Base.1.15.SessionLimitExceeded"
	CodeAccessDenied          = "Base.1.15.AccessDenied"
)

// Error is the protocol error payload: a code from the message register, a
// human-readable message, and the extended-info records clients use for
// per-message detail.
type Error struct {
	Code         string        `json:"code"`
	Message      string        `json:"message"`
	ExtendedInfo []MessageInfo `json:"@Message.ExtendedInfo,omitempty"`
}

// MessageInfo is one extended-info record.
type MessageInfo struct {
	MessageID string `json:"MessageId"`
	Message   string `json:"Message"`
}

type errorEnvelope struct {
	Error Error `json:"error"`
}

// StatusError carries an HTTP status together with the protocol error body.
// Resolvers and services return it to pick the exact response the client
// sees; anything else that reaches the pipeline is reported as a 500 without
// leaking detail.
type StatusError struct {
	Status  int
	Code    string
	Message string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// NotFound builds the conventional 404 for a missing resource.
func NotFound(resourceType, id string) *StatusError {
	return &StatusError{
		Status:  http.StatusNotFound,
		Code:    CodeResourceNotFound,
		Message: fmt.Sprintf("The requested resource of type %s named %q was not found.", resourceType, id),
	}
}

// BadRequest builds a 400 for malformed caller input.
func BadRequest(code, message string) *StatusError {
	return &StatusError{Status: http.StatusBadRequest, Code: code, Message: message}
}

// WriteError renders the protocol error envelope with the given status.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: Error{
		Code:         code,
		Message:      message,
		ExtendedInfo: []MessageInfo{{MessageID: code, Message: message}},
	}})
}

// WriteStatusError renders a StatusError.
func WriteStatusError(w http.ResponseWriter, err *StatusError) {
	WriteError(w, err.Status, err.Code, err.Message)
}

// WriteJSON renders v with the given status. Encoding failures are ignored:
// the header has already been written and there is nothing useful to add.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
