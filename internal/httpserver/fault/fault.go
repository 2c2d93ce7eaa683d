// Package fault writes compute-style error documents:
//
//	{"itemNotFound": {"code": 404, "message": "..."}}
package fault

import (
	"encoding/json"
	"net/http"
)

// Fault kinds, keyed the way compute API clients expect them
const (
	Compute    = "computeFault"
	BadRequest = "badRequest"
	NotFound   = "itemNotFound"
	OverLimit  = "overLimit"
)

// Body is the payload under the fault kind
type Body struct {
	Code       int    `json:"code"`
	Message    string `json:"message"`
	RetryAfter string `json:"retryAfter,omitempty"`
}

// Document is a whole fault response, keyed by kind
type Document map[string]Body

// Write sends a fault of kind with status as both HTTP status and code
func Write(w http.ResponseWriter, status int, kind, message string) {
	WriteBody(w, kind, Body{Code: status, Message: message})
}

// WriteBody sends body under kind. body.Code is the HTTP status.
func WriteBody(w http.ResponseWriter, kind string, body Body) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(body.Code)
	_ = json.NewEncoder(w).Encode(Document{kind: body})
}
