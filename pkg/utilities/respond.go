package utilities

import (
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// ErrorBody is the shape of every failure response.
type ErrorBody struct {
	Message     string            `json:"message"`
	CurrentDate time.Time         `json:"currentDate"`
	Errors      map[string]string `json:"errors,omitempty"`
}

// MessageBody is returned by endpoints that only report an outcome.
type MessageBody struct {
	Message     string    `json:"message"`
	CurrentDate time.Time `json:"currentDate"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteMessage writes {message, currentDate}.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, MessageBody{Message: msg, CurrentDate: time.Now().UTC()})
}

// WriteError writes a failure body. fields may be nil.
func WriteError(w http.ResponseWriter, status int, msg string, fields map[string]string) {
	WriteJSON(w, status, ErrorBody{Message: msg, CurrentDate: time.Now().UTC(), Errors: fields})
}

// DecodeJSON decodes a request body of at most 1 MiB and rejects trailing data.
// Unknown fields are ignored.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errTrailingData
	}
	return nil
}

type decodeError string

func (e decodeError) Error() string { return string(e) }

const errTrailingData = decodeError("unexpected data after JSON body")
