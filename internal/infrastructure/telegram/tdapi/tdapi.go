// Package tdapi describes the asynchronous command/event surface of a
// messaging backend in TDLib terms: typed request functions, typed result
// objects and pushed updates. The actor layer only talks to this package;
// the gotd-backed implementation lives in the parent telegram package.
package tdapi

import (
	"encoding/json"
	"fmt"
)

// Object is any value the backend can return or push.
type Object interface {
	Type() string
}

// Function is a request that can be sent to the backend.
type Function interface {
	Object
	function()
}

// ResultHandler receives the outcome of a Send call. The object is either
// the typed result or an *Error.
type ResultHandler func(Object)

// Client is the backend capability owned by a single account actor.
//
// Send must never block on network I/O; handlers are invoked from backend
// goroutines exactly once per call. Updates is closed once the client has
// fully shut down.
type Client interface {
	Send(req Function, handler ResultHandler)
	Updates() <-chan Update
	Close() error
}

// Error is the backend error payload.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (*Error) Type() string { return "error" }

func (e *Error) Error() string {
	return fmt.Sprintf("backend error %d: %s", e.Code, e.Message)
}

// NewError builds an error payload.
func NewError(code int, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Ok is the empty successful result.
type Ok struct{}

func (*Ok) Type() string { return "ok" }

// Count is a numeric result.
type Count struct {
	Count int `json:"count"`
}

func (*Count) Type() string { return "count" }

// Typed wraps an object so that its JSON form carries the "@type" tag.
type Typed struct {
	Object Object
}

// MarshalJSON implements json.Marshaler.
func (t Typed) MarshalJSON() ([]byte, error) {
	return MarshalObject(t.Object)
}

// MarshalObject encodes obj as a JSON object with a leading "@type" field.
func MarshalObject(obj Object) ([]byte, error) {
	if obj == nil {
		return []byte("null"), nil
	}

	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}

	tag, err := json.Marshal(obj.Type())
	if err != nil {
		return nil, err
	}

	if len(raw) < 2 || raw[0] != '{' {
		return nil, fmt.Errorf("object %s is not encoded as a JSON object", obj.Type())
	}

	out := make([]byte, 0, len(raw)+len(tag)+10)
	out = append(out, `{"@type":`...)
	out = append(out, tag...)
	if len(raw) > 2 {
		out = append(out, ',')
	}
	out = append(out, raw[1:]...)
	return out, nil
}
