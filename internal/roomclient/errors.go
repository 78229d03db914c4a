// internal/roomclient/errors.go
package roomclient

import (
	"errors"
	"fmt"
)

// ErrStaleResponse marks a response that arrived after the session or loop it
// belonged to was torn down. It is never shown to the user.
var ErrStaleResponse = errors.New("stale response discarded")

// ValidationError is missing or malformed user input, caught before any
// network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RemoteError is a non-success response from the room service. Message comes
// from the service's error payload when it has one.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// TransportError means the service could not be reached or the response could
// not be read.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: service unreachable: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UserMessage renders err the way it should appear in a transient notice.
func UserMessage(err error) string {
	var ve *ValidationError
	var re *RemoteError
	var te *TransportError
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &re):
		return re.Message
	case errors.As(err, &te):
		return "Cannot reach the game server. Check your connection."
	case err == nil:
		return ""
	}
	return err.Error()
}
