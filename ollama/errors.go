package ollama

import (
	"errors"
	"fmt"

	"github.com/ollama/ollama/api"
)

var (
	// ErrRemoteUnavailable marks transport failures: refused connections,
	// DNS errors, deadlines.
	ErrRemoteUnavailable = errors.New("ollama daemon unavailable")
	// ErrRemoteRejected marks non-2xx responses from the daemon.
	ErrRemoteRejected = errors.New("ollama daemon rejected request")
	// ErrInvalidKeepAlive marks keep-alive values the request field cannot
	// carry. They fail before any request is sent.
	ErrInvalidKeepAlive = errors.New("invalid keep_alive")
)

// RemoteError is returned by every Client call that fails.
// StatusCode is zero for unavailable daemons.
type RemoteError struct {
	Op         string
	Endpoint   string
	StatusCode int
	Body       string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: daemon returned %d: %s", e.Op, e.Endpoint, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *RemoteError) Unwrap() []error {
	kind := ErrRemoteUnavailable
	if e.StatusCode != 0 {
		kind = ErrRemoteRejected
	}
	if e.Err == nil {
		return []error{kind}
	}
	return []error{kind, e.Err}
}

// Rejected reports whether the daemon answered with an error status.
func (e *RemoteError) Rejected() bool {
	return e.StatusCode != 0
}

func wrapError(op, endpoint string, err error) error {
	if err == nil {
		return nil
	}

	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		body := statusErr.ErrorMessage
		if body == "" {
			body = statusErr.Status
		}
		return &RemoteError{
			Op:         op,
			Endpoint:   endpoint,
			StatusCode: statusErr.StatusCode,
			Body:       body,
			Err:        err,
		}
	}

	return &RemoteError{Op: op, Endpoint: endpoint, Err: err}
}
