package ollama

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
)

// Kind classifies a transport failure once, at the lowest layer. Callers
// switch on the kind instead of re-inspecting error shapes.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnreachable
	KindTimeout
	KindModelNotFound
	KindContextTooLong
)

func (k Kind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindTimeout:
		return "timeout"
	case KindModelNotFound:
		return "model_not_found"
	case KindContextTooLong:
		return "context_too_long"
	default:
		return "unknown"
	}
}

// Error is a classified transport failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the classified kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindUnknown
}

// classify wraps a raw transport error with its kind.
func classify(msg string, err error) *Error {
	return &Error{Kind: classifyKind(err), Msg: msg, Err: err}
}

func classifyKind(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return KindUnreachable
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindUnreachable
	}
	return KindUnknown
}

// classifyBody maps an API error body onto a kind using the backend's error
// text. Statuses and phrasings vary between backend versions, so this stays
// substring-based.
func classifyBody(status int, body string) Kind {
	lowered := strings.ToLower(body)
	switch {
	case strings.Contains(lowered, "not found"):
		return KindModelNotFound
	case strings.Contains(lowered, "context") && (strings.Contains(lowered, "too long") || strings.Contains(lowered, "length")):
		return KindContextTooLong
	case status == 404:
		return KindModelNotFound
	default:
		return KindUnknown
	}
}
