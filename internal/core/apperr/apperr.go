package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so transports can map it without inspecting messages.
type Kind string

const (
	KindInput         Kind = "input"
	KindNotFound      Kind = "not_found"
	KindAuthorization Kind = "authorization"
	KindExtraction    Kind = "extraction"
	KindService       Kind = "service"
	KindGeneration    Kind = "generation"
	KindInternal      Kind = "internal"
)

// Error is a classified failure. Msg is safe to show to API callers; Err is
// the underlying cause and is only ever logged.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind, so errors.Is(err, apperr.Generation("", nil)) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Msg == "" && t.Err == nil
}

func New(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func Input(msg string) *Error { return New(KindInput, msg, nil) }

func Inputf(format string, args ...any) *Error {
	return New(KindInput, fmt.Sprintf(format, args...), nil)
}

func NotFound(msg string) *Error { return New(KindNotFound, msg, nil) }

func Authorization(msg string) *Error { return New(KindAuthorization, msg, nil) }

func Extraction(msg string, err error) *Error { return New(KindExtraction, msg, err) }

func Service(msg string, err error) *Error { return New(KindService, msg, err) }

func Generation(msg string, err error) *Error { return New(KindGeneration, msg, err) }

func Internal(msg string, err error) *Error { return New(KindInternal, msg, err) }

// Sentinels for errors.Is checks.
var (
	ErrInput         = &Error{Kind: KindInput}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrAuthorization = &Error{Kind: KindAuthorization}
	ErrExtraction    = &Error{Kind: KindExtraction}
	ErrService       = &Error{Kind: KindService}
	ErrGeneration    = &Error{Kind: KindGeneration}
)

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuthorization:
		return http.StatusForbidden
	case KindExtraction:
		return http.StatusUnprocessableEntity
	case KindService, KindGeneration:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// SafeMessage never includes the wrapped cause.
func SafeMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Msg != "" && ae.Kind != KindInternal {
		return ae.Msg
	}
	switch KindOf(err) {
	case KindService:
		return "upstream service unavailable, please retry"
	case KindGeneration:
		return "the model returned invalid content, please try again"
	case KindExtraction:
		return "could not extract any text from the document"
	default:
		return "internal server error"
	}
}
