package fault

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies why a call was aborted. Every mutating operation either
// succeeds completely or fails with exactly one of these.
type Kind string

const (
	KindAuthorization Kind = "authorization"
	KindState         Kind = "state_violation"
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindExternal      Kind = "external"
)

type Fault struct {
	Kind Kind
	Msg  string
	Err  error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Msg, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Msg)
}

func (f *Fault) Unwrap() error { return f.Err }

func Authorizationf(format string, args ...any) error {
	return &Fault{Kind: KindAuthorization, Msg: fmt.Sprintf(format, args...)}
}

func Statef(format string, args ...any) error {
	return &Fault{Kind: KindState, Msg: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) error {
	return &Fault{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return &Fault{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// External wraps a failure from a collaborator (token ledger, NFT minter,
// role store). The inner error is kept for logs.
func External(msg string, err error) error {
	return &Fault{Kind: KindExternal, Msg: msg, Err: err}
}

// KindOf reports the Kind of err, or "" if err carries no Fault.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

func IsKind(err error, k Kind) bool { return KindOf(err) == k }

// HTTPStatus maps a fault kind to the response code handlers send.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindAuthorization:
		return http.StatusForbidden
	case KindState:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
