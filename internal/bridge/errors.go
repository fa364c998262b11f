package bridge

import "errors"

// Error codes carried on the wire.
const (
	CodeError       = "ERROR"
	CodeNotReady    = "NOT_READY"
	CodeUnsupported = "UNSUPPORTED"
)

// Kind classifies bridge errors.
type Kind int

const (
	// KindInvalidArgument is a missing or empty required argument.
	KindInvalidArgument Kind = iota + 1
	// KindNotReady is a call made while no host context is attached.
	KindNotReady
	// KindUnsupported is an operation the attached registry cannot serve.
	KindUnsupported
	// KindInternal is a registry or worker failure.
	KindInternal
)

// Error is a structured bridge error.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches errors of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Message == ""
}

// Sentinels for errors.Is.
var (
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrNotReady        = &Error{Kind: KindNotReady}
	ErrUnsupported     = &Error{Kind: KindUnsupported}
)

const (
	msgEmptyPackageName = "Empty or null package name"
	msgInvalidArgument  = "Empty or invalid argument"
)

func errEmptyPackageName() error {
	return &Error{Kind: KindInvalidArgument, Code: CodeError, Message: msgEmptyPackageName}
}

func errInvalidArgument() error {
	return &Error{Kind: KindInvalidArgument, Code: CodeError, Message: msgInvalidArgument}
}

func errNotReady() error {
	return &Error{Kind: KindNotReady, Code: CodeNotReady, Message: "bridge is not attached to a host"}
}

func errUnsupported(what string) error {
	return &Error{Kind: KindUnsupported, Code: CodeUnsupported, Message: what + " is not supported by this host"}
}

func errInternal(msg string, err error) error {
	return &Error{Kind: KindInternal, Code: CodeError, Message: msg, Err: err}
}

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
