package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Kind classifies failures so that transports can map them to status codes.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindUpload
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindUpload:
		return "upload"
	default:
		return "internal"
	}
}

// Error is a classified failure of a catalog operation.
// Message is safe to show to clients; Err is kept for logs.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports malformed or missing input.
func Validation(op, message string, details ...string) error {
	return &Error{Kind: KindValidation, Op: op, Message: message, Details: details}
}

// NotFound reports a referenced document that does not exist.
func NotFound(op, message string) error {
	return &Error{Kind: KindNotFound, Op: op, Message: message, Err: ErrNotFound}
}

// Forbidden reports a mutation of a document owned by another principal.
func Forbidden(op, message string) error {
	return &Error{Kind: KindForbidden, Op: op, Message: message}
}

// Upload reports an object storage failure.
func Upload(op, message string, err error) error {
	return &Error{Kind: KindUpload, Op: op, Message: message, Err: err}
}

// Internal reports a store-layer failure or inconsistency.
func Internal(op, message string, err error) error {
	return &Error{Kind: KindInternal, Op: op, Message: message, Err: err}
}

// KindOf returns the kind of err. Unclassified errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is classified as k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
