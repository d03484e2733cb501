package directory

import (
	"errors"

	"github.com/go-ldap/ldap/v3"
)

// Kind classifies directory failures into a closed set so that HTTP status
// mapping is a pure function of the tag instead of a type switch over the
// client library's error hierarchy.
type Kind int

const (
	// KindDecode means an attribute value did not match its declared domain
	// type. It indicates a schema mismatch, not a retriable condition.
	KindDecode Kind = iota + 1
	// KindLocal means the directory client library itself failed.
	KindLocal
	// KindUnavailable means the directory server could not be reached.
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "decode"
	case KindLocal:
		return "local"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

var errEmptyValues = errors.New("empty value list")

// Error is the single error type surfaced by this package.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.String() + " error"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from an error chain. It returns zero for
// errors that did not originate in this package.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

// wrapLDAP tags a go-ldap error with the matching failure kind. Network
// level failures become KindUnavailable, everything else KindLocal.
func wrapLDAP(op string, err error) error {
	if err == nil {
		return nil
	}
	kind := KindLocal
	if ldap.IsErrorWithCode(err, ldap.ErrorNetwork) {
		kind = KindUnavailable
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
