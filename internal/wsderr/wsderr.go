// Package wsderr defines the error taxonomy shared by the station daemon's
// protocol cores (band estimation, DPP, FT, and the netlink attribute codec).
//
// Every failure path in those packages returns a *wsderr.Error carrying one
// of the Kind constants below, so callers can branch with errors.As instead
// of string matching.
package wsderr

import "fmt"

// Kind classifies why an operation failed.
type Kind uint8

const (
	// KindInvalidArgument marks malformed caller input.
	KindInvalidArgument Kind = iota + 1
	// KindBadMessage marks protocol-level framing or signature failure.
	KindBadMessage
	// KindUnsupported marks a required capability that is absent.
	KindUnsupported
	// KindNotApplicable marks that no workable configuration exists
	// (e.g. RSSI too low for any rate).
	KindNotApplicable
	// KindAlreadyPresent marks a duplicate attribute-codec schema violation.
	KindAlreadyPresent
	// KindNotFound marks a missing attribute-codec schema entry.
	KindNotFound
	// KindRejected marks a peer reply carrying a non-zero status code.
	KindRejected
	// KindTimeout marks that no response arrived within the window.
	KindTimeout
)

var kindNames = [...]string{
	0:                   "unknown",
	KindInvalidArgument:  "invalid_argument",
	KindBadMessage:       "bad_message",
	KindUnsupported:      "unsupported",
	KindNotApplicable:    "not_applicable",
	KindAlreadyPresent:   "already_present",
	KindNotFound:         "not_found",
	KindRejected:         "rejected",
	KindTimeout:          "timeout",
}

// String returns the lower_snake_case name of k, or "unknown(N)" for an
// out-of-range value.
func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// Error is the concrete error type returned by the protocol cores.
type Error struct {
	// Kind classifies the failure.
	Kind Kind
	// Op names the failing operation, e.g. "dpp.ParseURI".
	Op string
	// Status carries the peer status code when Kind is KindRejected.
	Status uint16
	// Err is the underlying cause, or nil.
	Err error
}

func (e *Error) Error() string {
	if e.Kind == KindRejected {
		if e.Err != nil {
			return fmt.Sprintf("%s: rejected (status=%d): %v", e.Op, e.Status, e.Err)
		}
		return fmt.Sprintf("%s: rejected (status=%d)", e.Op, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so
// errors.Is(err, &wsderr.Error{Kind: wsderr.KindNotFound}) works without
// callers filling in Op/Err.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New returns an *Error of the given kind for operation op, wrapping err.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Rejected returns a KindRejected *Error carrying the peer's status code.
func Rejected(op string, status uint16) *Error {
	return &Error{Kind: KindRejected, Op: op, Status: status}
}
