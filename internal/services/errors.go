package services

import "errors"

// FailureKind classifies service-level failures so handlers can pick a status
// code without inspecting message text.
type FailureKind int

const (
	// FailureInvalidRequest means the input was missing or malformed.
	FailureInvalidRequest FailureKind = iota
	// FailureUnauthenticated means no usable principal could be resolved.
	FailureUnauthenticated
	// FailureNotFound means a referenced entity does not exist. This is
	// distinct from FailureUpstream: zero rows is not a store error.
	FailureNotFound
	// FailureUpstream means the store or gateway call itself failed.
	FailureUpstream
)

// Failure is a structured service error carrying a classification and a
// human-readable message safe to return to callers.
type Failure struct {
	Kind FailureKind
	Msg  string
	Err  error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return f.Msg + ": " + f.Err.Error()
	}
	return f.Msg
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// AsFailure extracts a *Failure from an error chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

func invalidRequest(msg string) error {
	return &Failure{Kind: FailureInvalidRequest, Msg: msg}
}

func unauthenticated(msg string) error {
	return &Failure{Kind: FailureUnauthenticated, Msg: msg}
}

func notFound(msg string) error {
	return &Failure{Kind: FailureNotFound, Msg: msg}
}

func upstream(msg string, err error) error {
	return &Failure{Kind: FailureUpstream, Msg: msg, Err: err}
}

// ErrNoRows is returned by store implementations when a lookup matches
// nothing. Store call failures are returned as-is and wrapped upstream.
var ErrNoRows = errors.New("no matching rows")
