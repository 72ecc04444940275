// Package txerror holds the typed error produced for every failed node call or
// transaction. Errors are built only by the classifier in this package;
// callers switch on Kind and never inspect raw payloads.
package txerror

import (
	"errors"
	"fmt"
	"strings"
)

// Kind tags an Error. The constants below are the kinds the submission core
// reacts to; any leaf tag reported by a node is also a valid Kind.
type Kind string

const (
	KindKeyNotFound           Kind = "KeyNotFound"
	KindInvalidNonce          Kind = "InvalidNonce"
	KindExpired               Kind = "Expired"
	KindTimeout               Kind = "TimeoutError"
	KindRetriesExceeded       Kind = "RetriesExceeded"
	KindUntyped               Kind = "UntypedError"
	KindAccessKeyDoesNotExist Kind = "AccessKeyDoesNotExist"
	KindAccountDoesNotExist   Kind = "AccountDoesNotExist"
	KindUnknownTransaction    Kind = "UnknownTransaction"
)

// Error is the terminal representation of a failure.
type Error struct {
	Kind    Kind
	Message string

	// TxHash is set when the failure belongs to a signed transaction.
	TxHash string

	// Path is the breadcrumb trail through a structured error tree, ending in
	// the leaf tag. Empty for legacy and string errors.
	Path []string

	// Data holds the leaf fields of a structured error, if any.
	Data map[string]any
}

// New creates an Error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Message != "" && e.Message != string(e.Kind) {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Path) > 1 {
		b.WriteString(" [")
		b.WriteString(strings.Join(e.Path, " > "))
		b.WriteString("]")
	}
	if e.TxHash != "" {
		b.WriteString(" (tx ")
		b.WriteString(e.TxHash)
		b.WriteString(")")
	}
	return b.String()
}

// WithTxHash returns a copy of e carrying the transaction hash.
func (e *Error) WithTxHash(hash string) *Error {
	c := *e
	c.TxHash = hash
	return &c
}

// Retryable reports whether the core's own loops recover from this kind.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindInvalidNonce, KindExpired, KindTimeout:
		return true
	}
	return false
}

// As returns the *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err carries an *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}

// KindOf returns the kind of err, or "" if err is not typed.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}
