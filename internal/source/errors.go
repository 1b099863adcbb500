package source

import (
	"errors"
)

var (
	// ErrSourceFailure marks a failed or rejected remote fetch.
	ErrSourceFailure = errors.New("source failure")
	// ErrParseFailure marks unreadable input content.
	ErrParseFailure = errors.New("parse failure")
	// ErrInvalidOptions marks adapter options that can never succeed.
	ErrInvalidOptions = errors.New("invalid options")
)

// failure classifies err while keeping its message untouched, so the text
// reaching consumers is the underlying cause.
type failure struct {
	class error
	err   error
}

func (f *failure) Error() string   { return f.err.Error() }
func (f *failure) Unwrap() []error { return []error{f.class, f.err} }

func sourceFailure(err error) error { return &failure{class: ErrSourceFailure, err: err} }
func parseFailure(err error) error  { return &failure{class: ErrParseFailure, err: err} }
