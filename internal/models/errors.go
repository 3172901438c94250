package models

import (
	"errors"
	"fmt"
	"strings"
)

// Failure classes reported by HandleError. Match them with errors.Is.
var (
	ErrAuth           = errors.New("authentication failed")
	ErrRateLimited    = errors.New("rate limited")
	ErrContextTooLong = errors.New("context too long")
	ErrModelNotFound  = errors.New("model not found")
	ErrConnection     = errors.New("connection error")
)

// ErrModelUnavailable reports a backend that answered with something other
// than a model response, or did not answer at all.
type ErrModelUnavailable struct {
	Provider string
	Body     string
	Cause    error
}

func (e *ErrModelUnavailable) Error() string {
	switch {
	case e.Cause != nil:
		return fmt.Sprintf("%s unavailable: %v", e.Provider, e.Cause)
	case e.Body != "":
		return fmt.Sprintf("%s unavailable: %s", e.Provider, e.Body)
	default:
		return e.Provider + " unavailable"
	}
}

func (e *ErrModelUnavailable) Unwrap() error { return e.Cause }

// classified keeps the original error in the chain next to its class.
type classified struct {
	class error
	err   error
}

func (c *classified) Error() string   { return c.class.Error() + ": " + c.err.Error() }
func (c *classified) Unwrap() []error { return []error{c.class, c.err} }

// ordered: the first matching rule wins
var rules = []struct {
	class   error
	needles []string
}{
	{ErrAuth, []string{"401", "403", "unauthorized", "invalid api key", "api key", "forbidden"}},
	{ErrRateLimited, []string{"429", "rate limit", "quota", "too many requests"}},
	{ErrContextTooLong, []string{"context length", "too many tokens", "max tokens", "token limit"}},
	{ErrModelNotFound, []string{"model not found", "404", "not found"}},
	{ErrConnection, []string{"connection", "eof", "timeout", "deadline", "dial", "refused", "unavailable"}},
}

// HandleError classifies a provider SDK error. Unrecognized errors are
// returned unchanged.
func HandleError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, r := range rules {
		for _, n := range r.needles {
			if strings.Contains(msg, n) {
				return &classified{class: r.class, err: err}
			}
		}
	}
	return err
}

// IsPermanent reports whether retrying the same call cannot help.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrAuth) || errors.Is(err, ErrModelNotFound) || errors.Is(err, ErrContextTooLong)
}
