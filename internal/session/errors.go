package session

import (
	"errors"
	"fmt"
)

// ErrFetchInFlight is returned by FetchMessages while a previous fetch
// is still outstanding. The poller treats it as a skipped tick.
var ErrFetchInFlight = errors.New("message fetch already in flight")

// NetworkError indicates a transport failure or unexpected HTTP status
// on a domain, account, or delete call.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error (%s): %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetworkError reports whether err (or any error in its chain) is a
// NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// AuthError indicates a failed token exchange or a token response
// missing its token field.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("auth error: %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// IsAuthError reports whether err (or any error in its chain) is an
// AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// AccountCreationError indicates that the account-creation request was
// rejected or failed.
type AccountCreationError struct {
	Address string
	Err     error
}

func (e *AccountCreationError) Error() string {
	return fmt.Sprintf("creating account %s: %v", e.Address, e.Err)
}

func (e *AccountCreationError) Unwrap() error { return e.Err }

// IsAccountCreationError reports whether err (or any error in its
// chain) is an AccountCreationError.
func IsAccountCreationError(err error) bool {
	var ce *AccountCreationError
	return errors.As(err, &ce)
}

// FetchError indicates a failed message listing, detail, or source
// request.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch error (%s): %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsFetchError reports whether err (or any error in its chain) is a
// FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
