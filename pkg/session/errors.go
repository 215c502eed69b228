package session

import "errors"

var (
	// ErrAuthentication means the site rejected the credentials or the
	// logged-in check failed after submitting them.
	ErrAuthentication = errors.New("authentication rejected")
	// ErrTokenNotFound means the expected hidden anti-forgery input was absent,
	// which usually indicates the site markup changed.
	ErrTokenNotFound = errors.New("anti-forgery token not found")
	// ErrTwoFactor means the 6-digit verification code was rejected.
	ErrTwoFactor = errors.New("two-factor verification failed")
)
