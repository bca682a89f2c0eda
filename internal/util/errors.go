package util

import "errors"

// Expected repository failure conditions. Messages are user-facing and
// rendered verbatim by the portal.
var (
	ErrDuplicateEmail     = errors.New("An account with this email already exists. Please sign in instead.")
	ErrManagerLimit       = errors.New("Maximum 3 manager accounts allowed.")
	ErrUserNotFound       = errors.New("User not found. Please sign up.")
	ErrProgressNotFound   = errors.New("Progress not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("Please verify your email before signing in. Check your inbox for the verification link.")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrNoActiveSession    = errors.New("no active session")
)
