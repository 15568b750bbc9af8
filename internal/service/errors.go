package service

import "errors"

var (
	ErrPasswordTooShort   = errors.New("password does not meet the minimum length")
	ErrTokenInvalid       = errors.New("invalid or expired token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("user account is disabled")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrForbidden          = errors.New("forbidden")
	ErrTeamMismatch       = errors.New("membership team does not match the team acted upon")
	ErrCrossOrgRole       = errors.New("role must belong to the same organization as the team")
)
