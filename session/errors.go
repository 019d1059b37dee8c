package session

import "github.com/hpmalinova/monifly/contract"

var (
	ErrInvalidCredentials = contract.E(contract.InvalidCredentials, "invalid login credentials")
	ErrUserExists         = contract.FieldError(contract.Conflict, "email", "user already registered")
	ErrInvalidEmail       = contract.FieldError(contract.Validation, "email", "invalid email address")
	ErrWeakPassword       = contract.FieldError(contract.Validation, "password", "password should be at least 6 characters")
	ErrSessionMissing     = contract.E(contract.SessionMissing, "auth session missing")
	ErrSessionExpired     = contract.E(contract.SessionExpired, "session expired")
	ErrInvalidCode        = contract.E(contract.InvalidCode, "invalid or expired recovery code")
)
