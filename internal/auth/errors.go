package auth

import "errors"

var (
	ErrNoSession          = errors.New("no session")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordMismatch   = errors.New("current password is incorrect")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrWeakPassword       = errors.New("new password must be at least 8 characters")
	ErrEmailTaken         = errors.New("an admin with that email already exists")
)
