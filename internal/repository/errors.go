// Package repository contains data access logic separated from HTTP
// handlers. This file defines sentinel errors reused across repositories so
// higher layers can map failure scenarios to HTTP responses without string
// matching.
package repository

import "errors"

// ErrEmailExists is returned when an insert or update would violate the
// unique index on members.email. Handlers translate it into HTTP 400.
var ErrEmailExists = errors.New("email already exists")

// ErrInvalidCredentials is returned for both an unknown email and a wrong
// password. The two cases are deliberately indistinguishable so callers
// cannot probe which emails are registered.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrMemberNotFound is returned when a member lookup matches no row.
var ErrMemberNotFound = errors.New("member not found")

// ErrPostNotFound is returned when a post lookup matches no row.
var ErrPostNotFound = errors.New("post not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")
