// Package repository holds the MySQL-backed stores and the sentinel errors
// they share.  Handlers and services match these with errors.Is to pick the
// response status; the underlying driver error never leaves the process.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert collides with the unique
// users.email index.
var ErrEmailExists = errors.New("email already exists")

// ErrInvalidToken is returned when a password reset token is unknown or
// expired.
var ErrInvalidToken = errors.New("invalid or expired token")

// ErrConflict is returned when an insert collides with an existing row,
// e.g. seeding a slot that already exists.
var ErrConflict = errors.New("conflict")
