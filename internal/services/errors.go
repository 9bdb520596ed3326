package services

import "errors"

var (
	// ErrNotFound is returned when a requested record is not found.
	ErrNotFound = errors.New("record not found")
	// ErrNoPartition means the month has no order file yet, so rows cannot
	// be updated.
	ErrNoPartition = errors.New("the month has no order file; create it first")
	// ErrLoginFailed is returned when the backend rejects the credentials
	// without a message.
	ErrLoginFailed = errors.New("login failed")
)
