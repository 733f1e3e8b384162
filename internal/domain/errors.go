package domain

import "errors"

var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrIssueNotFound      = errors.New("issue not found")
	ErrSnapshotNotFound   = errors.New("issue snapshot not found")
)

// Request failure kinds. Transport and API errors wrap exactly one of these.
var (
	ErrNetwork     = errors.New("network error")
	ErrAuthExpired = errors.New("session expired")
	ErrValidation  = errors.New("request rejected")
	ErrServer      = errors.New("server error")
)
