package errors

import "errors"

var (
	ErrInvalidRequest     = errors.New("invalid member registry request")
	ErrCommunityNotFound  = errors.New("community not found")
	ErrVoterNotFound      = errors.New("voter not found")
	ErrNotAdmin           = errors.New("requester is not the community admin")
	ErrAlreadyProcessed   = errors.New("voter request is already processed")
	ErrInvalidWeight      = errors.New("weight must be a positive integer")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
