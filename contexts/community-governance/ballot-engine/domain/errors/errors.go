package errors

import "errors"

var (
	ErrInvalidProposal    = errors.New("invalid proposal")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrProposalNotFound   = errors.New("proposal not found")
	ErrVotingClosed       = errors.New("voting closed")
	ErrAlreadyClosed      = errors.New("proposal already closed")
	ErrNotEligible        = errors.New("voter not eligible")
	ErrInvalidOption      = errors.New("invalid option")
	ErrCommunityNotFound  = errors.New("community not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
