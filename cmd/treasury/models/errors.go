package models

import "errors"

// Domain errors surfaced by the disbursement engine. Skip outcomes
// (not due, empty treasury) are results, not errors, and do not appear here.
var (
	ErrFundNotFound       = errors.New("fund not found")
	ErrNotRotationFund    = errors.New("fund does not use the rotation model")
	ErrNoEligibleMembers  = errors.New("no eligible members for rotation")
	ErrMemberNotFound     = errors.New("member not found in fund roster")
	ErrProposalNotFound   = errors.New("proposal not found")
	ErrProposalNotPending = errors.New("proposal is not pending")
	ErrProposalExpired    = errors.New("proposal has expired")
	ErrInvalidQuorumSize  = errors.New("invalid quorum size")
	ErrNotEligibleSigner  = errors.New("user is not an eligible signer")
	ErrNotAuthorized      = errors.New("user may not perform this action")
	ErrInsufficientBalance = errors.New("insufficient treasury balance")
	ErrDailyLimitExceeded = errors.New("daily withdrawal limit exceeded")
	ErrPolicyViolation    = errors.New("withdrawal policy rejected the proposal")
	ErrInvalidAmount      = errors.New("amount must be positive")
)
