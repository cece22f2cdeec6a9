package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProposalStatus is the lifecycle state of a withdrawal proposal.
// pending is the only non-terminal state; no transition leaves a
// terminal state.
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalApproved ProposalStatus = "approved"
	ProposalExecuted ProposalStatus = "executed"
	ProposalExpired  ProposalStatus = "expired"
	ProposalRejected ProposalStatus = "rejected"
)

// Terminal reports whether the status permits no further transitions.
func (s ProposalStatus) Terminal() bool {
	return s != ProposalPending
}

// MultisigProposal is a treasury withdrawal awaiting an approval quorum.
type MultisigProposal struct {
	ID                 uuid.UUID       `json:"id"`
	FundID             uuid.UUID       `json:"fund_id"`
	ProposedBy         string          `json:"proposed_by"`
	Recipient          string          `json:"recipient"`
	Amount             decimal.Decimal `json:"amount"`
	Purpose            string          `json:"purpose"`
	RequiredSignatures int             `json:"required_signatures"`
	Status             ProposalStatus  `json:"status"`
	CreatedAt          time.Time       `json:"created_at"`
	ExpiresAt          time.Time       `json:"expires_at"`
	ApprovedAt         *time.Time      `json:"approved_at,omitempty"`
	ExecutedAt         *time.Time      `json:"executed_at,omitempty"`
}

// Expired reports whether the proposal's signing window has closed.
func (p *MultisigProposal) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// Signature records one distinct approval against a proposal. At most one
// row exists per (proposal_id, signer_id); the primary key enforces it.
type Signature struct {
	ProposalID uuid.UUID `json:"proposal_id"`
	SignerID   string    `json:"signer_id"`
	SignedAt   time.Time `json:"signed_at"`
}
