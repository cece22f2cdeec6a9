package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuditAction identifies the treasury operation being recorded
type AuditAction string

const (
	AuditRotationDistributed AuditAction = "rotation_distributed"
	AuditWithdrawalProposed  AuditAction = "withdrawal_proposed"
	AuditWithdrawalSigned    AuditAction = "withdrawal_signed"
	AuditWithdrawalApproved  AuditAction = "withdrawal_approved"
	AuditWithdrawalExecuted  AuditAction = "withdrawal_executed"
	AuditWithdrawalRejected  AuditAction = "withdrawal_rejected"
	AuditProposalExpired     AuditAction = "proposal_expired"
)

// AuditSeverity classifies an audit entry for review triage
type AuditSeverity string

const (
	SeverityLow    AuditSeverity = "low"
	SeverityMedium AuditSeverity = "medium"
	SeverityHigh   AuditSeverity = "high"
)

// highValueThreshold marks withdrawals that warrant high-severity audit rows.
var highValueThreshold = decimal.NewFromInt(5000)

// SeverityForAmount derives audit severity from the amount involved.
func SeverityForAmount(amount decimal.Decimal) AuditSeverity {
	if amount.GreaterThan(highValueThreshold) {
		return SeverityHigh
	}
	return SeverityMedium
}

// AuditEntry is an append-only record of a treasury mutation or proposal
// transition, written in the same transaction as the change it describes.
type AuditEntry struct {
	ID              uuid.UUID        `json:"id"`
	FundID          uuid.UUID        `json:"fund_id"`
	ActorID         string           `json:"actor_id"`
	Action          AuditAction      `json:"action"`
	Amount          decimal.Decimal  `json:"amount"`
	PreviousBalance *decimal.Decimal `json:"previous_balance,omitempty"`
	NewBalance      *decimal.Decimal `json:"new_balance,omitempty"`
	Reason          string           `json:"reason"`
	ProposalID      *uuid.UUID       `json:"proposal_id,omitempty"`
	Severity        AuditSeverity    `json:"severity"`
	CreatedAt       time.Time        `json:"created_at"`
}
