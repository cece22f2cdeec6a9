package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mtaadao/treasury/cmd/treasury/models"
)

// Store is the persistence boundary for the disbursement engine. The
// signature and cycle tables behind it are the single source of truth;
// nothing in this package caches quorum or balance state.
type Store interface {
	// InTx runs fn inside one database transaction. Everything fn does
	// through the StoreTx commits or rolls back as a unit.
	InTx(ctx context.Context, fn func(tx StoreTx) error) error

	GetFund(ctx context.Context, fundID uuid.UUID) (*models.Fund, error)
	GetMember(ctx context.Context, fundID uuid.UUID, userID string) (*models.Member, error)
	ListEligibleMembers(ctx context.Context, fundID uuid.UUID) ([]models.Member, error)
	ListCycles(ctx context.Context, fundID uuid.UUID) ([]models.RotationCycle, error)
	GetProposal(ctx context.Context, proposalID uuid.UUID) (*models.MultisigProposal, error)
	ListPendingProposals(ctx context.Context, fundID uuid.UUID) ([]PendingProposal, error)
	ListDueRotationFunds(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	ListOverdueProposals(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	SumExecutedWithdrawals(ctx context.Context, fundID uuid.UUID, since time.Time) (decimal.Decimal, error)
}

// StoreTx is the transactional view handed to InTx callbacks. ForUpdate
// getters take row locks so concurrent ticks and signs serialize per row.
type StoreTx interface {
	GetFundForUpdate(ctx context.Context, fundID uuid.UUID) (*models.Fund, error)
	ListEligibleMembers(ctx context.Context, fundID uuid.UUID) ([]models.Member, error)

	// DebitTreasury subtracts amount from the fund balance and returns the
	// new balance. Fails with models.ErrInsufficientBalance when the balance
	// would go negative. Both rotation and withdrawal execution debit
	// through here.
	DebitTreasury(ctx context.Context, fundID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)

	// AdvanceRotation moves the fund to the given cycle number and next
	// rotation date. Called only together with InsertCycle in the same
	// transaction.
	AdvanceRotation(ctx context.Context, fundID uuid.UUID, cycleNumber int, nextDate time.Time) error

	InsertCycle(ctx context.Context, cycle *models.RotationCycle) error

	InsertProposal(ctx context.Context, proposal *models.MultisigProposal) error
	GetProposalForUpdate(ctx context.Context, proposalID uuid.UUID) (*models.MultisigProposal, error)
	UpdateProposalStatus(ctx context.Context, proposalID uuid.UUID, status models.ProposalStatus, at time.Time) error

	// InsertSignature records a distinct approval. Returns false when the
	// signer already has a signature on this proposal (uniqueness
	// violation), which callers treat as an idempotent no-op.
	InsertSignature(ctx context.Context, sig *models.Signature) (bool, error)
	HasSignature(ctx context.Context, proposalID uuid.UUID, signerID string) (bool, error)
	CountSignatures(ctx context.Context, proposalID uuid.UUID) (int, error)

	InsertAudit(ctx context.Context, entry *models.AuditEntry) error
}

// PendingProposal is a non-terminal proposal with its live signature count.
type PendingProposal struct {
	models.MultisigProposal
	SignatureCount int `json:"signature_count"`
}
