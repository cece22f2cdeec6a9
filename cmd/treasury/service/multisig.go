package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mtaadao/treasury/cmd/treasury/models"
	"github.com/mtaadao/treasury/common/logger"
)

// SignAction is what a sign call did.
type SignAction string

const (
	SignAdded           SignAction = "added"
	SignAlreadySigned   SignAction = "already_signed"
	SignRejectedExpired SignAction = "rejected_expired"
)

// SignResult is the outcome of one sign call.
type SignResult struct {
	Action     SignAction            `json:"action"`
	Approved   bool                  `json:"approved"`
	Signatures int                   `json:"signatures"`
	Required   int                   `json:"required"`
	Status     models.ProposalStatus `json:"status"`
}

// ProposeInput carries a withdrawal proposal request.
type ProposeInput struct {
	FundID             uuid.UUID
	ProposerID         string
	Recipient          string
	Amount             decimal.Decimal
	Purpose            string
	RequiredSignatures int
}

// MultisigService gates treasury withdrawals behind an approval quorum.
// The signature table is the single source of truth for quorum decisions;
// every sign call re-reads it inside its own transaction.
type MultisigService struct {
	store             Store
	policy            *PolicyEvaluator
	notifier          Notifier
	log               *logger.Logger
	proposalExpiry    time.Duration
	defaultDailyLimit decimal.Decimal
	now               func() time.Time
}

// NewMultisigService creates a new multisig service
func NewMultisigService(
	store Store,
	policy *PolicyEvaluator,
	notifier Notifier,
	log *logger.Logger,
	proposalExpiry time.Duration,
	defaultDailyLimit decimal.Decimal,
) *MultisigService {
	return &MultisigService{
		store:             store,
		policy:            policy,
		notifier:          notifier,
		log:               log,
		proposalExpiry:    proposalExpiry,
		defaultDailyLimit: defaultDailyLimit,
		now:               time.Now,
	}
}

// Propose validates and records a withdrawal proposal. The quorum size must
// be at least 2 and no larger than the eligible signer count. Balance and
// daily-limit checks here are optimistic; the authoritative balance check
// happens again inside the execution debit.
func (s *MultisigService) Propose(ctx context.Context, in ProposeInput) (*models.MultisigProposal, error) {
	if !in.Amount.IsPositive() {
		return nil, models.ErrInvalidAmount
	}

	fund, err := s.store.GetFund(ctx, in.FundID)
	if err != nil {
		return nil, err
	}

	proposer, err := s.store.GetMember(ctx, in.FundID, in.ProposerID)
	if err != nil {
		return nil, err
	}
	if !proposer.CanPropose() {
		return nil, fmt.Errorf("%w: only approved elders and admins may propose withdrawals", models.ErrNotAuthorized)
	}

	signers, err := s.store.ListEligibleMembers(ctx, in.FundID)
	if err != nil {
		return nil, fmt.Errorf("list eligible signers: %w", err)
	}
	if in.RequiredSignatures < 2 || in.RequiredSignatures > len(signers) {
		return nil, fmt.Errorf("%w: need between 2 and %d signatures, got %d",
			models.ErrInvalidQuorumSize, len(signers), in.RequiredSignatures)
	}

	if in.Amount.GreaterThan(fund.TreasuryBalance) {
		return nil, fmt.Errorf("%w: available %s, requested %s",
			models.ErrInsufficientBalance, fund.TreasuryBalance, in.Amount)
	}

	now := s.now()

	dailyLimit := fund.DailyWithdrawalLimit
	if dailyLimit.IsZero() {
		dailyLimit = s.defaultDailyLimit
	}
	spent, err := s.store.SumExecutedWithdrawals(ctx, in.FundID, StartOfDay(now))
	if err != nil {
		return nil, fmt.Errorf("sum executed withdrawals: %w", err)
	}
	if spent.Add(in.Amount).GreaterThan(dailyLimit) {
		return nil, fmt.Errorf("%w: limit %s, already spent %s",
			models.ErrDailyLimitExceeded, dailyLimit, spent)
	}

	if fund.WithdrawalPolicy != nil && *fund.WithdrawalPolicy != "" {
		allowed, err := s.policy.Allow(*fund.WithdrawalPolicy, PolicyInput{
			Amount:             in.Amount.InexactFloat64(),
			Balance:            fund.TreasuryBalance.InexactFloat64(),
			DailySpent:         spent.InexactFloat64(),
			DailyLimit:         dailyLimit.InexactFloat64(),
			RequiredSignatures: in.RequiredSignatures,
		})
		if err != nil {
			return nil, fmt.Errorf("evaluate withdrawal policy: %w", err)
		}
		if !allowed {
			return nil, models.ErrPolicyViolation
		}
	}

	proposal := &models.MultisigProposal{
		ID:                 uuid.New(),
		FundID:             in.FundID,
		ProposedBy:         in.ProposerID,
		Recipient:          in.Recipient,
		Amount:             in.Amount,
		Purpose:            in.Purpose,
		RequiredSignatures: in.RequiredSignatures,
		Status:             models.ProposalPending,
		CreatedAt:          now,
		ExpiresAt:          now.Add(s.proposalExpiry),
	}

	err = s.store.InTx(ctx, func(tx StoreTx) error {
		if err := tx.InsertProposal(ctx, proposal); err != nil {
			return fmt.Errorf("insert proposal: %w", err)
		}
		return tx.InsertAudit(ctx, &models.AuditEntry{
			ID:         uuid.New(),
			FundID:     in.FundID,
			ActorID:    in.ProposerID,
			Action:     models.AuditWithdrawalProposed,
			Amount:     in.Amount,
			Reason:     in.Purpose,
			ProposalID: &proposal.ID,
			Severity:   models.SeverityForAmount(in.Amount),
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("withdrawal proposed",
		"proposal_id", proposal.ID,
		"fund_id", in.FundID,
		"amount", in.Amount,
		"required_signatures", in.RequiredSignatures,
	)

	return proposal, nil
}

// Sign records one distinct approval and, when the quorum is reached,
// executes the withdrawal in the same transaction. Repeated signs by the
// same signer are idempotent; a signature after expiry transitions the
// proposal to expired and never counts toward quorum.
func (s *MultisigService) Sign(ctx context.Context, proposalID uuid.UUID, signerID string) (*SignResult, error) {
	// Eligibility is checked against the roster before touching proposal
	// state; the roster is read-only to this engine.
	existing, err := s.store.GetProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	signer, err := s.store.GetMember(ctx, existing.FundID, signerID)
	if err != nil {
		return nil, err
	}
	if !signer.Eligible() {
		return nil, models.ErrNotEligibleSigner
	}

	now := s.now()

	var (
		result   *SignResult
		notify   string
		proposal *models.MultisigProposal
	)

	err = s.store.InTx(ctx, func(tx StoreTx) error {
		p, err := tx.GetProposalForUpdate(ctx, proposalID)
		if err != nil {
			return err
		}
		proposal = p

		if p.Status.Terminal() {
			signed, err := tx.HasSignature(ctx, proposalID, signerID)
			if err != nil {
				return err
			}
			if signed {
				result = &SignResult{
					Action:   SignAlreadySigned,
					Approved: p.Status == models.ProposalApproved || p.Status == models.ProposalExecuted,
					Required: p.RequiredSignatures,
					Status:   p.Status,
				}
				return nil
			}
			if p.Status == models.ProposalExpired {
				result = &SignResult{Action: SignRejectedExpired, Required: p.RequiredSignatures, Status: p.Status}
				return nil
			}
			return fmt.Errorf("%w: status is %s", models.ErrProposalNotPending, p.Status)
		}

		// Expiry is enforced at sign time so a late signature can never
		// push an expired proposal over quorum.
		if p.Expired(now) {
			if err := tx.UpdateProposalStatus(ctx, proposalID, models.ProposalExpired, now); err != nil {
				return fmt.Errorf("expire proposal: %w", err)
			}
			if err := tx.InsertAudit(ctx, &models.AuditEntry{
				ID:         uuid.New(),
				FundID:     p.FundID,
				ActorID:    signerID,
				Action:     models.AuditProposalExpired,
				Amount:     p.Amount,
				Reason:     "signature submitted after expiry",
				ProposalID: &p.ID,
				Severity:   models.SeverityLow,
				CreatedAt:  now,
			}); err != nil {
				return err
			}
			p.Status = models.ProposalExpired
			notify = EventProposalExpired
			result = &SignResult{Action: SignRejectedExpired, Required: p.RequiredSignatures, Status: models.ProposalExpired}
			return nil
		}

		inserted, err := tx.InsertSignature(ctx, &models.Signature{
			ProposalID: proposalID,
			SignerID:   signerID,
			SignedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("insert signature: %w", err)
		}
		if !inserted {
			count, err := tx.CountSignatures(ctx, proposalID)
			if err != nil {
				return err
			}
			result = &SignResult{
				Action:     SignAlreadySigned,
				Signatures: count,
				Required:   p.RequiredSignatures,
				Status:     p.Status,
			}
			return nil
		}

		if err := tx.InsertAudit(ctx, &models.AuditEntry{
			ID:         uuid.New(),
			FundID:     p.FundID,
			ActorID:    signerID,
			Action:     models.AuditWithdrawalSigned,
			Amount:     p.Amount,
			Reason:     fmt.Sprintf("signed proposal %s", proposalID),
			ProposalID: &p.ID,
			Severity:   models.SeverityMedium,
			CreatedAt:  now,
		}); err != nil {
			return err
		}

		// The count is re-queried fresh inside this transaction; the row
		// lock on the proposal serializes concurrent quorum checks.
		count, err := tx.CountSignatures(ctx, proposalID)
		if err != nil {
			return err
		}

		if count < p.RequiredSignatures {
			result = &SignResult{
				Action:     SignAdded,
				Signatures: count,
				Required:   p.RequiredSignatures,
				Status:     models.ProposalPending,
			}
			return nil
		}

		if err := s.execute(ctx, tx, p, now); err != nil {
			return err
		}

		p.Status = models.ProposalExecuted
		notify = EventProposalExecuted
		result = &SignResult{
			Action:     SignAdded,
			Approved:   true,
			Signatures: count,
			Required:   p.RequiredSignatures,
			Status:     models.ProposalExecuted,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if notify != "" {
		s.notifier.ProposalEvent(ctx, notify, proposal)
	}

	s.log.Info("sign processed",
		"proposal_id", proposalID,
		"signer", signerID,
		"action", result.Action,
		"signatures", result.Signatures,
		"required", result.Required,
	)

	return result, nil
}

// execute transitions an in-quorum proposal to approved, debits the
// treasury, and marks it executed, all on the caller's transaction.
func (s *MultisigService) execute(ctx context.Context, tx StoreTx, p *models.MultisigProposal, now time.Time) error {
	if err := tx.UpdateProposalStatus(ctx, p.ID, models.ProposalApproved, now); err != nil {
		return fmt.Errorf("approve proposal: %w", err)
	}
	if err := tx.InsertAudit(ctx, &models.AuditEntry{
		ID:         uuid.New(),
		FundID:     p.FundID,
		ActorID:    "system",
		Action:     models.AuditWithdrawalApproved,
		Amount:     p.Amount,
		Reason:     p.Purpose,
		ProposalID: &p.ID,
		Severity:   models.SeverityForAmount(p.Amount),
		CreatedAt:  now,
	}); err != nil {
		return err
	}

	newBalance, err := tx.DebitTreasury(ctx, p.FundID, p.Amount)
	if err != nil {
		// Rolls back the whole sign, quorum included: the proposal stays
		// pending and can execute once the treasury is replenished.
		return fmt.Errorf("execute withdrawal: %w", err)
	}
	prev := newBalance.Add(p.Amount)

	if err := tx.UpdateProposalStatus(ctx, p.ID, models.ProposalExecuted, now); err != nil {
		return fmt.Errorf("mark proposal executed: %w", err)
	}
	return tx.InsertAudit(ctx, &models.AuditEntry{
		ID:              uuid.New(),
		FundID:          p.FundID,
		ActorID:         "system",
		Action:          models.AuditWithdrawalExecuted,
		Amount:          p.Amount,
		PreviousBalance: &prev,
		NewBalance:      &newBalance,
		Reason:          p.Purpose,
		ProposalID:      &p.ID,
		Severity:        models.SeverityForAmount(p.Amount),
		CreatedAt:       now,
	})
}

// Reject explicitly moves a pending proposal to the terminal rejected
// state. Only the proposer or an approved elder/admin may reject.
func (s *MultisigService) Reject(ctx context.Context, proposalID uuid.UUID, actorID string) (*models.MultisigProposal, error) {
	existing, err := s.store.GetProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	actor, err := s.store.GetMember(ctx, existing.FundID, actorID)
	if err != nil {
		return nil, err
	}
	if actorID != existing.ProposedBy && !actor.CanPropose() {
		return nil, models.ErrNotAuthorized
	}

	now := s.now()
	var proposal *models.MultisigProposal

	err = s.store.InTx(ctx, func(tx StoreTx) error {
		p, err := tx.GetProposalForUpdate(ctx, proposalID)
		if err != nil {
			return err
		}
		if p.Status.Terminal() {
			return fmt.Errorf("%w: status is %s", models.ErrProposalNotPending, p.Status)
		}

		if err := tx.UpdateProposalStatus(ctx, proposalID, models.ProposalRejected, now); err != nil {
			return fmt.Errorf("reject proposal: %w", err)
		}
		p.Status = models.ProposalRejected
		proposal = p

		return tx.InsertAudit(ctx, &models.AuditEntry{
			ID:         uuid.New(),
			FundID:     p.FundID,
			ActorID:    actorID,
			Action:     models.AuditWithdrawalRejected,
			Amount:     p.Amount,
			Reason:     p.Purpose,
			ProposalID: &p.ID,
			Severity:   models.SeverityMedium,
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("proposal rejected", "proposal_id", proposalID, "actor", actorID)
	return proposal, nil
}

// ListPending returns the fund's non-terminal proposals with live
// signature counts.
func (s *MultisigService) ListPending(ctx context.Context, fundID uuid.UUID) ([]PendingProposal, error) {
	if _, err := s.store.GetFund(ctx, fundID); err != nil {
		return nil, err
	}
	return s.store.ListPendingProposals(ctx, fundID)
}

// SweepExpired transitions overdue pending proposals to expired. The sign
// path already enforces expiry; this sweep only tidies proposals nobody
// signs again.
func (s *MultisigService) SweepExpired(ctx context.Context) (int, error) {
	now := s.now()

	ids, err := s.store.ListOverdueProposals(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list overdue proposals: %w", err)
	}

	expired := 0
	for _, id := range ids {
		var proposal *models.MultisigProposal

		err := s.store.InTx(ctx, func(tx StoreTx) error {
			p, err := tx.GetProposalForUpdate(ctx, id)
			if err != nil {
				return err
			}
			// A concurrent sign may already have expired or executed it.
			if p.Status != models.ProposalPending || !p.Expired(now) {
				return nil
			}

			if err := tx.UpdateProposalStatus(ctx, id, models.ProposalExpired, now); err != nil {
				return fmt.Errorf("expire proposal: %w", err)
			}
			p.Status = models.ProposalExpired
			proposal = p

			return tx.InsertAudit(ctx, &models.AuditEntry{
				ID:         uuid.New(),
				FundID:     p.FundID,
				ActorID:    "system",
				Action:     models.AuditProposalExpired,
				Amount:     p.Amount,
				Reason:     "expired by background sweep",
				ProposalID: &p.ID,
				Severity:   models.SeverityLow,
				CreatedAt:  now,
			})
		})
		if err != nil {
			s.log.Error("failed to expire proposal", "proposal_id", id, "error", err)
			continue
		}

		if proposal != nil {
			expired++
			s.notifier.ProposalEvent(ctx, EventProposalExpired, proposal)
		}
	}

	if expired > 0 {
		s.log.Info("expired overdue proposals", "count", expired)
	}
	return expired, nil
}
