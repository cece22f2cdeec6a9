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

// RotationStatus is the outcome of a rotation tick
type RotationStatus string

const (
	RotationCompleted RotationStatus = "completed"
	RotationSkipped   RotationStatus = "skipped"
)

// SkipReason explains a skipped tick. Skips are expected poll behavior,
// not errors.
type SkipReason string

const (
	SkipNotDue          SkipReason = "not_due"
	SkipEmptyTreasury   SkipReason = "empty_treasury"
	SkipCycleCapReached SkipReason = "cycle_cap_reached"
)

// RotationResult is the outcome of ProcessDue.
type RotationResult struct {
	Status            RotationStatus  `json:"status"`
	Reason            SkipReason      `json:"reason,omitempty"`
	CycleNumber       int             `json:"cycle_number,omitempty"`
	RecipientUserID   string          `json:"recipient_user_id,omitempty"`
	AmountDistributed decimal.Decimal `json:"amount_distributed,omitempty"`
	NextRotationDate  *time.Time      `json:"next_rotation_date,omitempty"`
}

// RecipientPreview is a non-mutating look at the upcoming selection.
type RecipientPreview struct {
	NextRecipient             string          `json:"next_recipient"`
	CycleNumber               int             `json:"cycle_number"`
	EstimatedDistributionDate time.Time       `json:"estimated_distribution_date"`
	EstimatedAmount           decimal.Decimal `json:"estimated_amount"`
	JoinedAt                  time.Time       `json:"joined_at"`
}

// RotationStatusReport summarizes a fund's rotation state and history.
type RotationStatusReport struct {
	FundID           uuid.UUID              `json:"fund_id"`
	DurationModel    models.DurationModel   `json:"duration_model"`
	Frequency        models.RotationFrequency `json:"rotation_frequency"`
	SelectionMethod  models.SelectionMethod `json:"selection_method"`
	CurrentCycle     int                    `json:"current_cycle"`
	TotalCycles      *int                   `json:"total_cycles,omitempty"`
	NextRotationDate time.Time              `json:"next_rotation_date"`
	TreasuryBalance  decimal.Decimal        `json:"treasury_balance"`
	EligibleMembers  int                    `json:"eligible_members"`
	CycleHistory     []models.RotationCycle `json:"cycle_history"`
}

// RotationService periodically rotates pooled funds to members. One tick
// selects exactly one recipient, fully disburses the treasury, and records
// the cycle, all in one transaction.
type RotationService struct {
	store    Store
	notifier Notifier
	log      *logger.Logger
	now      func() time.Time
}

// NewRotationService creates a new rotation service
func NewRotationService(store Store, notifier Notifier, log *logger.Logger) *RotationService {
	return &RotationService{
		store:    store,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// ProcessDue runs one rotation tick for the fund. Preconditions are checked
// in order; a false "is it due" or an empty treasury yields a skip result,
// while a misconfigured fund or an empty roster is an error. The cycle
// insert, the full-balance debit and the schedule advance commit together:
// a crash never leaves an incremented cycle number without a ledger entry.
func (s *RotationService) ProcessDue(ctx context.Context, fundID uuid.UUID) (*RotationResult, error) {
	now := s.now()

	var (
		result *RotationResult
		cycle  *models.RotationCycle
	)

	err := s.store.InTx(ctx, func(tx StoreTx) error {
		fund, err := tx.GetFundForUpdate(ctx, fundID)
		if err != nil {
			return err
		}

		if fund.DurationModel != models.DurationRotation {
			return fmt.Errorf("%w: fund %s uses %s", models.ErrNotRotationFund, fundID, fund.DurationModel)
		}

		if fund.TotalRotationCycles != nil && fund.CurrentRotationCycle >= *fund.TotalRotationCycles {
			result = &RotationResult{Status: RotationSkipped, Reason: SkipCycleCapReached}
			return nil
		}

		if now.Before(fund.NextRotationDate) {
			result = &RotationResult{Status: RotationSkipped, Reason: SkipNotDue}
			return nil
		}

		members, err := tx.ListEligibleMembers(ctx, fundID)
		if err != nil {
			return fmt.Errorf("list eligible members: %w", err)
		}
		if len(members) == 0 {
			// Fatal: an operator has to fix the roster before ticks resume.
			return models.ErrNoEligibleMembers
		}

		if !fund.TreasuryBalance.IsPositive() {
			result = &RotationResult{Status: RotationSkipped, Reason: SkipEmptyTreasury}
			return nil
		}

		strategy, err := StrategyFor(fund.RotationSelectionMethod)
		if err != nil {
			return err
		}

		recipient, err := strategy.Select(members, fund.CurrentRotationCycle)
		if err != nil {
			return err
		}

		amount := fund.TreasuryBalance
		cycleNumber := fund.CurrentRotationCycle + 1
		nextDate := NextRotationDate(fund.NextRotationDate, fund.RotationFrequency)

		cycle = &models.RotationCycle{
			ID:                uuid.New(),
			FundID:            fundID,
			CycleNumber:       cycleNumber,
			RecipientUserID:   recipient.UserID,
			Status:            models.CycleCompleted,
			AmountDistributed: amount,
			StartDate:         fund.NextRotationDate,
			EndDate:           now,
			DistributedAt:     now,
			Notes:             fmt.Sprintf("automatic rotation distribution (%s)", fund.RotationSelectionMethod),
		}

		if err := tx.InsertCycle(ctx, cycle); err != nil {
			return fmt.Errorf("insert rotation cycle: %w", err)
		}

		newBalance, err := tx.DebitTreasury(ctx, fundID, amount)
		if err != nil {
			return fmt.Errorf("debit treasury: %w", err)
		}

		if err := tx.AdvanceRotation(ctx, fundID, cycleNumber, nextDate); err != nil {
			return fmt.Errorf("advance rotation schedule: %w", err)
		}

		prev := amount
		if err := tx.InsertAudit(ctx, &models.AuditEntry{
			ID:              uuid.New(),
			FundID:          fundID,
			ActorID:         "system",
			Action:          models.AuditRotationDistributed,
			Amount:          amount,
			PreviousBalance: &prev,
			NewBalance:      &newBalance,
			Reason:          cycle.Notes,
			Severity:        models.SeverityForAmount(amount),
			CreatedAt:       now,
		}); err != nil {
			return fmt.Errorf("insert audit entry: %w", err)
		}

		result = &RotationResult{
			Status:            RotationCompleted,
			CycleNumber:       cycleNumber,
			RecipientUserID:   recipient.UserID,
			AmountDistributed: amount,
			NextRotationDate:  &nextDate,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Status == RotationCompleted {
		s.log.Info("rotation processed",
			"fund_id", fundID,
			"cycle", result.CycleNumber,
			"recipient", result.RecipientUserID,
			"amount", result.AmountDistributed,
		)
		s.notifier.RotationCompleted(ctx, fundID, cycle)
	}

	return result, nil
}

// PreviewNextRecipient selects the upcoming recipient without mutating any
// cycle state. Lottery and proportional previews re-roll on every call.
func (s *RotationService) PreviewNextRecipient(ctx context.Context, fundID uuid.UUID) (*RecipientPreview, error) {
	fund, err := s.store.GetFund(ctx, fundID)
	if err != nil {
		return nil, err
	}

	if fund.DurationModel != models.DurationRotation {
		return nil, fmt.Errorf("%w: fund %s uses %s", models.ErrNotRotationFund, fundID, fund.DurationModel)
	}

	members, err := s.store.ListEligibleMembers(ctx, fundID)
	if err != nil {
		return nil, fmt.Errorf("list eligible members: %w", err)
	}
	if len(members) == 0 {
		return nil, models.ErrNoEligibleMembers
	}

	strategy, err := StrategyFor(fund.RotationSelectionMethod)
	if err != nil {
		return nil, err
	}

	recipient, err := strategy.Select(members, fund.CurrentRotationCycle)
	if err != nil {
		return nil, err
	}

	return &RecipientPreview{
		NextRecipient:             recipient.UserID,
		CycleNumber:               fund.CurrentRotationCycle + 1,
		EstimatedDistributionDate: fund.NextRotationDate,
		EstimatedAmount:           fund.TreasuryBalance,
		JoinedAt:                  recipient.JoinedAt,
	}, nil
}

// Status returns the fund's rotation state with its full cycle history.
func (s *RotationService) Status(ctx context.Context, fundID uuid.UUID) (*RotationStatusReport, error) {
	fund, err := s.store.GetFund(ctx, fundID)
	if err != nil {
		return nil, err
	}

	members, err := s.store.ListEligibleMembers(ctx, fundID)
	if err != nil {
		return nil, fmt.Errorf("list eligible members: %w", err)
	}

	cycles, err := s.store.ListCycles(ctx, fundID)
	if err != nil {
		return nil, fmt.Errorf("list rotation cycles: %w", err)
	}

	return &RotationStatusReport{
		FundID:           fund.ID,
		DurationModel:    fund.DurationModel,
		Frequency:        fund.RotationFrequency,
		SelectionMethod:  fund.RotationSelectionMethod,
		CurrentCycle:     fund.CurrentRotationCycle,
		TotalCycles:      fund.TotalRotationCycles,
		NextRotationDate: fund.NextRotationDate,
		TreasuryBalance:  fund.TreasuryBalance,
		EligibleMembers:  len(members),
		CycleHistory:     cycles,
	}, nil
}

// ProcessAllDue runs ProcessDue for every rotation fund whose next date has
// passed. Used by the poll job; per-fund locking is the caller's concern.
func (s *RotationService) ProcessAllDue(ctx context.Context, tick func(fundID uuid.UUID)) error {
	fundIDs, err := s.store.ListDueRotationFunds(ctx, s.now())
	if err != nil {
		return fmt.Errorf("list due rotation funds: %w", err)
	}

	for _, fundID := range fundIDs {
		tick(fundID)
	}
	return nil
}
