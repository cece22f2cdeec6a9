package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mtaadao/treasury/cmd/treasury/models"
)

const fundColumns = `
	id, name, duration_model, rotation_frequency, rotation_selection_method,
	treasury_balance, current_rotation_cycle, next_rotation_date,
	total_rotation_cycles, daily_withdrawal_limit, withdrawal_policy,
	active, created_at, updated_at
`

func scanFund(row pgx.Row) (*models.Fund, error) {
	fund := &models.Fund{}
	err := row.Scan(
		&fund.ID,
		&fund.Name,
		&fund.DurationModel,
		&fund.RotationFrequency,
		&fund.RotationSelectionMethod,
		&fund.TreasuryBalance,
		&fund.CurrentRotationCycle,
		&fund.NextRotationDate,
		&fund.TotalRotationCycles,
		&fund.DailyWithdrawalLimit,
		&fund.WithdrawalPolicy,
		&fund.Active,
		&fund.CreatedAt,
		&fund.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrFundNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan fund: %w", err)
	}
	return fund, nil
}

// GetFund retrieves a fund by ID
func (s *Store) GetFund(ctx context.Context, fundID uuid.UUID) (*models.Fund, error) {
	query := `SELECT ` + fundColumns + ` FROM fund WHERE id = $1`
	return scanFund(s.db.QueryRow(ctx, query, fundID))
}

// ListDueRotationFunds returns active rotation funds whose next rotation
// date has passed.
func (s *Store) ListDueRotationFunds(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT id
		FROM fund
		WHERE active
		  AND duration_model = 'rotation'
		  AND next_rotation_date <= $1
		ORDER BY next_rotation_date
	`

	rows, err := s.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list due rotation funds: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan fund id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due funds: %w", err)
	}

	return ids, nil
}

// GetFundForUpdate retrieves a fund under a row lock, serializing
// concurrent rotation ticks and withdrawal executions per fund.
func (t *storeTx) GetFundForUpdate(ctx context.Context, fundID uuid.UUID) (*models.Fund, error) {
	query := `SELECT ` + fundColumns + ` FROM fund WHERE id = $1 FOR UPDATE`
	return scanFund(t.q.QueryRow(ctx, query, fundID))
}

// DebitTreasury subtracts amount from the fund balance, failing when the
// balance would go negative.
func (t *storeTx) DebitTreasury(ctx context.Context, fundID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE fund
		SET treasury_balance = treasury_balance - $2, updated_at = now()
		WHERE id = $1 AND treasury_balance >= $2
		RETURNING treasury_balance
	`

	var newBalance decimal.Decimal
	err := t.q.QueryRow(ctx, query, fundID, amount).Scan(&newBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, models.ErrInsufficientBalance
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to debit treasury: %w", err)
	}

	return newBalance, nil
}

// AdvanceRotation moves the fund to the given cycle number and next date.
func (t *storeTx) AdvanceRotation(ctx context.Context, fundID uuid.UUID, cycleNumber int, nextDate time.Time) error {
	query := `
		UPDATE fund
		SET current_rotation_cycle = $2, next_rotation_date = $3, updated_at = now()
		WHERE id = $1
	`

	tag, err := t.q.Exec(ctx, query, fundID, cycleNumber, nextDate)
	if err != nil {
		return fmt.Errorf("failed to advance rotation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrFundNotFound
	}

	return nil
}
