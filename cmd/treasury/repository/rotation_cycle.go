package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mtaadao/treasury/cmd/treasury/models"
)

// InsertCycle appends a rotation cycle row. The unique constraint on
// (fund_id, cycle_number) rejects any duplicate tick for the same cycle.
func (t *storeTx) InsertCycle(ctx context.Context, cycle *models.RotationCycle) error {
	query := `
		INSERT INTO rotation_cycle (
			id, fund_id, cycle_number, recipient_user_id, status,
			amount_distributed, start_date, end_date, distributed_at, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := t.q.Exec(ctx, query,
		cycle.ID,
		cycle.FundID,
		cycle.CycleNumber,
		cycle.RecipientUserID,
		cycle.Status,
		cycle.AmountDistributed,
		cycle.StartDate,
		cycle.EndDate,
		cycle.DistributedAt,
		cycle.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to insert rotation cycle: %w", err)
	}

	return nil
}

// ListCycles returns a fund's rotation history in cycle order.
func (s *Store) ListCycles(ctx context.Context, fundID uuid.UUID) ([]models.RotationCycle, error) {
	query := `
		SELECT id, fund_id, cycle_number, recipient_user_id, status,
		       amount_distributed, start_date, end_date, distributed_at, notes
		FROM rotation_cycle
		WHERE fund_id = $1
		ORDER BY cycle_number
	`

	rows, err := s.db.Query(ctx, query, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rotation cycles: %w", err)
	}
	defer rows.Close()

	var cycles []models.RotationCycle
	for rows.Next() {
		var c models.RotationCycle
		err := rows.Scan(
			&c.ID,
			&c.FundID,
			&c.CycleNumber,
			&c.RecipientUserID,
			&c.Status,
			&c.AmountDistributed,
			&c.StartDate,
			&c.EndDate,
			&c.DistributedAt,
			&c.Notes,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rotation cycle: %w", err)
		}
		cycles = append(cycles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rotation cycles: %w", err)
	}

	return cycles, nil
}
