package repository

import (
	"context"
	"fmt"

	"github.com/mtaadao/treasury/cmd/treasury/models"
)

// InsertAudit appends a treasury audit entry. Always called on the same
// transaction as the mutation it records.
func (t *storeTx) InsertAudit(ctx context.Context, entry *models.AuditEntry) error {
	query := `
		INSERT INTO treasury_audit_log (
			id, fund_id, actor_id, action, amount, previous_balance,
			new_balance, reason, proposal_id, severity, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := t.q.Exec(ctx, query,
		entry.ID,
		entry.FundID,
		entry.ActorID,
		entry.Action,
		entry.Amount,
		entry.PreviousBalance,
		entry.NewBalance,
		entry.Reason,
		entry.ProposalID,
		entry.Severity,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	return nil
}
