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
	"github.com/mtaadao/treasury/cmd/treasury/service"
)

const proposalColumns = `
	id, fund_id, proposed_by, recipient, amount, purpose,
	required_signatures, status, created_at, expires_at, approved_at, executed_at
`

func scanProposal(row pgx.Row) (*models.MultisigProposal, error) {
	p := &models.MultisigProposal{}
	err := row.Scan(
		&p.ID,
		&p.FundID,
		&p.ProposedBy,
		&p.Recipient,
		&p.Amount,
		&p.Purpose,
		&p.RequiredSignatures,
		&p.Status,
		&p.CreatedAt,
		&p.ExpiresAt,
		&p.ApprovedAt,
		&p.ExecutedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrProposalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan proposal: %w", err)
	}
	return p, nil
}

// GetProposal retrieves a proposal by ID
func (s *Store) GetProposal(ctx context.Context, proposalID uuid.UUID) (*models.MultisigProposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM multisig_proposal WHERE id = $1`
	return scanProposal(s.db.QueryRow(ctx, query, proposalID))
}

// GetProposalForUpdate retrieves a proposal under a row lock so concurrent
// signs on the same proposal serialize.
func (t *storeTx) GetProposalForUpdate(ctx context.Context, proposalID uuid.UUID) (*models.MultisigProposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM multisig_proposal WHERE id = $1 FOR UPDATE`
	return scanProposal(t.q.QueryRow(ctx, query, proposalID))
}

// InsertProposal records a new withdrawal proposal
func (t *storeTx) InsertProposal(ctx context.Context, p *models.MultisigProposal) error {
	query := `
		INSERT INTO multisig_proposal (
			id, fund_id, proposed_by, recipient, amount, purpose,
			required_signatures, status, created_at, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := t.q.Exec(ctx, query,
		p.ID,
		p.FundID,
		p.ProposedBy,
		p.Recipient,
		p.Amount,
		p.Purpose,
		p.RequiredSignatures,
		p.Status,
		p.CreatedAt,
		p.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert proposal: %w", err)
	}

	return nil
}

// UpdateProposalStatus transitions a proposal, stamping approved_at or
// executed_at for the respective states.
func (t *storeTx) UpdateProposalStatus(ctx context.Context, proposalID uuid.UUID, status models.ProposalStatus, at time.Time) error {
	query := `
		UPDATE multisig_proposal
		SET status = $2,
		    approved_at = CASE WHEN $2 = 'approved' THEN $3 ELSE approved_at END,
		    executed_at = CASE WHEN $2 = 'executed' THEN $3 ELSE executed_at END
		WHERE id = $1
	`

	tag, err := t.q.Exec(ctx, query, proposalID, status, at)
	if err != nil {
		return fmt.Errorf("failed to update proposal status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrProposalNotFound
	}

	return nil
}

// ListPendingProposals returns a fund's pending proposals with live
// signature counts.
func (s *Store) ListPendingProposals(ctx context.Context, fundID uuid.UUID) ([]service.PendingProposal, error) {
	query := `
		SELECT ` + proposalColumns + `,
		       (SELECT COUNT(*) FROM proposal_signature ps WHERE ps.proposal_id = multisig_proposal.id)
		FROM multisig_proposal
		WHERE fund_id = $1 AND status = 'pending'
		ORDER BY created_at
	`

	rows, err := s.db.Query(ctx, query, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending proposals: %w", err)
	}
	defer rows.Close()

	var proposals []service.PendingProposal
	for rows.Next() {
		var p service.PendingProposal
		err := rows.Scan(
			&p.ID,
			&p.FundID,
			&p.ProposedBy,
			&p.Recipient,
			&p.Amount,
			&p.Purpose,
			&p.RequiredSignatures,
			&p.Status,
			&p.CreatedAt,
			&p.ExpiresAt,
			&p.ApprovedAt,
			&p.ExecutedAt,
			&p.SignatureCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending proposal: %w", err)
		}
		proposals = append(proposals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending proposals: %w", err)
	}

	return proposals, nil
}

// ListOverdueProposals returns IDs of pending proposals past their expiry.
func (s *Store) ListOverdueProposals(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT id
		FROM multisig_proposal
		WHERE status = 'pending' AND expires_at < $1
		ORDER BY expires_at
	`

	rows, err := s.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue proposals: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan proposal id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating overdue proposals: %w", err)
	}

	return ids, nil
}

// SumExecutedWithdrawals totals withdrawals executed since the given time,
// for daily-limit checks.
func (s *Store) SumExecutedWithdrawals(ctx context.Context, fundID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM multisig_proposal
		WHERE fund_id = $1 AND status = 'executed' AND executed_at >= $2
	`

	var total decimal.Decimal
	if err := s.db.QueryRow(ctx, query, fundID, since).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum executed withdrawals: %w", err)
	}

	return total, nil
}
