package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mtaadao/treasury/cmd/treasury/models"
)

// uniqueViolation is the SQLSTATE raised when the (proposal_id, signer_id)
// primary key rejects a duplicate signature.
const uniqueViolation = "23505"

// InsertSignature appends a signature row. Returns false when the signer
// already signed this proposal; the constraint, not a client-side check,
// resolves racing duplicate signs.
func (t *storeTx) InsertSignature(ctx context.Context, sig *models.Signature) (bool, error) {
	query := `
		INSERT INTO proposal_signature (proposal_id, signer_id, signed_at)
		VALUES ($1, $2, $3)
	`

	_, err := t.q.Exec(ctx, query, sig.ProposalID, sig.SignerID, sig.SignedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert signature: %w", err)
	}

	return true, nil
}

// HasSignature reports whether the signer has signed the proposal.
func (t *storeTx) HasSignature(ctx context.Context, proposalID uuid.UUID, signerID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM proposal_signature
			WHERE proposal_id = $1 AND signer_id = $2
		)
	`

	var exists bool
	if err := t.q.QueryRow(ctx, query, proposalID, signerID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check signature: %w", err)
	}

	return exists, nil
}

// CountSignatures counts distinct signatures on a proposal.
func (t *storeTx) CountSignatures(ctx context.Context, proposalID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM proposal_signature WHERE proposal_id = $1`

	var count int
	if err := t.q.QueryRow(ctx, query, proposalID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count signatures: %w", err)
	}

	return count, nil
}
