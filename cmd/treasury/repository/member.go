package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mtaadao/treasury/cmd/treasury/models"
)

// GetMember retrieves a roster entry for a fund
func (s *Store) GetMember(ctx context.Context, fundID uuid.UUID, userID string) (*models.Member, error) {
	return getMember(ctx, s.db, fundID, userID)
}

// ListEligibleMembers returns approved members ordered by join date.
func (s *Store) ListEligibleMembers(ctx context.Context, fundID uuid.UUID) ([]models.Member, error) {
	return listEligibleMembers(ctx, s.db, fundID)
}

func (t *storeTx) ListEligibleMembers(ctx context.Context, fundID uuid.UUID) ([]models.Member, error) {
	return listEligibleMembers(ctx, t.q, fundID)
}

func getMember(ctx context.Context, q querier, fundID uuid.UUID, userID string) (*models.Member, error) {
	query := `
		SELECT fund_id, user_id, role, status, joined_at
		FROM fund_member
		WHERE fund_id = $1 AND user_id = $2
	`

	member := &models.Member{}
	err := q.QueryRow(ctx, query, fundID, userID).Scan(
		&member.FundID,
		&member.UserID,
		&member.Role,
		&member.Status,
		&member.JoinedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}

func listEligibleMembers(ctx context.Context, q querier, fundID uuid.UUID) ([]models.Member, error) {
	query := `
		SELECT fund_id, user_id, role, status, joined_at
		FROM fund_member
		WHERE fund_id = $1 AND status = 'approved'
		ORDER BY joined_at, user_id
	`

	rows, err := q.Query(ctx, query, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		err := rows.Scan(&m.FundID, &m.UserID, &m.Role, &m.Status, &m.JoinedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}

	return members, nil
}
