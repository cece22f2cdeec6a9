package models

import (
	"time"

	"github.com/google/uuid"
)

// MemberStatus is the roster status of a fund member
type MemberStatus string

const (
	MemberApproved MemberStatus = "approved"
	MemberPending  MemberStatus = "pending"
	MemberBanned   MemberStatus = "banned"
)

// MemberRole is the governance role of a fund member
type MemberRole string

const (
	RoleMember MemberRole = "member"
	RoleElder  MemberRole = "elder"
	RoleAdmin  MemberRole = "admin"
)

// Member is a roster entry. Owned by the membership roster; read-only to
// the disbursement engine.
type Member struct {
	FundID   uuid.UUID    `json:"fund_id"`
	UserID   string       `json:"user_id"`
	Role     MemberRole   `json:"role"`
	Status   MemberStatus `json:"status"`
	JoinedAt time.Time    `json:"joined_at"`
}

// Eligible reports whether the member qualifies for rotation selection
// and proposal signing.
func (m *Member) Eligible() bool {
	return m.Status == MemberApproved
}

// CanPropose reports whether the member may propose treasury withdrawals.
func (m *Member) CanPropose() bool {
	return m.Eligible() && (m.Role == RoleElder || m.Role == RoleAdmin)
}
