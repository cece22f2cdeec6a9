package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CycleStatus is the outcome recorded for a rotation cycle
type CycleStatus string

const (
	CycleCompleted CycleStatus = "completed"
	CycleSkipped   CycleStatus = "skipped"
)

// RotationCycle is one completed round of distributing a fund's treasury
// to a single member. Rows are append-only: no updates, no deletes.
type RotationCycle struct {
	ID                uuid.UUID       `json:"id"`
	FundID            uuid.UUID       `json:"fund_id"`
	CycleNumber       int             `json:"cycle_number"`
	RecipientUserID   string          `json:"recipient_user_id"`
	Status            CycleStatus     `json:"status"`
	AmountDistributed decimal.Decimal `json:"amount_distributed"`
	StartDate         time.Time       `json:"start_date"`
	EndDate           time.Time       `json:"end_date"`
	DistributedAt     time.Time       `json:"distributed_at"`
	Notes             string          `json:"notes"`
}
