package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DurationModel describes how a fund disburses its treasury
type DurationModel string

const (
	DurationFixed    DurationModel = "fixed"
	DurationRotation DurationModel = "rotation"
)

// RotationFrequency is the calendar interval between rotation ticks
type RotationFrequency string

const (
	FrequencyWeekly    RotationFrequency = "weekly"
	FrequencyBiWeekly  RotationFrequency = "bi-weekly"
	FrequencyMonthly   RotationFrequency = "monthly"
	FrequencyQuarterly RotationFrequency = "quarterly"
)

// SelectionMethod is the recipient selection strategy for rotation
type SelectionMethod string

const (
	SelectionSequential   SelectionMethod = "sequential"
	SelectionLottery      SelectionMethod = "lottery"
	SelectionProportional SelectionMethod = "proportional"
)

// Fund is a community treasury subject to rotation and withdrawal rules.
// The balance is mutated only through the transactional debit primitive;
// currentRotationCycle advances only together with a cycle row.
type Fund struct {
	ID                      uuid.UUID         `json:"id"`
	Name                    string            `json:"name"`
	DurationModel           DurationModel     `json:"duration_model"`
	RotationFrequency       RotationFrequency `json:"rotation_frequency"`
	RotationSelectionMethod SelectionMethod   `json:"rotation_selection_method"`
	TreasuryBalance         decimal.Decimal   `json:"treasury_balance"`
	CurrentRotationCycle    int               `json:"current_rotation_cycle"`
	NextRotationDate        time.Time         `json:"next_rotation_date"`
	TotalRotationCycles     *int              `json:"total_rotation_cycles,omitempty"`
	DailyWithdrawalLimit    decimal.Decimal   `json:"daily_withdrawal_limit"`
	WithdrawalPolicy        *string           `json:"withdrawal_policy,omitempty"`
	Active                  bool              `json:"active"`
	CreatedAt               time.Time         `json:"created_at"`
	UpdatedAt               time.Time         `json:"updated_at"`
}
