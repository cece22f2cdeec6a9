package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtaadao/treasury/cmd/treasury/models"
)

func newRotationFixture(t *testing.T) (*RotationService, *memStore, *captureNotifier, uuid.UUID) {
	t.Helper()

	store := newMemStore()
	notifier := &captureNotifier{}
	svc := NewRotationService(store, notifier, testLogger())

	fundID := uuid.New()
	store.addFund(&models.Fund{
		ID:                      fundID,
		Name:                    "village savings",
		DurationModel:           models.DurationRotation,
		RotationFrequency:       models.FrequencyMonthly,
		RotationSelectionMethod: models.SelectionSequential,
		TreasuryBalance:         decimal.NewFromInt(900),
		CurrentRotationCycle:    0,
		NextRotationDate:        time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		Active:                  true,
	})

	for i, userID := range []string{"alice", "bob", "carol"} {
		store.addMember(models.Member{
			FundID:   fundID,
			UserID:   userID,
			Role:     models.RoleMember,
			Status:   models.MemberApproved,
			JoinedAt: time.Date(2025, time.January, 1+i, 0, 0, 0, 0, time.UTC),
		})
	}

	svc.now = func() time.Time {
		return time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	}

	return svc, store, notifier, fundID
}

func TestProcessDue_DistributesFullBalance(t *testing.T) {
	svc, store, notifier, fundID := newRotationFixture(t)

	result, err := svc.ProcessDue(context.Background(), fundID)
	require.NoError(t, err)

	assert.Equal(t, RotationCompleted, result.Status)
	assert.Equal(t, 1, result.CycleNumber)
	assert.Equal(t, "alice", result.RecipientUserID)
	assert.True(t, result.AmountDistributed.Equal(decimal.NewFromInt(900)))

	fund := store.fund(fundID)
	assert.True(t, fund.TreasuryBalance.IsZero())
	assert.Equal(t, 1, fund.CurrentRotationCycle)
	assert.Equal(t, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), fund.NextRotationDate)

	cycles, err := store.ListCycles(context.Background(), fundID)
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, "alice", cycles[0].RecipientUserID)
	assert.Equal(t, models.CycleCompleted, cycles[0].Status)
	assert.True(t, cycles[0].AmountDistributed.Equal(decimal.NewFromInt(900)))

	assert.Contains(t, store.auditActions(), models.AuditRotationDistributed)
	assert.Equal(t, []uuid.UUID{fundID}, notifier.rotations)
}

func TestProcessDue_SkipsWhenNotDue(t *testing.T) {
	svc, store, notifier, fundID := newRotationFixture(t)
	svc.now = func() time.Time {
		return time.Date(2025, time.May, 20, 0, 0, 0, 0, time.UTC)
	}

	result, err := svc.ProcessDue(context.Background(), fundID)
	require.NoError(t, err)
	assert.Equal(t, RotationSkipped, result.Status)
	assert.Equal(t, SkipNotDue, result.Reason)

	fund := store.fund(fundID)
	assert.Equal(t, 0, fund.CurrentRotationCycle)
	assert.True(t, fund.TreasuryBalance.Equal(decimal.NewFromInt(900)))
	assert.Empty(t, notifier.rotations)
}

func TestProcessDue_SkipsEmptyTreasury(t *testing.T) {
	svc, store, _, fundID := newRotationFixture(t)
	store.setBalance(fundID, decimal.Zero)

	result, err := svc.ProcessDue(context.Background(), fundID)
	require.NoError(t, err)
	assert.Equal(t, RotationSkipped, result.Status)
	assert.Equal(t, SkipEmptyTreasury, result.Reason)

	// Skipped ticks leave the schedule untouched so the next poll retries.
	fund := store.fund(fundID)
	assert.Equal(t, 0, fund.CurrentRotationCycle)
	assert.Equal(t, time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), fund.NextRotationDate)
}

func TestProcessDue_SkipsAtCycleCap(t *testing.T) {
	svc, store, _, fundID := newRotationFixture(t)

	limit := 3
	store.mu.Lock()
	store.st.funds[fundID].TotalRotationCycles = &limit
	store.st.funds[fundID].CurrentRotationCycle = 3
	store.mu.Unlock()

	result, err := svc.ProcessDue(context.Background(), fundID)
	require.NoError(t, err)
	assert.Equal(t, RotationSkipped, result.Status)
	assert.Equal(t, SkipCycleCapReached, result.Reason)
}

func TestProcessDue_RejectsFixedFund(t *testing.T) {
	svc, store, _, fundID := newRotationFixture(t)

	store.mu.Lock()
	store.st.funds[fundID].DurationModel = models.DurationFixed
	store.mu.Unlock()

	_, err := svc.ProcessDue(context.Background(), fundID)
	assert.ErrorIs(t, err, models.ErrNotRotationFund)
}

func TestProcessDue_ErrorsOnEmptyRoster(t *testing.T) {
	svc, store, _, fundID := newRotationFixture(t)

	store.mu.Lock()
	store.st.members[fundID] = nil
	store.mu.Unlock()

	_, err := svc.ProcessDue(context.Background(), fundID)
	assert.ErrorIs(t, err, models.ErrNoEligibleMembers)
}

func TestProcessDue_UnknownFund(t *testing.T) {
	svc, _, _, _ := newRotationFixture(t)
	_, err := svc.ProcessDue(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrFundNotFound)
}

func TestProcessDue_SequentialRoundRobin(t *testing.T) {
	svc, store, _, fundID := newRotationFixture(t)

	var recipients []string
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		svc.now = func() time.Time { return now }
		store.setBalance(fundID, decimal.NewFromInt(900))

		result, err := svc.ProcessDue(context.Background(), fundID)
		require.NoError(t, err)
		require.Equal(t, RotationCompleted, result.Status)
		recipients = append(recipients, result.RecipientUserID)

		now = result.NextRotationDate.Add(time.Hour)
	}

	assert.Equal(t, []string{"alice", "bob", "carol", "alice", "bob", "carol"}, recipients)
}

func TestProcessDue_ConcurrentTicksDistributeOnce(t *testing.T) {
	svc, store, notifier, fundID := newRotationFixture(t)

	var wg sync.WaitGroup
	completed := make(chan *RotationResult, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.ProcessDue(context.Background(), fundID)
			if !assert.NoError(t, err) {
				return
			}
			if result.Status == RotationCompleted {
				completed <- result
			}
		}()
	}
	wg.Wait()
	close(completed)

	var wins int
	for range completed {
		wins++
	}
	assert.Equal(t, 1, wins)

	fund := store.fund(fundID)
	assert.Equal(t, 1, fund.CurrentRotationCycle)
	assert.True(t, fund.TreasuryBalance.IsZero())
	assert.Len(t, notifier.rotations, 1)
}

func TestPreviewNextRecipient(t *testing.T) {
	svc, store, _, fundID := newRotationFixture(t)

	preview, err := svc.PreviewNextRecipient(context.Background(), fundID)
	require.NoError(t, err)
	assert.Equal(t, "alice", preview.NextRecipient)
	assert.Equal(t, 1, preview.CycleNumber)
	assert.True(t, preview.EstimatedAmount.Equal(decimal.NewFromInt(900)))

	// Preview mutates nothing.
	fund := store.fund(fundID)
	assert.Equal(t, 0, fund.CurrentRotationCycle)
	assert.True(t, fund.TreasuryBalance.Equal(decimal.NewFromInt(900)))
}

func TestStatusReport(t *testing.T) {
	svc, _, _, fundID := newRotationFixture(t)

	_, err := svc.ProcessDue(context.Background(), fundID)
	require.NoError(t, err)

	report, err := svc.Status(context.Background(), fundID)
	require.NoError(t, err)
	assert.Equal(t, fundID, report.FundID)
	assert.Equal(t, 1, report.CurrentCycle)
	assert.Equal(t, 3, report.EligibleMembers)
	require.Len(t, report.CycleHistory, 1)
	assert.Equal(t, "alice", report.CycleHistory[0].RecipientUserID)
}

func TestProcessAllDue(t *testing.T) {
	svc, store, _, fundID := newRotationFixture(t)

	// A second fund that is not yet due.
	laterID := uuid.New()
	store.addFund(&models.Fund{
		ID:                      laterID,
		DurationModel:           models.DurationRotation,
		RotationFrequency:       models.FrequencyWeekly,
		RotationSelectionMethod: models.SelectionSequential,
		TreasuryBalance:         decimal.NewFromInt(100),
		NextRotationDate:        time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC),
		Active:                  true,
	})

	var ticked []uuid.UUID
	err := svc.ProcessAllDue(context.Background(), func(id uuid.UUID) {
		ticked = append(ticked, id)
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{fundID}, ticked)
}
