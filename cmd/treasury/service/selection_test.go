package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtaadao/treasury/cmd/treasury/models"
)

func roster(fundID uuid.UUID, joinOrder ...string) []models.Member {
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	members := make([]models.Member, len(joinOrder))
	for i, userID := range joinOrder {
		members[i] = models.Member{
			FundID:   fundID,
			UserID:   userID,
			Role:     models.RoleMember,
			Status:   models.MemberApproved,
			JoinedAt: base.AddDate(0, 0, i),
		}
	}
	return members
}

func TestSequential_WalksJoinOrder(t *testing.T) {
	fundID := uuid.New()
	members := roster(fundID, "alice", "bob", "carol")

	s := sequentialStrategy{}

	for cycle, want := range []string{"alice", "bob", "carol", "alice", "bob", "carol"} {
		got, err := s.Select(members, cycle)
		require.NoError(t, err)
		assert.Equal(t, want, got.UserID, "cycle %d", cycle)
	}
}

func TestSequential_EveryMemberOncePerPass(t *testing.T) {
	fundID := uuid.New()
	members := roster(fundID, "d", "a", "c", "b", "e")

	s := sequentialStrategy{}
	seen := make(map[string]int)
	for cycle := 0; cycle < len(members); cycle++ {
		got, err := s.Select(members, cycle)
		require.NoError(t, err)
		seen[got.UserID]++
	}

	require.Len(t, seen, len(members))
	for userID, count := range seen {
		assert.Equal(t, 1, count, "member %s", userID)
	}
}

func TestSequential_InputOrderIrrelevant(t *testing.T) {
	fundID := uuid.New()
	members := roster(fundID, "alice", "bob", "carol")
	shuffled := []models.Member{members[2], members[0], members[1]}

	s := sequentialStrategy{}
	for cycle := 0; cycle < 6; cycle++ {
		a, err := s.Select(members, cycle)
		require.NoError(t, err)
		b, err := s.Select(shuffled, cycle)
		require.NoError(t, err)
		assert.Equal(t, a.UserID, b.UserID, "cycle %d", cycle)
	}
}

func TestSequential_TieBreaksOnUserID(t *testing.T) {
	fundID := uuid.New()
	joined := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	members := []models.Member{
		{FundID: fundID, UserID: "zed", Status: models.MemberApproved, JoinedAt: joined},
		{FundID: fundID, UserID: "amy", Status: models.MemberApproved, JoinedAt: joined},
	}

	s := sequentialStrategy{}
	got, err := s.Select(members, 0)
	require.NoError(t, err)
	assert.Equal(t, "amy", got.UserID)

	got, err = s.Select(members, 1)
	require.NoError(t, err)
	assert.Equal(t, "zed", got.UserID)
}

func TestSequential_EmptyRoster(t *testing.T) {
	s := sequentialStrategy{}
	_, err := s.Select(nil, 0)
	assert.ErrorIs(t, err, models.ErrNoEligibleMembers)
}

func TestLottery_UsesRandomIndex(t *testing.T) {
	fundID := uuid.New()
	members := roster(fundID, "alice", "bob", "carol")

	s := lotteryStrategy{intn: func(n int) int {
		require.Equal(t, 3, n)
		return 2
	}}

	got, err := s.Select(members, 0)
	require.NoError(t, err)
	assert.Equal(t, "carol", got.UserID)
}

func TestLottery_EmptyRoster(t *testing.T) {
	s := lotteryStrategy{intn: func(int) int { return 0 }}
	_, err := s.Select(nil, 0)
	assert.ErrorIs(t, err, models.ErrNoEligibleMembers)
}

func TestStrategyFor(t *testing.T) {
	for _, method := range []models.SelectionMethod{
		models.SelectionSequential,
		models.SelectionLottery,
		models.SelectionProportional,
	} {
		s, err := StrategyFor(method)
		require.NoError(t, err)
		assert.NotNil(t, s)
	}

	_, err := StrategyFor(models.SelectionMethod("bogus"))
	assert.Error(t, err)
}
