package service

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/mtaadao/treasury/cmd/treasury/models"
)

// Strategy selects the rotation recipient from the eligible roster.
// One implementation exists per selection method; funds pick theirs via
// the stored rotation_selection_method.
type Strategy interface {
	Select(members []models.Member, cycleNumber int) (*models.Member, error)
}

// StrategyFor returns the strategy for a fund's stored selection method.
func StrategyFor(method models.SelectionMethod) (Strategy, error) {
	switch method {
	case models.SelectionSequential:
		return sequentialStrategy{}, nil
	case models.SelectionLottery:
		return lotteryStrategy{intn: rand.IntN}, nil
	case models.SelectionProportional:
		return proportionalStrategy{intn: rand.IntN}, nil
	default:
		return nil, fmt.Errorf("unknown selection method: %s", method)
	}
}

// sequentialStrategy walks the roster in join order. Every member receives
// funds exactly once per full pass before any repeats; new members are
// appended to the order, never inserted mid-cycle.
type sequentialStrategy struct{}

func (sequentialStrategy) Select(members []models.Member, cycleNumber int) (*models.Member, error) {
	if len(members) == 0 {
		return nil, models.ErrNoEligibleMembers
	}

	sorted := make([]models.Member, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].JoinedAt.Equal(sorted[j].JoinedAt) {
			// Tie-break on user ID so the order is deterministic.
			return sorted[i].UserID < sorted[j].UserID
		}
		return sorted[i].JoinedAt.Before(sorted[j].JoinedAt)
	})

	return &sorted[cycleNumber%len(sorted)], nil
}

// lotteryStrategy picks uniformly at random. Repeats across ticks are
// permitted by design.
type lotteryStrategy struct {
	intn func(int) int
}

func (s lotteryStrategy) Select(members []models.Member, _ int) (*models.Member, error) {
	if len(members) == 0 {
		return nil, models.ErrNoEligibleMembers
	}
	return &members[s.intn(len(members))], nil
}

// proportionalStrategy is intended to weight by contribution history.
// TODO: weight by per-member contribution totals once the payment ledger
// exposes them; until then this reduces to a uniform pick.
type proportionalStrategy struct {
	intn func(int) int
}

func (s proportionalStrategy) Select(members []models.Member, _ int) (*models.Member, error) {
	if len(members) == 0 {
		return nil, models.ErrNoEligibleMembers
	}
	return &members[s.intn(len(members))], nil
}
