package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mtaadao/treasury/cmd/treasury/models"
	"github.com/mtaadao/treasury/common/logger"
)

// memStore is an in-memory Store for tests. InTx holds a single mutex for
// the whole callback and restores a snapshot on error, which mirrors the
// row-lock serialization and rollback the real store gets from postgres.
type memStore struct {
	mu sync.Mutex
	st memState
}

type memState struct {
	funds      map[uuid.UUID]*models.Fund
	members    map[uuid.UUID][]models.Member
	cycles     map[uuid.UUID][]models.RotationCycle
	proposals  map[uuid.UUID]*models.MultisigProposal
	signatures map[uuid.UUID]map[string]models.Signature
	audits     []models.AuditEntry
}

func newMemStore() *memStore {
	return &memStore{
		st: memState{
			funds:      make(map[uuid.UUID]*models.Fund),
			members:    make(map[uuid.UUID][]models.Member),
			cycles:     make(map[uuid.UUID][]models.RotationCycle),
			proposals:  make(map[uuid.UUID]*models.MultisigProposal),
			signatures: make(map[uuid.UUID]map[string]models.Signature),
		},
	}
}

func (s *memState) clone() memState {
	c := memState{
		funds:      make(map[uuid.UUID]*models.Fund, len(s.funds)),
		members:    make(map[uuid.UUID][]models.Member, len(s.members)),
		cycles:     make(map[uuid.UUID][]models.RotationCycle, len(s.cycles)),
		proposals:  make(map[uuid.UUID]*models.MultisigProposal, len(s.proposals)),
		signatures: make(map[uuid.UUID]map[string]models.Signature, len(s.signatures)),
		audits:     append([]models.AuditEntry(nil), s.audits...),
	}
	for id, f := range s.funds {
		cp := *f
		c.funds[id] = &cp
	}
	for id, ms := range s.members {
		c.members[id] = append([]models.Member(nil), ms...)
	}
	for id, cs := range s.cycles {
		c.cycles[id] = append([]models.RotationCycle(nil), cs...)
	}
	for id, p := range s.proposals {
		cp := *p
		c.proposals[id] = &cp
	}
	for id, sigs := range s.signatures {
		m := make(map[string]models.Signature, len(sigs))
		for k, v := range sigs {
			m[k] = v
		}
		c.signatures[id] = m
	}
	return c
}

func (s *memStore) addFund(f *models.Fund) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *f
	s.st.funds[f.ID] = &cp
}

func (s *memStore) addMember(m models.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.members[m.FundID] = append(s.st.members[m.FundID], m)
}

func (s *memStore) fund(id uuid.UUID) models.Fund {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.st.funds[id]
}

func (s *memStore) setBalance(id uuid.UUID, balance decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.funds[id].TreasuryBalance = balance
}

func (s *memStore) proposal(id uuid.UUID) models.MultisigProposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.st.proposals[id]
}

func (s *memStore) auditActions() []models.AuditAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	actions := make([]models.AuditAction, 0, len(s.st.audits))
	for _, e := range s.st.audits {
		actions = append(actions, e.Action)
	}
	return actions
}

func (s *memStore) InTx(ctx context.Context, fn func(tx StoreTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(&memTx{st: &s.st}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *memStore) GetFund(ctx context.Context, fundID uuid.UUID) (*models.Fund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return getFund(&s.st, fundID)
}

func (s *memStore) GetMember(ctx context.Context, fundID uuid.UUID, userID string) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.st.members[fundID] {
		if m.UserID == userID {
			cp := m
			return &cp, nil
		}
	}
	return nil, models.ErrMemberNotFound
}

func (s *memStore) ListEligibleMembers(ctx context.Context, fundID uuid.UUID) ([]models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return listEligible(&s.st, fundID), nil
}

func (s *memStore) ListCycles(ctx context.Context, fundID uuid.UUID) ([]models.RotationCycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.RotationCycle(nil), s.st.cycles[fundID]...), nil
}

func (s *memStore) GetProposal(ctx context.Context, proposalID uuid.UUID) (*models.MultisigProposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return getProposal(&s.st, proposalID)
}

func (s *memStore) ListPendingProposals(ctx context.Context, fundID uuid.UUID) ([]PendingProposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []PendingProposal
	for _, p := range s.st.proposals {
		if p.FundID == fundID && p.Status == models.ProposalPending {
			out = append(out, PendingProposal{
				MultisigProposal: *p,
				SignatureCount:   len(s.st.signatures[p.ID]),
			})
		}
	}
	return out, nil
}

func (s *memStore) ListDueRotationFunds(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []uuid.UUID
	for id, f := range s.st.funds {
		if f.Active && f.DurationModel == models.DurationRotation && !f.NextRotationDate.After(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *memStore) ListOverdueProposals(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []uuid.UUID
	for id, p := range s.st.proposals {
		if p.Status == models.ProposalPending && p.Expired(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *memStore) SumExecutedWithdrawals(ctx context.Context, fundID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, p := range s.st.proposals {
		if p.FundID == fundID && p.Status == models.ProposalExecuted &&
			p.ExecutedAt != nil && !p.ExecutedAt.Before(since) {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

// memTx operates directly on the store state. The InTx mutex is already
// held, so no further locking is needed here.
type memTx struct {
	st *memState
}

func (t *memTx) GetFundForUpdate(ctx context.Context, fundID uuid.UUID) (*models.Fund, error) {
	return getFund(t.st, fundID)
}

func (t *memTx) ListEligibleMembers(ctx context.Context, fundID uuid.UUID) ([]models.Member, error) {
	return listEligible(t.st, fundID), nil
}

func (t *memTx) DebitTreasury(ctx context.Context, fundID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	f, ok := t.st.funds[fundID]
	if !ok {
		return decimal.Zero, models.ErrFundNotFound
	}
	if f.TreasuryBalance.LessThan(amount) {
		return decimal.Zero, models.ErrInsufficientBalance
	}
	f.TreasuryBalance = f.TreasuryBalance.Sub(amount)
	return f.TreasuryBalance, nil
}

func (t *memTx) AdvanceRotation(ctx context.Context, fundID uuid.UUID, cycleNumber int, nextDate time.Time) error {
	f, ok := t.st.funds[fundID]
	if !ok {
		return models.ErrFundNotFound
	}
	f.CurrentRotationCycle = cycleNumber
	f.NextRotationDate = nextDate
	return nil
}

func (t *memTx) InsertCycle(ctx context.Context, cycle *models.RotationCycle) error {
	for _, c := range t.st.cycles[cycle.FundID] {
		if c.CycleNumber == cycle.CycleNumber {
			return fmt.Errorf("duplicate cycle %d for fund %s", cycle.CycleNumber, cycle.FundID)
		}
	}
	t.st.cycles[cycle.FundID] = append(t.st.cycles[cycle.FundID], *cycle)
	return nil
}

func (t *memTx) InsertProposal(ctx context.Context, proposal *models.MultisigProposal) error {
	cp := *proposal
	t.st.proposals[proposal.ID] = &cp
	return nil
}

func (t *memTx) GetProposalForUpdate(ctx context.Context, proposalID uuid.UUID) (*models.MultisigProposal, error) {
	return getProposal(t.st, proposalID)
}

func (t *memTx) UpdateProposalStatus(ctx context.Context, proposalID uuid.UUID, status models.ProposalStatus, at time.Time) error {
	p, ok := t.st.proposals[proposalID]
	if !ok {
		return models.ErrProposalNotFound
	}
	p.Status = status
	switch status {
	case models.ProposalApproved:
		stamped := at
		p.ApprovedAt = &stamped
	case models.ProposalExecuted:
		stamped := at
		p.ExecutedAt = &stamped
	}
	return nil
}

func (t *memTx) InsertSignature(ctx context.Context, sig *models.Signature) (bool, error) {
	sigs := t.st.signatures[sig.ProposalID]
	if sigs == nil {
		sigs = make(map[string]models.Signature)
		t.st.signatures[sig.ProposalID] = sigs
	}
	if _, exists := sigs[sig.SignerID]; exists {
		return false, nil
	}
	sigs[sig.SignerID] = *sig
	return true, nil
}

func (t *memTx) HasSignature(ctx context.Context, proposalID uuid.UUID, signerID string) (bool, error) {
	_, ok := t.st.signatures[proposalID][signerID]
	return ok, nil
}

func (t *memTx) CountSignatures(ctx context.Context, proposalID uuid.UUID) (int, error) {
	return len(t.st.signatures[proposalID]), nil
}

func (t *memTx) InsertAudit(ctx context.Context, entry *models.AuditEntry) error {
	t.st.audits = append(t.st.audits, *entry)
	return nil
}

func getFund(st *memState, fundID uuid.UUID) (*models.Fund, error) {
	f, ok := st.funds[fundID]
	if !ok {
		return nil, models.ErrFundNotFound
	}
	cp := *f
	return &cp, nil
}

func getProposal(st *memState, proposalID uuid.UUID) (*models.MultisigProposal, error) {
	p, ok := st.proposals[proposalID]
	if !ok {
		return nil, models.ErrProposalNotFound
	}
	cp := *p
	return &cp, nil
}

func listEligible(st *memState, fundID uuid.UUID) []models.Member {
	var out []models.Member
	for _, m := range st.members[fundID] {
		if m.Eligible() {
			out = append(out, m)
		}
	}
	return out
}

// captureNotifier records published events for assertions.
type captureNotifier struct {
	mu        sync.Mutex
	rotations []uuid.UUID
	events    []string
}

func (n *captureNotifier) RotationCompleted(_ context.Context, fundID uuid.UUID, _ *models.RotationCycle) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rotations = append(n.rotations, fundID)
}

func (n *captureNotifier) ProposalEvent(_ context.Context, event string, _ *models.MultisigProposal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *captureNotifier) eventNames() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

func testLogger() *logger.Logger {
	return logger.New("error", "json")
}
