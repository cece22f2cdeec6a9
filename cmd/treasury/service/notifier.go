package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/mtaadao/treasury/cmd/treasury/models"
)

// Event names published after treasury transitions commit.
const (
	EventRotationCompleted = "rotation.completed"
	EventProposalApproved  = "proposal.approved"
	EventProposalExecuted  = "proposal.executed"
	EventProposalExpired   = "proposal.expired"
)

// Notifier delivers fire-and-forget notifications once a transaction has
// committed. Implementations must not block the caller and must never
// fail the operation that triggered them.
type Notifier interface {
	RotationCompleted(ctx context.Context, fundID uuid.UUID, cycle *models.RotationCycle)
	ProposalEvent(ctx context.Context, event string, proposal *models.MultisigProposal)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) RotationCompleted(context.Context, uuid.UUID, *models.RotationCycle) {}

func (NopNotifier) ProposalEvent(context.Context, string, *models.MultisigProposal) {}
