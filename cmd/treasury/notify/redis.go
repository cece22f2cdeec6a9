package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mtaadao/treasury/cmd/treasury/models"
	"github.com/mtaadao/treasury/cmd/treasury/service"
	"github.com/mtaadao/treasury/common/logger"
	"github.com/mtaadao/treasury/common/redis"
)

// eventChannel is the pub/sub channel notification workers subscribe to.
const eventChannel = "treasury.events"

const publishTimeout = 5 * time.Second

// Ensure RedisNotifier implements the service port
var _ service.Notifier = (*RedisNotifier)(nil)

// RedisNotifier publishes treasury events to a Redis channel for delivery
// workers (email, Telegram, WhatsApp) to fan out. Publishing is
// fire-and-forget: failures are logged, never propagated.
type RedisNotifier struct {
	redis *redis.Client
	log   *logger.Logger
}

// NewRedisNotifier creates a new Redis-backed notifier
func NewRedisNotifier(client *redis.Client, log *logger.Logger) *RedisNotifier {
	return &RedisNotifier{
		redis: client,
		log:   log,
	}
}

type event struct {
	Event      string    `json:"event"`
	FundID     uuid.UUID `json:"fund_id"`
	ProposalID string    `json:"proposal_id,omitempty"`
	Recipient  string    `json:"recipient,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	Cycle      int       `json:"cycle,omitempty"`
	At         time.Time `json:"at"`
}

// RotationCompleted announces a completed rotation cycle.
func (n *RedisNotifier) RotationCompleted(ctx context.Context, fundID uuid.UUID, cycle *models.RotationCycle) {
	n.publish(event{
		Event:     service.EventRotationCompleted,
		FundID:    fundID,
		Recipient: cycle.RecipientUserID,
		Amount:    cycle.AmountDistributed.String(),
		Cycle:     cycle.CycleNumber,
		At:        cycle.DistributedAt,
	})
}

// ProposalEvent announces a proposal transition.
func (n *RedisNotifier) ProposalEvent(ctx context.Context, name string, proposal *models.MultisigProposal) {
	n.publish(event{
		Event:      name,
		FundID:     proposal.FundID,
		ProposalID: proposal.ID.String(),
		Recipient:  proposal.Recipient,
		Amount:     proposal.Amount.String(),
		At:         time.Now(),
	})
}

func (n *RedisNotifier) publish(e event) {
	payload, err := json.Marshal(e)
	if err != nil {
		n.log.Error("failed to marshal notification", "event", e.Event, "error", err)
		return
	}

	// Detached from the caller's context: the triggering transaction has
	// already committed and must not be failed by a slow publish.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := n.redis.PublishEvent(ctx, eventChannel, string(payload)); err != nil {
			n.log.Warn("notification publish failed", "event", e.Event, "error", err)
		}
	}()
}
