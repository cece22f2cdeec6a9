package container

import (
	"github.com/shopspring/decimal"

	"github.com/mtaadao/treasury/cmd/treasury/notify"
	"github.com/mtaadao/treasury/cmd/treasury/repository"
	"github.com/mtaadao/treasury/cmd/treasury/service"
	"github.com/mtaadao/treasury/common/bootstrap"
	"github.com/mtaadao/treasury/common/ratelimit"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	Components *bootstrap.Components

	// Repositories
	Store *repository.Store

	// Services
	PolicyEvaluator *service.PolicyEvaluator
	Notifier        service.Notifier
	RotationService *service.RotationService
	MultisigService *service.MultisigService

	// RateLimiter is nil when redis is absent or limiting is disabled;
	// routes skip the throttling middleware in that case.
	RateLimiter *ratelimit.Limiter
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	store := repository.NewStore(components.DB)

	var notifier service.Notifier = service.NopNotifier{}
	var limiter *ratelimit.Limiter
	if components.Redis != nil {
		notifier = notify.NewRedisNotifier(components.Redis, components.Logger)
		if components.Config.RateLimit.Enabled {
			limiter = ratelimit.New(components.Redis.GetUnderlying(), components.Logger)
		}
	}

	policy := service.NewPolicyEvaluator()

	defaultDailyLimit, err := decimal.NewFromString(components.Config.Multisig.DefaultDailyLimit)
	if err != nil {
		return nil, err
	}

	rotationService := service.NewRotationService(store, notifier, components.Logger)
	multisigService := service.NewMultisigService(
		store,
		policy,
		notifier,
		components.Logger,
		components.Config.Multisig.ProposalExpiry,
		defaultDailyLimit,
	)

	return &Container{
		Components:      components,
		Store:           store,
		PolicyEvaluator: policy,
		Notifier:        notifier,
		RotationService: rotationService,
		MultisigService: multisigService,
		RateLimiter:     limiter,
	}, nil
}
