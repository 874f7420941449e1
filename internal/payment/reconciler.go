package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/iyzipay-checkout/internal"
	"github.com/frahmantamala/iyzipay-checkout/internal/core/events"
	"github.com/frahmantamala/iyzipay-checkout/pkg/logger"
)

type Dependencies struct {
	Orders   OrderService
	Carts    CartService
	Metadata MetadataStore
	Gateway  Gateway
	Locker   Locker
	Events   EventPublisher
}

// Service reconciles gateway outcomes into order state and drives the
// outbound checkout, refund and cancel calls.
type Service struct {
	orders   OrderService
	carts    CartService
	metadata MetadataStore
	gateway  Gateway
	locker   Locker
	events   EventPublisher
	settings Settings
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(deps Dependencies, settings Settings, lg *slog.Logger) *Service {
	if lg == nil {
		lg = slog.Default()
	}
	locker := deps.Locker
	if locker == nil {
		locker = NewKeyedMutex()
	}
	return &Service{
		orders:   deps.Orders,
		carts:    deps.Carts,
		metadata: deps.Metadata,
		gateway:  deps.Gateway,
		locker:   locker,
		events:   deps.Events,
		settings: settings.withDefaults(),
		logger:   lg,
		now:      time.Now,
	}
}

func (s *Service) Settings() Settings {
	return s.settings
}

// log returns the request-scoped logger when one is set.
func (s *Service) log(ctx context.Context) *slog.Logger {
	return logger.FromOr(ctx, s.logger)
}

// withLock runs fn while holding the lease for key.
func (s *Service) withLock(ctx context.Context, key string, fn func() error) error {
	release, err := s.locker.Lock(ctx, key)
	if err != nil {
		return internal.NewInternalError("failed to acquire order lock", err)
	}
	defer release()
	return fn()
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log(ctx).Error("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "****" + token[len(token)-4:]
}
