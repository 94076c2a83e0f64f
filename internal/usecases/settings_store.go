package usecases

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"p2p-ramp.backend/internal/domain/entities"
	domainerrors "p2p-ramp.backend/internal/domain/errors"
	"p2p-ramp.backend/internal/domain/repositories"
	"p2p-ramp.backend/pkg/logger"
	"p2p-ramp.backend/pkg/metrics"
	"p2p-ramp.backend/pkg/money"
)

// SettingsNotifier tells other instances that a new version was stored.
type SettingsNotifier interface {
	NotifySettingsChanged(ctx context.Context, version int64) error
}

// SettingsStore holds the current settings as an immutable snapshot.
// Readers never block; writers are serialized and persist each version
// before swapping it in.
type SettingsStore struct {
	repo     repositories.SettingsRepository
	notifier SettingsNotifier
	metrics  *metrics.Metrics
	now      func() time.Time

	current atomic.Pointer[entities.Settings]
	writeMu sync.Mutex
}

func NewSettingsStore(repo repositories.SettingsRepository, m *metrics.Metrics) *SettingsStore {
	return &SettingsStore{
		repo:    repo,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetNotifier wires cross-instance change notification.
func (s *SettingsStore) SetNotifier(n SettingsNotifier) {
	s.notifier = n
}

// Load reads the latest stored version, seeding version 1 from seed when
// the store is empty.
func (s *SettingsStore) Load(ctx context.Context, seed entities.Settings) error {
	latest, err := s.repo.GetLatest(ctx)
	if err == nil {
		s.swap(latest)
		return nil
	}
	if !errors.Is(err, domainerrors.ErrNotFound) {
		return err
	}

	if err := validateSettings(&seed); err != nil {
		return err
	}
	seed.Version = 1
	seed.UpdatedAt = s.now()
	if err := s.repo.Insert(ctx, &seed); err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			// another instance seeded first
			return s.Reload(ctx)
		}
		return err
	}
	s.swap(&seed)
	return nil
}

// Get returns the current snapshot. The zero value means Load was not run.
func (s *SettingsStore) Get() entities.Settings {
	if cur := s.current.Load(); cur != nil {
		return *cur
	}
	return entities.Settings{}
}

func (s *SettingsStore) Public() entities.PublicSettings {
	cur := s.Get()
	return cur.Public()
}

// Update validates and stores a new version built from the current one.
func (s *SettingsStore) Update(ctx context.Context, actor entities.Actor, input *entities.UpdateSettingsInput) (entities.Settings, error) {
	if err := authorize(actor, entities.CapManageSettings); err != nil {
		return entities.Settings{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.Get()
	if input.CommissionRate != nil {
		v, err := money.Parse(input.CommissionRate.String())
		if err != nil {
			return entities.Settings{}, domainerrors.Validation("commission_rate must be a decimal number")
		}
		next.CommissionRate = v
	}
	if input.ExchangeRate != nil {
		v, err := money.Parse(input.ExchangeRate.String())
		if err != nil {
			return entities.Settings{}, domainerrors.Validation("exchange_rate must be a decimal number")
		}
		next.ExchangeRate = v
	}
	if input.DepositWalletAddress != nil {
		next.DepositWalletAddress = *input.DepositWalletAddress
	}
	if err := validateSettings(&next); err != nil {
		return entities.Settings{}, err
	}

	next.Version++
	next.UpdatedAt = s.now()
	if err := s.repo.Insert(ctx, &next); err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			_ = s.reloadLocked(ctx)
			return entities.Settings{}, domainerrors.Conflict("settings were changed concurrently, retry")
		}
		return entities.Settings{}, err
	}

	s.swap(&next)
	logger.Info(ctx, "Settings updated",
		zap.Int64("version", next.Version),
		zap.String("commission_rate", next.CommissionRate.String()),
		zap.String("exchange_rate", next.ExchangeRate.String()),
	)

	if s.notifier != nil {
		if err := s.notifier.NotifySettingsChanged(ctx, next.Version); err != nil {
			logger.Warn(ctx, "Settings change notification failed", zap.Error(err))
		}
	}
	return next, nil
}

// Reload swaps in the stored latest version if it is newer than ours.
func (s *SettingsStore) Reload(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.reloadLocked(ctx)
}

func (s *SettingsStore) reloadLocked(ctx context.Context) error {
	latest, err := s.repo.GetLatest(ctx)
	if err != nil {
		return err
	}
	if latest.Version > s.Get().Version {
		s.swap(latest)
	}
	return nil
}

func (s *SettingsStore) swap(next *entities.Settings) {
	snap := *next
	s.current.Store(&snap)
	s.metrics.SetSettingsVersion(snap.Version)
}

func validateSettings(s *entities.Settings) error {
	if s.CommissionRate.IsNegative() {
		return domainerrors.Validation("commission_rate must be >= 0")
	}
	if !s.ExchangeRate.IsPositive() {
		return domainerrors.Validation("exchange_rate must be > 0")
	}
	if s.DepositWalletAddress == "" {
		return domainerrors.Validation("deposit_wallet_address is required")
	}
	return ValidateWalletAddress(s.DepositWalletAddress)
}
