package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ebupay/exchange-service/internal/model"
	"github.com/ebupay/exchange-service/internal/repo"
)

// RateService owns the admin-entered exchange rates. Rates are read at
// conversion creation only; transactions snapshot them, so this store keeps
// just the current value per pair.
type RateService struct {
	repo     repo.RepositoryInterface
	notifier *NotificationService
	log      *zap.SugaredLogger
}

// NewRateService returns RateService.
func NewRateService(r repo.RepositoryInterface, n *NotificationService, logger *zap.SugaredLogger) *RateService {
	return &RateService{repo: r, notifier: n, log: logger}
}

// Get returns the current rate for a pair, cache first.
func (s *RateService) Get(ctx context.Context, pair string) (*model.ExchangeRate, error) {
	if er, err := s.repo.GetCachedRate(ctx, pair); err == nil {
		return er, nil
	}
	er, err := s.repo.GetRate(ctx, pair)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.repo.CacheRate(ctx, er); err != nil {
		s.log.Warn(err)
	}
	return er, nil
}

// List returns all pairs.
func (s *RateService) List(ctx context.Context) ([]model.ExchangeRate, error) {
	return s.repo.ListRates(ctx)
}

// Set upserts the rate for a pair and broadcasts the change to all users.
func (s *RateService) Set(ctx context.Context, adminID uint64, pair string, rate, commissionRate decimal.Decimal) (*model.ExchangeRate, error) {
	if pair == "" {
		return nil, invalid("currencyPair", "is required")
	}
	if rate.LessThanOrEqual(decimal.Zero) {
		return nil, invalid("rate", "must be positive")
	}
	if commissionRate.IsNegative() || commissionRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, invalid("commissionRate", "must be a fraction in [0,1)")
	}

	prev, err := s.repo.GetRate(ctx, pair)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	er := &model.ExchangeRate{
		CurrencyPair:   pair,
		Rate:           rate,
		CommissionRate: commissionRate,
		UpdatedBy:      adminID,
	}
	if err := s.repo.UpsertRate(ctx, er); err != nil {
		return nil, fmt.Errorf("upsert rate: %w", err)
	}
	if err := s.repo.DropCachedRate(ctx, pair); err != nil {
		s.log.Warn(err)
	}

	if prev == nil {
		s.notifier.NotifyAll(ctx, "New Rate Added",
			fmt.Sprintf("A rate for %s is now available: %s", pair, rate),
			model.NotifyInfo, "exchange_rate", er.ID)
	} else {
		direction := "went up"
		if rate.LessThan(prev.Rate) {
			direction = "went down"
		}
		s.notifier.NotifyAll(ctx, "Rate Updated",
			fmt.Sprintf("The %s rate %s: %s", pair, direction, rate),
			model.NotifyInfo, "exchange_rate", er.ID)
	}
	return er, nil
}
