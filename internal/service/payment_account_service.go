package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ebupay/exchange-service/internal/model"
	"github.com/ebupay/exchange-service/internal/repo"
)

// PaymentAccountService manages the admin-curated destination accounts shown
// to users at conversion time. Pure CRUD with an isActive flag.
type PaymentAccountService struct {
	repo repo.RepositoryInterface
	log  *zap.SugaredLogger
}

// NewPaymentAccountService returns PaymentAccountService.
func NewPaymentAccountService(r repo.RepositoryInterface, logger *zap.SugaredLogger) *PaymentAccountService {
	return &PaymentAccountService{repo: r, log: logger}
}

// ListActive returns accounts visible to users.
func (s *PaymentAccountService) ListActive(ctx context.Context) ([]model.PaymentAccount, error) {
	return s.repo.ListActivePaymentAccounts(ctx)
}

// ListAll returns every account for the admin panel.
func (s *PaymentAccountService) ListAll(ctx context.Context) ([]model.PaymentAccount, error) {
	return s.repo.ListPaymentAccounts(ctx)
}

// Create inserts a new destination account.
func (s *PaymentAccountService) Create(ctx context.Context, a *model.PaymentAccount) (*model.PaymentAccount, error) {
	if a.AccountType == "" {
		return nil, invalid("accountType", "is required")
	}
	if a.AccountName == "" {
		return nil, invalid("accountName", "is required")
	}
	if a.AccountNumber == "" {
		return nil, invalid("accountNumber", "is required")
	}
	if err := s.repo.CreatePaymentAccount(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Update overwrites the stored account with the submitted fields.
func (s *PaymentAccountService) Update(ctx context.Context, id uint64, apply func(*model.PaymentAccount)) (*model.PaymentAccount, error) {
	a, err := s.repo.GetPaymentAccount(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	apply(a)
	if err := s.repo.UpdatePaymentAccount(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes an account.
func (s *PaymentAccountService) Delete(ctx context.Context, id uint64) error {
	if _, err := s.repo.GetPaymentAccount(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.repo.DeletePaymentAccount(ctx, id)
}
