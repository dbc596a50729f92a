package repo

import (
	"context"

	"github.com/ebupay/exchange-service/internal/model"
)

// ListActivePaymentAccounts returns destination accounts shown to users.
func (r *Repository) ListActivePaymentAccounts(ctx context.Context) ([]model.PaymentAccount, error) {
	var accounts []model.PaymentAccount
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("account_name").
		Find(&accounts).Error
	return accounts, err
}

// ListPaymentAccounts returns every account including inactive ones.
func (r *Repository) ListPaymentAccounts(ctx context.Context) ([]model.PaymentAccount, error) {
	var accounts []model.PaymentAccount
	err := r.db.WithContext(ctx).Order("account_name").Find(&accounts).Error
	return accounts, err
}

// GetPaymentAccount fetches by id.
func (r *Repository) GetPaymentAccount(ctx context.Context, id uint64) (*model.PaymentAccount, error) {
	var a model.PaymentAccount
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// CreatePaymentAccount inserts record.
func (r *Repository) CreatePaymentAccount(ctx context.Context, a *model.PaymentAccount) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// UpdatePaymentAccount saves all fields.
func (r *Repository) UpdatePaymentAccount(ctx context.Context, a *model.PaymentAccount) error {
	return r.db.WithContext(ctx).Save(a).Error
}

// DeletePaymentAccount removes record.
func (r *Repository) DeletePaymentAccount(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&model.PaymentAccount{}, id).Error
}
