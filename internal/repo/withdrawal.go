package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ebupay/exchange-service/internal/model"
)

// CreateWithdrawalRequest inserts record.
func (r *Repository) CreateWithdrawalRequest(ctx context.Context, tx *gorm.DB, w *model.WithdrawalRequest) error {
	return tx.WithContext(ctx).Create(w).Error
}

// GetWithdrawalRequest fetches by id.
func (r *Repository) GetWithdrawalRequest(ctx context.Context, id uint64) (*model.WithdrawalRequest, error) {
	var w model.WithdrawalRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// ListUserWithdrawalRequests returns the owner's requests, newest first.
func (r *Repository) ListUserWithdrawalRequests(ctx context.Context, userID uint64) ([]model.WithdrawalRequest, error) {
	var ws []model.WithdrawalRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&ws).Error
	return ws, err
}

// ListActiveWithdrawalRequests returns pending and processing requests.
func (r *Repository) ListActiveWithdrawalRequests(ctx context.Context) ([]model.WithdrawalRequest, error) {
	var ws []model.WithdrawalRequest
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{model.StatusPending, model.StatusProcessing}).
		Order("created_at desc").
		Find(&ws).Error
	return ws, err
}

// SyncWithdrawalStatus propagates a transaction's status change to its
// linked request inside the same database transaction.
func (r *Repository) SyncWithdrawalStatus(ctx context.Context, tx *gorm.DB, transactionID uint64, status string, notes *string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if notes != nil {
		updates["admin_notes"] = *notes
	}
	return tx.WithContext(ctx).
		Model(&model.WithdrawalRequest{}).
		Where("transaction_id = ?", transactionID).
		Updates(updates).Error
}
