package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ebupay/exchange-service/internal/model"
)

// CreateTransaction inserts record.
func (r *Repository) CreateTransaction(ctx context.Context, tx *gorm.DB, t *model.Transaction) error {
	return tx.WithContext(ctx).Create(t).Error
}

// GetTransaction fetches by internal id.
func (r *Repository) GetTransaction(ctx context.Context, id uint64) (*model.Transaction, error) {
	var t model.Transaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTransactionForUpdate locks the transaction row inside tx.
func (r *Repository) GetTransactionForUpdate(ctx context.Context, tx *gorm.DB, id uint64) (*model.Transaction, error) {
	var t model.Transaction
	if err := lockForUpdate(tx.WithContext(ctx)).
		Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTransactionByCode fetches by the human-facing code.
func (r *Repository) GetTransactionByCode(ctx context.Context, code string) (*model.Transaction, error) {
	var t model.Transaction
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// ListUserTransactions returns the owner's transactions, newest first.
func (r *Repository) ListUserTransactions(ctx context.Context, userID uint64) ([]model.Transaction, error) {
	var txs []model.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&txs).Error
	return txs, err
}

// ListAllTransactions returns every transaction, newest first.
func (r *Repository) ListAllTransactions(ctx context.Context) ([]model.Transaction, error) {
	var txs []model.Transaction
	err := r.db.WithContext(ctx).Order("created_at desc").Find(&txs).Error
	return txs, err
}

// ListActiveTransactions returns pending and processing transactions; both
// count as "pending" from the admin's point of view.
func (r *Repository) ListActiveTransactions(ctx context.Context) ([]model.Transaction, error) {
	var txs []model.Transaction
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{model.StatusPending, model.StatusProcessing}).
		Order("created_at desc").
		Find(&txs).Error
	return txs, err
}

// ClaimTransition moves a transaction to newStatus only if it is still
// active. The affected-row count gates any balance mutation: a claim that
// returns false means another actor already settled or cancelled it.
func (r *Repository) ClaimTransition(ctx context.Context, tx *gorm.DB, id uint64, newStatus string, notes *string) (bool, error) {
	updates := map[string]interface{}{
		"status":     newStatus,
		"updated_at": time.Now(),
	}
	if notes != nil {
		updates["admin_notes"] = *notes
	}
	res := tx.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("id = ? AND status IN ?", id, []string{model.StatusPending, model.StatusProcessing}).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// AttachProof stores the proof reference and forces processing. Terminal
// transactions are left untouched, reported via the affected-row count.
func (r *Repository) AttachProof(ctx context.Context, tx *gorm.DB, id uint64, proof string) (bool, error) {
	res := tx.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("id = ? AND status IN ?", id, []string{model.StatusPending, model.StatusProcessing}).
		Updates(map[string]interface{}{
			"payment_proof": proof,
			"status":        model.StatusProcessing,
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
