package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ebupay/exchange-service/internal/model"
)

// ErrInsufficientFunds is returned when a debit would drive a balance negative.
var ErrInsufficientFunds = errors.New("insufficient funds")

// RepositoryInterface restricts Repo methods (eases unit-test mocks).
type RepositoryInterface interface {
	DB(ctx context.Context) *gorm.DB

	GetUser(ctx context.Context, tx *gorm.DB, userID uint64) (*model.User, error)
	GetUserForUpdate(ctx context.Context, tx *gorm.DB, userID uint64) (*model.User, error)
	UpdateBalance(ctx context.Context, tx *gorm.DB, userID uint64, newBalance decimal.Decimal, oldVersion uint64) error
	ListUsers(ctx context.Context) ([]model.User, error)
	SetIdentityStatus(ctx context.Context, userID uint64, verified bool, docs string) error

	CreateTransaction(ctx context.Context, tx *gorm.DB, t *model.Transaction) error
	GetTransaction(ctx context.Context, id uint64) (*model.Transaction, error)
	GetTransactionForUpdate(ctx context.Context, tx *gorm.DB, id uint64) (*model.Transaction, error)
	GetTransactionByCode(ctx context.Context, code string) (*model.Transaction, error)
	ListUserTransactions(ctx context.Context, userID uint64) ([]model.Transaction, error)
	ListAllTransactions(ctx context.Context) ([]model.Transaction, error)
	ListActiveTransactions(ctx context.Context) ([]model.Transaction, error)
	ClaimTransition(ctx context.Context, tx *gorm.DB, id uint64, newStatus string, notes *string) (bool, error)
	AttachProof(ctx context.Context, tx *gorm.DB, id uint64, proof string) (bool, error)

	CreateWithdrawalRequest(ctx context.Context, tx *gorm.DB, w *model.WithdrawalRequest) error
	GetWithdrawalRequest(ctx context.Context, id uint64) (*model.WithdrawalRequest, error)
	ListUserWithdrawalRequests(ctx context.Context, userID uint64) ([]model.WithdrawalRequest, error)
	ListActiveWithdrawalRequests(ctx context.Context) ([]model.WithdrawalRequest, error)
	SyncWithdrawalStatus(ctx context.Context, tx *gorm.DB, transactionID uint64, status string, notes *string) error

	GetRate(ctx context.Context, pair string) (*model.ExchangeRate, error)
	ListRates(ctx context.Context) ([]model.ExchangeRate, error)
	UpsertRate(ctx context.Context, r *model.ExchangeRate) error

	ListActivePaymentAccounts(ctx context.Context) ([]model.PaymentAccount, error)
	ListPaymentAccounts(ctx context.Context) ([]model.PaymentAccount, error)
	GetPaymentAccount(ctx context.Context, id uint64) (*model.PaymentAccount, error)
	CreatePaymentAccount(ctx context.Context, a *model.PaymentAccount) error
	UpdatePaymentAccount(ctx context.Context, a *model.PaymentAccount) error
	DeletePaymentAccount(ctx context.Context, id uint64) error

	CreateNotification(ctx context.Context, n *model.Notification) error
	GetNotification(ctx context.Context, id uint64) (*model.Notification, error)
	ListUserNotifications(ctx context.Context, userID uint64, unreadOnly bool) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id uint64) error
	MarkAllNotificationsRead(ctx context.Context, userID uint64) error
	DeleteNotification(ctx context.Context, id uint64) error

	CreateOutboxEvent(ctx context.Context, tx *gorm.DB, evt *model.OutboxEvent) error
	PollOutbox(ctx context.Context, limit int) ([]model.OutboxEvent, error)
	MarkOutboxProcessed(ctx context.Context, id uint64) error
	PublishEvent(ctx context.Context, evt model.OutboxEvent) error

	CacheBalance(ctx context.Context, userID uint64, bal decimal.Decimal) error
	GetCachedBalance(ctx context.Context, userID uint64) (decimal.Decimal, error)
	CacheRate(ctx context.Context, r *model.ExchangeRate) error
	GetCachedRate(ctx context.Context, pair string) (*model.ExchangeRate, error)
	DropCachedRate(ctx context.Context, pair string) error
}

// Repository implements RepositoryInterface.
type Repository struct {
	db     *gorm.DB
	rdb    *redis.Client
	writer *kafka.Writer
	log    *zap.SugaredLogger
}

// NewRepository constructs repo.
func NewRepository(db *gorm.DB, rdb *redis.Client, w *kafka.Writer, logger *zap.SugaredLogger) *Repository {
	return &Repository{db: db, rdb: rdb, writer: w, log: logger}
}

// DB returns underlying *gorm.DB
func (r *Repository) DB(ctx context.Context) *gorm.DB { return r.db.WithContext(ctx) }

// GetUser fetches a user without locking.
func (r *Repository) GetUser(ctx context.Context, tx *gorm.DB, userID uint64) (*model.User, error) {
	var u model.User
	if err := tx.WithContext(ctx).Where("id = ?", userID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// lockForUpdate applies a row lock where the dialect supports it; sqlite
// (tests) serializes writes on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// GetUserForUpdate locks the user row; the balance scalar is the only
// contended resource in the system.
func (r *Repository) GetUserForUpdate(ctx context.Context, tx *gorm.DB, userID uint64) (*model.User, error) {
	var u model.User
	if err := lockForUpdate(tx.WithContext(ctx)).
		Where("id = ?", userID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateBalance with optimistic lock.
func (r *Repository) UpdateBalance(ctx context.Context, tx *gorm.DB, userID uint64, newBalance decimal.Decimal, oldVersion uint64) error {
	if newBalance.IsNegative() {
		return ErrInsufficientFunds
	}
	res := tx.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND version = ?", userID, oldVersion).
		Updates(map[string]interface{}{
			"balance":    newBalance,
			"version":    oldVersion + 1,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("optimistic lock conflict")
	}
	return nil
}

// ListUsers returns every user, newest first.
func (r *Repository) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Order("created_at desc").Find(&users).Error
	return users, err
}

// SetIdentityStatus updates the verification flag and stored document refs.
func (r *Repository) SetIdentityStatus(ctx context.Context, userID uint64, verified bool, docs string) error {
	updates := map[string]interface{}{
		"identity_verified": verified,
		"updated_at":        time.Now(),
	}
	if docs != "" {
		updates["identity_docs"] = docs
	}
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CacheBalance writes Redis.
func (r *Repository) CacheBalance(ctx context.Context, userID uint64, bal decimal.Decimal) error {
	return r.rdb.Set(ctx, fmt.Sprintf("balance:%d", userID), bal.String(), 5*time.Minute).Err()
}

// GetCachedBalance reads Redis.
func (r *Repository) GetCachedBalance(ctx context.Context, userID uint64) (decimal.Decimal, error) {
	str, err := r.rdb.Get(ctx, fmt.Sprintf("balance:%d", userID)).Result()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(str)
}
