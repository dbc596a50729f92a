package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-redis/redismock/v8"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ebupay/exchange-service/internal/logger"
	"github.com/ebupay/exchange-service/internal/model"
	"github.com/ebupay/exchange-service/internal/repo"
)

func newTestService(t *testing.T) (*TransactionService, context.Context) {
	// SQLite in-memory DB, one per test
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Transaction{},
		&model.WithdrawalRequest{},
		&model.ExchangeRate{},
		&model.PaymentAccount{},
		&model.Notification{},
		&model.OutboxEvent{},
	))

	// Redis mock without expectations: every cache call misses softly
	rdb, _ := redismock.NewClientMock()

	writer := &kafka.Writer{} // not used here
	log, _ := logger.NewLogger()
	repository := repo.NewRepository(db, rdb, writer, log)
	notifier := NewNotificationService(repository, log)
	svc := NewTransactionService(repository, notifier, log)

	return svc, context.Background()
}

func seedUser(t *testing.T, svc *TransactionService, ctx context.Context, id uint64, balance string) {
	t.Helper()
	err := svc.Repo().DB(ctx).Create(&model.User{
		ID:        id,
		FirstName: "Test",
		LastName:  fmt.Sprintf("User%d", id),
		Email:     fmt.Sprintf("user%d@example.com", id),
		Balance:   decimal.RequireFromString(balance),
	}).Error
	require.NoError(t, err)
}

func userNotifications(t *testing.T, svc *TransactionService, ctx context.Context, userID uint64) []model.Notification {
	t.Helper()
	var ns []model.Notification
	require.NoError(t, svc.Repo().DB(ctx).
		Where("user_id = ? AND broadcast = ?", userID, false).
		Order("created_at").Find(&ns).Error)
	return ns
}

func balanceOf(t *testing.T, svc *TransactionService, ctx context.Context, userID uint64) decimal.Decimal {
	t.Helper()
	var u model.User
	require.NoError(t, svc.Repo().DB(ctx).First(&u, userID).Error)
	return u.Balance
}

func TestConversionLifecycle(t *testing.T) {
	svc, ctx := newTestService(t)
	seedUser(t, svc, ctx, 1, "0")

	tx, err := svc.CreateConversion(ctx, 1, CreateConversionInput{
		SourceAmount:   decimal.RequireFromString("100"),
		SourceCurrency: "USD",
		TargetCurrency: "TRY",
		Rate:           decimal.RequireFromString("35.42"),
		CommissionRate: decimal.RequireFromString("0.0235"),
	})
	require.NoError(t, err)

	// 100 * 35.42 = 3542; commission 3542 * 0.0235 = 83.24; target 3458.76
	assert.Equal(t, model.StatusPending, tx.Status)
	assert.True(t, tx.CommissionAmount.Equal(decimal.RequireFromString("83.24")), tx.CommissionAmount.String())
	assert.True(t, tx.TargetAmount.Equal(decimal.RequireFromString("3458.76")), tx.TargetAmount.String())
	assert.Regexp(t, `^TRX-[0-9A-Z]+$`, tx.Code)

	// proof upload forces processing
	updated, err := svc.AttachPaymentProof(ctx, tx.ID, 1, "/uploads/proof.png")
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, updated.Status)
	require.NotNil(t, updated.PaymentProof)
	assert.Equal(t, "/uploads/proof.png", *updated.PaymentProof)

	// no notification before admin review
	assert.Empty(t, userNotifications(t, svc, ctx, 1))

	// approval credits exactly targetAmount and notifies once
	completed, err := svc.AdminUpdateStatus(ctx, tx.ID, model.StatusCompleted, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, completed.Status)
	assert.True(t, balanceOf(t, svc, ctx, 1).Equal(decimal.RequireFromString("3458.76")))

	ns := userNotifications(t, svc, ctx, 1)
	require.Len(t, ns, 1)
	assert.Equal(t, model.NotifySuccess, ns[0].Type)
	assert.Contains(t, ns[0].Message, "3458.76")
	assert.Contains(t, ns[0].Message, "100")

	// re-completion is rejected and moves no money
	_, err = svc.AdminUpdateStatus(ctx, tx.ID, model.StatusCompleted, nil)
	assert.ErrorIs(t, err, ErrConflict)
	assert.True(t, balanceOf(t, svc, ctx, 1).Equal(decimal.RequireFromString("3458.76")))
	assert.Len(t, userNotifications(t, svc, ctx, 1), 1)
}

func TestConversionCancellation(t *testing.T) {
	svc, ctx := newTestService(t)
	seedUser(t, svc, ctx, 1, "0")

	tx, err := svc.CreateConversion(ctx, 1, CreateConversionInput{
		SourceAmount:   decimal.RequireFromString("50"),
		SourceCurrency: "USD",
		TargetCurrency: "TRY",
		Rate:           decimal.RequireFromString("30"),
		CommissionRate: decimal.RequireFromString("0.01"),
	})
	require.NoError(t, err)

	notes := "blurry receipt"
	cancelled, err := svc.AdminUpdateStatus(ctx, tx.ID, model.StatusCancelled, &notes)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)

	// no balance change, one error notification carrying the notes verbatim
	assert.True(t, balanceOf(t, svc, ctx, 1).IsZero())
	ns := userNotifications(t, svc, ctx, 1)
	require.Len(t, ns, 1)
	assert.Equal(t, model.NotifyError, ns[0].Type)
	assert.Contains(t, ns[0].Message, "blurry receipt")

	// terminal means terminal
	_, err = svc.AdminUpdateStatus(ctx, tx.ID, model.StatusProcessing, nil)
	assert.ErrorIs(t, err, ErrConflict)
	_, err = svc.AttachPaymentProof(ctx, tx.ID, 1, "/uploads/late.png")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCancellationDefaultReason(t *testing.T) {
	svc, ctx := newTestService(t)
	seedUser(t, svc, ctx, 1, "0")

	tx, err := svc.CreateConversion(ctx, 1, CreateConversionInput{
		SourceAmount:   decimal.RequireFromString("10"),
		SourceCurrency: "USD",
		TargetCurrency: "TRY",
		Rate:           decimal.RequireFromString("30"),
		CommissionRate: decimal.Zero,
	})
	require.NoError(t, err)

	_, err = svc.AdminUpdateStatus(ctx, tx.ID, model.StatusCancelled, nil)
	require.NoError(t, err)

	ns := userNotifications(t, svc, ctx, 1)
	require.Len(t, ns, 1)
	assert.Contains(t, ns[0].Message, "Not specified")
}

func TestWithdrawalLifecycle(t *testing.T) {
	svc, ctx := newTestService(t)
	seedUser(t, svc, ctx, 1, "500")

	tx, w, err := svc.CreateWithdrawal(ctx, 1, decimal.RequireFromString("200"), "bank", "IBAN TR00 0000", "TRY")
	require.NoError(t, err)
	assert.Equal(t, model.KindWithdrawal, tx.Kind)
	assert.Equal(t, tx.ID, w.TransactionID)
	assert.Equal(t, model.StatusPending, w.Status)

	// completion debits sourceAmount and moves the linked request with it
	_, err = svc.AdminUpdateStatus(ctx, tx.ID, model.StatusCompleted, nil)
	require.NoError(t, err)
	assert.True(t, balanceOf(t, svc, ctx, 1).Equal(decimal.RequireFromString("300")))

	synced, err := svc.Repo().GetWithdrawalRequest(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, synced.Status)

	ns := userNotifications(t, svc, ctx, 1)
	require.Len(t, ns, 1)
	assert.Equal(t, model.NotifySuccess, ns[0].Type)
}

func TestWithdrawalOverdraftAtCompletion(t *testing.T) {
	svc, ctx := newTestService(t)
	seedUser(t, svc, ctx, 1, "500")

	// both pass the creation-time check against the same balance
	tx1, _, err := svc.CreateWithdrawal(ctx, 1, decimal.RequireFromString("500"), "bank", "acct-1", "TRY")
	require.NoError(t, err)
	tx2, _, err := svc.CreateWithdrawal(ctx, 1, decimal.RequireFromString("500"), "crypto", "wallet-1", "TRY")
	require.NoError(t, err)

	_, err = svc.AdminUpdateStatus(ctx, tx1.ID, model.StatusCompleted, nil)
	require.NoError(t, err)
	assert.True(t, balanceOf(t, svc, ctx, 1).IsZero())

	// the second completion re-validates inside the settlement transaction
	_, err = svc.AdminUpdateStatus(ctx, tx2.ID, model.StatusCompleted, nil)
	assert.ErrorIs(t, err, repo.ErrInsufficientFunds)
	assert.True(t, balanceOf(t, svc, ctx, 1).IsZero())

	// the failed claim rolled back with the settlement
	fresh, err := svc.Repo().GetTransaction(ctx, tx2.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, fresh.Status)
}

func TestWithdrawalInsufficientAtCreation(t *testing.T) {
	svc, ctx := newTestService(t)
	seedUser(t, svc, ctx, 1, "100")

	_, _, err := svc.CreateWithdrawal(ctx, 1, decimal.RequireFromString("100.01"), "bank", "acct", "TRY")
	assert.ErrorIs(t, err, repo.ErrInsufficientFunds)
}

func TestAttachProofOwnership(t *testing.T) {
	svc, ctx := newTestService(t)
	seedUser(t, svc, ctx, 1, "0")
	seedUser(t, svc, ctx, 2, "0")

	tx, err := svc.CreateConversion(ctx, 1, CreateConversionInput{
		SourceAmount:   decimal.RequireFromString("10"),
		SourceCurrency: "USD",
		TargetCurrency: "TRY",
		Rate:           decimal.RequireFromString("30"),
		CommissionRate: decimal.Zero,
	})
	require.NoError(t, err)

	_, err = svc.AttachPaymentProof(ctx, tx.ID, 2, "/uploads/sneaky.png")
	assert.ErrorIs(t, err, ErrForbidden)

	fresh, err := svc.Repo().GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, fresh.Status)
	assert.Nil(t, fresh.PaymentProof)
}

func TestRegressionToPendingRejected(t *testing.T) {
	svc, ctx := newTestService(t)
	seedUser(t, svc, ctx, 1, "0")

	tx, err := svc.CreateConversion(ctx, 1, CreateConversionInput{
		SourceAmount:   decimal.RequireFromString("10"),
		SourceCurrency: "USD",
		TargetCurrency: "TRY",
		Rate:           decimal.RequireFromString("30"),
		CommissionRate: decimal.Zero,
	})
	require.NoError(t, err)

	_, err = svc.AttachPaymentProof(ctx, tx.ID, 1, "/uploads/proof.png")
	require.NoError(t, err)

	_, err = svc.AdminUpdateStatus(ctx, tx.ID, model.StatusPending, nil)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAdminUpdateWithdrawalByRequestID(t *testing.T) {
	svc, ctx := newTestService(t)
	seedUser(t, svc, ctx, 1, "300")

	tx, w, err := svc.CreateWithdrawal(ctx, 1, decimal.RequireFromString("300"), "bank", "acct", "TRY")
	require.NoError(t, err)

	notes := "manual payout done"
	updated, err := svc.AdminUpdateWithdrawal(ctx, w.ID, model.StatusCompleted, &notes)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, updated.Status)
	require.NotNil(t, updated.AdminNotes)
	assert.Equal(t, notes, *updated.AdminNotes)

	fresh, err := svc.Repo().GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, fresh.Status)
	assert.True(t, balanceOf(t, svc, ctx, 1).IsZero())
}

func TestQueries(t *testing.T) {
	svc, ctx := newTestService(t)
	seedUser(t, svc, ctx, 1, "0")
	seedUser(t, svc, ctx, 2, "0")

	mk := func(userID uint64) *model.Transaction {
		tx, err := svc.CreateConversion(ctx, userID, CreateConversionInput{
			SourceAmount:   decimal.RequireFromString("10"),
			SourceCurrency: "USD",
			TargetCurrency: "TRY",
			Rate:           decimal.RequireFromString("30"),
			CommissionRate: decimal.Zero,
		})
		require.NoError(t, err)
		return tx
	}
	a := mk(1)
	b := mk(1)
	c := mk(2)

	mine, err := svc.ListMine(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// other users' transactions stay hidden without the admin flag
	_, err = svc.GetByID(ctx, c.ID, 1, false)
	assert.ErrorIs(t, err, ErrForbidden)
	got, err := svc.GetByID(ctx, c.ID, 1, true)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	byCode, err := svc.GetByCode(ctx, a.Code, 1, false)
	require.NoError(t, err)
	assert.Equal(t, a.ID, byCode.ID)

	// completed transactions leave the admin work queue
	_, err = svc.AdminUpdateStatus(ctx, b.ID, model.StatusCompleted, nil)
	require.NoError(t, err)
	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestGetBalanceFallsBackToDB(t *testing.T) {
	svc, ctx := newTestService(t)
	seedUser(t, svc, ctx, 7, "123.45")

	bal, err := svc.GetBalance(ctx, 7)
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.RequireFromString("123.45")))
}
