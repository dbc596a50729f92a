package repo

import (
	"context"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ebupay/exchange-service/internal/logger"
	"github.com/ebupay/exchange-service/internal/model"
)

func newTestRepo(t *testing.T, dsn string) (*Repository, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Transaction{}))
	return NewRepository(db, nil, &kafka.Writer{}, must(logger.NewLogger())), db
}

func TestClaimTransition_Gate(t *testing.T) {
	r, db := newTestRepo(t, "file:claimgate?mode=memory&cache=shared")
	ctx := context.Background()

	db.Create(&model.Transaction{
		ID: 1, UserID: 1, Code: model.NewCode(), Kind: model.KindConversion,
		SourceAmount: decimal.NewFromInt(10), SourceCurrency: "USD",
		TargetAmount: decimal.NewFromInt(300), TargetCurrency: "TRY",
		Rate: decimal.NewFromInt(30), CommissionRate: decimal.Zero,
		CommissionAmount: decimal.Zero, Status: model.StatusProcessing,
	})

	ok, err := r.ClaimTransition(ctx, db, 1, model.StatusCompleted, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	// terminal rows cannot be claimed again
	ok, err = r.ClaimTransition(ctx, db, 1, model.StatusCompleted, nil)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = r.ClaimTransition(ctx, db, 1, model.StatusCancelled, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClaimTransition_ConcurrentCompletion(t *testing.T) {
	r, db := newTestRepo(t, "file:claimrace?mode=memory&cache=shared")
	ctx := context.Background()

	db.Create(&model.Transaction{
		ID: 1, UserID: 1, Code: model.NewCode(), Kind: model.KindConversion,
		SourceAmount: decimal.NewFromInt(10), SourceCurrency: "USD",
		TargetAmount: decimal.NewFromInt(300), TargetCurrency: "TRY",
		Rate: decimal.NewFromInt(30), CommissionRate: decimal.Zero,
		CommissionAmount: decimal.Zero, Status: model.StatusProcessing,
	})

	var mu sync.Mutex
	claims := 0
	wg := sync.WaitGroup{}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = db.Transaction(func(tx *gorm.DB) error {
				ok, err := r.ClaimTransition(ctx, tx, 1, model.StatusCompleted, nil)
				if err != nil {
					return err
				}
				if ok {
					mu.Lock()
					claims++
					mu.Unlock()
				}
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, claims, "only one claim may win; its row count gates the credit")

	var final model.Transaction
	require.NoError(t, db.First(&final, 1).Error)
	assert.Equal(t, model.StatusCompleted, final.Status)
}

func TestUpdateBalance_RejectsNegative(t *testing.T) {
	r, db := newTestRepo(t, "file:balneg?mode=memory&cache=shared")
	ctx := context.Background()

	db.Create(&model.User{ID: 1, FirstName: "A", LastName: "B", Email: "a@example.com", Balance: decimal.NewFromInt(100)})

	err := r.UpdateBalance(ctx, db, 1, decimal.NewFromInt(-1), 0)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	var u model.User
	require.NoError(t, db.First(&u, 1).Error)
	assert.True(t, u.Balance.Equal(decimal.NewFromInt(100)))
}

func TestUpdateBalance_OptimisticLock(t *testing.T) {
	r, db := newTestRepo(t, "file:ballock?mode=memory&cache=shared")
	ctx := context.Background()

	db.Create(&model.User{ID: 1, FirstName: "A", LastName: "B", Email: "a@example.com", Balance: decimal.NewFromInt(100)})

	require.NoError(t, r.UpdateBalance(ctx, db, 1, decimal.NewFromInt(110), 0))
	// stale version loses
	err := r.UpdateBalance(ctx, db, 1, decimal.NewFromInt(120), 0)
	assert.Error(t, err)

	var u model.User
	require.NoError(t, db.First(&u, 1).Error)
	assert.True(t, u.Balance.Equal(decimal.NewFromInt(110)))
	assert.Equal(t, uint64(1), u.Version)
}

func must(l *zap.SugaredLogger, err error) *zap.SugaredLogger {
	if err != nil {
		panic(err)
	}
	return l
}
