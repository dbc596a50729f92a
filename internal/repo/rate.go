package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/ebupay/exchange-service/internal/model"
)

// GetRate fetches the current rate for a pair.
func (r *Repository) GetRate(ctx context.Context, pair string) (*model.ExchangeRate, error) {
	var er model.ExchangeRate
	if err := r.db.WithContext(ctx).Where("currency_pair = ?", pair).First(&er).Error; err != nil {
		return nil, err
	}
	return &er, nil
}

// ListRates returns all pairs.
func (r *Repository) ListRates(ctx context.Context) ([]model.ExchangeRate, error) {
	var rates []model.ExchangeRate
	err := r.db.WithContext(ctx).Order("currency_pair").Find(&rates).Error
	return rates, err
}

// UpsertRate updates in place for a known pair, inserts otherwise.
func (r *Repository) UpsertRate(ctx context.Context, er *model.ExchangeRate) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "currency_pair"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"rate":            er.Rate,
				"commission_rate": er.CommissionRate,
				"updated_by":      er.UpdatedBy,
				"updated_at":      time.Now(),
			}),
		}).
		Create(er).Error
}

// CacheRate writes the pair to Redis.
func (r *Repository) CacheRate(ctx context.Context, er *model.ExchangeRate) error {
	payload, err := json.Marshal(er)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, fmt.Sprintf("rate:%s", er.CurrencyPair), payload, 5*time.Minute).Err()
}

// GetCachedRate reads the pair from Redis.
func (r *Repository) GetCachedRate(ctx context.Context, pair string) (*model.ExchangeRate, error) {
	str, err := r.rdb.Get(ctx, fmt.Sprintf("rate:%s", pair)).Result()
	if err != nil {
		return nil, err
	}
	var er model.ExchangeRate
	if err := json.Unmarshal([]byte(str), &er); err != nil {
		return nil, err
	}
	return &er, nil
}

// DropCachedRate invalidates a pair after an admin upsert.
func (r *Repository) DropCachedRate(ctx context.Context, pair string) error {
	return r.rdb.Del(ctx, fmt.Sprintf("rate:%s", pair)).Err()
}
