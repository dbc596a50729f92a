package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate holds only the current value per pair; transactions snapshot
// rate and commission at creation, so no history table is needed.
type ExchangeRate struct {
	ID             uint64          `gorm:"primaryKey" json:"id"`
	CurrencyPair   string          `gorm:"size:16;not null;uniqueIndex" json:"currencyPair"`
	Rate           decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"rate"`
	CommissionRate decimal.Decimal `gorm:"type:numeric(9,4);not null" json:"commissionRate"`
	UpdatedBy      uint64          `json:"updatedBy"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (ExchangeRate) TableName() string { return "exchange_rates" }
