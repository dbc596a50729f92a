package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalRequest mirrors a withdrawal-kind Transaction. Its status is
// kept in lockstep with the linked Transaction by the engine.
type WithdrawalRequest struct {
	ID            uint64          `gorm:"primaryKey" json:"id"`
	UserID        uint64          `gorm:"not null;index" json:"userId"`
	TransactionID uint64          `gorm:"not null;index" json:"transactionId"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Method        string          `gorm:"size:32;not null" json:"method"`
	Details       string          `gorm:"type:text;not null" json:"details"`
	Status        string          `gorm:"size:16;not null;index" json:"status"`
	AdminNotes    *string         `gorm:"type:text" json:"adminNotes,omitempty"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (WithdrawalRequest) TableName() string { return "withdrawal_requests" }
