package model

import (
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/shopspring/decimal"
)

// Transaction kinds.
const (
	KindConversion = "conversion"
	KindWithdrawal = "withdrawal"
)

// Transaction statuses. pending and processing are active; completed and
// cancelled are terminal.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Transaction snapshots rate/commission/amounts at creation time. Only
// Status, PaymentProof, AdminNotes and UpdatedAt mutate afterwards.
type Transaction struct {
	ID               uint64          `gorm:"primaryKey" json:"id"`
	UserID           uint64          `gorm:"not null;index" json:"userId"`
	Code             string          `gorm:"size:32;not null;uniqueIndex" json:"code"`
	Kind             string          `gorm:"size:16;not null" json:"kind"`
	SourceAmount     decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"sourceAmount"`
	SourceCurrency   string          `gorm:"size:8;not null" json:"sourceCurrency"`
	TargetAmount     decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"targetAmount"`
	TargetCurrency   string          `gorm:"size:8;not null" json:"targetCurrency"`
	Rate             decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"rate"`
	CommissionRate   decimal.Decimal `gorm:"type:numeric(9,4);not null" json:"commissionRate"`
	CommissionAmount decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"commissionAmount"`
	Status           string          `gorm:"size:16;not null;index" json:"status"`
	PaymentMethod    *string         `gorm:"size:32" json:"paymentMethod,omitempty"`
	PaymentDetails   *string         `gorm:"type:text" json:"paymentDetails,omitempty"`
	PaymentAccountID *uint64         `json:"paymentAccountId,omitempty"`
	PaymentProof     *string         `gorm:"type:text" json:"paymentProof,omitempty"`
	AdminNotes       *string         `gorm:"type:text" json:"adminNotes,omitempty"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Transaction) TableName() string { return "transactions" }

// Terminal reports whether no further status or balance change is allowed.
func (t *Transaction) Terminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusCancelled
}

// NewCode returns a human-facing transaction code. xid values are globally
// unique, so generation never needs a retry loop.
func NewCode() string {
	return "TRX-" + strings.ToUpper(xid.New().String())
}
