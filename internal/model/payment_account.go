package model

import "time"

// PaymentAccount is an admin-curated destination account shown to users at
// conversion time. Advisory metadata only.
type PaymentAccount struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`
	AccountType    string    `gorm:"size:16;not null" json:"accountType"`
	AccountName    string    `gorm:"size:128;not null" json:"accountName"`
	AccountNumber  string    `gorm:"size:64;not null" json:"accountNumber"`
	BankName       *string   `gorm:"size:128" json:"bankName,omitempty"`
	IBAN           *string   `gorm:"size:64" json:"iban,omitempty"`
	SwiftCode      *string   `gorm:"size:16" json:"swiftCode,omitempty"`
	BranchCode     *string   `gorm:"size:16" json:"branchCode,omitempty"`
	AdditionalInfo *string   `gorm:"type:text" json:"additionalInfo,omitempty"`
	IsActive       bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (PaymentAccount) TableName() string { return "payment_accounts" }
