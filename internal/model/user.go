package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// User carries only the fields the engine touches; auth-related columns
// live with the (external) auth service.
type User struct {
	ID               uint64          `gorm:"primaryKey" json:"id"`
	FirstName        string          `gorm:"size:64;not null" json:"firstName"`
	LastName         string          `gorm:"size:64;not null" json:"lastName"`
	Email            string          `gorm:"size:128;not null;uniqueIndex" json:"email"`
	Balance          decimal.Decimal `gorm:"type:numeric(20,2);not null;default:'0'" json:"balance"`
	Version          uint64          `gorm:"not null;default:0" json:"-"`
	IsAdmin          bool            `gorm:"not null;default:false" json:"isAdmin"`
	IdentityVerified bool            `gorm:"not null;default:false" json:"identityVerified"`
	IdentityDocs     string          `gorm:"type:text" json:"-"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string { return "users" }
