package model

import (
	"time"
)

// CreditBalance represents the database model for a user's credit balance
type CreditBalance struct {
	UserID    string    `gorm:"primaryKey;size:64"`
	Credits   int64     `gorm:"not null;default:0;check:chk_credit_balances_non_negative,credits >= 0"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for CreditBalance
func (CreditBalance) TableName() string {
	return "credit_balances"
}
