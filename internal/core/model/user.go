package model

import (
	"time"
)

// RegisterPath 註冊來源
const (
	RegisterPathDirect = "direct"
	RegisterPathKakao  = "kakao"
	RegisterPathApple  = "apple"
)

// User 使用者
type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Name           *string    `json:"name"`
	Email          *string    `gorm:"uniqueIndex;size:255" json:"email"`
	Phone          *string    `gorm:"uniqueIndex;size:50" json:"phone"`
	Password       string     `gorm:"size:200" json:"-"`
	RegisterPath   string     `gorm:"size:20;default:direct" json:"registerPath"`
	Birthday       *string    `gorm:"size:50" json:"birthday"`
	MarketingAgreed bool      `json:"marketingAgreed"`
	ProfileImageNo int        `gorm:"default:1" json:"profileImageNo"`

	// 退會資訊
	IsWithdrawal         bool       `gorm:"default:false" json:"isWithdrawal"`
	WithdrawalDate       *time.Time `json:"withdrawalDate,omitempty"`
	WithdrawalReason     *string    `json:"withdrawalReason,omitempty"`
	WithdrawalReasonType *string    `json:"withdrawalReasonType,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// IsActive 是否為有效帳號
func (u *User) IsActive() bool {
	return !u.IsWithdrawal
}

// Withdraw 退會處理，同時遮罩個資
func (u *User) Withdraw(reason, reasonType string) {
	now := time.Now()
	u.IsWithdrawal = true
	u.WithdrawalDate = &now
	u.WithdrawalReason = &reason
	u.WithdrawalReasonType = &reasonType
	u.Name = nil
	u.Email = nil
	u.Phone = nil
	u.Birthday = nil
}
