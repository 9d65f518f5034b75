package model

import (
	"time"
)

// PlatformAccountID 平台资金账户固定主键，全系统只有这一行
const PlatformAccountID = 1

// PlatformAccount 平台资金账户表
// 独立于任何活动的手续费归集账户：结算抽成、外部捐入在这里累加，
// 只有管理员可以提取
type PlatformAccount struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"` // 账户余额，不允许为负
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PlatformAccount) TableName() string {
	return "platform_account"
}
