package model

import (
	"time"
)

// Campaign 众筹活动表
// 记录每个活动当前托管的认捐资金，是整个记账系统的核心数据
//
// 【核心不变式】funds 必须等于该活动下所有认捐金额之和
// 任何一次资金变动（认捐、退款、结算）都必须在同一个事务里
// 同时更新 funds 和认捐记录，否则账就对不上了
type Campaign struct {
	ID          string    `gorm:"type:varchar(64);primaryKey" json:"id"`        // 活动ID，创建时指定，不可变更
	Campaigner  string    `gorm:"type:varchar(64);not null" json:"campaigner"`  // 发起人身份标识，结算款的收款方
	PlatformFee int64     `gorm:"not null" json:"platform_fee"`                 // 平台费率（基点，10000 = 100%），创建后不可变更
	Frozen      bool      `gorm:"not null;default:false" json:"frozen"`         // 冻结标记，冻结后不再接受新认捐
	Funds       int64     `gorm:"not null;default:0" json:"funds"`              // 当前托管资金总额，不允许为负
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Campaign) TableName() string {
	return "campaign"
}

// MaxPlatformFee 平台费率上限（基点），10000 即 100%
const MaxPlatformFee = 10000
