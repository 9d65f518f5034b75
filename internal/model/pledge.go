package model

import (
	"time"
)

// Pledge 认捐记录表
// 认捐ID由调用方指定，在活动内唯一；金额和退款地址创建后不可变更
//
// 活动与认捐是两级键（campaign_id, pledge_id），用复合唯一索引表达，
// 不依赖字符串前缀拼接之类的命名空间技巧
type Pledge struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	CampaignID    string    `gorm:"type:varchar(64);uniqueIndex:uk_campaign_pledge;not null" json:"campaign_id"`
	PledgeID      string    `gorm:"type:varchar(64);uniqueIndex:uk_campaign_pledge;not null" json:"pledge_id"`
	Amount        int64     `gorm:"not null" json:"amount"`                               // 认捐金额，必须大于0
	RefundAddress string    `gorm:"type:varchar(64);not null" json:"refund_address"`      // 退款收款方身份标识
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Pledge) TableName() string {
	return "pledge"
}
