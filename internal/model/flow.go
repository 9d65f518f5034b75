package model

import (
	"time"
)

// ============================================================================
// 资金流水类型常量
// ============================================================================

const (
	FlowTypePledge           = "PLEDGE"            // 认捐入账
	FlowTypeRefund           = "REFUND"            // 退款出账
	FlowTypePayout           = "PAYOUT"            // 结算打款给发起人
	FlowTypePlatformFee      = "PLATFORM_FEE"      // 结算抽成转入平台账户
	FlowTypePlatformDeposit  = "PLATFORM_DEPOSIT"  // 平台账户捐入
	FlowTypePlatformWithdraw = "PLATFORM_WITHDRAW" // 平台账户提取
)

// ============================================================================
// 资金流水实体
// ============================================================================

// FundFlow 资金流水表
// 记录每一笔资金变动，是对账的核心依据
//
// 【重要】流水表设计原则：
// 1. 只追加，不修改，不删除 —— 保证审计可追溯
// 2. 记录变动前后的资金余额 —— 便于校验不变式 funds == sum(认捐金额)
// 3. 平台账户的流水 campaign_id 为空串，pledge_id 同理按需填写
type FundFlow struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	FlowNo      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"flow_no"` // 流水号（全局唯一）
	CampaignID  string    `gorm:"type:varchar(64);index" json:"campaign_id"`            // 关联活动ID
	PledgeID    string    `gorm:"type:varchar(64)" json:"pledge_id"`                    // 关联认捐ID（如有）
	Amount      int64     `gorm:"not null" json:"amount"`                               // 金额（正数入账，负数出账）
	Type        string    `gorm:"type:varchar(32);not null" json:"type"`                // 流水类型
	FundsBefore int64     `gorm:"not null" json:"funds_before"`                         // 变动前余额
	FundsAfter  int64     `gorm:"not null" json:"funds_after"`                          // 变动后余额
	Remark      string    `gorm:"type:varchar(256)" json:"remark"`                      // 备注
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (FundFlow) TableName() string {
	return "fund_flow"
}
