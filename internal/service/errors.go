package service

import (
	"errors"
)

// 业务校验错误
//
// 每种前置条件不满足都对应一个独立的错误，handler 层据此映射成
// 不同的业务码返回。活动/认捐不存在的错误定义在 repository 层
var (
	ErrUnauthorized      = errors.New("无权限操作，仅限平台管理员")
	ErrCampaignExists    = errors.New("活动已存在")
	ErrPledgeExists      = errors.New("认捐已存在")
	ErrInvalidFee        = errors.New("平台费率超出范围")
	ErrInvalidIdentity   = errors.New("身份标识格式不合法")
	ErrInvalidAmount     = errors.New("金额必须大于0")
	ErrValueMismatch     = errors.New("到账金额与认捐金额不一致")
	ErrCampaignFrozen    = errors.New("活动已冻结，暂停接受认捐")
	ErrCampaignNotEmpty  = errors.New("活动资金未清零，不能删除")
	ErrNothingToPayout   = errors.New("活动资金为零，无可结算金额")
	ErrInsufficientFunds = errors.New("平台资金余额不足")
)
