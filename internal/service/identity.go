package service

import (
	"regexp"

	"crowdfund/internal/config"
)

// ============================================================================
// 身份标识与权限校验
// ============================================================================

const (
	minIdentityLen = 2
	maxIdentityLen = 64
)

// 身份标识语法：小写字母数字段，段之间用单个 . _ - 连接
// 例如 alice、fund.manager、user-01、a_1.b_2
var identityPattern = regexp.MustCompile(`^[a-z0-9]+([._-][a-z0-9]+)*$`)

// ValidIdentity 校验身份标识是否语法合法
//
// 身份由托管环境签发，这里只做语法校验，不校验账户是否真实存在——
// 转账指令发给不存在的账户是下游清算的事
func ValidIdentity(identity string) bool {
	if len(identity) < minIdentityLen || len(identity) > maxIdentityLen {
		return false
	}
	return identityPattern.MatchString(identity)
}

// requireManager 管理员权限门禁
//
// 纯前置校验，无副作用。所有特权操作（建/删活动、冻结、退款、
// 结算、平台提款）入口处先过这一关
func requireManager(cfg *config.Config, caller string) error {
	if caller != cfg.Business.Manager {
		return ErrUnauthorized
	}
	return nil
}
