package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ============================================================================
// 分布式锁实现
// ============================================================================
//
// 【为什么需要分布式锁？】
//
// 场景：同一个活动同时进来一笔认捐和一次结算
//
// 如果没有锁：
//   goroutine1(认捐): 读活动 funds=1000 -> 写认捐 -> funds=1100
//   goroutine2(结算): 读活动 funds=1000 -> 打款1000 -> 清空认捐账本 -> funds=0
//   两个交叉执行，新认捐的那100就可能既没打出去也没留在账上
//
// 加了活动级锁之后，同一活动的认捐、退款、结算严格串行，
// funds == sum(认捐金额) 的不变式在每次操作边界上都成立
//
// 【Redis 分布式锁原理】
//
// 加锁：SET key value NX EX timeout
//   - NX: 只有 key 不存在时才设置（保证互斥）
//   - EX: 设置过期时间（防止死锁）
//   - value: 锁持有者标识（释放时验证，防止误删别人的锁）
//
// 释放锁：Lua 脚本保证"检查+删除"原子执行
//
// ============================================================================

var (
	ErrLockFailed  = errors.New("获取分布式锁失败")
	ErrLockExpired = errors.New("锁已过期")
)

// DistributedLock 分布式锁
type DistributedLock struct {
	client     *redis.Client
	key        string        // 锁的 key
	value      string        // 锁的 value（用于验证锁的持有者）
	expiration time.Duration // 锁的过期时间
}

// NewDistributedLock 创建分布式锁
func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock 尝试获取锁（非阻塞）
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	// SET key value NX EX timeout
	// 持有锁的进程崩溃时，锁到期自动释放
	success, err := l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
	if err != nil {
		return false, err
	}
	return success, nil
}

// Lock 阻塞式获取锁（带重试）
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
			// 继续重试
		}
	}
	return ErrLockFailed
}

// Unlock 释放锁
//
// 【关键点】用 Lua 脚本保证"检查+删除"的原子性：
// A 持锁超时自动过期后 B 拿到锁，A 迟到的 Unlock 发现 value
// 不是自己的就不会删，B 的锁安全
func (l *DistributedLock) Unlock(ctx context.Context) error {
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
	_, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Result()
	return err
}

// ============================================================================
// 便捷函数：按资金账户维度加锁
// ============================================================================

// NewCampaignLock 活动级资金锁
//
// 【设计思考】锁的粒度按活动划分：不同活动的资金互不相关，可以并发；
// 同一活动的认捐、退款、结算必须串行，否则 funds 与认捐账本会失配。
// value 用调用方的业务单号（认捐ID、转账单号），便于追踪持锁者
func NewCampaignLock(client *redis.Client, campaignID, holder string) *DistributedLock {
	key := fmt.Sprintf("fund:lock:campaign:%s", campaignID)
	return NewDistributedLock(client, key, holder, 30*time.Second)
}

// NewPlatformLock 平台资金账户锁（全局单账户，一把锁）
func NewPlatformLock(client *redis.Client, holder string) *DistributedLock {
	return NewDistributedLock(client, "fund:lock:platform", holder, 30*time.Second)
}
