package service

import (
	"context"
	"testing"

	"crowdfund/internal/config"
	"crowdfund/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testManager         = "fund.manager"
	testPlatformAddress = "platform.treasury"
)

// newTestDB 内存 sqlite，建全套表结构
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Campaign{},
		&model.Pledge{},
		&model.PlatformAccount{},
		&model.FundFlow{},
		&model.OutboxMessage{},
	))

	return db
}

// newTestRedis 内嵌 redis，给分布式锁用
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Business.Manager = testManager
	cfg.Business.PlatformAddress = testPlatformAddress
	cfg.Business.MaxRetryCount = 3
	cfg.Kafka.Topic.TransferRequest = "transfer.request"
	cfg.Kafka.Topic.FundEvent = "fund.event"
	return cfg
}

// mustCreateCampaign 建活动的快捷方式
func mustCreateCampaign(t *testing.T, svc *CampaignService, id, campaigner string, fee int64) *model.Campaign {
	t.Helper()

	campaign, err := svc.CreateCampaign(context.Background(), testManager, &CreateCampaignRequest{
		CampaignID:  id,
		Campaigner:  campaigner,
		PlatformFee: fee,
	})
	require.NoError(t, err)
	return campaign
}

// mustCreatePledge 认捐的快捷方式，到账金额与认捐金额一致
func mustCreatePledge(t *testing.T, svc *PledgeService, campaignID, pledgeID string, amount int64, refundAddress string) *model.Pledge {
	t.Helper()

	pledge, err := svc.CreatePledge(context.Background(), &CreatePledgeRequest{
		CampaignID:    campaignID,
		PledgeID:      pledgeID,
		Amount:        amount,
		RefundAddress: refundAddress,
		AttachedValue: amount,
	})
	require.NoError(t, err)
	return pledge
}

// requireInvariant 核验核心不变式：funds == sum(认捐金额)
func requireInvariant(t *testing.T, db *gorm.DB, campaignID string) {
	t.Helper()

	var campaign model.Campaign
	require.NoError(t, db.Where("id = ?", campaignID).First(&campaign).Error)

	var total int64
	require.NoError(t, db.Model(&model.Pledge{}).
		Where("campaign_id = ?", campaignID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error)

	require.Equal(t, total, campaign.Funds,
		"活动 %s 资金与认捐合计不一致: funds=%d, sum=%d", campaignID, campaign.Funds, total)
}

// outboxMessages 读出全部事务消息
func outboxMessages(t *testing.T, db *gorm.DB) []*model.OutboxMessage {
	t.Helper()

	var messages []*model.OutboxMessage
	require.NoError(t, db.Order("id ASC").Find(&messages).Error)
	return messages
}
