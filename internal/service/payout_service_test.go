package service

import (
	"context"
	"encoding/json"
	"testing"

	"crowdfund/internal/model"
	"crowdfund/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayoutCampaign(t *testing.T) {
	db := newTestDB(t)
	rdb := newTestRedis(t)
	cfg := newTestConfig()
	campaignSvc := NewCampaignService(db, cfg)
	pledgeSvc := NewPledgeService(db, rdb, cfg)
	payoutSvc := NewPayoutService(db, rdb, cfg)
	platformSvc := NewPlatformService(db, rdb, cfg)
	ctx := context.Background()

	// 费率 500 基点 = 5%
	mustCreateCampaign(t, campaignSvc, "c1", "alice", 500)
	mustCreatePledge(t, pledgeSvc, "c1", "p1", 1000, "bob")

	resp, err := payoutSvc.PayoutCampaign(ctx, testManager, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), resp.TotalFunds)
	assert.Equal(t, int64(50), resp.PlatformPayout)
	assert.Equal(t, int64(950), resp.CampaignerPayout)

	// 抽成与打款相加等于释放的资金
	assert.Equal(t, resp.TotalFunds, resp.PlatformPayout+resp.CampaignerPayout)

	// 结算后：资金归零，认捐账本清空，平台账户收到抽成
	campaign, err := campaignSvc.GetCampaign(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), campaign.Funds)

	ids, err := pledgeSvc.ListPledges(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, ids)

	balance, err := platformSvc.GetPlatformFunds(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance)

	requireInvariant(t, db, "c1")

	// 打款指令收款方是发起人，金额是扣除抽成后的余款
	messages := outboxMessages(t, db)
	require.Len(t, messages, 1)
	var payload struct {
		TransferNo string `json:"transfer_no"`
		To         string `json:"to"`
		Amount     int64  `json:"amount"`
	}
	require.NoError(t, json.Unmarshal([]byte(messages[0].Payload), &payload))
	assert.Equal(t, resp.TransferNo, payload.TransferNo)
	assert.Equal(t, "alice", payload.To)
	assert.Equal(t, int64(950), payload.Amount)
}

func TestPayoutCampaignFeeRounding(t *testing.T) {
	db := newTestDB(t)
	rdb := newTestRedis(t)
	cfg := newTestConfig()
	campaignSvc := NewCampaignService(db, cfg)
	pledgeSvc := NewPledgeService(db, rdb, cfg)
	payoutSvc := NewPayoutService(db, rdb, cfg)
	ctx := context.Background()

	// 333 基点 * 101 = 3.3633%，抽成向下取整到 3
	mustCreateCampaign(t, campaignSvc, "c1", "alice", 333)
	mustCreatePledge(t, pledgeSvc, "c1", "p1", 101, "bob")

	resp, err := payoutSvc.PayoutCampaign(ctx, testManager, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.PlatformPayout)
	assert.Equal(t, int64(98), resp.CampaignerPayout)
}

func TestPayoutCampaignFullFee(t *testing.T) {
	db := newTestDB(t)
	rdb := newTestRedis(t)
	cfg := newTestConfig()
	campaignSvc := NewCampaignService(db, cfg)
	pledgeSvc := NewPledgeService(db, rdb, cfg)
	payoutSvc := NewPayoutService(db, rdb, cfg)
	platformSvc := NewPlatformService(db, rdb, cfg)
	ctx := context.Background()

	// 全额抽成：发起人分文不得
	mustCreateCampaign(t, campaignSvc, "c1", "alice", model.MaxPlatformFee)
	mustCreatePledge(t, pledgeSvc, "c1", "p1", 1000, "bob")

	resp, err := payoutSvc.PayoutCampaign(ctx, testManager, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), resp.PlatformPayout)
	assert.Equal(t, int64(0), resp.CampaignerPayout)

	balance, err := platformSvc.GetPlatformFunds(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance)
}

func TestPayoutCampaignZeroFee(t *testing.T) {
	db := newTestDB(t)
	rdb := newTestRedis(t)
	cfg := newTestConfig()
	campaignSvc := NewCampaignService(db, cfg)
	pledgeSvc := NewPledgeService(db, rdb, cfg)
	payoutSvc := NewPayoutService(db, rdb, cfg)
	ctx := context.Background()

	mustCreateCampaign(t, campaignSvc, "c1", "alice", 0)
	mustCreatePledge(t, pledgeSvc, "c1", "p1", 1000, "bob")

	resp, err := payoutSvc.PayoutCampaign(ctx, testManager, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.PlatformPayout)
	assert.Equal(t, int64(1000), resp.CampaignerPayout)
}

func TestPayoutCampaignRejections(t *testing.T) {
	db := newTestDB(t)
	rdb := newTestRedis(t)
	cfg := newTestConfig()
	campaignSvc := NewCampaignService(db, cfg)
	payoutSvc := NewPayoutService(db, rdb, cfg)
	ctx := context.Background()

	_, err := payoutSvc.PayoutCampaign(ctx, "random.user", "c1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = payoutSvc.PayoutCampaign(ctx, testManager, "nope")
	assert.ErrorIs(t, err, repository.ErrCampaignNotFound)

	// 零资金的活动没有东西可结算
	mustCreateCampaign(t, campaignSvc, "c1", "alice", 500)
	_, err = payoutSvc.PayoutCampaign(ctx, testManager, "c1")
	assert.ErrorIs(t, err, ErrNothingToPayout)

	assert.Empty(t, outboxMessages(t, db))
}
