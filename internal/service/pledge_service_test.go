package service

import (
	"context"
	"testing"

	"crowdfund/internal/model"
	"crowdfund/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePledge(t *testing.T) {
	db := newTestDB(t)
	rdb := newTestRedis(t)
	cfg := newTestConfig()
	campaignSvc := NewCampaignService(db, cfg)
	pledgeSvc := NewPledgeService(db, rdb, cfg)
	ctx := context.Background()

	mustCreateCampaign(t, campaignSvc, "c1", "alice", 500)

	pledge := mustCreatePledge(t, pledgeSvc, "c1", "p1", 1000, "bob")
	assert.Equal(t, "c1", pledge.CampaignID)
	assert.Equal(t, "p1", pledge.PledgeID)
	assert.Equal(t, int64(1000), pledge.Amount)
	assert.Equal(t, "bob", pledge.RefundAddress)

	got, err := pledgeSvc.GetPledge(ctx, "c1", "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got.Amount)

	campaign, err := campaignSvc.GetCampaign(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), campaign.Funds)

	// 第二笔认捐在原有资金上累加
	mustCreatePledge(t, pledgeSvc, "c1", "p2", 250, "carol")
	campaign, err = campaignSvc.GetCampaign(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(1250), campaign.Funds)

	requireInvariant(t, db, "c1")

	ids, err := pledgeSvc.ListPledges(ctx, "c1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p1", "p2"}, ids)
}

func TestCreatePledgeRejections(t *testing.T) {
	db := newTestDB(t)
	rdb := newTestRedis(t)
	cfg := newTestConfig()
	campaignSvc := NewCampaignService(db, cfg)
	pledgeSvc := NewPledgeService(db, rdb, cfg)
	ctx := context.Background()

	mustCreateCampaign(t, campaignSvc, "c1", "alice", 500)

	_, err := pledgeSvc.CreatePledge(ctx, &CreatePledgeRequest{
		CampaignID: "c1", PledgeID: "p1", Amount: 0, RefundAddress: "bob", AttachedValue: 0,
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	// 到账金额与认捐金额不一致
	_, err = pledgeSvc.CreatePledge(ctx, &CreatePledgeRequest{
		CampaignID: "c1", PledgeID: "p1", Amount: 1000, RefundAddress: "bob", AttachedValue: 999,
	})
	assert.ErrorIs(t, err, ErrValueMismatch)

	_, err = pledgeSvc.CreatePledge(ctx, &CreatePledgeRequest{
		CampaignID: "c1", PledgeID: "p1", Amount: 1000, RefundAddress: "BAD ADDR", AttachedValue: 1000,
	})
	assert.ErrorIs(t, err, ErrInvalidIdentity)

	_, err = pledgeSvc.CreatePledge(ctx, &CreatePledgeRequest{
		CampaignID: "nope", PledgeID: "p1", Amount: 1000, RefundAddress: "bob", AttachedValue: 1000,
	})
	assert.ErrorIs(t, err, repository.ErrCampaignNotFound)

	mustCreatePledge(t, pledgeSvc, "c1", "p1", 1000, "bob")
	_, err = pledgeSvc.CreatePledge(ctx, &CreatePledgeRequest{
		CampaignID: "c1", PledgeID: "p1", Amount: 500, RefundAddress: "bob", AttachedValue: 500,
	})
	assert.ErrorIs(t, err, ErrPledgeExists)

	// 拒绝入账不能弄脏账本
	campaign, err := campaignSvc.GetCampaign(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), campaign.Funds)
	requireInvariant(t, db, "c1")
}

func TestCreatePledgeFrozenCampaign(t *testing.T) {
	db := newTestDB(t)
	rdb := newTestRedis(t)
	cfg := newTestConfig()
	campaignSvc := NewCampaignService(db, cfg)
	pledgeSvc := NewPledgeService(db, rdb, cfg)
	ctx := context.Background()

	mustCreateCampaign(t, campaignSvc, "c1", "alice", 500)
	require.NoError(t, campaignSvc.FreezeCampaign(ctx, testManager, "c1"))

	_, err := pledgeSvc.CreatePledge(ctx, &CreatePledgeRequest{
		CampaignID: "c1", PledgeID: "p1", Amount: 1000, RefundAddress: "bob", AttachedValue: 1000,
	})
	assert.ErrorIs(t, err, ErrCampaignFrozen)

	// 解封后恢复受理
	require.NoError(t, campaignSvc.UnfreezeCampaign(ctx, testManager, "c1"))
	mustCreatePledge(t, pledgeSvc, "c1", "p1", 1000, "bob")
	requireInvariant(t, db, "c1")
}

func TestPledgeFundFlow(t *testing.T) {
	db := newTestDB(t)
	rdb := newTestRedis(t)
	cfg := newTestConfig()
	campaignSvc := NewCampaignService(db, cfg)
	pledgeSvc := NewPledgeService(db, rdb, cfg)

	mustCreateCampaign(t, campaignSvc, "c1", "alice", 500)
	mustCreatePledge(t, pledgeSvc, "c1", "p1", 1000, "bob")

	var flows []*model.FundFlow
	require.NoError(t, db.Where("campaign_id = ?", "c1").Find(&flows).Error)
	require.Len(t, flows, 1)
	assert.Equal(t, model.FlowTypePledge, flows[0].Type)
	assert.Equal(t, int64(1000), flows[0].Amount)
	assert.Equal(t, int64(0), flows[0].FundsBefore)
	assert.Equal(t, int64(1000), flows[0].FundsAfter)
}

func TestGetPledgeNotFound(t *testing.T) {
	db := newTestDB(t)
	rdb := newTestRedis(t)
	cfg := newTestConfig()
	campaignSvc := NewCampaignService(db, cfg)
	pledgeSvc := NewPledgeService(db, rdb, cfg)
	ctx := context.Background()

	_, err := pledgeSvc.GetPledge(ctx, "nope", "p1")
	assert.ErrorIs(t, err, repository.ErrCampaignNotFound)

	mustCreateCampaign(t, campaignSvc, "c1", "alice", 500)
	_, err = pledgeSvc.GetPledge(ctx, "c1", "p1")
	assert.ErrorIs(t, err, repository.ErrPledgeNotFound)

	_, err = pledgeSvc.ListPledges(ctx, "nope")
	assert.ErrorIs(t, err, repository.ErrCampaignNotFound)
}
