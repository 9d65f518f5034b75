package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"crowdfund/internal/config"
	"crowdfund/internal/infrastructure/lock"
	"crowdfund/internal/model"
	"crowdfund/internal/repository"
	"crowdfund/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type RefundService struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cfg          *config.Config
	campaignRepo *repository.CampaignRepository
	pledgeRepo   *repository.PledgeRepository
	flowRepo     *repository.FlowRepository
	outboxRepo   *repository.OutboxRepository
}

func NewRefundService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *RefundService {
	return &RefundService{
		db:           db,
		redisClient:  redisClient,
		cfg:          cfg,
		campaignRepo: repository.NewCampaignRepository(db),
		pledgeRepo:   repository.NewPledgeRepository(db),
		flowRepo:     repository.NewFlowRepository(db),
		outboxRepo:   repository.NewOutboxRepository(db),
	}
}

type RefundRequest struct {
	CampaignID string
	PledgeIDs  []string
}

type RefundResponse struct {
	CampaignID     string `json:"campaign_id"`
	RefundedCount  int    `json:"refunded_count"`
	RefundedAmount int64  `json:"refunded_amount"`
	Funds          int64  `json:"funds"` // 退款后活动余额
}

// RefundPledges 批量退款（仅管理员）
//
// 【关键点】退款流程：
// 1. 按调用方给定的顺序逐笔处理，不重排不合并
// 2. 先预检全部认捐存在，再动账——任何一笔缺失整单作废，无半截状态
// 3. 每笔都是"先下达转账指令，再删认捐、再记流水"，活动余额整单只落一次
func (s *RefundService) RefundPledges(ctx context.Context, caller string, req *RefundRequest) (*RefundResponse, error) {
	if err := requireManager(s.cfg, caller); err != nil {
		return nil, err
	}

	campaignLock := lock.NewCampaignLock(s.redisClient, req.CampaignID, idgen.GenerateTransferNo())
	if err := campaignLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer campaignLock.Unlock(ctx)

	var resp *RefundResponse

	err := s.db.Transaction(func(tx *gorm.DB) error {
		campaign, err := s.campaignRepo.GetByIDInTx(ctx, tx, req.CampaignID)
		if err != nil {
			return err
		}

		// 预检：按给定顺序读出全部认捐，第一笔缺失即中止
		pledges := make([]*model.Pledge, 0, len(req.PledgeIDs))
		for _, pledgeID := range req.PledgeIDs {
			pledge, err := s.pledgeRepo.GetInTx(ctx, tx, req.CampaignID, pledgeID)
			if err != nil {
				return err
			}
			pledges = append(pledges, pledge)
		}

		funds := campaign.Funds
		var refunded int64

		for _, pledge := range pledges {
			transferNo, err := issueTransfer(ctx, tx, s.outboxRepo, s.cfg,
				pledge.RefundAddress, pledge.Amount,
				fmt.Sprintf("退款-%s-%s", req.CampaignID, pledge.PledgeID))
			if err != nil {
				return fmt.Errorf("下达退款转账指令失败: %w", err)
			}

			if err := s.pledgeRepo.Delete(ctx, tx, req.CampaignID, pledge.PledgeID); err != nil {
				return fmt.Errorf("删除认捐失败: %w", err)
			}

			flow := &model.FundFlow{
				FlowNo:      idgen.GenerateFlowNo(),
				CampaignID:  req.CampaignID,
				PledgeID:    pledge.PledgeID,
				Amount:      -pledge.Amount,
				Type:        model.FlowTypeRefund,
				FundsBefore: funds,
				FundsAfter:  funds - pledge.Amount,
				Remark:      fmt.Sprintf("退款-%s-收款:%s", transferNo, pledge.RefundAddress),
			}
			if err := s.flowRepo.Create(ctx, tx, flow); err != nil {
				return fmt.Errorf("记录流水失败: %w", err)
			}

			funds -= pledge.Amount
			refunded += pledge.Amount
		}

		// funds == sum(认捐金额) 不变式保证余额不可能减成负数
		if funds < 0 {
			return fmt.Errorf("活动资金不变式被破坏: campaignID=%s, funds=%d", req.CampaignID, funds)
		}

		if err := s.campaignRepo.SetFunds(ctx, tx, req.CampaignID, campaign.Funds, funds); err != nil {
			return fmt.Errorf("活动资金落账失败: %w", err)
		}

		resp = &RefundResponse{
			CampaignID:     req.CampaignID,
			RefundedCount:  len(pledges),
			RefundedAmount: refunded,
			Funds:          funds,
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	log.Printf("退款成功: campaignID=%s, count=%d, amount=%d",
		resp.CampaignID, resp.RefundedCount, resp.RefundedAmount)

	return resp, nil
}
