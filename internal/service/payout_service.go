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

type PayoutService struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cfg          *config.Config
	campaignRepo *repository.CampaignRepository
	pledgeRepo   *repository.PledgeRepository
	platformRepo *repository.PlatformRepository
	flowRepo     *repository.FlowRepository
	outboxRepo   *repository.OutboxRepository
}

func NewPayoutService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *PayoutService {
	return &PayoutService{
		db:           db,
		redisClient:  redisClient,
		cfg:          cfg,
		campaignRepo: repository.NewCampaignRepository(db),
		pledgeRepo:   repository.NewPledgeRepository(db),
		platformRepo: repository.NewPlatformRepository(db),
		flowRepo:     repository.NewFlowRepository(db),
		outboxRepo:   repository.NewOutboxRepository(db),
	}
}

type PayoutResponse struct {
	CampaignID       string `json:"campaign_id"`
	TotalFunds       int64  `json:"total_funds"`
	CampaignerPayout int64  `json:"campaigner_payout"`
	PlatformPayout   int64  `json:"platform_payout"`
	TransferNo       string `json:"transfer_no"`
}

// PayoutCampaign 活动结算（仅管理员）
//
// 结算是终结性的一次性打款：按费率抽成归集平台账户，余款打给发起人，
// 认捐账本整体清空，活动资金归零。全部变更在一个事务内生效，
// 外部不可能观测到"资金已清零但指令未下达"或相反的中间态
//
// 【分账公式】platformPayout = funds * fee / 10000（向下取整）
// campaignerPayout = funds - platformPayout
// 注意减的是抽成金额而不是费率本身，两份相加严格等于释放的资金，
// 一分钱不会凭空产生或消失
func (s *PayoutService) PayoutCampaign(ctx context.Context, caller, campaignID string) (*PayoutResponse, error) {
	if err := requireManager(s.cfg, caller); err != nil {
		return nil, err
	}

	campaignLock := lock.NewCampaignLock(s.redisClient, campaignID, idgen.GenerateTransferNo())
	if err := campaignLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer campaignLock.Unlock(ctx)

	// 平台账户行必须存在才能在事务里加账
	if _, err := s.platformRepo.GetOrCreate(ctx); err != nil {
		return nil, fmt.Errorf("初始化平台资金账户失败: %w", err)
	}

	var resp *PayoutResponse

	err := s.db.Transaction(func(tx *gorm.DB) error {
		campaign, err := s.campaignRepo.GetByIDInTx(ctx, tx, campaignID)
		if err != nil {
			return err
		}

		funds := campaign.Funds
		if funds == 0 {
			return ErrNothingToPayout
		}

		platformPayout := funds * campaign.PlatformFee / model.MaxPlatformFee
		campaignerPayout := funds - platformPayout

		transferNo, err := issueTransfer(ctx, tx, s.outboxRepo, s.cfg,
			campaign.Campaigner, campaignerPayout,
			fmt.Sprintf("结算-%s", campaignID))
		if err != nil {
			return fmt.Errorf("下达结算转账指令失败: %w", err)
		}

		if platformPayout > 0 {
			if err := s.platformRepo.Add(ctx, tx, platformPayout); err != nil {
				return fmt.Errorf("平台抽成入账失败: %w", err)
			}
		}

		if err := s.pledgeRepo.DeleteByCampaign(ctx, tx, campaignID); err != nil {
			return fmt.Errorf("清空认捐账本失败: %w", err)
		}

		if err := s.campaignRepo.SetFunds(ctx, tx, campaignID, funds, 0); err != nil {
			return fmt.Errorf("活动资金清零失败: %w", err)
		}

		payoutFlow := &model.FundFlow{
			FlowNo:      idgen.GenerateFlowNo(),
			CampaignID:  campaignID,
			Amount:      -campaignerPayout,
			Type:        model.FlowTypePayout,
			FundsBefore: funds,
			FundsAfter:  platformPayout,
			Remark:      fmt.Sprintf("结算打款-%s-收款:%s", transferNo, campaign.Campaigner),
		}
		if err := s.flowRepo.Create(ctx, tx, payoutFlow); err != nil {
			return fmt.Errorf("记录流水失败: %w", err)
		}

		if platformPayout > 0 {
			feeFlow := &model.FundFlow{
				FlowNo:      idgen.GenerateFlowNo(),
				CampaignID:  campaignID,
				Amount:      -platformPayout,
				Type:        model.FlowTypePlatformFee,
				FundsBefore: platformPayout,
				FundsAfter:  0,
				Remark:      fmt.Sprintf("结算抽成-费率%d基点", campaign.PlatformFee),
			}
			if err := s.flowRepo.Create(ctx, tx, feeFlow); err != nil {
				return fmt.Errorf("记录流水失败: %w", err)
			}
		}

		resp = &PayoutResponse{
			CampaignID:       campaignID,
			TotalFunds:       funds,
			CampaignerPayout: campaignerPayout,
			PlatformPayout:   platformPayout,
			TransferNo:       transferNo,
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	log.Printf("结算成功: campaignID=%s, total=%d, campaigner=%d, platform=%d",
		resp.CampaignID, resp.TotalFunds, resp.CampaignerPayout, resp.PlatformPayout)

	return resp, nil
}
