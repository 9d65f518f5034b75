package service

import (
	"context"
	"errors"
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

type PledgeService struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cfg          *config.Config
	campaignRepo *repository.CampaignRepository
	pledgeRepo   *repository.PledgeRepository
	flowRepo     *repository.FlowRepository
}

func NewPledgeService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *PledgeService {
	return &PledgeService{
		db:           db,
		redisClient:  redisClient,
		cfg:          cfg,
		campaignRepo: repository.NewCampaignRepository(db),
		pledgeRepo:   repository.NewPledgeRepository(db),
		flowRepo:     repository.NewFlowRepository(db),
	}
}

// ListPledges 活动下所有认捐ID，活动不存在时报错
func (s *PledgeService) ListPledges(ctx context.Context, campaignID string) ([]string, error) {
	if _, err := s.campaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.pledgeRepo.ListIDs(ctx, campaignID)
}

// GetPledge 认捐详情
func (s *PledgeService) GetPledge(ctx context.Context, campaignID, pledgeID string) (*model.Pledge, error) {
	if _, err := s.campaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.pledgeRepo.Get(ctx, campaignID, pledgeID)
}

type CreatePledgeRequest struct {
	CampaignID    string
	PledgeID      string
	Amount        int64
	RefundAddress string
	AttachedValue int64 // 网关实际到账金额，必须与 Amount 一致
}

// CreatePledge 认捐入账
//
// 【关键点】认捐是资金入口，必须保证：
// 1. 到账绑定：认捐金额与网关实际到账金额一致，账和钱绑死
// 2. 原子性：认捐记录写入与活动 funds 加账同事务生效
// 3. 并发安全：同一活动的资金变动通过活动级分布式锁串行化
func (s *PledgeService) CreatePledge(ctx context.Context, req *CreatePledgeRequest) (*model.Pledge, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if req.AttachedValue != req.Amount {
		return nil, ErrValueMismatch
	}
	if !ValidIdentity(req.RefundAddress) {
		return nil, ErrInvalidIdentity
	}

	// 活动级锁：同一活动的认捐/退款/结算互斥
	campaignLock := lock.NewCampaignLock(s.redisClient, req.CampaignID, req.PledgeID)
	if err := campaignLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer campaignLock.Unlock(ctx)

	campaign, err := s.campaignRepo.GetByID(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Frozen {
		return nil, ErrCampaignFrozen
	}

	_, err = s.pledgeRepo.Get(ctx, req.CampaignID, req.PledgeID)
	if err == nil {
		return nil, ErrPledgeExists
	}
	if !errors.Is(err, repository.ErrPledgeNotFound) {
		return nil, fmt.Errorf("查询认捐失败: %w", err)
	}

	pledge := &model.Pledge{
		CampaignID:    req.CampaignID,
		PledgeID:      req.PledgeID,
		Amount:        req.Amount,
		RefundAddress: req.RefundAddress,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// 事务内重读，拿到准确的变动前余额
		locked, err := s.campaignRepo.GetByIDInTx(ctx, tx, req.CampaignID)
		if err != nil {
			return err
		}
		if locked.Frozen {
			return ErrCampaignFrozen
		}

		if err := s.pledgeRepo.Create(ctx, tx, pledge); err != nil {
			return fmt.Errorf("写入认捐失败: %w", err)
		}

		if err := s.campaignRepo.AddFunds(ctx, tx, req.CampaignID, req.Amount); err != nil {
			return fmt.Errorf("活动资金加账失败: %w", err)
		}

		flow := &model.FundFlow{
			FlowNo:      idgen.GenerateFlowNo(),
			CampaignID:  req.CampaignID,
			PledgeID:    req.PledgeID,
			Amount:      req.Amount,
			Type:        model.FlowTypePledge,
			FundsBefore: locked.Funds,
			FundsAfter:  locked.Funds + req.Amount,
			Remark:      fmt.Sprintf("认捐入账-退款地址:%s", req.RefundAddress),
		}
		if err := s.flowRepo.Create(ctx, tx, flow); err != nil {
			return fmt.Errorf("记录流水失败: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	log.Printf("认捐成功: campaignID=%s, pledgeID=%s, amount=%d",
		req.CampaignID, req.PledgeID, req.Amount)

	return pledge, nil
}
