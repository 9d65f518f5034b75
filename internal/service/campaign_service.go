package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"crowdfund/internal/config"
	"crowdfund/internal/model"
	"crowdfund/internal/repository"

	"gorm.io/gorm"
)

type CampaignService struct {
	cfg          *config.Config
	campaignRepo *repository.CampaignRepository
	flowRepo     *repository.FlowRepository
}

func NewCampaignService(db *gorm.DB, cfg *config.Config) *CampaignService {
	return &CampaignService{
		cfg:          cfg,
		campaignRepo: repository.NewCampaignRepository(db),
		flowRepo:     repository.NewFlowRepository(db),
	}
}

// ListCampaigns 所有活动ID
func (s *CampaignService) ListCampaigns(ctx context.Context) ([]string, error) {
	return s.campaignRepo.ListIDs(ctx)
}

// GetCampaign 活动详情
func (s *CampaignService) GetCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	return s.campaignRepo.GetByID(ctx, id)
}

// ListFundFlows 活动资金流水（分页，按时间倒序）
func (s *CampaignService) ListFundFlows(ctx context.Context, id string, page, pageSize int) ([]*model.FundFlow, int64, error) {
	if _, err := s.campaignRepo.GetByID(ctx, id); err != nil {
		return nil, 0, err
	}
	return s.flowRepo.ListByCampaign(ctx, id, page, pageSize)
}

type CreateCampaignRequest struct {
	CampaignID  string
	Campaigner  string
	PlatformFee int64
}

// CreateCampaign 创建活动（仅管理员）
//
// 所有前置校验通过后才落库：费率范围 -> 重复检查 -> 发起人身份语法。
// 新活动初始为未冻结、资金为0
func (s *CampaignService) CreateCampaign(ctx context.Context, caller string, req *CreateCampaignRequest) (*model.Campaign, error) {
	if err := requireManager(s.cfg, caller); err != nil {
		return nil, err
	}

	if req.PlatformFee < 0 || req.PlatformFee > model.MaxPlatformFee {
		return nil, ErrInvalidFee
	}

	_, err := s.campaignRepo.GetByID(ctx, req.CampaignID)
	if err == nil {
		return nil, ErrCampaignExists
	}
	if !errors.Is(err, repository.ErrCampaignNotFound) {
		return nil, fmt.Errorf("查询活动失败: %w", err)
	}

	if !ValidIdentity(req.Campaigner) {
		return nil, ErrInvalidIdentity
	}

	campaign := &model.Campaign{
		ID:          req.CampaignID,
		Campaigner:  req.Campaigner,
		PlatformFee: req.PlatformFee,
		Frozen:      false,
		Funds:       0,
	}

	if err := s.campaignRepo.Create(ctx, nil, campaign); err != nil {
		return nil, fmt.Errorf("创建活动失败: %w", err)
	}

	log.Printf("活动创建成功: campaignID=%s, campaigner=%s, platformFee=%d",
		campaign.ID, campaign.Campaigner, campaign.PlatformFee)

	return campaign, nil
}

// DeleteCampaign 删除活动（仅管理员）
//
// 【关键点】只有资金清零的活动才能删。由核心不变式可知
// 资金为零时认捐账本必然为空，删除不会悬挂任何认捐记录
func (s *CampaignService) DeleteCampaign(ctx context.Context, caller, id string) error {
	if err := requireManager(s.cfg, caller); err != nil {
		return err
	}

	campaign, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if campaign.Funds != 0 {
		return ErrCampaignNotEmpty
	}

	if err := s.campaignRepo.Delete(ctx, nil, id); err != nil {
		return err
	}

	log.Printf("活动已删除: campaignID=%s", id)
	return nil
}

// FreezeCampaign 冻结活动，暂停接受新认捐（仅管理员）
func (s *CampaignService) FreezeCampaign(ctx context.Context, caller, id string) error {
	return s.setFrozen(ctx, caller, id, true)
}

// UnfreezeCampaign 解除冻结（仅管理员）
func (s *CampaignService) UnfreezeCampaign(ctx context.Context, caller, id string) error {
	return s.setFrozen(ctx, caller, id, false)
}

func (s *CampaignService) setFrozen(ctx context.Context, caller, id string, frozen bool) error {
	if err := requireManager(s.cfg, caller); err != nil {
		return err
	}

	if err := s.campaignRepo.SetFrozen(ctx, id, frozen); err != nil {
		return err
	}

	log.Printf("活动冻结状态变更: campaignID=%s, frozen=%v", id, frozen)
	return nil
}
