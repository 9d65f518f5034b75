package repository

import (
	"context"
	"errors"

	"crowdfund/internal/model"

	"gorm.io/gorm"
)

var (
	ErrCampaignNotFound = errors.New("活动不存在")
	ErrFundsConflict    = errors.New("活动资金并发更新冲突")
)

type CampaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

func (r *CampaignRepository) Create(ctx context.Context, tx *gorm.DB, campaign *model.Campaign) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(campaign).Error
}

func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	var campaign model.Campaign
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}
	return &campaign, nil
}

// GetByIDInTx 事务内读取活动
//
// 并发控制靠活动级分布式锁 + SetFunds 的条件更新兜底，
// 不依赖数据库行锁
func (r *CampaignRepository) GetByIDInTx(ctx context.Context, tx *gorm.DB, id string) (*model.Campaign, error) {
	var campaign model.Campaign
	err := tx.WithContext(ctx).
		Where("id = ?", id).
		First(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}
	return &campaign, nil
}

// ListIDs 返回所有活动ID
func (r *CampaignRepository) ListIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0)
	err := r.db.WithContext(ctx).
		Model(&model.Campaign{}).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *CampaignRepository) ListAll(ctx context.Context) ([]*model.Campaign, error) {
	var campaigns []*model.Campaign
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&campaigns).Error
	return campaigns, err
}

func (r *CampaignRepository) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).Where("id = ?", id).Delete(&model.Campaign{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCampaignNotFound
	}
	return nil
}

// SetFrozen 设置/解除冻结标记
func (r *CampaignRepository) SetFrozen(ctx context.Context, id string, frozen bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.Campaign{}).
		Where("id = ?", id).
		Update("frozen", frozen)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCampaignNotFound
	}
	return nil
}

// AddFunds 活动资金加账（认捐入账时使用）
func (r *CampaignRepository) AddFunds(ctx context.Context, tx *gorm.DB, id string, amount int64) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.Campaign{}).
		Where("id = ?", id).
		UpdateColumn("funds", gorm.Expr("funds + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCampaignNotFound
	}
	return nil
}

// SetFunds 活动资金整体落账（退款、结算后一次性写入新余额）
//
// 带上旧值做条件更新：行在锁内被读出后不应再被并发修改，
// 一旦 RowsAffected 为 0 说明不变式已被破坏，直接报冲突
func (r *CampaignRepository) SetFunds(ctx context.Context, tx *gorm.DB, id string, oldFunds, newFunds int64) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.Campaign{}).
		Where("id = ? AND funds = ?", id, oldFunds).
		UpdateColumn("funds", newFunds)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrFundsConflict
	}
	return nil
}
