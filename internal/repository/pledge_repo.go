package repository

import (
	"context"
	"errors"

	"crowdfund/internal/model"

	"gorm.io/gorm"
)

var (
	ErrPledgeNotFound = errors.New("认捐不存在")
)

type PledgeRepository struct {
	db *gorm.DB
}

func NewPledgeRepository(db *gorm.DB) *PledgeRepository {
	return &PledgeRepository{db: db}
}

func (r *PledgeRepository) Create(ctx context.Context, tx *gorm.DB, pledge *model.Pledge) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(pledge).Error
}

func (r *PledgeRepository) Get(ctx context.Context, campaignID, pledgeID string) (*model.Pledge, error) {
	var pledge model.Pledge
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND pledge_id = ?", campaignID, pledgeID).
		First(&pledge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPledgeNotFound
		}
		return nil, err
	}
	return &pledge, nil
}

// GetInTx 事务内读取认捐记录（退款预检用）
func (r *PledgeRepository) GetInTx(ctx context.Context, tx *gorm.DB, campaignID, pledgeID string) (*model.Pledge, error) {
	var pledge model.Pledge
	err := tx.WithContext(ctx).
		Where("campaign_id = ? AND pledge_id = ?", campaignID, pledgeID).
		First(&pledge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPledgeNotFound
		}
		return nil, err
	}
	return &pledge, nil
}

// ListIDs 返回活动下所有认捐ID
func (r *PledgeRepository) ListIDs(ctx context.Context, campaignID string) ([]string, error) {
	ids := make([]string, 0)
	err := r.db.WithContext(ctx).
		Model(&model.Pledge{}).
		Where("campaign_id = ?", campaignID).
		Order("created_at ASC").
		Pluck("pledge_id", &ids).Error
	return ids, err
}

func (r *PledgeRepository) Delete(ctx context.Context, tx *gorm.DB, campaignID, pledgeID string) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Where("campaign_id = ? AND pledge_id = ?", campaignID, pledgeID).
		Delete(&model.Pledge{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPledgeNotFound
	}
	return nil
}

// DeleteByCampaign 清空活动下全部认捐（结算时使用）
func (r *PledgeRepository) DeleteByCampaign(ctx context.Context, tx *gorm.DB, campaignID string) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Delete(&model.Pledge{}).Error
}

// SumAmount 活动下认捐金额合计（对账任务用，核验 funds 不变式）
func (r *PledgeRepository) SumAmount(ctx context.Context, campaignID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Pledge{}).
		Where("campaign_id = ?", campaignID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}
