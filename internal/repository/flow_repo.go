package repository

import (
	"context"

	"crowdfund/internal/model"

	"gorm.io/gorm"
)

type FlowRepository struct {
	db *gorm.DB
}

func NewFlowRepository(db *gorm.DB) *FlowRepository {
	return &FlowRepository{db: db}
}

func (r *FlowRepository) Create(ctx context.Context, tx *gorm.DB, flow *model.FundFlow) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(flow).Error
}

func (r *FlowRepository) ListByCampaign(ctx context.Context, campaignID string, page, pageSize int) ([]*model.FundFlow, int64, error) {
	var flows []*model.FundFlow
	var total int64

	query := r.db.WithContext(ctx).Model(&model.FundFlow{}).Where("campaign_id = ?", campaignID)

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&flows).Error

	return flows, total, err
}
