package repository

import (
	"context"
	"errors"

	"crowdfund/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrPlatformAccountNotFound  = errors.New("平台资金账户不存在")
	ErrPlatformBalanceNotEnough = errors.New("平台资金余额不足")
)

type PlatformRepository struct {
	db *gorm.DB
}

func NewPlatformRepository(db *gorm.DB) *PlatformRepository {
	return &PlatformRepository{db: db}
}

// GetOrCreate 幂等初始化平台资金账户
//
// 【关键点】用 OnConflict DoNothing 保证重复初始化不会覆盖已有余额：
// 行已存在时插入是空操作，随后读出的是原有余额
func (r *PlatformRepository) GetOrCreate(ctx context.Context) (*model.PlatformAccount, error) {
	account, err := r.get(ctx)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, ErrPlatformAccountNotFound) {
		return nil, err
	}

	newAccount := &model.PlatformAccount{
		ID:      model.PlatformAccountID,
		Balance: 0,
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(newAccount).Error
	if err != nil {
		return nil, err
	}

	return r.get(ctx)
}

func (r *PlatformRepository) get(ctx context.Context) (*model.PlatformAccount, error) {
	var account model.PlatformAccount
	err := r.db.WithContext(ctx).Where("id = ?", model.PlatformAccountID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlatformAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// GetInTx 事务内读取平台账户
//
// 并发控制靠平台账户锁 + Deduct 的余额条件更新兜底
func (r *PlatformRepository) GetInTx(ctx context.Context, tx *gorm.DB) (*model.PlatformAccount, error) {
	var account model.PlatformAccount
	err := tx.WithContext(ctx).
		Where("id = ?", model.PlatformAccountID).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlatformAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// Add 平台账户加账（结算抽成、外部捐入）
func (r *PlatformRepository) Add(ctx context.Context, tx *gorm.DB, amount int64) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.PlatformAccount{}).
		Where("id = ?", model.PlatformAccountID).
		UpdateColumn("balance", gorm.Expr("balance + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPlatformAccountNotFound
	}
	return nil
}

// Deduct 平台账户扣账（管理员提取）
//
// 条件更新里带上余额校验，余额不足时一行都不会改
func (r *PlatformRepository) Deduct(ctx context.Context, tx *gorm.DB, amount int64) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.PlatformAccount{}).
		Where("id = ? AND balance >= ?", model.PlatformAccountID, amount).
		UpdateColumn("balance", gorm.Expr("balance - ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		account, err := r.get(ctx)
		if err != nil {
			return err
		}
		if account.Balance < amount {
			return ErrPlatformBalanceNotEnough
		}
		return ErrPlatformAccountNotFound
	}
	return nil
}
