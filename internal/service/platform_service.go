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

type PlatformService struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cfg          *config.Config
	platformRepo *repository.PlatformRepository
	flowRepo     *repository.FlowRepository
	outboxRepo   *repository.OutboxRepository
}

func NewPlatformService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *PlatformService {
	return &PlatformService{
		db:           db,
		redisClient:  redisClient,
		cfg:          cfg,
		platformRepo: repository.NewPlatformRepository(db),
		flowRepo:     repository.NewFlowRepository(db),
		outboxRepo:   repository.NewOutboxRepository(db),
	}
}

// Initialize 幂等初始化平台资金账户
//
// 服务启动时调用；重复调用不会覆盖已有余额
func (s *PlatformService) Initialize(ctx context.Context) error {
	_, err := s.platformRepo.GetOrCreate(ctx)
	return err
}

// GetPlatformFunds 平台账户余额
func (s *PlatformService) GetPlatformFunds(ctx context.Context) (int64, error) {
	account, err := s.platformRepo.GetOrCreate(ctx)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// Manager 平台管理员身份标识
func (s *PlatformService) Manager() string {
	return s.cfg.Business.Manager
}

// Deposit 平台账户捐入，任何调用方都允许
func (s *PlatformService) Deposit(ctx context.Context, caller string, attachedValue int64) (int64, error) {
	if attachedValue <= 0 {
		return 0, ErrInvalidAmount
	}

	account, err := s.platformRepo.GetOrCreate(ctx)
	if err != nil {
		return 0, err
	}

	var balance int64
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.platformRepo.Add(ctx, tx, attachedValue); err != nil {
			return fmt.Errorf("平台资金加账失败: %w", err)
		}

		flow := &model.FundFlow{
			FlowNo:      idgen.GenerateFlowNo(),
			Amount:      attachedValue,
			Type:        model.FlowTypePlatformDeposit,
			FundsBefore: account.Balance,
			FundsAfter:  account.Balance + attachedValue,
			Remark:      fmt.Sprintf("捐入-来自:%s", caller),
		}
		if err := s.flowRepo.Create(ctx, tx, flow); err != nil {
			return fmt.Errorf("记录流水失败: %w", err)
		}

		balance = account.Balance + attachedValue
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Printf("平台资金捐入: caller=%s, amount=%d", caller, attachedValue)
	return balance, nil
}

type WithdrawResponse struct {
	Amount     int64  `json:"amount"`
	Balance    int64  `json:"balance"` // 提取后余额
	To         string `json:"to"`
	TransferNo string `json:"transfer_no"`
}

// Withdraw 平台资金提取（仅管理员），打款到固定的平台提款地址
func (s *PlatformService) Withdraw(ctx context.Context, caller string, amount int64) (*WithdrawResponse, error) {
	if err := requireManager(s.cfg, caller); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	platformLock := lock.NewPlatformLock(s.redisClient, idgen.GenerateTransferNo())
	if err := platformLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer platformLock.Unlock(ctx)

	if _, err := s.platformRepo.GetOrCreate(ctx); err != nil {
		return nil, err
	}

	var resp *WithdrawResponse

	err := s.db.Transaction(func(tx *gorm.DB) error {
		account, err := s.platformRepo.GetInTx(ctx, tx)
		if err != nil {
			return err
		}

		if amount > account.Balance {
			return ErrInsufficientFunds
		}

		transferNo, err := issueTransfer(ctx, tx, s.outboxRepo, s.cfg,
			s.cfg.Business.PlatformAddress, amount, "平台资金提取")
		if err != nil {
			return fmt.Errorf("下达提款转账指令失败: %w", err)
		}

		if err := s.platformRepo.Deduct(ctx, tx, amount); err != nil {
			if errors.Is(err, repository.ErrPlatformBalanceNotEnough) {
				return ErrInsufficientFunds
			}
			return fmt.Errorf("平台资金扣账失败: %w", err)
		}

		flow := &model.FundFlow{
			FlowNo:      idgen.GenerateFlowNo(),
			Amount:      -amount,
			Type:        model.FlowTypePlatformWithdraw,
			FundsBefore: account.Balance,
			FundsAfter:  account.Balance - amount,
			Remark:      fmt.Sprintf("提取-%s-收款:%s", transferNo, s.cfg.Business.PlatformAddress),
		}
		if err := s.flowRepo.Create(ctx, tx, flow); err != nil {
			return fmt.Errorf("记录流水失败: %w", err)
		}

		resp = &WithdrawResponse{
			Amount:     amount,
			Balance:    account.Balance - amount,
			To:         s.cfg.Business.PlatformAddress,
			TransferNo: transferNo,
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	log.Printf("平台资金提取成功: amount=%d, to=%s", amount, s.cfg.Business.PlatformAddress)
	return resp, nil
}
