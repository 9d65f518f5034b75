package service

import (
	"context"
	"encoding/json"
	"time"

	"crowdfund/internal/config"
	"crowdfund/internal/model"
	"crowdfund/internal/repository"
	"crowdfund/pkg/idgen"

	"gorm.io/gorm"
)

// ============================================================================
// 转账指令
// ============================================================================
//
// 记账核心不直接搬动价值，价值转移统一表达为一条转账指令：
// 指令在调用方的数据库事务里写入 outbox，后台任务投递到 Kafka，
// 下游清算服务消费执行。指令一经写入即视为"已下达"，
// 账务扣减必须发生在指令写入之后（同一事务保证两者同生共死）

// issueTransfer 在事务 tx 内下达一条转账指令，返回转账单号
func issueTransfer(ctx context.Context, tx *gorm.DB, outboxRepo *repository.OutboxRepository, cfg *config.Config, to string, amount int64, reason string) (string, error) {
	transferNo := idgen.GenerateTransferNo()

	payload := map[string]interface{}{
		"transfer_no": transferNo,
		"to":          to,
		"amount":      amount,
		"reason":      reason,
		"issued_at":   time.Now().Format(time.RFC3339),
	}
	payloadBytes, _ := json.Marshal(payload)

	msg := &model.OutboxMessage{
		MessageKey: transferNo,
		Topic:      cfg.Kafka.Topic.TransferRequest,
		Payload:    string(payloadBytes),
		Status:     model.OutboxStatusPending,
	}
	if err := outboxRepo.Create(ctx, tx, msg); err != nil {
		return "", err
	}

	return transferNo, nil
}
