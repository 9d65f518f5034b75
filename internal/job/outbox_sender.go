package job

import (
	"context"
	"log"
	"time"

	"crowdfund/internal/config"
	"crowdfund/internal/infrastructure/mq"
	"crowdfund/internal/model"
	"crowdfund/internal/repository"

	"gorm.io/gorm"
)

// OutboxSender 转账指令投递任务
//
// 轮询 outbox 里的 PENDING 指令并投递到 Kafka。指令在业务事务里
// 已经落库，这里只负责把它送出去：投递成功标记 SENT，失败累计
// 重试次数，超过上限标记 FAILED 留待人工介入。
// 投递至少一次，下游清算按转账单号去重
type OutboxSender struct {
	db         *gorm.DB
	outboxRepo *repository.OutboxRepository
	cfg        *config.Config
	stopCh     chan struct{}
	interval   time.Duration
	batchSize  int
}

func NewOutboxSender(db *gorm.DB, cfg *config.Config) *OutboxSender {
	return &OutboxSender{
		db:         db,
		outboxRepo: repository.NewOutboxRepository(db),
		cfg:        cfg,
		stopCh:     make(chan struct{}),
		interval:   100 * time.Millisecond,
		batchSize:  100,
	}
}

func (s *OutboxSender) Start(ctx context.Context) {
	log.Println("[OutboxSender] 转账指令投递任务启动")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[OutboxSender] 收到停止信号，任务退出")
			return
		case <-s.stopCh:
			log.Println("[OutboxSender] 任务停止")
			return
		case <-ticker.C:
			s.processPendingMessages(ctx)
		}
	}
}

func (s *OutboxSender) Stop() {
	close(s.stopCh)
}

func (s *OutboxSender) processPendingMessages(ctx context.Context) {
	messages, err := s.outboxRepo.GetPendingMessages(ctx, s.batchSize)
	if err != nil {
		log.Printf("[OutboxSender] 查询待投递指令失败: %v", err)
		return
	}

	if len(messages) == 0 {
		return
	}

	for _, msg := range messages {
		s.sendMessage(ctx, msg)
	}
}

func (s *OutboxSender) sendMessage(ctx context.Context, msg *model.OutboxMessage) {
	err := mq.SendMessage(msg.Topic, msg.MessageKey, msg.Payload)

	if err == nil {
		if updateErr := s.outboxRepo.MarkAsSent(ctx, msg.ID); updateErr != nil {
			log.Printf("[OutboxSender] 更新指令状态失败: id=%d, err=%v", msg.ID, updateErr)
		} else {
			log.Printf("[OutboxSender] 指令投递成功: id=%d, topic=%s, key=%s", msg.ID, msg.Topic, msg.MessageKey)
		}
		return
	}

	log.Printf("[OutboxSender] 指令投递失败: id=%d, err=%v", msg.ID, err)

	if msg.RetryCount+1 >= s.cfg.Business.MaxRetryCount {
		if markErr := s.outboxRepo.MarkAsFailed(ctx, msg.ID); markErr != nil {
			log.Printf("[OutboxSender] 标记指令失败状态出错: id=%d, err=%v", msg.ID, markErr)
		} else {
			log.Printf("[OutboxSender] 指令重试超限，标记为 FAILED: id=%d, retry=%d", msg.ID, msg.RetryCount+1)
		}
		return
	}

	if incrErr := s.outboxRepo.IncrementRetryCount(ctx, msg.ID); incrErr != nil {
		log.Printf("[OutboxSender] 累计重试次数失败: id=%d, err=%v", msg.ID, incrErr)
	}
}
