package job

import (
	"context"
	"log"
	"time"

	"crowdfund/internal/config"
	"crowdfund/internal/repository"

	"gorm.io/gorm"
)

// ReconcileJob 对账任务
//
// 周期性核验每个活动的核心不变式：funds == sum(认捐金额)。
// 正常情况下永远成立（资金变动都在单事务里完成），一旦发现
// 偏差说明出现了缺陷或脏数据，立即告警留痕，不做自动修复——
// 动账修复必须人工确认
type ReconcileJob struct {
	db           *gorm.DB
	campaignRepo *repository.CampaignRepository
	pledgeRepo   *repository.PledgeRepository
	cfg          *config.Config
	stopCh       chan struct{}
	interval     time.Duration
}

func NewReconcileJob(db *gorm.DB, cfg *config.Config) *ReconcileJob {
	interval := time.Duration(cfg.Business.ReconcileIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	return &ReconcileJob{
		db:           db,
		campaignRepo: repository.NewCampaignRepository(db),
		pledgeRepo:   repository.NewPledgeRepository(db),
		cfg:          cfg,
		stopCh:       make(chan struct{}),
		interval:     interval,
	}
}

func (j *ReconcileJob) Start(ctx context.Context) {
	log.Println("[ReconcileJob] 对账任务启动")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[ReconcileJob] 收到停止信号，任务退出")
			return
		case <-j.stopCh:
			log.Println("[ReconcileJob] 任务停止")
			return
		case <-ticker.C:
			j.reconcileAll(ctx)
		}
	}
}

func (j *ReconcileJob) Stop() {
	close(j.stopCh)
}

// reconcileAll 核对全部活动，返回不平账的活动数
func (j *ReconcileJob) reconcileAll(ctx context.Context) int {
	campaigns, err := j.campaignRepo.ListAll(ctx)
	if err != nil {
		log.Printf("[ReconcileJob] 查询活动列表失败: %v", err)
		return 0
	}

	mismatch := 0
	for _, campaign := range campaigns {
		total, err := j.pledgeRepo.SumAmount(ctx, campaign.ID)
		if err != nil {
			log.Printf("[ReconcileJob] 合计认捐金额失败: campaignID=%s, err=%v", campaign.ID, err)
			continue
		}

		if campaign.Funds != total {
			mismatch++
			log.Printf("[ReconcileJob] 【对账异常】活动资金与认捐合计不一致: campaignID=%s, funds=%d, sum=%d",
				campaign.ID, campaign.Funds, total)
		}
	}

	if mismatch == 0 && len(campaigns) > 0 {
		log.Printf("[ReconcileJob] 对账完成，%d 个活动全部平账", len(campaigns))
	}
	return mismatch
}
