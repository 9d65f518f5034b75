package handler

import (
	"crowdfund/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// SetupRouter 配置路由
func SetupRouter(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *gin.Engine {
	// 设置 gin 为发布模式（减少日志输出）
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// 注册中间件
	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())
	r.Use(CallerIdentityMiddleware())

	// 创建处理器
	h := NewHandler(db, rdb, cfg)

	// API 路由组
	api := r.Group("/api/v1")
	{
		// 活动相关
		campaign := api.Group("/campaign")
		{
			campaign.GET("/list", h.ListCampaigns)
			campaign.GET("/detail", h.GetCampaign)
			campaign.GET("/flows", h.ListCampaignFlows)
			campaign.POST("/create", h.CreateCampaign)
			campaign.POST("/delete", h.DeleteCampaign)
			campaign.POST("/freeze", h.FreezeCampaign)
			campaign.POST("/unfreeze", h.UnfreezeCampaign)
		}

		// 认捐相关
		pledge := api.Group("/pledge")
		{
			pledge.GET("/list", h.ListPledges)
			pledge.GET("/detail", h.GetPledge)
			pledge.POST("/create", h.CreatePledge)
		}

		// 退款相关
		refund := api.Group("/refund")
		{
			refund.POST("/execute", h.RefundPledges)
		}

		// 结算相关
		payout := api.Group("/payout")
		{
			payout.POST("/execute", h.PayoutCampaign)
		}

		// 平台资金相关
		platform := api.Group("/platform")
		{
			platform.GET("/funds", h.GetPlatformFunds)
			platform.GET("/manager", h.GetManager)
			platform.POST("/deposit", h.DepositPlatformFunds)
			platform.POST("/withdraw", h.WithdrawPlatformFunds)
			platform.POST("/initialize", h.InitializePlatform)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
