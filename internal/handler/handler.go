package handler

import (
	"errors"
	"strconv"

	"crowdfund/internal/config"
	"crowdfund/internal/repository"
	"crowdfund/internal/service"
	"crowdfund/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	campaignService *service.CampaignService
	pledgeService   *service.PledgeService
	refundService   *service.RefundService
	payoutService   *service.PayoutService
	platformService *service.PlatformService
}

// NewHandler 创建处理器实例
func NewHandler(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *Handler {
	return &Handler{
		campaignService: service.NewCampaignService(db, cfg),
		pledgeService:   service.NewPledgeService(db, rdb, cfg),
		refundService:   service.NewRefundService(db, rdb, cfg),
		payoutService:   service.NewPayoutService(db, rdb, cfg),
		platformService: service.NewPlatformService(db, rdb, cfg),
	}
}

// writeServiceError 业务错误统一映射为响应码
//
// 每种被拒绝的前置条件都有独立的码，调用方可以据此区分
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		response.Error(c, response.CodeUnauthorized, err.Error())
	case errors.Is(err, repository.ErrCampaignNotFound):
		response.BusinessError(c, response.CodeCampaignNotFound, err.Error())
	case errors.Is(err, repository.ErrPledgeNotFound):
		response.BusinessError(c, response.CodePledgeNotFound, err.Error())
	case errors.Is(err, service.ErrCampaignExists):
		response.BusinessError(c, response.CodeCampaignExists, err.Error())
	case errors.Is(err, service.ErrPledgeExists):
		response.BusinessError(c, response.CodePledgeExists, err.Error())
	case errors.Is(err, service.ErrInvalidFee):
		response.BusinessError(c, response.CodeInvalidFee, err.Error())
	case errors.Is(err, service.ErrInvalidIdentity):
		response.BusinessError(c, response.CodeInvalidIdentity, err.Error())
	case errors.Is(err, service.ErrInvalidAmount):
		response.BusinessError(c, response.CodeInvalidAmount, err.Error())
	case errors.Is(err, service.ErrValueMismatch):
		response.BusinessError(c, response.CodeValueMismatch, err.Error())
	case errors.Is(err, service.ErrCampaignFrozen):
		response.BusinessError(c, response.CodeCampaignFrozen, err.Error())
	case errors.Is(err, service.ErrCampaignNotEmpty):
		response.BusinessError(c, response.CodeCampaignNotEmpty, err.Error())
	case errors.Is(err, service.ErrNothingToPayout):
		response.BusinessError(c, response.CodeNothingToPayout, err.Error())
	case errors.Is(err, service.ErrInsufficientFunds):
		response.BusinessError(c, response.CodeInsufficientFunds, err.Error())
	default:
		response.ServerError(c, err.Error())
	}
}

// ============================================================
// 活动相关接口
// ============================================================

// ListCampaigns 查询所有活动ID
// GET /api/v1/campaign/list
func (h *Handler) ListCampaigns(c *gin.Context) {
	ids, err := h.campaignService.ListCampaigns(c.Request.Context())
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"campaigns": ids,
		"total":     len(ids),
	})
}

// GetCampaign 查询活动详情
// GET /api/v1/campaign/detail?campaign_id=xxx
func (h *Handler) GetCampaign(c *gin.Context) {
	campaignID := c.Query("campaign_id")
	if campaignID == "" {
		response.ParamError(c, "campaign_id 参数不能为空")
		return
	}

	campaign, err := h.campaignService.GetCampaign(c.Request.Context(), campaignID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, campaign)
}

// CreateCampaignRequest 创建活动请求
type CreateCampaignRequest struct {
	CampaignID  string `json:"campaign_id" binding:"required"`
	Campaigner  string `json:"campaigner" binding:"required"`  // 发起人身份标识，结算收款方
	PlatformFee int64  `json:"platform_fee" binding:"gte=0"`   // 平台费率（基点）
}

// CreateCampaign 创建活动（仅管理员）
// POST /api/v1/campaign/create
func (h *Handler) CreateCampaign(c *gin.Context) {
	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	campaign, err := h.campaignService.CreateCampaign(c.Request.Context(), callerIdentity(c), &service.CreateCampaignRequest{
		CampaignID:  req.CampaignID,
		Campaigner:  req.Campaigner,
		PlatformFee: req.PlatformFee,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, campaign)
}

// DeleteCampaign 删除活动（仅管理员，资金必须已清零）
// POST /api/v1/campaign/delete
func (h *Handler) DeleteCampaign(c *gin.Context) {
	var req struct {
		CampaignID string `json:"campaign_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	if err := h.campaignService.DeleteCampaign(c.Request.Context(), callerIdentity(c), req.CampaignID); err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, gin.H{
		"message": "活动已删除",
	})
}

// FreezeCampaign 冻结活动（仅管理员）
// POST /api/v1/campaign/freeze
func (h *Handler) FreezeCampaign(c *gin.Context) {
	h.setFrozen(c, true)
}

// UnfreezeCampaign 解除冻结（仅管理员）
// POST /api/v1/campaign/unfreeze
func (h *Handler) UnfreezeCampaign(c *gin.Context) {
	h.setFrozen(c, false)
}

func (h *Handler) setFrozen(c *gin.Context, frozen bool) {
	var req struct {
		CampaignID string `json:"campaign_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	var err error
	if frozen {
		err = h.campaignService.FreezeCampaign(c.Request.Context(), callerIdentity(c), req.CampaignID)
	} else {
		err = h.campaignService.UnfreezeCampaign(c.Request.Context(), callerIdentity(c), req.CampaignID)
	}
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, gin.H{
		"campaign_id": req.CampaignID,
		"frozen":      frozen,
	})
}

// ListCampaignFlows 查询活动资金流水（分页）
// GET /api/v1/campaign/flows?campaign_id=xxx&page=1&page_size=20
func (h *Handler) ListCampaignFlows(c *gin.Context) {
	campaignID := c.Query("campaign_id")
	if campaignID == "" {
		response.ParamError(c, "campaign_id 参数不能为空")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	flows, total, err := h.campaignService.ListFundFlows(c.Request.Context(), campaignID, page, pageSize)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, gin.H{
		"campaign_id": campaignID,
		"flows":       flows,
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
	})
}

// ============================================================
// 认捐相关接口
// ============================================================

// ListPledges 查询活动下全部认捐ID
// GET /api/v1/pledge/list?campaign_id=xxx
func (h *Handler) ListPledges(c *gin.Context) {
	campaignID := c.Query("campaign_id")
	if campaignID == "" {
		response.ParamError(c, "campaign_id 参数不能为空")
		return
	}

	ids, err := h.pledgeService.ListPledges(c.Request.Context(), campaignID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, gin.H{
		"campaign_id": campaignID,
		"pledges":     ids,
		"total":       len(ids),
	})
}

// GetPledge 查询认捐详情
// GET /api/v1/pledge/detail?campaign_id=xxx&pledge_id=xxx
func (h *Handler) GetPledge(c *gin.Context) {
	campaignID := c.Query("campaign_id")
	pledgeID := c.Query("pledge_id")
	if campaignID == "" || pledgeID == "" {
		response.ParamError(c, "campaign_id 和 pledge_id 参数不能为空")
		return
	}

	pledge, err := h.pledgeService.GetPledge(c.Request.Context(), campaignID, pledgeID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, pledge)
}

// CreatePledgeRequest 认捐请求
//
// attached_value 是支付网关认证过的实际到账金额，
// 必须与 amount 一致才会入账，把钱和账原子地绑在一起
type CreatePledgeRequest struct {
	CampaignID    string `json:"campaign_id" binding:"required"`
	PledgeID      string `json:"pledge_id" binding:"required"` // 认捐ID，调用方指定，活动内唯一
	Amount        int64  `json:"amount" binding:"required"`
	RefundAddress string `json:"refund_address" binding:"required"` // 退款收款方
	AttachedValue int64  `json:"attached_value" binding:"required"`
}

// CreatePledge 认捐
// POST /api/v1/pledge/create
func (h *Handler) CreatePledge(c *gin.Context) {
	var req CreatePledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	pledge, err := h.pledgeService.CreatePledge(c.Request.Context(), &service.CreatePledgeRequest{
		CampaignID:    req.CampaignID,
		PledgeID:      req.PledgeID,
		Amount:        req.Amount,
		RefundAddress: req.RefundAddress,
		AttachedValue: req.AttachedValue,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, pledge)
}

// ============================================================
// 退款与结算接口
// ============================================================

// RefundPledgesRequest 批量退款请求
type RefundPledgesRequest struct {
	CampaignID string   `json:"campaign_id" binding:"required"`
	PledgeIDs  []string `json:"pledge_ids" binding:"required,min=1"` // 按此顺序逐笔退款
}

// RefundPledges 批量退款（仅管理员）
// POST /api/v1/refund/execute
func (h *Handler) RefundPledges(c *gin.Context) {
	var req RefundPledgesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.refundService.RefundPledges(c.Request.Context(), callerIdentity(c), &service.RefundRequest{
		CampaignID: req.CampaignID,
		PledgeIDs:  req.PledgeIDs,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, result)
}

// PayoutCampaign 活动结算（仅管理员）
// POST /api/v1/payout/execute
//
// 【关键点】结算是终结性操作：按费率抽成归集平台账户，
// 余款打给发起人，认捐账本清空，活动资金归零，全程一个事务
func (h *Handler) PayoutCampaign(c *gin.Context) {
	var req struct {
		CampaignID string `json:"campaign_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.payoutService.PayoutCampaign(c.Request.Context(), callerIdentity(c), req.CampaignID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, result)
}

// ============================================================
// 平台资金接口
// ============================================================

// GetPlatformFunds 查询平台资金余额
// GET /api/v1/platform/funds
func (h *Handler) GetPlatformFunds(c *gin.Context) {
	balance, err := h.platformService.GetPlatformFunds(c.Request.Context())
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"balance": balance,
	})
}

// GetManager 查询平台管理员身份
// GET /api/v1/platform/manager
func (h *Handler) GetManager(c *gin.Context) {
	response.Success(c, gin.H{
		"manager": h.platformService.Manager(),
	})
}

// DepositRequest 平台资金捐入请求（任何调用方都允许）
type DepositRequest struct {
	AttachedValue int64 `json:"attached_value" binding:"required,gt=0"`
}

// DepositPlatformFunds 平台资金捐入
// POST /api/v1/platform/deposit
func (h *Handler) DepositPlatformFunds(c *gin.Context) {
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	balance, err := h.platformService.Deposit(c.Request.Context(), callerIdentity(c), req.AttachedValue)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, gin.H{
		"balance": balance,
	})
}

// WithdrawRequest 平台资金提取请求
type WithdrawRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// WithdrawPlatformFunds 平台资金提取（仅管理员）
// POST /api/v1/platform/withdraw
func (h *Handler) WithdrawPlatformFunds(c *gin.Context) {
	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.platformService.Withdraw(c.Request.Context(), callerIdentity(c), req.Amount)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, result)
}

// InitializePlatform 幂等初始化平台资金账户
// POST /api/v1/platform/initialize
func (h *Handler) InitializePlatform(c *gin.Context) {
	if err := h.platformService.Initialize(c.Request.Context()); err != nil {
		response.ServerError(c, err.Error())
		return
	}

	balance, err := h.platformService.GetPlatformFunds(c.Request.Context())
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"balance": balance,
	})
}
