package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeSuccess       = 0
	CodeParamError    = 400
	CodeUnauthorized  = 401
	CodeForbidden     = 403
	CodeNotFound      = 404
	CodeServerError   = 500
	CodeBusinessError = 1000
)

// 资金记账业务码，每种前置条件失败对应一个独立的码
const (
	CodeCampaignNotFound  = 1001
	CodePledgeNotFound    = 1002
	CodeCampaignExists    = 1003
	CodePledgeExists      = 1004
	CodeInvalidFee        = 1005
	CodeInvalidIdentity   = 1006
	CodeInvalidAmount     = 1007
	CodeValueMismatch     = 1008
	CodeCampaignFrozen    = 1009
	CodeCampaignNotEmpty  = 1010
	CodeNothingToPayout   = 1011
	CodeInsufficientFunds = 1012
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

func ParamError(c *gin.Context, message string) {
	Error(c, CodeParamError, message)
}

func ServerError(c *gin.Context, message string) {
	Error(c, CodeServerError, message)
}

func BusinessError(c *gin.Context, code int, message string) {
	Error(c, code, message)
}
