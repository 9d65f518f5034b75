package handler

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// 上游支付网关完成身份认证后，把调用方身份放在这个请求头里转发过来
const callerIdentityHeader = "X-Caller-Identity"

const callerContextKey = "caller_identity"

// CallerIdentityMiddleware 提取调用方身份
//
// 身份由网关认证并签发，服务内部不再做二次认证，只做权限判定。
// 没带身份头的请求按匿名处理（只能访问查询类接口和捐入接口）
func CallerIdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(callerContextKey, c.GetHeader(callerIdentityHeader))
		c.Next()
	}
}

// callerIdentity 当前请求的调用方身份
func callerIdentity(c *gin.Context) string {
	return c.GetString(callerContextKey)
}

// LoggerMiddleware 日志中间件
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		// 处理请求
		c.Next()

		// 记录日志
		latency := time.Since(start)
		status := c.Writer.Status()

		if query != "" {
			path = path + "?" + query
		}

		log.Printf("[HTTP] %d | %13v | %15s | %-7s %s",
			status,
			latency,
			c.ClientIP(),
			c.Request.Method,
			path,
		)
	}
}

// RecoveryMiddleware 恢复中间件，防止 panic 导致服务崩溃
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[PANIC] %v", err)
				c.AbortWithStatusJSON(500, gin.H{
					"code":    500,
					"message": "服务器内部错误",
				})
			}
		}()
		c.Next()
	}
}

// CORSMiddleware 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Caller-Identity")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
