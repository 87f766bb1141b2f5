package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Vitalis058/school-sms-backend-sub002/internal/dto"
)

const healthTimeout = 2 * time.Second

// Pinger 可探活的依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler 健康检查
type HealthHandler struct {
	db    Pinger
	cache Pinger
}

// NewHealthHandler 创建 HealthHandler；cache 为 nil 表示未启用 Redis
func NewHealthHandler(db, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// Check 数据库不可用时返回 503；Redis 只影响锁与缓存，不可用时仍为 200
// GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	resp := dto.HealthResponse{Status: "ok", Database: "up", Redis: "disabled"}
	status := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		resp.Status, resp.Database = "degraded", "down"
		status = http.StatusServiceUnavailable
	}
	if h.cache != nil {
		resp.Redis = "up"
		if err := h.cache.Ping(ctx); err != nil {
			resp.Redis = "down"
		}
	}

	c.JSON(status, resp)
}
