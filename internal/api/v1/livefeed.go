package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetLiveFeed 拉取 Wazuh 实时快照并按上传完全相同的链路出结果
// GET /api/livefeed
func (h *Handler) GetLiveFeed(c *gin.Context) {
	if h.feed == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Wazuh 数据源未启用"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	result, err := h.feed.Snapshot(ctx)
	if err != nil {
		h.log.Error("failed to fetch wazuh snapshot", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "获取 Wazuh 数据失败: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
