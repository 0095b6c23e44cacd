package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"soccentral/internal/config"
	"soccentral/internal/parser"
)

// ConfigResponse 配置响应，只暴露引擎可调参数
type ConfigResponse struct {
	// 解析阈值
	PartialMatchThreshold   float64 `json:"partialMatchThreshold"`   // 列名部分匹配阈值
	RowCap                  int     `json:"rowCap"`                  // 单表最大行数
	SyntheticDateWindowDays int     `json:"syntheticDateWindowDays"` // 合成日期回溯窗口
	EnrichMinConfidence     float64 `json:"enrichMinConfidence"`     // 名称回填最低置信度

	// 评分权重
	AvailabilityWeight float64 `json:"availabilityWeight"`
	ComplianceWeight   float64 `json:"complianceWeight"`
	ResponseWeight     float64 `json:"responseWeight"`
	SeverityWeight     float64 `json:"severityWeight"`

	// 评分罚则
	DisconnectedPenaltyPct float64 `json:"disconnectedPenaltyPct"`
	DisconnectedPenaltyMax float64 `json:"disconnectedPenaltyMax"`
	CriticalPenaltyPct     float64 `json:"criticalPenaltyPct"`
	CriticalPenaltyMax     float64 `json:"criticalPenaltyMax"`
	PenaltyCap             float64 `json:"penaltyCap"`
}

// UpdateConfigRequest 更新配置请求
type UpdateConfigRequest struct {
	// 使用 map 允许部分更新
	Updates map[string]interface{} `json:"updates"`
}

// GetConfig 获取引擎配置
// GET /api/config
func (h *Handler) GetConfig(c *gin.Context) {
	h.mu.RLock()
	engine := h.cfg.Engine
	h.mu.RUnlock()

	c.JSON(http.StatusOK, ConfigResponse{
		PartialMatchThreshold:   engine.PartialMatchThreshold,
		RowCap:                  engine.RowCap,
		SyntheticDateWindowDays: engine.SyntheticDateWindowDays,
		EnrichMinConfidence:     engine.EnrichMinConfidence,

		AvailabilityWeight: engine.Score.AvailabilityWeight,
		ComplianceWeight:   engine.Score.ComplianceWeight,
		ResponseWeight:     engine.Score.ResponseWeight,
		SeverityWeight:     engine.Score.SeverityWeight,

		DisconnectedPenaltyPct: engine.Score.DisconnectedPenaltyPct,
		DisconnectedPenaltyMax: engine.Score.DisconnectedPenaltyMax,
		CriticalPenaltyPct:     engine.Score.CriticalPenaltyPct,
		CriticalPenaltyMax:     engine.Score.CriticalPenaltyMax,
		PenaltyCap:             engine.Score.PenaltyCap,
	})
}

// UpdateConfig 更新引擎配置，立即对后续上传生效并写回 config.toml
// PATCH /api/config
func (h *Handler) UpdateConfig(c *gin.Context) {
	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误"})
		return
	}

	h.mu.Lock()
	for key, value := range req.Updates {
		if !applyConfigUpdate(&h.cfg.Engine, key, value) {
			h.mu.Unlock()
			c.JSON(http.StatusBadRequest, gin.H{"error": "未知配置项: " + key})
			return
		}
	}
	snapshot := *h.cfg
	h.mu.Unlock()

	// 下发到协调器，对后续处理立即生效
	h.coordinator.Reconfigure(snapshot.Engine)

	if err := config.SaveConfig(&snapshot); err != nil {
		h.log.Warn("failed to persist config", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"message": "配置已生效，但写回 config.toml 失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "配置更新成功"})
}

// applyConfigUpdate 按键名更新单个引擎参数，键名未知时返回 false
func applyConfigUpdate(engine *config.EngineConfig, key string, value interface{}) bool {
	num := parser.ToFloat(value, -1)
	if num < 0 {
		return false
	}

	switch key {
	case "partialMatchThreshold":
		engine.PartialMatchThreshold = num
	case "rowCap":
		engine.RowCap = int(num)
	case "syntheticDateWindowDays":
		engine.SyntheticDateWindowDays = int(num)
	case "enrichMinConfidence":
		engine.EnrichMinConfidence = num
	case "availabilityWeight":
		engine.Score.AvailabilityWeight = num
	case "complianceWeight":
		engine.Score.ComplianceWeight = num
	case "responseWeight":
		engine.Score.ResponseWeight = num
	case "severityWeight":
		engine.Score.SeverityWeight = num
	case "disconnectedPenaltyPct":
		engine.Score.DisconnectedPenaltyPct = num
	case "disconnectedPenaltyMax":
		engine.Score.DisconnectedPenaltyMax = num
	case "criticalPenaltyPct":
		engine.Score.CriticalPenaltyPct = num
	case "criticalPenaltyMax":
		engine.Score.CriticalPenaltyMax = num
	case "penaltyCap":
		engine.Score.PenaltyCap = num
	default:
		return false
	}
	return true
}
