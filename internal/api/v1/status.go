package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"soccentral/internal/model"
	"soccentral/internal/store"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Initialized   bool            `json:"initialized"`   // 是否已有可展示的数据集
	UploadCounts  map[string]int  `json:"uploadCounts"`  // 按状态统计的上传数
	ActiveUploads []*model.Upload `json:"activeUploads"` // 各工具类型当前激活的数据集
	WazuhEnabled  bool            `json:"wazuhEnabled"`  // Wazuh 实时数据源是否可用
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	counts, err := h.store.CountUploads()
	if err != nil {
		counts = map[string]int{}
	}

	active := true
	actives, err := h.store.ListUploads(store.UploadQueryOptions{Active: &active, Limit: 20})
	if err != nil {
		actives = nil
	}

	c.JSON(http.StatusOK, StatusResponse{
		Initialized:   len(actives) > 0,
		UploadCounts:  counts,
		ActiveUploads: actives,
		WazuhEnabled:  h.feed != nil,
	})
}
