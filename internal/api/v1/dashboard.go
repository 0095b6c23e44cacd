package v1

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetDashboard 获取当前激活数据集的处理结果
// GET /api/dashboard?toolType=edr
//
// 不带 toolType 时返回最近激活的任意数据集。
func (h *Handler) GetDashboard(c *gin.Context) {
	toolType := c.Query("toolType")

	uploadID, payload, err := h.store.ActiveResult(toolType)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "还没有激活的数据集，请先上传文件"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询数据集失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"uploadId": uploadID,
		"result":   json.RawMessage(payload),
	})
}

// GetUploadResult 获取指定上传的处理结果
// GET /api/uploads/:id
func (h *Handler) GetUploadResult(c *gin.Context) {
	id := c.Param("id")

	upload, err := h.store.GetUpload(id)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "上传记录不存在"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询上传记录失败"})
		return
	}

	payload, err := h.store.GetResult(id)
	if errors.Is(err, sql.ErrNoRows) {
		// 处理失败的上传没有结果体，只有状态
		c.JSON(http.StatusOK, gin.H{"upload": upload})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询处理结果失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"upload": upload,
		"result": json.RawMessage(payload),
	})
}
