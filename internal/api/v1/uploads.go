package v1

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"soccentral/internal/model"
	"soccentral/internal/store"
)

// ListUploads 查询上传历史
// GET /api/uploads?toolType=edr&status=done&active=true&limit=20&offset=0
func (h *Handler) ListUploads(c *gin.Context) {
	opts := store.UploadQueryOptions{}

	if v := c.Query("toolType"); v != "" {
		opts.ToolType = &v
	}
	if v := c.Query("status"); v != "" {
		opts.Status = &v
	}
	if v := c.Query("active"); v != "" {
		active := v == "true" || v == "1"
		opts.Active = &active
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.Limit = n
		}
	}
	if opts.Limit == 0 {
		opts.Limit = 50
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			opts.Offset = n
		}
	}

	uploads, err := h.store.ListUploads(opts)
	if err != nil {
		h.log.Error("failed to list uploads", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询上传历史失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"uploads": uploads,
		"count":   len(uploads),
	})
}

// ActivateUpload 将某次上传设为其工具类型的当前数据集
// POST /api/uploads/:id/activate
func (h *Handler) ActivateUpload(c *gin.Context) {
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
	if upload.Status != model.UploadDone {
		c.JSON(http.StatusConflict, gin.H{"error": "只有处理成功的上传才能激活"})
		return
	}

	if err := h.store.ActivateUpload(id); err != nil {
		h.log.Error("failed to activate upload", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "激活数据集失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "已设为当前数据集",
		"uploadId": id,
		"toolType": upload.ToolType,
	})
}

// DeleteUpload 删除上传及其处理结果
// DELETE /api/uploads/:id
func (h *Handler) DeleteUpload(c *gin.Context) {
	id := c.Param("id")

	if _, err := h.store.GetUpload(id); errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "上传记录不存在"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询上传记录失败"})
		return
	}

	if err := h.store.DeleteUpload(id); err != nil {
		h.log.Error("failed to delete upload", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "已删除", "uploadId": id})
}
