package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"soccentral/internal/processor"
)

// Upload 上传并处理工具导出的 Excel (SSE 流式响应)
// POST /api/upload
//
// 表单字段 file 为工作簿，activate 控制处理成功后是否立即设为当前数据集。
// 响应为 SSE 事件流，最后一条 stage=result 的事件携带完整处理结果。
func (h *Handler) Upload(c *gin.Context) {
	// 解析 multipart form
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的表单数据"})
		return
	}

	files := form.File["file"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传文件"})
		return
	}

	uploadedFile := files[0]

	// 保存到临时目录
	tempDir := os.TempDir()
	tempFilePath := filepath.Join(tempDir, fmt.Sprintf("soccentral_upload_%d_%s", time.Now().Unix(), filepath.Base(uploadedFile.Filename)))

	if err := c.SaveUploadedFile(uploadedFile, tempFilePath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存文件失败"})
		return
	}

	// 清理临时文件
	defer os.Remove(tempFilePath)

	// 解析处理选项
	activate := c.DefaultPostForm("activate", "true") == "true"

	// 登记上传记录
	uploadID := uuid.New().String()
	if err := h.store.CreateUpload(uploadID, uploadedFile.Filename); err != nil {
		h.log.Error("failed to create upload record", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建上传记录失败"})
		return
	}

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	// 开始处理
	progressChan := h.coordinator.Run(processor.ProcessOptions{
		UploadID: uploadID,
		FilePath: tempFilePath,
		Filename: uploadedFile.Filename,
		Activate: activate,
	})

	// 流式发送进度事件
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return
	}

	for event := range progressChan {
		// 序列化事件为 JSON
		eventData, err := json.Marshal(event)
		if err != nil {
			continue
		}

		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
}
