package v1

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"soccentral/internal/exporter"
	"soccentral/internal/model"
)

type exportProgressEvent struct {
	Type      string      `json:"type"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// loadExportResult 取出待导出的处理结果。
// 带 uploadId 时导出指定上传，否则导出 toolType 的当前激活数据集。
func (h *Handler) loadExportResult(c *gin.Context) (*model.Result, bool) {
	var payload []byte
	var err error

	if id := c.Query("uploadId"); id != "" {
		payload, err = h.store.GetResult(id)
	} else {
		_, payload, err = h.store.ActiveResult(c.Query("toolType"))
	}
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "没有可导出的数据集"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询处理结果失败"})
		return nil, false
	}

	var result model.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "处理结果损坏，无法导出"})
		return nil, false
	}
	return &result, true
}

// Export 导出分析报表 Excel
// GET /api/export?uploadId=xxx
func (h *Handler) Export(c *gin.Context) {
	result, ok := h.loadExportResult(c)
	if !ok {
		return
	}

	exp := exporter.NewExporter(result)
	file, err := exp.Export(exporter.ExportOptions{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "导出失败: " + err.Error()})
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", buildExportContentDisposition(result.FileType, time.Now()))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := file.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "写入文件失败"})
		return
	}
}

// ExportStream 导出分析报表（SSE 进度 + 完成后提供下载地址）
// POST /api/export/stream?uploadId=xxx
func (h *Handler) ExportStream(c *gin.Context) {
	result, ok := h.loadExportResult(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return
	}

	send := func(event exportProgressEvent) {
		b, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}

	send(exportProgressEvent{
		Type:    "start",
		Message: "开始导出",
		Data: map[string]any{
			"toolType": result.FileType,
		},
		Timestamp: time.Now(),
	})

	exp := exporter.NewExporter(result)

	lastPercent := -1
	progressFn := func(p exporter.ProgressEvent) {
		if p.Percent == lastPercent {
			return
		}
		lastPercent = p.Percent
		send(exportProgressEvent{
			Type:      "progress",
			Message:   p.Stage,
			Data:      map[string]any{"percent": p.Percent},
			Timestamp: time.Now(),
		})
	}

	file, err := exp.Export(exporter.ExportOptions{Progress: progressFn})
	if err != nil {
		send(exportProgressEvent{
			Type:      "error",
			Message:   "导出失败: " + err.Error(),
			Data:      map[string]any{},
			Timestamp: time.Now(),
		})
		return
	}
	defer file.Close()

	tempPath := filepath.Join(os.TempDir(), fmt.Sprintf("soccentral_export_%d_%d.xlsx", time.Now().UnixNano(), os.Getpid()))
	if err := file.SaveAs(tempPath); err != nil {
		send(exportProgressEvent{
			Type:      "error",
			Message:   "写入导出文件失败: " + err.Error(),
			Data:      map[string]any{},
			Timestamp: time.Now(),
		})
		_ = os.Remove(tempPath)
		return
	}

	token := h.downloads.put(tempPath, result.FileType, 10*time.Minute)
	downloadURL := fmt.Sprintf("/api/export/download/%s", token)

	send(exportProgressEvent{
		Type:    "done",
		Message: "导出完成",
		Data: map[string]any{
			"percent":     100,
			"downloadUrl": downloadURL,
		},
		Timestamp: time.Now(),
	})
}

// DownloadExport 下载导出的 Excel 文件（一次性）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 token"})
		return
	}

	item, ok := h.downloads.get(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "下载链接已失效"})
		return
	}

	if _, err := os.Stat(item.filePath); err != nil {
		h.downloads.delete(token)
		c.JSON(http.StatusNotFound, gin.H{"error": "导出文件不存在"})
		return
	}

	c.Header("Content-Disposition", buildExportContentDisposition(item.toolType, item.createdAt))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.File(item.filePath)

	h.downloads.delete(token)
	_ = os.Remove(item.filePath)
}

// buildExportContentDisposition 生成含中文文件名的下载头。
// filename 给不认 RFC 5987 的老客户端，filename* 携带 UTF-8 名称。
func buildExportContentDisposition(toolType string, t time.Time) string {
	stamp := t.Format("20060102")
	asciiName := fmt.Sprintf("security-report-%s-%s.xlsx", toolType, stamp)
	utf8Name := fmt.Sprintf("安全报告-%s-%s.xlsx", toolType, stamp)
	return fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", asciiName, url.PathEscape(utf8Name))
}
