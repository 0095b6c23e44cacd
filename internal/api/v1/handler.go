package v1

import (
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"soccentral/internal/config"
	"soccentral/internal/livefeed"
	"soccentral/internal/processor"
	"soccentral/internal/store"
)

// Handler V1 API 处理器
type Handler struct {
	store       *store.Store
	cfg         *config.AppConfig
	coordinator *processor.Coordinator
	feed        *livefeed.Client // 未启用 Wazuh 时为 nil
	downloads   *exportDownloadStore

	// mu 保护 cfg 的运行时修改（PATCH /api/config）
	mu  sync.RWMutex
	log *zap.Logger
}

// NewHandler 创建 V1 API 处理器
func NewHandler(st *store.Store, cfg *config.AppConfig, coordinator *processor.Coordinator, feed *livefeed.Client, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		store:       st,
		cfg:         cfg,
		coordinator: coordinator,
		feed:        feed,
		downloads:   newExportDownloadStore(),
		log:         log,
	}
}

// RegisterRoutes 注册 V1 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 配置管理
	router.GET("/config", h.GetConfig)
	router.PATCH("/config", h.UpdateConfig)

	// 文件上传与处理
	router.POST("/upload", h.Upload)

	// 数据集管理
	router.GET("/uploads", h.ListUploads)
	router.GET("/uploads/:id", h.GetUploadResult)
	router.POST("/uploads/:id/activate", h.ActivateUpload)
	router.DELETE("/uploads/:id", h.DeleteUpload)

	// 看板数据
	router.GET("/dashboard", h.GetDashboard)

	// Wazuh 实时快照
	router.GET("/livefeed", h.GetLiveFeed)

	// 报表导出
	router.GET("/export", h.Export)
	router.POST("/export/stream", h.ExportStream)
	router.GET("/export/download/:token", h.DownloadExport)
}
