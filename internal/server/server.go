package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "soccentral/internal/api/v1"
	"soccentral/internal/config"
	"soccentral/internal/livefeed"
	"soccentral/internal/processor"
	"soccentral/internal/store"
)

// Server HTTP服务器
type Server struct {
	router *gin.Engine
	store  *store.Store
	v1     *v1.Handler
	log    *zap.Logger

	httpServer *http.Server
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig, log *zap.Logger) (*Server, error) {
	devMode := cfg.Server.DevMode
	if !devMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = zap.NewNop()
	}

	// 初始化 SQLite Store
	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		dataDir = cfg.Data.DataDir
	}
	dbPath := filepath.Join(dataDir, cfg.Data.DBFile)

	sqliteStore, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 创建处理协调器
	coordinator, err := processor.NewCoordinator(sqliteStore, cfg, log)
	if err != nil {
		sqliteStore.Close()
		return nil, err
	}

	// Wazuh 实时数据源（可选）
	var feed *livefeed.Client
	if cfg.Wazuh.Enabled {
		feed = livefeed.New(cfg.Wazuh, cfg.Engine.Score, log)
	}

	// 创建 V1 API 处理器
	v1Handler := v1.NewHandler(sqliteStore, cfg, coordinator, feed, log)

	s := &Server{
		router: gin.New(),
		store:  sqliteStore,
		v1:     v1Handler,
		log:    log,
	}

	s.setupRoutes(devMode)

	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(devMode bool) {
	s.router.Use(gin.Recovery())
	s.router.Use(s.accessLog())

	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// V1 API 路由
	api := s.router.Group("/api")
	{
		s.v1.RegisterRoutes(api)
	}

	// 服务信息
	s.router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "soccentral",
			"api":     "/api",
		})
	})

	if devMode {
		// 开发模式：前端跑在 vite 开发服务器上
		s.router.NoRoute(func(c *gin.Context) {
			c.Redirect(http.StatusTemporaryRedirect, "http://localhost:5173"+c.Request.URL.Path)
		})
	} else {
		s.router.NoRoute(func(c *gin.Context) {
			c.JSON(http.StatusNotFound, gin.H{"error": "接口不存在"})
		})
	}
}

// accessLog 接口访问流水，zap 与 access_log 表各记一份
func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.Request.URL.Path
		status := c.Writer.Status()
		s.log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.String("ip", c.ClientIP()),
			zap.Duration("duration", time.Since(start)))

		if err := s.store.LogAccess(path, c.Request.Method, status, c.ClientIP()); err != nil {
			s.log.Debug("failed to record access log", zap.Error(err))
		}
	}
}

// Run 启动服务器，阻塞到 Shutdown 被调用
func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown 优雅关闭服务器并释放存储
func (s *Server) Shutdown(ctx context.Context) error {
	var firstErr error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if err := s.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
