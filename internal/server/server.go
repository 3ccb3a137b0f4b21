package server

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/gin-gonic/gin"

	v1 "paybridge/internal/api/v1"
	"paybridge/internal/config"
	"paybridge/internal/importer"
	"paybridge/internal/pipeline"
	"paybridge/internal/remote"
	"paybridge/internal/schema"
	"paybridge/internal/store"
)

// Server HTTP服务器
type Server struct {
	router *gin.Engine
	store  *store.Store
	v1     *v1.Handler
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig) *Server {
	devMode := cfg.Server.DevMode
	if !devMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化 SQLite Store
	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		dataDir = cfg.Data.DataDir
	}
	dbPath := filepath.Join(dataDir, "paybridge.db")

	sqliteStore, err := store.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// 字段目录：配置了目录文件则从文件加载，否则使用内置目录
	registry, err := buildRegistry(cfg)
	if err != nil {
		log.Fatalf("Failed to load field catalog: %v", err)
	}

	// 远端薪资记录系统；未配置时指向内置接口
	baseURL := cfg.Remote.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://127.0.0.1:%d/api/v1", cfg.Server.Port)
	}
	client := remote.NewClient(baseURL, cfg.Remote.Timeout(), pipeline.PolicyNone)

	coordinator := importer.NewCoordinator(registry, cfg.Matcher, client, client)

	s := &Server{
		router: gin.Default(),
		store:  sqliteStore,
		v1:     v1.NewHandler(sqliteStore, registry, cfg, coordinator),
	}

	s.setupRoutes()

	return s
}

func buildRegistry(cfg *config.AppConfig) (*schema.Registry, error) {
	if cfg.Data.CatalogPath != "" {
		return schema.NewRegistryFromFile(cfg.Data.CatalogPath)
	}
	return schema.NewRegistry(schema.DefaultCatalog()), nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
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

	api := s.router.Group("/api/v1")
	{
		s.v1.RegisterRoutes(api)
	}
}

// Run 启动服务器
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Close 关闭底层资源
func (s *Server) Close() error {
	return s.store.Close()
}
