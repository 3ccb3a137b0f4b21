package v1

import (
	"github.com/gin-gonic/gin"

	"paybridge/internal/config"
	"paybridge/internal/importer"
	"paybridge/internal/schema"
	"paybridge/internal/store"
)

// Handler V1 API 处理器
type Handler struct {
	store       *store.Store
	registry    *schema.Registry
	cfg         *config.AppConfig
	coordinator *importer.Coordinator
}

// NewHandler 创建处理器
func NewHandler(s *store.Store, registry *schema.Registry, cfg *config.AppConfig, coordinator *importer.Coordinator) *Handler {
	return &Handler{
		store:       s,
		registry:    registry,
		cfg:         cfg,
		coordinator: coordinator,
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// 导入流程
	api.POST("/mapping/recommend", h.RecommendMapping)
	api.POST("/import/inspect", h.InspectFile)
	api.POST("/import/run", h.RunImport)
	api.POST("/import/report", h.ExportReport)

	// 字段目录与配置
	api.GET("/schema/fields", h.ListFields)
	api.POST("/schema/reload", h.ReloadSchema)
	api.GET("/config/matcher", h.GetMatcherConfig)

	// 内置 system of record 接口（校验/导入协作方）
	api.POST("/validate", h.ValidateRecords)
	api.POST("/import", h.ImportRecords)
}
