package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListFields 返回目标字段目录
// GET /api/v1/schema/fields
func (h *Handler) ListFields(c *gin.Context) {
	catalog := h.registry.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"fields": catalog.Fields(),
		"total":  catalog.Len(),
	})
}

// ReloadSchema 重新加载字段目录
// POST /api/v1/schema/reload
func (h *Handler) ReloadSchema(c *gin.Context) {
	if err := h.registry.Reload(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "字段目录已重新加载"})
}

// GetMatcherConfig 返回当前匹配配置
// GET /api/v1/config/matcher
func (h *Handler) GetMatcherConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.cfg.Matcher)
}
