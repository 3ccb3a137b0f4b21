package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"paybridge/internal/importer"
	"paybridge/internal/mapping"
	"paybridge/internal/pipeline"
	"paybridge/internal/similarity"
	"paybridge/internal/xlsx"
)

// InspectResponse 文件解析 + 映射推荐结果
type InspectResponse struct {
	Matrix   pipeline.Matrix      `json:"matrix"`
	Mappings []mapping.Rule       `json:"mappings"`
	Issues   []mapping.FieldIssue `json:"issues"`
}

// InspectFile 上传 Excel，返回表头矩阵与字段映射推荐
// POST /api/v1/import/inspect
func (h *Handler) InspectFile(c *gin.Context) {
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
	tempFilePath := filepath.Join(os.TempDir(),
		fmt.Sprintf("paybridge_upload_%d_%s", time.Now().Unix(), uploadedFile.Filename))

	if err := c.SaveUploadedFile(uploadedFile, tempFilePath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存文件失败"})
		return
	}
	defer os.Remove(tempFilePath)

	matrix, err := xlsx.ReadMatrix(tempFilePath, c.PostForm("sheet"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("解析文件失败: %v", err)})
		return
	}

	rules, err := h.recommend(matrix.Headers)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, InspectResponse{
		Matrix:   matrix,
		Mappings: rules,
		Issues:   mapping.CheckCompleteness(rules, h.registry.Snapshot()),
	})
}

// RecommendRequest 映射推荐请求
type RecommendRequest struct {
	Headers []string `json:"headers" binding:"required"`
}

// RecommendMapping 为给定表头计算映射推荐
// POST /api/v1/mapping/recommend
func (h *Handler) RecommendMapping(c *gin.Context) {
	var req RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	rules, err := h.recommend(req.Headers)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"mappings": rules,
		"issues":   mapping.CheckCompleteness(rules, h.registry.Snapshot()),
	})
}

// recommend 按当前配置构建推荐器并计算映射
func (h *Handler) recommend(headers []string) ([]mapping.Rule, error) {
	matcher := h.cfg.Matcher
	composite, err := similarity.NewComposite(matcher.Scorer(), matcher.Weights,
		append(similarity.DefaultRules(), matcher.Rules...))
	if err != nil {
		return nil, fmt.Errorf("匹配配置无效: %v", err)
	}

	recommender := mapping.NewRecommender(h.registry.Snapshot(), composite, matcher.MappingConfig())
	return recommender.Recommend(headers), nil
}

// RunImportRequest 导入执行请求
type RunImportRequest struct {
	PeriodID      string          `json:"periodId" binding:"required"`
	OverwriteMode string          `json:"overwriteMode" binding:"required"`
	Matrix        pipeline.Matrix `json:"matrix" binding:"required"`
	Mappings      []mapping.Rule  `json:"mappings"`
	DryRun        bool            `json:"dryRun"`
}

// RunImport 执行导入流程 (SSE 流式响应)
// POST /api/v1/import/run
func (h *Handler) RunImport(c *gin.Context) {
	var req RunImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	policy, err := pipeline.ParsePolicy(req.OverwriteMode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("无效的覆盖策略: %s", req.OverwriteMode)})
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

	progressChan := h.coordinator.Run(c.Request.Context(), importer.Options{
		Matrix:   req.Matrix,
		PeriodID: req.PeriodID,
		Policy:   policy,
		Mappings: req.Mappings,
		DryRun:   req.DryRun,
	})

	for event := range progressChan {
		eventData, err := json.Marshal(event)
		if err != nil {
			continue
		}

		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
}

// ReportRequest 校验报告请求
type ReportRequest struct {
	PeriodID string          `json:"periodId" binding:"required"`
	Matrix   pipeline.Matrix `json:"matrix" binding:"required"`
	Mappings []mapping.Rule  `json:"mappings"`
}

// ExportReport 干跑校验并导出带标注的 Excel 报告
// POST /api/v1/import/report
func (h *Handler) ExportReport(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	progressChan := h.coordinator.Run(c.Request.Context(), importer.Options{
		Matrix:   req.Matrix,
		PeriodID: req.PeriodID,
		Policy:   pipeline.PolicyNone,
		Mappings: req.Mappings,
		DryRun:   true,
	})

	var last importer.ProgressEvent
	for event := range progressChan {
		last = event
	}
	if last.Type != "done" {
		c.JSON(http.StatusBadRequest, gin.H{"error": last.Message})
		return
	}

	result, ok := last.Data.(*importer.Result)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "校验结果类型异常"})
		return
	}

	file, err := xlsx.WriteReport(req.Matrix, result.Validation, result.Rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("生成报告失败: %v", err)})
		return
	}
	defer file.Close()

	buf, err := file.WriteToBuffer()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("生成报告失败: %v", err)})
		return
	}

	filename := fmt.Sprintf("校验报告_%s.xlsx", req.PeriodID)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
