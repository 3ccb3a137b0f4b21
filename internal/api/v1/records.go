package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"paybridge/internal/pipeline"
	"paybridge/internal/remote"
	"paybridge/internal/store"
)

// 内置 system of record 的校验/导入接口
// 与 internal/remote 客户端共用同一套线上格式，保证工具可以自指运行。

// ValidateRecords 批量校验：重复检测 + 身份字段检查
// POST /api/v1/validate
func (h *Handler) ValidateRecords(c *gin.Context) {
	var req remote.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}
	if req.PeriodID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period_id 不能为空"})
		return
	}

	resp := remote.ValidateResponse{
		Total:  len(req.Entries),
		Errors: []string{},
	}

	for _, entry := range req.Entries {
		validated := remote.ValidatedEntry{
			ClientID: entry.ClientID,
			IsValid:  true,
			Errors:   []pipeline.Issue{},
			Warnings: []pipeline.Issue{},
		}

		name, _ := entry.Data["employee_full_name"].(string)
		idNumber, _ := entry.Data["id_number"].(string)
		employeeNo, _ := entry.Data["employee_no"].(string)

		if name == "" && idNumber == "" {
			validated.IsValid = false
			validated.Errors = append(validated.Errors, pipeline.Issue{
				Field:   "employee_full_name",
				Message: "缺少员工身份信息，无法定位员工",
			})
		} else {
			id, _, err := h.store.FindDuplicate(req.PeriodID, name, idNumber, employeeNo)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			if id > 0 {
				validated.DuplicateOf = strconv.FormatInt(id, 10)
				validated.Warnings = append(validated.Warnings, pipeline.Issue{
					Field:   "employee_full_name",
					Message: "该员工在此周期已有记录",
				})
			}
		}

		if validated.IsValid {
			resp.Valid++
		} else {
			resp.Invalid++
		}
		resp.Warnings += len(validated.Warnings)
		resp.ValidatedData = append(resp.ValidatedData, validated)
	}

	c.JSON(http.StatusOK, resp)
}

// ImportRecords 批量导入：按条目动作落库
// POST /api/v1/import
func (h *Handler) ImportRecords(c *gin.Context) {
	var req remote.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	policy, err := pipeline.ParsePolicy(req.OverwriteMode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的 overwrite_mode"})
		return
	}

	entries := make([]store.BatchEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		action := pipeline.Action(e.Action)
		if action == "" {
			// 未显式携带动作时由重复状态现场决议
			id, _, findErr := h.store.FindDuplicate(req.PeriodID,
				stringValue(e.Data, "employee_full_name"),
				stringValue(e.Data, "id_number"),
				stringValue(e.Data, "employee_no"))
			if findErr != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": findErr.Error()})
				return
			}
			action = pipeline.Resolve(policy, id > 0)
		}
		entries = append(entries, store.BatchEntry{
			RowIndex: e.RowIndex,
			Action:   action,
			Data:     e.Data,
		})
	}

	result, err := h.store.ApplyBatch(req.PeriodID, policy, entries)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := remote.ImportResponse{
		SuccessCount: result.SuccessCount,
		ErrorCount:   result.ErrorCount,
	}
	for _, e := range result.Errors {
		resp.Errors = append(resp.Errors, remote.ImportError{
			Index:      e.Index,
			EmployeeID: e.EmployeeID,
			Error:      e.Message,
		})
	}

	c.JSON(http.StatusOK, resp)
}

func stringValue(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}
