package pipeline

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"paybridge/internal/schema"
)

// DuplicateChecker 重复检测协作方
// 返回 ClientID → 既有记录外部 id 的映射；未重复的行不出现在结果中。
type DuplicateChecker interface {
	FindDuplicates(ctx context.Context, periodID string, rows []ProcessedRow) (map[string]string, error)
}

// Validator 行校验器
// checker 为 nil 时跳过重复检测（干跑模式，供离线校验与测试使用）。
type Validator struct {
	catalog          *schema.Catalog
	checker          DuplicateChecker
	strictCrossField bool
}

// NewValidator 创建校验器
func NewValidator(catalog *schema.Catalog, checker DuplicateChecker, strictCrossField bool) *Validator {
	return &Validator{catalog: catalog, checker: checker, strictCrossField: strictCrossField}
}

// crossFieldTolerance 合计项核对容差
const crossFieldTolerance = 0.01

// Validate 对整批行做校验，返回与行一一对应的结果
// 仅重复检测调用可能失败；失败时整批返回错误，不产出部分结果。
func (v *Validator) Validate(ctx context.Context, periodID string, rows []ProcessedRow) ([]ValidationResult, error) {
	duplicates := map[string]string{}
	if v.checker != nil {
		found, err := v.checker.FindDuplicates(ctx, periodID, rows)
		if err != nil {
			return nil, fmt.Errorf("duplicate check failed: %w", err)
		}
		duplicates = found
	}

	results := make([]ValidationResult, 0, len(rows))
	for _, row := range rows {
		res := ValidationResult{
			ClientID: row.Meta.ClientID,
			Errors:   []Issue{},
			Warnings: []Issue{},
		}

		v.checkRequired(row, &res)
		v.checkFormat(row, &res)

		if externalID, ok := duplicates[row.Meta.ClientID]; ok {
			res.DuplicateOf = externalID
			res.Warnings = append(res.Warnings, Issue{
				Field:   "employee_full_name",
				Message: "该员工在目标周期已存在记录，按覆盖策略处理",
			})
		}

		v.checkCrossField(row, &res)

		res.Valid = len(res.Errors) == 0
		results = append(results, res)
	}

	return results, nil
}

// checkRequired 必填字段检查：缺失或为空即为阻断错误
func (v *Validator) checkRequired(row ProcessedRow, res *ValidationResult) {
	for _, def := range v.catalog.Required() {
		value, ok := row.Data[def.Key]
		if !ok || value == nil || isEmptyString(value) {
			res.Errors = append(res.Errors, Issue{
				Field:   def.Key,
				Message: fmt.Sprintf("必填字段 %s 缺失", def.DisplayName),
			})
		}
	}
}

func isEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// checkFormat 按字段定义的 pattern/min/max/maxLength 做格式检查
func (v *Validator) checkFormat(row ProcessedRow, res *ValidationResult) {
	for key, value := range row.Data {
		if value == nil {
			continue
		}
		def, ok := v.catalog.Get(key)
		if !ok || def.Validation == nil {
			continue
		}
		rule := def.Validation

		switch val := value.(type) {
		case string:
			if rule.MaxLength > 0 && len([]rune(val)) > rule.MaxLength {
				res.Errors = append(res.Errors, Issue{
					Field:   key,
					Message: fmt.Sprintf("%s 超过最大长度 %d", def.DisplayName, rule.MaxLength),
				})
			}
			if rule.Pattern != "" {
				re, err := regexp.Compile(rule.Pattern)
				if err == nil && !re.MatchString(val) {
					res.Errors = append(res.Errors, Issue{
						Field:   key,
						Message: fmt.Sprintf("%s 格式不正确", def.DisplayName),
					})
				}
			}
		case float64:
			if rule.Min != nil && val < *rule.Min {
				res.Errors = append(res.Errors, Issue{
					Field:   key,
					Message: fmt.Sprintf("%s 小于最小值 %g", def.DisplayName, *rule.Min),
				})
			}
			if rule.Max != nil && val > *rule.Max {
				res.Errors = append(res.Errors, Issue{
					Field:   key,
					Message: fmt.Sprintf("%s 大于最大值 %g", def.DisplayName, *rule.Max),
				})
			}
		}
	}
}

// checkCrossField 跨字段核对：导入的合计与明细之和在容差内一致
// 默认记为警告，严格模式下升级为错误。
func (v *Validator) checkCrossField(row ProcessedRow, res *ValidationResult) {
	v.checkSum(row, res, "gross_pay", "应发合计", "earnings_details.")

	gross, hasGross := numberValue(row.Data["gross_pay"])
	deductions, hasDeductions := numberValue(row.Data["total_deductions"])
	net, hasNet := numberValue(row.Data["net_pay"])
	if hasGross && hasDeductions && hasNet {
		if math.Abs(gross-deductions-net) > crossFieldTolerance {
			v.addCrossFieldIssue(res, Issue{
				Field:   "net_pay",
				Message: "实发合计与应发、扣发不一致",
			})
		}
	}
}

// checkSum 核对某合计字段与给定前缀明细之和
func (v *Validator) checkSum(row ProcessedRow, res *ValidationResult, totalKey, displayName, prefix string) {
	total, ok := numberValue(row.Data[totalKey])
	if !ok {
		return
	}

	sum := 0.0
	count := 0
	for key, value := range row.Data {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if n, ok := numberValue(value); ok {
			sum += n
			count++
		}
	}
	if count == 0 {
		return
	}

	if math.Abs(total-sum) > crossFieldTolerance {
		v.addCrossFieldIssue(res, Issue{
			Field:   totalKey,
			Message: fmt.Sprintf("%s 与明细之和不一致（差额 %.2f）", displayName, total-sum),
		})
	}
}

func (v *Validator) addCrossFieldIssue(res *ValidationResult, issue Issue) {
	if v.strictCrossField {
		res.Errors = append(res.Errors, issue)
	} else {
		res.Warnings = append(res.Warnings, issue)
	}
}

func numberValue(v any) (float64, bool) {
	n, ok := v.(float64)
	return n, ok
}
