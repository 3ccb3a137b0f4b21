package pipeline

import "fmt"

// OverwritePolicy 覆盖策略，一次导入会话使用单一策略
// 枚举值同时是 §外部接口 的 overwrite_mode 线上取值。
type OverwritePolicy string

const (
	PolicyNone            OverwritePolicy = "none"             // 跳过重复，仅导入新记录
	PolicySmartMerge      OverwritePolicy = "smart_merge"      // 新增插入，重复按非空字段合并
	PolicyPartialReplace  OverwritePolicy = "partial_replace"  // 重复整条替换，新增插入
	PolicyFullReplace     OverwritePolicy = "full_replace"     // 同上（语义上替换全部字段）
	PolicyExistingOnly    OverwritePolicy = "existing_only"    // 仅更新已存在记录，新增跳过
	PolicyIncremental     OverwritePolicy = "incremental"      // 增量：重复做限定字段更新，新增插入
	PolicyTaxOnly         OverwritePolicy = "tax_only"         // 仅更新个税相关字段
	PolicySocialInsurance OverwritePolicy = "social_only"      // 仅更新社保相关字段
	PolicyAdjustmentsOnly OverwritePolicy = "adjustments_only" // 仅更新补扣款调整字段
)

// allPolicies 全部合法策略，顺序即文档展示顺序
var allPolicies = []OverwritePolicy{
	PolicyNone, PolicySmartMerge, PolicyPartialReplace, PolicyFullReplace,
	PolicyExistingOnly, PolicyIncremental, PolicyTaxOnly,
	PolicySocialInsurance, PolicyAdjustmentsOnly,
}

// Policies 返回全部合法策略
func Policies() []OverwritePolicy {
	out := make([]OverwritePolicy, len(allPolicies))
	copy(out, allPolicies)
	return out
}

// ParsePolicy 解析策略字符串
func ParsePolicy(s string) (OverwritePolicy, error) {
	p := OverwritePolicy(s)
	for _, known := range allPolicies {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown overwrite policy: %q", s)
}

// WireValue 策略对应的 overwrite_mode 线上取值
func (p OverwritePolicy) WireValue() string {
	return string(p)
}

// Scoped 是否为限定字段子集的策略
func (p OverwritePolicy) Scoped() bool {
	switch p {
	case PolicyIncremental, PolicyTaxOnly, PolicySocialInsurance, PolicyAdjustmentsOnly:
		return true
	}
	return false
}

// ScopeFields 限定策略允许更新的字段 key 前缀
// 非限定策略返回 nil（不限制）。
func (p OverwritePolicy) ScopeFields() []string {
	switch p {
	case PolicyTaxOnly:
		return []string{"deductions_details.PERSONAL_INCOME_TAX"}
	case PolicySocialInsurance:
		return []string{
			"deductions_details.SOCIAL_INSURANCE_PERSONAL",
			"deductions_details.HOUSING_FUND_PERSONAL",
		}
	case PolicyAdjustmentsOnly:
		return []string{"deductions_details.ADJUSTMENT"}
	case PolicyIncremental:
		return []string{"earnings_details.", "deductions_details.", "stat_items."}
	}
	return nil
}

// Action 覆盖决议产出的单行动作
type Action string

const (
	ActionInsert       Action = "insert"        // 新记录插入
	ActionMerge        Action = "merge"         // 仅非空来源字段覆盖既有记录
	ActionReplace      Action = "replace"       // 既有记录整条替换
	ActionUpdateScoped Action = "update_scoped" // 仅更新策略限定的字段子集
	ActionSkip         Action = "skip"          // 不提交
)

// Resolve 根据覆盖策略与重复检测结果计算单行动作
// (policy, isDuplicate) 到动作是全函数：每种组合都有确定结果，
// 未知策略按跳过处理。
func Resolve(policy OverwritePolicy, isDuplicate bool) Action {
	switch policy {
	case PolicyNone:
		if isDuplicate {
			return ActionSkip
		}
		return ActionInsert
	case PolicySmartMerge:
		if isDuplicate {
			return ActionMerge
		}
		return ActionInsert
	case PolicyPartialReplace, PolicyFullReplace:
		if isDuplicate {
			return ActionReplace
		}
		return ActionInsert
	case PolicyExistingOnly:
		if isDuplicate {
			return ActionMerge
		}
		return ActionSkip
	case PolicyIncremental:
		if isDuplicate {
			return ActionUpdateScoped
		}
		return ActionInsert
	case PolicyTaxOnly, PolicySocialInsurance, PolicyAdjustmentsOnly:
		// 限定字段导入只修既有记录，新增名单不在本次范围内
		if isDuplicate {
			return ActionUpdateScoped
		}
		return ActionSkip
	}
	return ActionSkip
}

// ResolveAll 为整批行计算动作，key 为 ClientID
func ResolveAll(policy OverwritePolicy, results []ValidationResult) map[string]Action {
	actions := make(map[string]Action, len(results))
	for _, res := range results {
		actions[res.ClientID] = Resolve(policy, res.DuplicateOf != "")
	}
	return actions
}
