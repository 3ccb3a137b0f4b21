package similarity

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Weights 三种相似度算法的加权系数，期望总和约为 1.0
type Weights struct {
	EditDistance float64 `json:"editDistance" toml:"edit_distance"`
	JaroWinkler  float64 `json:"jaroWinkler" toml:"jaro_winkler"`
	Containment  float64 `json:"containment" toml:"containment"`
}

// DefaultWeights 默认权重
func DefaultWeights() Weights {
	return Weights{EditDistance: 0.4, JaroWinkler: 0.4, Containment: 0.2}
}

// Sum 权重总和
func (w Weights) Sum() float64 {
	return w.EditDistance + w.JaroWinkler + w.Containment
}

// Validate 校验权重总和是否约等于 1.0
func (w Weights) Validate() error {
	if math.Abs(w.Sum()-1.0) > 0.001 {
		return fmt.Errorf("similarity weights must sum to 1.0, got %.4f", w.Sum())
	}
	return nil
}

// Rule 显式映射规则：命中时直接返回固定分数，优先于统计得分
// Source 为精确匹配（规范化后比较），Pattern 为正则匹配，二者取其一。
type Rule struct {
	Source    string  `json:"source,omitempty" toml:"source"`
	Pattern   string  `json:"pattern,omitempty" toml:"pattern"`
	TargetKey string  `json:"targetKey" toml:"target_key"`
	Score     float64 `json:"score" toml:"score"`
}

// DefaultRules 内置规则表
// 覆盖统计算法难以命中的常见表头写法，可通过配置追加。
func DefaultRules() []Rule {
	return []Rule{
		{Source: "姓名", TargetKey: "employee_full_name", Score: 1.0},
		{Source: "员工姓名", TargetKey: "employee_full_name", Score: 1.0},
		{Source: "full name", TargetKey: "employee_full_name", Score: 1.0},
		{Source: "name", TargetKey: "employee_full_name", Score: 1.0},
		{Source: "身份证", TargetKey: "id_number", Score: 1.0},
		{Pattern: `^身份证号[码]?$`, TargetKey: "id_number", Score: 1.0},
		{Pattern: `^(人员|员工)?编号$`, TargetKey: "employee_no", Score: 1.0},
		{Pattern: `^所属部门|部门名称$`, TargetKey: "department_name", Score: 1.0},
		{Pattern: `^岗位|职务$`, TargetKey: "position_name", Score: 1.0},
		{Pattern: `^应发(工资|合计|总额)$`, TargetKey: "gross_pay", Score: 1.0},
		{Pattern: `^实发(工资|合计|总额)$`, TargetKey: "net_pay", Score: 1.0},
		{Pattern: `^扣款?(合计|总额)$`, TargetKey: "total_deductions", Score: 1.0},
		{Pattern: `^(个税|代扣个税)$`, TargetKey: "deductions_details.PERSONAL_INCOME_TAX.amount", Score: 1.0},
	}
}

// compiledRule 预编译后的规则
type compiledRule struct {
	source    string
	pattern   *regexp.Regexp
	targetKey string
	score     float64
}

// Composite 组合打分器：规则表优先，其次三算法加权和
type Composite struct {
	scorer  Scorer
	weights Weights
	rules   []compiledRule
}

// NewComposite 创建组合打分器
// 权重总和不为 1.0 时返回错误；规则表中的非法正则同样拒绝。
func NewComposite(scorer Scorer, weights Weights, rules []Rule) (*Composite, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	compiled := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		if r.TargetKey == "" {
			return nil, fmt.Errorf("rule %d has empty target key", i)
		}
		cr := compiledRule{targetKey: r.TargetKey, score: r.Score}
		if r.Pattern != "" {
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				return nil, fmt.Errorf("rule %d has invalid pattern %q: %w", i, r.Pattern, err)
			}
			cr.pattern = re
		} else {
			cr.source = strings.ToLower(strings.TrimSpace(r.Source))
		}
		compiled = append(compiled, cr)
	}

	return &Composite{scorer: scorer, weights: weights, rules: compiled}, nil
}

// NewCompositeUnchecked 创建组合打分器但跳过权重校验
// 供调用方刻意使用非归一化权重时使用。
func NewCompositeUnchecked(scorer Scorer, weights Weights, rules []Rule) (*Composite, error) {
	c, err := NewComposite(scorer, Weights{EditDistance: 1}, rules)
	if err != nil {
		return nil, err
	}
	c.scorer = scorer
	c.weights = weights
	return c, nil
}

// Score 计算源列名与目标字段的匹配置信度
// 先按顺序查规则表，命中即返回规则分数；否则返回三算法加权和。
func (c *Composite) Score(source, targetKey, targetLabel string) float64 {
	normalized := strings.ToLower(strings.TrimSpace(source))
	for _, r := range c.rules {
		if r.targetKey != targetKey {
			continue
		}
		if r.pattern != nil {
			if r.pattern.MatchString(normalized) || r.pattern.MatchString(source) {
				return r.score
			}
			continue
		}
		if r.source != "" && r.source == normalized {
			return r.score
		}
	}

	return c.weights.EditDistance*c.scorer.EditDistance(source, targetLabel) +
		c.weights.JaroWinkler*c.scorer.JaroWinkler(source, targetLabel) +
		c.weights.Containment*c.scorer.Containment(source, targetLabel)
}
