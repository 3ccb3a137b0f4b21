package mapping

import (
	"regexp"
	"sort"
	"strings"

	"paybridge/internal/schema"
	"paybridge/internal/similarity"
)

// Config 推荐器配置
// 阈值关系：MinRecommend <= MediumConfidence <= HighConfidence <= AutoApply。
type Config struct {
	TopN             int     `json:"topN" toml:"top_n"`                         // 每列保留的推荐数
	MinRecommend     float64 `json:"minRecommend" toml:"min_recommend"`         // 进入推荐列表的最低分
	MediumConfidence float64 `json:"mediumConfidence" toml:"medium_confidence"` // 中置信度下界
	HighConfidence   float64 `json:"highConfidence" toml:"high_confidence"`     // 高置信度下界
	AutoApply        float64 `json:"autoApply" toml:"auto_apply"`               // 自动应用阈值
}

// DefaultConfig 默认推荐配置
func DefaultConfig() Config {
	return Config{
		TopN:             5,
		MinRecommend:     0.3,
		MediumConfidence: 0.5,
		HighConfidence:   0.7,
		AutoApply:        0.85,
	}
}

// Band 置信度档位，仅用于报告展示，不参与流程控制
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

// BandOf 按配置阈值划分置信度档位
func (c Config) BandOf(confidence float64) Band {
	switch {
	case confidence > c.HighConfidence:
		return BandHigh
	case confidence >= c.MediumConfidence:
		return BandMedium
	default:
		return BandLow
	}
}

// Recommendation 单条目标字段推荐
type Recommendation struct {
	TargetKey   string  `json:"targetKey"`
	DisplayName string  `json:"displayName"`
	Confidence  float64 `json:"confidence"`
	Band        Band    `json:"band"`
}

// Rule 一列的映射结果
// TargetKey 为空表示尚未解决，等待用户手工指定。
type Rule struct {
	SourceField     string           `json:"sourceField"`
	ColumnIndex     int              `json:"columnIndex"`
	TargetKey       string           `json:"targetKey"`
	Confidence      float64          `json:"confidence"`
	Category        schema.Category  `json:"category,omitempty"`
	Required        bool             `json:"required"`
	AutoApplied     bool             `json:"autoApplied"`
	BestMatch       *Recommendation  `json:"bestMatch,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Recommender 字段映射推荐器
type Recommender struct {
	catalog   *schema.Catalog
	composite *similarity.Composite
	cfg       Config
}

// NewRecommender 创建推荐器
func NewRecommender(catalog *schema.Catalog, composite *similarity.Composite, cfg Config) *Recommender {
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultConfig().TopN
	}
	return &Recommender{catalog: catalog, composite: composite, cfg: cfg}
}

var headerSpaceRe = regexp.MustCompile(`\s+`)

// NormalizeHeader 规范化表头：去除首尾空白、换行和多余空格
func NormalizeHeader(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\n", "")
	name = strings.ReplaceAll(name, "\r", "")
	name = strings.ReplaceAll(name, "\t", "")
	return headerSpaceRe.ReplaceAllString(name, "")
}

// Recommend 为每个源列计算目标字段推荐并自动应用高置信度匹配
// 相同输入与配置下结果是确定的：同分按目录顺序排序。
func (r *Recommender) Recommend(headers []string) []Rule {
	rules := make([]Rule, 0, len(headers))

	for idx, header := range headers {
		normalized := NormalizeHeader(header)
		rule := Rule{
			SourceField:     header,
			ColumnIndex:     idx,
			Recommendations: []Recommendation{},
		}
		if normalized == "" {
			rules = append(rules, rule)
			continue
		}

		candidates := r.rankCandidates(normalized)
		if len(candidates) > r.cfg.TopN {
			candidates = candidates[:r.cfg.TopN]
		}
		rule.Recommendations = candidates

		if len(candidates) > 0 {
			best := candidates[0]
			rule.BestMatch = &best

			if best.Confidence > r.cfg.AutoApply {
				rule.TargetKey = best.TargetKey
				rule.Confidence = best.Confidence
				rule.AutoApplied = true
				if def, ok := r.catalog.Get(best.TargetKey); ok {
					rule.Category = def.Category
					rule.Required = def.Required
				}
			}
		}

		rules = append(rules, rule)
	}

	return rules
}

// rankCandidates 对单个列名打分并按置信度降序排列
func (r *Recommender) rankCandidates(header string) []Recommendation {
	var candidates []Recommendation

	for _, def := range r.catalog.Fields() {
		if def.Category == schema.CategoryIgnore {
			continue
		}

		score := r.composite.Score(header, def.Key, def.DisplayName)
		if score < r.cfg.MinRecommend {
			continue
		}

		candidates = append(candidates, Recommendation{
			TargetKey:   def.Key,
			DisplayName: def.DisplayName,
			Confidence:  score,
			Band:        r.cfg.BandOf(score),
		})
	}

	// 同分时按目录顺序保持稳定
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return r.catalog.Order(candidates[i].TargetKey) < r.catalog.Order(candidates[j].TargetKey)
	})

	return candidates
}

// FieldIssue 映射完整性问题
type FieldIssue struct {
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
	Message     string `json:"message"`
}

// CheckCompleteness 校验映射完整性
// 每个必填目标字段必须至少被一条映射指向，否则不允许进入后续流程。
func CheckCompleteness(rules []Rule, catalog *schema.Catalog) []FieldIssue {
	mapped := make(map[string]bool, len(rules))
	for _, rule := range rules {
		if rule.TargetKey != "" && !schema.IsSentinel(rule.TargetKey) {
			mapped[rule.TargetKey] = true
		}
	}

	var issues []FieldIssue
	for _, def := range catalog.Required() {
		if !mapped[def.Key] {
			issues = append(issues, FieldIssue{
				Key:         def.Key,
				DisplayName: def.DisplayName,
				Message:     "必填字段未映射到任何源列",
			})
		}
	}

	return issues
}
