package schema

// Category 目标字段分类
type Category string

const (
	CategoryBase       Category = "base"       // 基础信息
	CategoryEarning    Category = "earning"    // 收入项
	CategoryDeduction  Category = "deduction"  // 扣除项
	CategoryCalculated Category = "calculated" // 计算合计项
	CategoryStat       Category = "stat"       // 统计项
	CategoryOther      Category = "other"      // 其他
	CategoryIgnore     Category = "ignore"     // 忽略/特殊
)

// ValueType 字段值类型
type ValueType string

const (
	TypeText   ValueType = "text"
	TypeNumber ValueType = "number"
	TypeDate   ValueType = "date"
	TypeSelect ValueType = "select"
)

// 特殊目标字段 key：列被显式忽略或由系统计算，不参与行数据生成
const (
	KeyIgnore   = "__IGNORE__"
	KeyComputed = "__COMPUTED__"
)

// Validation 字段校验规则
type Validation struct {
	Pattern   string   `json:"pattern,omitempty"`   // 正则（text/select）
	Min       *float64 `json:"min,omitempty"`       // 最小值（number）
	Max       *float64 `json:"max,omitempty"`       // 最大值（number）
	MaxLength int      `json:"maxLength,omitempty"` // 最大长度（text）
}

// FieldDefinition 目标字段定义
type FieldDefinition struct {
	Key         string      `json:"key"`
	DisplayName string      `json:"displayName"`
	Category    Category    `json:"category"`
	Required    bool        `json:"required"`
	Type        ValueType   `json:"type"`
	Validation  *Validation `json:"validation,omitempty"`
}

// IsSentinel 是否为忽略/计算类特殊 key
func IsSentinel(key string) bool {
	return key == KeyIgnore || key == KeyComputed
}
