package pipeline

// Matrix 原始表头/数据行矩阵，由上传解析环节产出
type Matrix struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// RowMeta 行元信息
type RowMeta struct {
	RowIndex  int      `json:"rowIndex"`  // 在原始数据中的行号（0 起）
	ClientID  string   `json:"clientId"`  // 处理阶段生成的进程内唯一标识
	SourceRow []string `json:"sourceRow"` // 原始单元格，保留用于追溯
}

// ProcessedRow 结构化后的一行记录
// Data 的 key 为目标字段 key，值为已做类型转换的结果，转换失败为 nil。
type ProcessedRow struct {
	Data map[string]any `json:"data"`
	Meta RowMeta        `json:"meta"`
}

// Issue 字段级校验发现
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult 单行校验结果，与 ProcessedRow 按 ClientID 一一对应
// 警告不影响 Valid；重复记录只产生警告，由覆盖策略决定去留。
type ValidationResult struct {
	ClientID    string  `json:"clientId"`
	Valid       bool    `json:"isValid"`
	Errors      []Issue `json:"errors"`
	Warnings    []Issue `json:"warnings"`
	DuplicateOf string  `json:"duplicateOf,omitempty"` // 已存在记录的外部 id
}

// RecordError 提交阶段的单行失败信息
type RecordError struct {
	Index      int    `json:"index"`
	EmployeeID string `json:"employeeId,omitempty"`
	Message    string `json:"message"`
}

// ImportOutcome 一次提交的最终结果，产出后导入会话即结束
type ImportOutcome struct {
	SuccessCount    int           `json:"successCount"`
	ErrorCount      int           `json:"errorCount"`
	SkippedInvalid  int           `json:"skippedInvalid"`  // 校验未通过而未提交的行数
	SkippedByPolicy int           `json:"skippedByPolicy"` // 覆盖策略判定跳过的行数
	PerRecordErrors []RecordError `json:"perRecordErrors"`
}
