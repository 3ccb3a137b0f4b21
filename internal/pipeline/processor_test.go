package pipeline

import (
	"testing"

	"paybridge/internal/mapping"
	"paybridge/internal/schema"
)

func processorCatalog(t *testing.T) *schema.Catalog {
	t.Helper()
	catalog, err := schema.NewCatalog([]schema.FieldDefinition{
		{Key: "employee_full_name", DisplayName: "姓名", Category: schema.CategoryBase, Required: true, Type: schema.TypeText},
		{Key: "employee_last_name", DisplayName: "姓", Category: schema.CategoryBase, Type: schema.TypeText},
		{Key: "employee_first_name", DisplayName: "名", Category: schema.CategoryBase, Type: schema.TypeText},
		{Key: "hire_date", DisplayName: "入职日期", Category: schema.CategoryBase, Type: schema.TypeDate},
		{Key: "earnings_details.BASIC_SALARY.amount", DisplayName: "基本工资", Category: schema.CategoryEarning, Type: schema.TypeNumber},
		{Key: "department_name", DisplayName: "部门", Category: schema.CategoryBase, Type: schema.TypeSelect},
	})
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	return catalog
}

// TestProcessBasic 基本行处理：类型转换与 ClientID 分配
func TestProcessBasic(t *testing.T) {
	p := NewProcessor(processorCatalog(t))

	matrix := Matrix{
		Headers: []string{"姓名", "基本工资"},
		Rows: [][]string{
			{"张三", "8000"},
			{"李四", "9,500.50"},
		},
	}
	rules := []mapping.Rule{
		{SourceField: "姓名", ColumnIndex: 0, TargetKey: "employee_full_name"},
		{SourceField: "基本工资", ColumnIndex: 1, TargetKey: "earnings_details.BASIC_SALARY.amount"},
	}

	rows := p.Process(matrix, rules)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	if got := rows[0].Data["employee_full_name"]; got != "张三" {
		t.Errorf("name = %v, want 张三", got)
	}
	if got := rows[0].Data["earnings_details.BASIC_SALARY.amount"]; got != 8000.0 {
		t.Errorf("salary = %v, want 8000", got)
	}
	if got := rows[1].Data["earnings_details.BASIC_SALARY.amount"]; got != 9500.5 {
		t.Errorf("salary with thousands separator = %v, want 9500.5", got)
	}

	if rows[0].Meta.ClientID == "" || rows[0].Meta.ClientID == rows[1].Meta.ClientID {
		t.Error("each row needs a unique clientId")
	}
	if rows[1].Meta.RowIndex != 1 {
		t.Errorf("rowIndex = %d, want 1", rows[1].Meta.RowIndex)
	}
}

// TestProcessNeverFails 任意畸形输入都不报错，转换失败记为 nil
func TestProcessNeverFails(t *testing.T) {
	p := NewProcessor(processorCatalog(t))

	matrix := Matrix{
		Headers: []string{"姓名", "基本工资", "入职日期"},
		Rows: [][]string{
			{"王五", "abc", "不是日期"},
			{"", "", ""},
			{"赵六"}, // 短行
		},
	}
	rules := []mapping.Rule{
		{SourceField: "姓名", ColumnIndex: 0, TargetKey: "employee_full_name"},
		{SourceField: "基本工资", ColumnIndex: 1, TargetKey: "earnings_details.BASIC_SALARY.amount"},
		{SourceField: "入职日期", ColumnIndex: 2, TargetKey: "hire_date"},
	}

	rows := p.Process(matrix, rules)
	if len(rows) != 3 {
		t.Fatalf("expected one processed row per input row, got %d", len(rows))
	}

	if got := rows[0].Data["earnings_details.BASIC_SALARY.amount"]; got != nil {
		t.Errorf("unparsable number = %v, want nil", got)
	}
	if got := rows[0].Data["hire_date"]; got != nil {
		t.Errorf("unparsable date = %v, want nil", got)
	}
	if got := rows[1].Data["employee_full_name"]; got != nil {
		t.Errorf("empty cell = %v, want nil", got)
	}
}

// TestProcessSentinelColumns 忽略/计算哨兵与未解决列不产出数据
func TestProcessSentinelColumns(t *testing.T) {
	p := NewProcessor(processorCatalog(t))

	matrix := Matrix{
		Headers: []string{"姓名", "无用列", "序号"},
		Rows:    [][]string{{"张三", "x", "1"}},
	}
	rules := []mapping.Rule{
		{SourceField: "姓名", ColumnIndex: 0, TargetKey: "employee_full_name"},
		{SourceField: "无用列", ColumnIndex: 1, TargetKey: schema.KeyIgnore},
		{SourceField: "序号", ColumnIndex: 2, TargetKey: ""}, // 未解决
	}

	rows := p.Process(matrix, rules)
	if _, ok := rows[0].Data[schema.KeyIgnore]; ok {
		t.Error("ignore sentinel should not appear in row data")
	}
	if len(rows[0].Data) != 3 { // 姓名 + 拆分出的姓、名
		t.Errorf("unexpected data keys: %v", rows[0].Data)
	}
}

// TestProcessNameSplit 姓名组合字段拆分
func TestProcessNameSplit(t *testing.T) {
	p := NewProcessor(processorCatalog(t))

	matrix := Matrix{
		Headers: []string{"姓名"},
		Rows:    [][]string{{"张三"}, {"欧阳锋"}, {"李"}},
	}
	rules := []mapping.Rule{{SourceField: "姓名", ColumnIndex: 0, TargetKey: "employee_full_name"}}

	rows := p.Process(matrix, rules)

	if rows[0].Data["employee_last_name"] != "张" || rows[0].Data["employee_first_name"] != "三" {
		t.Errorf("张三 split = %v/%v, want 张/三",
			rows[0].Data["employee_last_name"], rows[0].Data["employee_first_name"])
	}
	if rows[1].Data["employee_last_name"] != "欧阳" || rows[1].Data["employee_first_name"] != "锋" {
		t.Errorf("欧阳锋 split = %v/%v, want 欧阳/锋",
			rows[1].Data["employee_last_name"], rows[1].Data["employee_first_name"])
	}
	if rows[2].Data["employee_last_name"] != "李" || rows[2].Data["employee_first_name"] != "" {
		t.Errorf("单字姓名 split = %v/%v, want 李/空",
			rows[2].Data["employee_last_name"], rows[2].Data["employee_first_name"])
	}
}

// TestSplitChineseName 姓名拆分规则
func TestSplitChineseName(t *testing.T) {
	tests := []struct {
		full, last, first string
	}{
		{"张三", "张", "三"},
		{"王小明", "王", "小明"},
		{"欧阳锋", "欧阳", "锋"},
		{"司马相如", "司马", "相如"},
		{"李", "李", ""},
		{"", "", ""},
		{"欧阳", "欧", "阳"}, // 两字且与复姓同形时按单姓处理
	}
	for _, tt := range tests {
		last, first := SplitChineseName(tt.full)
		if last != tt.last || first != tt.first {
			t.Errorf("SplitChineseName(%q) = %q/%q, want %q/%q", tt.full, last, first, tt.last, tt.first)
		}
	}
}

// TestCoerce 单元格类型转换
func TestCoerce(t *testing.T) {
	tests := []struct {
		cell string
		t    schema.ValueType
		want any
	}{
		{"8000", schema.TypeNumber, 8000.0},
		{"1,234,567.89", schema.TypeNumber, 1234567.89},
		{"-500", schema.TypeNumber, -500.0},
		{"12%", schema.TypeNumber, 0.12},
		{"abc", schema.TypeNumber, nil},
		{"", schema.TypeNumber, nil},
		{"2024-03-15", schema.TypeDate, "2024-03-15"},
		{"2024/3/5", schema.TypeDate, "2024-03-05"},
		{"2024年3月5日", schema.TypeDate, "2024-03-05"},
		{"20240315", schema.TypeDate, "2024-03-15"},
		{"昨天", schema.TypeDate, nil},
		{"研发部", schema.TypeSelect, "研发部"},
		{"备注文字", schema.TypeText, "备注文字"},
	}
	for _, tt := range tests {
		if got := Coerce(tt.cell, tt.t); got != tt.want {
			t.Errorf("Coerce(%q, %s) = %v, want %v", tt.cell, tt.t, got, tt.want)
		}
	}
}
