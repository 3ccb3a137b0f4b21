package pipeline

import (
	"context"
	"errors"
	"testing"

	"paybridge/internal/schema"
)

func validatorCatalog(t *testing.T) *schema.Catalog {
	t.Helper()
	min := 0.0
	catalog, err := schema.NewCatalog([]schema.FieldDefinition{
		{Key: "employee_full_name", DisplayName: "姓名", Category: schema.CategoryBase, Required: true, Type: schema.TypeText,
			Validation: &schema.Validation{MaxLength: 10}},
		{Key: "id_number", DisplayName: "身份证号", Category: schema.CategoryBase, Type: schema.TypeText,
			Validation: &schema.Validation{Pattern: `^\d{17}[\dXx]$`}},
		{Key: "earnings_details.BASIC_SALARY.amount", DisplayName: "基本工资", Category: schema.CategoryEarning, Type: schema.TypeNumber,
			Validation: &schema.Validation{Min: &min}},
		{Key: "earnings_details.PERFORMANCE_BONUS.amount", DisplayName: "绩效奖金", Category: schema.CategoryEarning, Type: schema.TypeNumber},
		{Key: "gross_pay", DisplayName: "应发合计", Category: schema.CategoryCalculated, Type: schema.TypeNumber},
		{Key: "total_deductions", DisplayName: "扣发合计", Category: schema.CategoryCalculated, Type: schema.TypeNumber},
		{Key: "net_pay", DisplayName: "实发合计", Category: schema.CategoryCalculated, Type: schema.TypeNumber},
	})
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	return catalog
}

func makeRow(clientID string, data map[string]any) ProcessedRow {
	return ProcessedRow{Data: data, Meta: RowMeta{ClientID: clientID}}
}

// fakeChecker 固定返回的重复检测桩
type fakeChecker struct {
	duplicates map[string]string
	err        error
}

func (f *fakeChecker) FindDuplicates(_ context.Context, _ string, _ []ProcessedRow) (map[string]string, error) {
	return f.duplicates, f.err
}

// TestValidateMissingRequired 缺失必填字段的行必然无效
func TestValidateMissingRequired(t *testing.T) {
	v := NewValidator(validatorCatalog(t), nil, false)

	rows := []ProcessedRow{
		makeRow("r1", map[string]any{"earnings_details.BASIC_SALARY.amount": 8000.0}),
		makeRow("r2", map[string]any{"employee_full_name": ""}),
		makeRow("r3", map[string]any{"employee_full_name": nil}),
	}

	results, err := v.Validate(context.Background(), "2026-08", rows)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	for i, res := range results {
		if res.Valid {
			t.Errorf("row %d should be invalid", i)
		}
		if len(res.Errors) == 0 || res.Errors[0].Field != "employee_full_name" {
			t.Errorf("row %d should carry a required-field error, got %+v", i, res.Errors)
		}
	}
}

// TestValidateDuplicateIsWarning 仅重复的行有效且带警告
func TestValidateDuplicateIsWarning(t *testing.T) {
	checker := &fakeChecker{duplicates: map[string]string{"r1": "42"}}
	v := NewValidator(validatorCatalog(t), checker, false)

	rows := []ProcessedRow{makeRow("r1", map[string]any{"employee_full_name": "张三"})}

	results, err := v.Validate(context.Background(), "2026-08", rows)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	res := results[0]
	if !res.Valid {
		t.Error("duplicate-only row should stay valid")
	}
	if res.DuplicateOf != "42" {
		t.Errorf("duplicateOf = %q, want 42", res.DuplicateOf)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("expected one duplicate warning, got %+v", res.Warnings)
	}
	if len(res.Errors) != 0 {
		t.Errorf("duplicate must not be a blocking error, got %+v", res.Errors)
	}
}

// TestValidateDryRun checker 为 nil 时跳过重复检测
func TestValidateDryRun(t *testing.T) {
	v := NewValidator(validatorCatalog(t), nil, false)

	rows := []ProcessedRow{makeRow("r1", map[string]any{"employee_full_name": "张三"})}
	results, err := v.Validate(context.Background(), "2026-08", rows)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if results[0].DuplicateOf != "" || !results[0].Valid {
		t.Errorf("dry-run result unexpected: %+v", results[0])
	}
}

// TestValidateCheckerFailure 重复检测失败时整批报错，不产出部分结果
func TestValidateCheckerFailure(t *testing.T) {
	checker := &fakeChecker{err: errors.New("connection refused")}
	v := NewValidator(validatorCatalog(t), checker, false)

	rows := []ProcessedRow{makeRow("r1", map[string]any{"employee_full_name": "张三"})}
	results, err := v.Validate(context.Background(), "2026-08", rows)
	if err == nil {
		t.Fatal("expected error from failing duplicate checker")
	}
	if results != nil {
		t.Error("no partial results on duplicate-check failure")
	}
}

// TestValidateFormatRules pattern/min/max/maxLength 校验
func TestValidateFormatRules(t *testing.T) {
	v := NewValidator(validatorCatalog(t), nil, false)

	rows := []ProcessedRow{
		makeRow("r1", map[string]any{
			"employee_full_name":                   "名字特别长超过十个字符上限了",
			"id_number":                            "12345",
			"earnings_details.BASIC_SALARY.amount": -100.0,
		}),
	}

	results, err := v.Validate(context.Background(), "2026-08", rows)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	res := results[0]
	if res.Valid {
		t.Error("row with format violations should be invalid")
	}
	fields := map[string]bool{}
	for _, issue := range res.Errors {
		fields[issue.Field] = true
	}
	for _, want := range []string{"employee_full_name", "id_number", "earnings_details.BASIC_SALARY.amount"} {
		if !fields[want] {
			t.Errorf("missing format error for %s, got %+v", want, res.Errors)
		}
	}
}

// TestValidateNilOptionalField 非必填字段转换失败（nil）不影响有效性
func TestValidateNilOptionalField(t *testing.T) {
	v := NewValidator(validatorCatalog(t), nil, false)

	rows := []ProcessedRow{
		makeRow("r1", map[string]any{
			"employee_full_name":                   "张三",
			"earnings_details.BASIC_SALARY.amount": nil, // 原始单元格为 "abc"
		}),
	}

	results, err := v.Validate(context.Background(), "2026-08", rows)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !results[0].Valid || len(results[0].Errors) != 0 {
		t.Errorf("nil optional field should not block, got %+v", results[0])
	}
}

// TestValidateCrossField 合计与明细不一致默认给警告，严格模式给错误
func TestValidateCrossField(t *testing.T) {
	data := map[string]any{
		"employee_full_name":                        "张三",
		"earnings_details.BASIC_SALARY.amount":      8000.0,
		"earnings_details.PERFORMANCE_BONUS.amount": 2000.0,
		"gross_pay":        9000.0, // 明细之和为 10000
		"total_deductions": 1000.0,
		"net_pay":          8000.0,
	}

	v := NewValidator(validatorCatalog(t), nil, false)
	results, _ := v.Validate(context.Background(), "2026-08", []ProcessedRow{makeRow("r1", data)})
	if !results[0].Valid {
		t.Error("cross-field mismatch should be a warning by default")
	}
	if len(results[0].Warnings) == 0 {
		t.Error("expected a cross-field warning")
	}

	strict := NewValidator(validatorCatalog(t), nil, true)
	results, _ = strict.Validate(context.Background(), "2026-08", []ProcessedRow{makeRow("r1", data)})
	if results[0].Valid {
		t.Error("strict mode should turn cross-field mismatch into an error")
	}
}

// TestValidateCrossFieldConsistent 一致的合计不产生告警
func TestValidateCrossFieldConsistent(t *testing.T) {
	data := map[string]any{
		"employee_full_name":                        "张三",
		"earnings_details.BASIC_SALARY.amount":      8000.0,
		"earnings_details.PERFORMANCE_BONUS.amount": 2000.0,
		"gross_pay":        10000.0,
		"total_deductions": 1500.0,
		"net_pay":          8500.0,
	}

	v := NewValidator(validatorCatalog(t), nil, false)
	results, _ := v.Validate(context.Background(), "2026-08", []ProcessedRow{makeRow("r1", data)})
	if len(results[0].Warnings) != 0 {
		t.Errorf("consistent totals should not warn: %+v", results[0].Warnings)
	}
}
