package schema

func floatPtr(v float64) *float64 { return &v }

// DefaultCatalog 内置的薪资目标字段目录
// 生产环境通常由远端目录服务下发 JSON 覆盖，这里保留一份默认目录
// 保证工具离线可用。
func DefaultCatalog() *Catalog {
	catalog, err := NewCatalog(defaultFields)
	if err != nil {
		// 内置目录 key 不应重复
		panic(err)
	}
	return catalog
}

var defaultFields = []FieldDefinition{
	// 基础信息
	{Key: "employee_full_name", DisplayName: "姓名（自动拆分为姓、名）", Category: CategoryBase, Required: true, Type: TypeText,
		Validation: &Validation{MaxLength: 50}},
	{Key: "employee_last_name", DisplayName: "姓", Category: CategoryBase, Type: TypeText},
	{Key: "employee_first_name", DisplayName: "名", Category: CategoryBase, Type: TypeText},
	{Key: "id_number", DisplayName: "身份证号", Category: CategoryBase, Type: TypeText,
		Validation: &Validation{Pattern: `^\d{17}[\dXx]$`}},
	{Key: "employee_no", DisplayName: "工号", Category: CategoryBase, Type: TypeText,
		Validation: &Validation{MaxLength: 20}},
	{Key: "department_name", DisplayName: "部门", Category: CategoryBase, Type: TypeSelect},
	{Key: "position_name", DisplayName: "职位", Category: CategoryBase, Type: TypeSelect},
	{Key: "personnel_category", DisplayName: "人员身份", Category: CategoryBase, Type: TypeSelect},
	{Key: "hire_date", DisplayName: "入职日期", Category: CategoryBase, Type: TypeDate},

	// 收入项
	{Key: "earnings_details.BASIC_SALARY.amount", DisplayName: "基本工资", Category: CategoryEarning, Type: TypeNumber,
		Validation: &Validation{Min: floatPtr(0)}},
	{Key: "earnings_details.POSITION_SALARY.amount", DisplayName: "岗位工资", Category: CategoryEarning, Type: TypeNumber},
	{Key: "earnings_details.GRADE_SALARY.amount", DisplayName: "级别工资", Category: CategoryEarning, Type: TypeNumber},
	{Key: "earnings_details.PERFORMANCE_BONUS.amount", DisplayName: "绩效奖金", Category: CategoryEarning, Type: TypeNumber},
	{Key: "earnings_details.ALLOWANCE.amount", DisplayName: "津贴补贴", Category: CategoryEarning, Type: TypeNumber},
	{Key: "earnings_details.OVERTIME_PAY.amount", DisplayName: "加班费", Category: CategoryEarning, Type: TypeNumber},

	// 扣除项
	{Key: "deductions_details.PERSONAL_INCOME_TAX.amount", DisplayName: "个人所得税", Category: CategoryDeduction, Type: TypeNumber},
	{Key: "deductions_details.SOCIAL_INSURANCE_PERSONAL.amount", DisplayName: "社保个人缴纳", Category: CategoryDeduction, Type: TypeNumber},
	{Key: "deductions_details.HOUSING_FUND_PERSONAL.amount", DisplayName: "公积金个人缴纳", Category: CategoryDeduction, Type: TypeNumber},
	{Key: "deductions_details.ADJUSTMENT.amount", DisplayName: "补扣款调整", Category: CategoryDeduction, Type: TypeNumber},

	// 合计项（可导入，校验时与明细核对）
	{Key: "gross_pay", DisplayName: "应发合计", Category: CategoryCalculated, Type: TypeNumber},
	{Key: "total_deductions", DisplayName: "扣发合计", Category: CategoryCalculated, Type: TypeNumber},
	{Key: "net_pay", DisplayName: "实发合计", Category: CategoryCalculated, Type: TypeNumber},

	// 统计项
	{Key: "stat_items.WORK_DAYS.value", DisplayName: "出勤天数", Category: CategoryStat, Type: TypeNumber,
		Validation: &Validation{Min: floatPtr(0), Max: floatPtr(31)}},
	{Key: "stat_items.OVERTIME_HOURS.value", DisplayName: "加班时长", Category: CategoryStat, Type: TypeNumber},

	// 其他
	{Key: "remarks", DisplayName: "备注", Category: CategoryOther, Type: TypeText,
		Validation: &Validation{MaxLength: 200}},

	// 特殊
	{Key: KeyIgnore, DisplayName: "忽略此列", Category: CategoryIgnore, Type: TypeText},
	{Key: KeyComputed, DisplayName: "系统计算", Category: CategoryIgnore, Type: TypeText},
}
