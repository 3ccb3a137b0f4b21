package pipeline

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"paybridge/internal/mapping"
	"paybridge/internal/schema"
)

// Processor 行处理器：原始矩阵 + 已解决映射 → 结构化记录
// 对任意单元格内容都不报错，转换失败记为 nil，由校验阶段决定后果。
type Processor struct {
	catalog *schema.Catalog
}

// NewProcessor 创建行处理器
func NewProcessor(catalog *schema.Catalog) *Processor {
	return &Processor{catalog: catalog}
}

// Process 逐行生成 ProcessedRow，每行分配进程内唯一 ClientID
func (p *Processor) Process(m Matrix, rules []mapping.Rule) []ProcessedRow {
	rows := make([]ProcessedRow, 0, len(m.Rows))

	for rowIdx, raw := range m.Rows {
		data := make(map[string]any)

		for _, rule := range rules {
			if rule.TargetKey == "" || schema.IsSentinel(rule.TargetKey) {
				continue
			}
			if rule.ColumnIndex < 0 || rule.ColumnIndex >= len(raw) {
				continue
			}

			def, ok := p.catalog.Get(rule.TargetKey)
			if !ok {
				continue
			}

			cell := strings.TrimSpace(raw[rule.ColumnIndex])
			p.setValue(data, def, cell)
		}

		sourceRow := make([]string, len(raw))
		copy(sourceRow, raw)

		rows = append(rows, ProcessedRow{
			Data: data,
			Meta: RowMeta{
				RowIndex:  rowIdx,
				ClientID:  uuid.NewString(),
				SourceRow: sourceRow,
			},
		})
	}

	return rows
}

// setValue 按目标字段类型转换并写入，组合字段同时写入拆分结果
func (p *Processor) setValue(data map[string]any, def schema.FieldDefinition, cell string) {
	value := Coerce(cell, def.Type)
	data[def.Key] = value

	// 姓名为组合字段：拆分出姓、名（直接映射的姓/名列会在之后覆盖）
	if def.Key == "employee_full_name" {
		if full, ok := value.(string); ok && full != "" {
			last, first := SplitChineseName(full)
			if _, exists := data["employee_last_name"]; !exists {
				data["employee_last_name"] = last
			}
			if _, exists := data["employee_first_name"]; !exists {
				data["employee_first_name"] = first
			}
		}
	}
}

// Coerce 将原始单元格转换为目标类型的值，失败返回 nil
func Coerce(cell string, t schema.ValueType) any {
	if cell == "" {
		return nil
	}

	switch t {
	case schema.TypeNumber:
		return parseNumber(cell)
	case schema.TypeDate:
		return parseDate(cell)
	default:
		// text/select 原样透传，名称到 id 的解析属于远端校验/提交的职责
		return cell
	}
}

var thousandsReplacer = strings.NewReplacer(",", "", "，", "", " ", "", "￥", "", "¥", "")

// parseNumber 解析数字，剔除千分位分隔符；允许负数
func parseNumber(cell string) any {
	cleaned := thousandsReplacer.Replace(cell)
	if cleaned == "" {
		return nil
	}

	// 百分数按数值的百分之一处理
	percent := false
	if strings.HasSuffix(cleaned, "%") {
		percent = true
		cleaned = strings.TrimSuffix(cleaned, "%")
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	if percent {
		v /= 100
	}
	return v
}

var chineseDateRe = regexp.MustCompile(`^(\d{4})年0?(\d{1,2})月0?(\d{1,2})日?$`)

// dateLayouts 依次尝试的日期格式
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"20060102",
	"2006-1-2",
	"2006/1/2",
}

// parseDate 解析日期为规范化 "YYYY-MM-DD" 字符串，失败返回 nil
func parseDate(cell string) any {
	if m := chineseDateRe.FindStringSubmatch(cell); m != nil {
		cell = m[1] + "-" + m[2] + "-" + m[3]
		if t, err := time.Parse("2006-1-2", cell); err == nil {
			return t.Format("2006-01-02")
		}
		return nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return nil
}

// compoundSurnames 常见复姓表，姓名拆分时优先匹配
var compoundSurnames = []string{
	"欧阳", "太史", "端木", "上官", "司马", "东方", "独孤", "南宫", "万俟", "闻人",
	"夏侯", "诸葛", "尉迟", "公羊", "赫连", "澹台", "皇甫", "宗政", "濮阳", "公冶",
	"太叔", "申屠", "公孙", "慕容", "仲孙", "钟离", "长孙", "宇文", "司徒", "鲜于",
	"司空", "闾丘", "子车", "亓官", "司寇", "巫马", "公西", "颛孙", "壤驷", "公良",
	"漆雕", "乐正", "宰父", "谷梁", "拓跋", "夹谷", "轩辕", "令狐", "段干", "百里",
	"呼延", "东郭", "南门", "羊舌", "微生", "公户", "公玉", "公仪", "梁丘", "公仲",
	"公上", "公门", "公山", "公坚", "左丘", "公伯", "西门", "公祖", "第五", "公乘",
	"贯丘", "公皙", "南荣", "东里", "东宫", "仲长", "子书", "子桑", "即墨", "达奚",
	"褚师",
}

// SplitChineseName 中文姓名拆分
// 先匹配复姓表，未命中时首字为姓、其余为名；单字姓名姓取全部。
func SplitChineseName(full string) (last, first string) {
	full = strings.TrimSpace(full)
	runes := []rune(full)
	if len(runes) == 0 {
		return "", ""
	}
	if len(runes) == 1 {
		return full, ""
	}

	for _, surname := range compoundSurnames {
		if strings.HasPrefix(full, surname) && len(runes) > len([]rune(surname)) {
			return surname, string(runes[len([]rune(surname)):])
		}
	}

	return string(runes[:1]), string(runes[1:])
}
