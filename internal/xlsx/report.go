package xlsx

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"paybridge/internal/pipeline"
)

const reportSheet = "校验结果"

// WriteReport 生成带校验标注的 Excel 工作簿
//
// 输出保留原始表头与数据行，并在末尾追加"校验结果"与"问题明细"两列；
// 含阻断错误的行标红，仅警告的行标黄。
func WriteReport(matrix pipeline.Matrix, results []pipeline.ValidationResult, rows []pipeline.ProcessedRow) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	errStyle, warnStyle, err := reportStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	headers := append(append([]string{}, matrix.Headers...), "校验结果", "问题明细")
	if err := writeRow(f, 1, headers); err != nil {
		_ = f.Close()
		return nil, err
	}

	byRowIndex := make(map[int]pipeline.ValidationResult, len(results))
	for _, row := range rows {
		for _, res := range results {
			if res.ClientID == row.Meta.ClientID {
				byRowIndex[row.Meta.RowIndex] = res
				break
			}
		}
	}

	for i, cells := range matrix.Rows {
		rowNum := i + 2
		line := append([]string{}, cells...)
		for len(line) < len(matrix.Headers) {
			line = append(line, "")
		}

		res, ok := byRowIndex[i]
		switch {
		case !ok:
			line = append(line, "未处理", "")
		case len(res.Errors) > 0:
			line = append(line, "错误", joinIssues(res.Errors, res.Warnings))
		case len(res.Warnings) > 0:
			line = append(line, "警告", joinIssues(nil, res.Warnings))
		default:
			line = append(line, "通过", "")
		}

		if err := writeRow(f, rowNum, line); err != nil {
			_ = f.Close()
			return nil, err
		}

		if ok && (len(res.Errors) > 0 || len(res.Warnings) > 0) {
			style := warnStyle
			if len(res.Errors) > 0 {
				style = errStyle
			}
			if err := styleRow(f, rowNum, len(line), style); err != nil {
				_ = f.Close()
				return nil, err
			}
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

func reportStyles(f *excelize.File) (errStyle, warnStyle int, err error) {
	errStyle, err = f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFC7CE"}},
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create error style: %w", err)
	}

	warnStyle, err = f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFEB9C"}},
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create warning style: %w", err)
	}
	return errStyle, warnStyle, nil
}

func writeRow(f *excelize.File, rowNum int, cells []string) error {
	for col, value := range cells {
		cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
		if err != nil {
			return fmt.Errorf("failed to build cell name: %w", err)
		}
		if err := f.SetCellValue(reportSheet, cell, value); err != nil {
			return fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
	}
	return nil
}

func styleRow(f *excelize.File, rowNum, width, style int) error {
	start, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(width, rowNum)
	if err != nil {
		return err
	}
	return f.SetCellStyle(reportSheet, start, end, style)
}

func joinIssues(errs, warnings []pipeline.Issue) string {
	var parts []string
	for _, issue := range errs {
		parts = append(parts, issue.Field+": "+issue.Message)
	}
	for _, issue := range warnings {
		parts = append(parts, issue.Field+": "+issue.Message)
	}
	return strings.Join(parts, "；")
}
