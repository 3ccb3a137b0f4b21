package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"paybridge/internal/pipeline"
)

// ReadMatrix 从 Excel 文件读取表头/数据行矩阵
// sheetName 为空时取第一个 Sheet；第一行视为表头。
func ReadMatrix(path, sheetName string) (pipeline.Matrix, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return pipeline.Matrix{}, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer file.Close()

	return readSheet(file, sheetName)
}

// SheetNames 列出文件内的全部 Sheet 名
func SheetNames(path string) ([]string, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer file.Close()

	return file.GetSheetList(), nil
}

func readSheet(file *excelize.File, sheetName string) (pipeline.Matrix, error) {
	if sheetName == "" {
		sheets := file.GetSheetList()
		if len(sheets) == 0 {
			return pipeline.Matrix{}, fmt.Errorf("excel file has no sheets")
		}
		sheetName = sheets[0]
	}

	rows, err := file.GetRows(sheetName)
	if err != nil {
		return pipeline.Matrix{}, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return pipeline.Matrix{}, fmt.Errorf("sheet %s is empty", sheetName)
	}

	matrix := pipeline.Matrix{Headers: rows[0]}
	if len(rows) > 1 {
		matrix.Rows = rows[1:]
	}
	return matrix, nil
}
