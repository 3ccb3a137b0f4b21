package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"paybridge/internal/pipeline"
)

// BatchEntry 批量提交中的单条记录
type BatchEntry struct {
	RowIndex int
	Action   pipeline.Action
	Data     map[string]any
}

// identity 从记录数据中提取员工身份字段
func identity(data map[string]any) (name, idNumber, employeeNo string) {
	name, _ = data["employee_full_name"].(string)
	idNumber, _ = data["id_number"].(string)
	employeeNo, _ = data["employee_no"].(string)
	return
}

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

// FindDuplicate 按自然键（周期 + 员工身份）查找既有记录
// 身份证号优先；没有身份证号时按姓名 + 工号匹配。返回 0 表示无重复。
func (s *Store) FindDuplicate(periodID, name, idNumber, employeeNo string) (int64, map[string]any, error) {
	var (
		row *sql.Row
	)
	if idNumber != "" {
		row = s.db.QueryRow(
			`SELECT id, data_json FROM salary_records WHERE period_id = ? AND id_number = ?`,
			periodID, idNumber)
	} else {
		row = s.db.QueryRow(
			`SELECT id, data_json FROM salary_records WHERE period_id = ? AND employee_name = ? AND employee_no = ?`,
			periodID, name, employeeNo)
	}

	var id int64
	var dataJSON string
	if err := row.Scan(&id, &dataJSON); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil, nil
		}
		return 0, nil, fmt.Errorf("failed to query duplicate: %w", err)
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(dataJSON), &data); err != nil {
		return 0, nil, fmt.Errorf("failed to decode record data: %w", err)
	}
	return id, data, nil
}

// FindDuplicates 批量重复检测，返回条目下标 → 既有记录 id
func (s *Store) FindDuplicates(periodID string, entries []BatchEntry) (map[int]int64, error) {
	duplicates := make(map[int]int64)
	for i, entry := range entries {
		name, idNumber, employeeNo := identity(entry.Data)
		if name == "" && idNumber == "" {
			continue
		}
		id, _, err := s.FindDuplicate(periodID, name, idNumber, employeeNo)
		if err != nil {
			return nil, err
		}
		if id > 0 {
			duplicates[i] = id
		}
	}
	return duplicates, nil
}

// ApplyBatch 按动作落库整批记录，逐条收集失败信息
// 单条失败不影响其余条目（部分提交语义），最后写入导入日志。
func (s *Store) ApplyBatch(periodID string, policy pipeline.OverwritePolicy, entries []BatchEntry) (*pipeline.BatchResult, error) {
	result := &pipeline.BatchResult{}

	for _, entry := range entries {
		if err := s.applyEntry(periodID, policy, entry); err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, pipeline.RecordError{
				Index:   entry.RowIndex,
				Message: err.Error(),
			})
			continue
		}
		result.SuccessCount++
	}

	if err := s.logImport(periodID, policy, len(entries), result); err != nil {
		return nil, err
	}
	return result, nil
}

// applyEntry 落库单条记录
func (s *Store) applyEntry(periodID string, policy pipeline.OverwritePolicy, entry BatchEntry) error {
	name, idNumber, employeeNo := identity(entry.Data)
	if name == "" {
		return fmt.Errorf("记录缺少员工姓名")
	}

	switch entry.Action {
	case pipeline.ActionInsert:
		return s.insertRecord(periodID, entry.Data)
	case pipeline.ActionMerge, pipeline.ActionReplace, pipeline.ActionUpdateScoped:
		id, existing, err := s.FindDuplicate(periodID, name, idNumber, employeeNo)
		if err != nil {
			return err
		}
		if id == 0 {
			return fmt.Errorf("员工 %s 在周期 %s 无既有记录", name, periodID)
		}
		merged := mergeData(existing, entry.Data, entry.Action, policy)
		return s.updateRecord(id, merged)
	case pipeline.ActionSkip:
		return nil
	}
	return fmt.Errorf("unknown action: %s", entry.Action)
}

// mergeData 根据动作合成写入的数据
func mergeData(existing, incoming map[string]any, action pipeline.Action, policy pipeline.OverwritePolicy) map[string]any {
	switch action {
	case pipeline.ActionReplace:
		return incoming
	case pipeline.ActionMerge:
		// 仅非空来源字段覆盖，其余既有字段保留
		merged := cloneData(existing)
		for key, value := range incoming {
			if value != nil {
				merged[key] = value
			}
		}
		return merged
	case pipeline.ActionUpdateScoped:
		// 仅更新策略限定前缀内的字段
		merged := cloneData(existing)
		scopes := policy.ScopeFields()
		for key, value := range incoming {
			if value == nil || !inScope(key, scopes) {
				continue
			}
			merged[key] = value
		}
		return merged
	}
	return incoming
}

func cloneData(data map[string]any) map[string]any {
	cloned := make(map[string]any, len(data))
	for k, v := range data {
		cloned[k] = v
	}
	return cloned
}

func inScope(key string, scopes []string) bool {
	for _, prefix := range scopes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// insertRecord 插入新记录
func (s *Store) insertRecord(periodID string, data map[string]any) error {
	name, idNumber, employeeNo := identity(data)

	dataJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode record data: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO salary_records (period_id, employee_name, id_number, employee_no, department, position, data_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, periodID, name, idNumber, employeeNo,
		stringField(data, "department_name"), stringField(data, "position_name"), string(dataJSON))
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// updateRecord 覆盖既有记录内容
func (s *Store) updateRecord(id int64, data map[string]any) error {
	name, idNumber, employeeNo := identity(data)

	dataJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode record data: %w", err)
	}

	_, err = s.db.Exec(`
		UPDATE salary_records
		SET employee_name = ?, id_number = ?, employee_no = ?, department = ?, position = ?,
		    data_json = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, name, idNumber, employeeNo,
		stringField(data, "department_name"), stringField(data, "position_name"), string(dataJSON), id)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	return nil
}

// CountByPeriod 某周期的记录数
func (s *Store) CountByPeriod(periodID string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM salary_records WHERE period_id = ?`, periodID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// GetRecordData 读取记录数据（用于核对与测试）
func (s *Store) GetRecordData(id int64) (map[string]any, error) {
	var dataJSON string
	err := s.db.QueryRow(`SELECT data_json FROM salary_records WHERE id = ?`, id).Scan(&dataJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to load record %d: %w", id, err)
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(dataJSON), &data); err != nil {
		return nil, fmt.Errorf("failed to decode record data: %w", err)
	}
	return data, nil
}

// logImport 写入导入日志
func (s *Store) logImport(periodID string, policy pipeline.OverwritePolicy, total int, result *pipeline.BatchResult) error {
	_, err := s.db.Exec(`
		INSERT INTO import_logs (period_id, overwrite_mode, total, success_count, error_count)
		VALUES (?, ?, ?, ?, ?)
	`, periodID, policy.WireValue(), total, result.SuccessCount, result.ErrorCount)
	if err != nil {
		return fmt.Errorf("failed to write import log: %w", err)
	}
	return nil
}
