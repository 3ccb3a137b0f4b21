package pipeline

import "context"

// Entry 提交条目：一行记录及其覆盖决议动作
type Entry struct {
	Row    ProcessedRow `json:"row"`
	Action Action       `json:"action"`
}

// BatchResult 协作方返回的批量提交结果
type BatchResult struct {
	SuccessCount int           `json:"successCount"`
	ErrorCount   int           `json:"errorCount"`
	Errors       []RecordError `json:"errors,omitempty"`
}

// Submitter 批量提交协作方
// 一次调用提交整批；返回错误表示传输层失败，整批视为未提交。
type Submitter interface {
	SubmitBatch(ctx context.Context, periodID string, policy OverwritePolicy, entries []Entry) (*BatchResult, error)
}

// Committer 批量提交器
type Committer struct {
	submitter Submitter
}

// NewCommitter 创建提交器
func NewCommitter(submitter Submitter) *Committer {
	return &Committer{submitter: submitter}
}

// Commit 过滤可提交行并整批提交，汇总为最终结果
// 规则：校验未通过的行不提交、单独计数；动作为跳过的行不提交；
// 传输失败时所有已提交行都出现在 PerRecordErrors 中，成功数为 0。
func (c *Committer) Commit(ctx context.Context, periodID string, policy OverwritePolicy, rows []ProcessedRow, results []ValidationResult, actions map[string]Action) *ImportOutcome {
	outcome := &ImportOutcome{PerRecordErrors: []RecordError{}}

	validByID := make(map[string]bool, len(results))
	for _, res := range results {
		validByID[res.ClientID] = res.Valid
	}

	var entries []Entry
	for _, row := range rows {
		if !validByID[row.Meta.ClientID] {
			outcome.SkippedInvalid++
			continue
		}
		action, ok := actions[row.Meta.ClientID]
		if !ok || action == ActionSkip {
			outcome.SkippedByPolicy++
			continue
		}
		entries = append(entries, Entry{Row: row, Action: action})
	}

	if len(entries) == 0 {
		return outcome
	}

	result, err := c.submitter.SubmitBatch(ctx, periodID, policy, entries)
	if err != nil {
		// 传输失败：整批按失败处理，不允许部分合入
		outcome.ErrorCount = len(entries)
		for _, e := range entries {
			outcome.PerRecordErrors = append(outcome.PerRecordErrors, RecordError{
				Index:   e.Row.Meta.RowIndex,
				Message: "提交失败: " + err.Error(),
			})
		}
		return outcome
	}

	outcome.SuccessCount = result.SuccessCount
	outcome.ErrorCount = result.ErrorCount
	outcome.PerRecordErrors = append(outcome.PerRecordErrors, result.Errors...)
	return outcome
}
