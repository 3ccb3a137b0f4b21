package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"paybridge/internal/pipeline"
)

// Entry 提交/校验请求中的单条记录
type Entry struct {
	ClientID string         `json:"client_id"`
	RowIndex int            `json:"row_index"`
	Action   string         `json:"action,omitempty"`
	Data     map[string]any `json:"data"`
}

// ValidateRequest 校验请求
type ValidateRequest struct {
	PeriodID      string  `json:"period_id"`
	OverwriteMode string  `json:"overwrite_mode"`
	Entries       []Entry `json:"entries"`
}

// ValidatedEntry 远端返回的单行校验结果
type ValidatedEntry struct {
	ClientID    string           `json:"client_id"`
	IsValid     bool             `json:"is_valid"`
	Errors      []pipeline.Issue `json:"errors"`
	Warnings    []pipeline.Issue `json:"warnings"`
	DuplicateOf string           `json:"duplicate_of,omitempty"`
}

// ValidateResponse 校验响应
type ValidateResponse struct {
	Total         int              `json:"total"`
	Valid         int              `json:"valid"`
	Invalid       int              `json:"invalid"`
	Warnings      int              `json:"warnings"`
	Errors        []string         `json:"errors"`
	ValidatedData []ValidatedEntry `json:"validated_data"`
}

// ImportRequest 导入请求
type ImportRequest struct {
	PeriodID      string  `json:"period_id"`
	OverwriteMode string  `json:"overwrite_mode"`
	Entries       []Entry `json:"entries"`
}

// ImportError 导入响应中的单行失败
type ImportError struct {
	Index      int    `json:"index"`
	EmployeeID string `json:"employee_id,omitempty"`
	Error      string `json:"error"`
}

// ImportResponse 导入响应
type ImportResponse struct {
	SuccessCount int           `json:"success_count"`
	ErrorCount   int           `json:"error_count"`
	Errors       []ImportError `json:"errors,omitempty"`
}

// Client 薪资记录系统（system of record）HTTP 客户端
// 超时由配置决定；超时或网络错误按整批传输失败处理。
type Client struct {
	baseURL string
	http    *http.Client
	policy  pipeline.OverwritePolicy
}

// NewClient 创建客户端
func NewClient(baseURL string, timeout time.Duration, policy pipeline.OverwritePolicy) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		policy:  policy,
	}
}

// Validate 调用远端校验接口
func (c *Client) Validate(ctx context.Context, req ValidateRequest) (*ValidateResponse, error) {
	var resp ValidateResponse
	if err := c.post(ctx, "/validate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Import 调用远端导入接口
func (c *Client) Import(ctx context.Context, req ImportRequest) (*ImportResponse, error) {
	var resp ImportResponse
	if err := c.post(ctx, "/import", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// post 发送 JSON 请求并解析响应
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("remote returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// toEntries 将结构化行转换为线上条目
func toEntries(rows []pipeline.ProcessedRow) []Entry {
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, Entry{
			ClientID: row.Meta.ClientID,
			RowIndex: row.Meta.RowIndex,
			Data:     row.Data,
		})
	}
	return entries
}

// FindDuplicates 实现 pipeline.DuplicateChecker
// 通过远端校验接口取回 duplicate_of 标记。
func (c *Client) FindDuplicates(ctx context.Context, periodID string, rows []pipeline.ProcessedRow) (map[string]string, error) {
	mode := c.policy
	if mode == "" {
		mode = pipeline.PolicyNone
	}

	resp, err := c.Validate(ctx, ValidateRequest{
		PeriodID:      periodID,
		OverwriteMode: mode.WireValue(),
		Entries:       toEntries(rows),
	})
	if err != nil {
		return nil, err
	}

	duplicates := make(map[string]string)
	for _, entry := range resp.ValidatedData {
		if entry.DuplicateOf != "" {
			duplicates[entry.ClientID] = entry.DuplicateOf
		}
	}
	return duplicates, nil
}

// SubmitBatch 实现 pipeline.Submitter
func (c *Client) SubmitBatch(ctx context.Context, periodID string, policy pipeline.OverwritePolicy, entries []pipeline.Entry) (*pipeline.BatchResult, error) {
	wireEntries := make([]Entry, 0, len(entries))
	for _, e := range entries {
		wireEntries = append(wireEntries, Entry{
			ClientID: e.Row.Meta.ClientID,
			RowIndex: e.Row.Meta.RowIndex,
			Action:   string(e.Action),
			Data:     e.Row.Data,
		})
	}

	resp, err := c.Import(ctx, ImportRequest{
		PeriodID:      periodID,
		OverwriteMode: policy.WireValue(),
		Entries:       wireEntries,
	})
	if err != nil {
		return nil, err
	}

	result := &pipeline.BatchResult{
		SuccessCount: resp.SuccessCount,
		ErrorCount:   resp.ErrorCount,
	}
	for _, e := range resp.Errors {
		result.Errors = append(result.Errors, pipeline.RecordError{
			Index:      e.Index,
			EmployeeID: e.EmployeeID,
			Message:    e.Error,
		})
	}
	return result, nil
}
