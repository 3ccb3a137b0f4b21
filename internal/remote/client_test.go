package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"paybridge/internal/pipeline"
)

func sampleRows() []pipeline.ProcessedRow {
	return []pipeline.ProcessedRow{
		{Data: map[string]any{"employee_full_name": "张三"}, Meta: pipeline.RowMeta{RowIndex: 0, ClientID: "a"}},
		{Data: map[string]any{"employee_full_name": "李四"}, Meta: pipeline.RowMeta{RowIndex: 1, ClientID: "b"}},
	}
}

// TestFindDuplicates 校验接口往返与 duplicate_of 提取
func TestFindDuplicates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/validate" {
			t.Errorf("path = %s, want /validate", r.URL.Path)
		}
		var req ValidateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.PeriodID != "2026-08" {
			t.Errorf("period_id = %s", req.PeriodID)
		}
		if req.OverwriteMode != "none" {
			t.Errorf("overwrite_mode = %s, want none (default)", req.OverwriteMode)
		}
		if len(req.Entries) != 2 {
			t.Errorf("entries = %d, want 2", len(req.Entries))
		}

		json.NewEncoder(w).Encode(ValidateResponse{
			Total: 2, Valid: 2,
			ValidatedData: []ValidatedEntry{
				{ClientID: "a", IsValid: true, DuplicateOf: "17"},
				{ClientID: "b", IsValid: true},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, "")
	duplicates, err := c.FindDuplicates(context.Background(), "2026-08", sampleRows())
	if err != nil {
		t.Fatalf("FindDuplicates failed: %v", err)
	}

	if len(duplicates) != 1 || duplicates["a"] != "17" {
		t.Errorf("duplicates = %v, want map[a:17]", duplicates)
	}
}

// TestSubmitBatch 导入接口往返与错误条目映射
func TestSubmitBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/import" {
			t.Errorf("path = %s, want /import", r.URL.Path)
		}
		var req ImportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.OverwriteMode != "smart_merge" {
			t.Errorf("overwrite_mode = %s", req.OverwriteMode)
		}
		if req.Entries[0].Action != "insert" || req.Entries[1].Action != "merge" {
			t.Errorf("actions = %s/%s", req.Entries[0].Action, req.Entries[1].Action)
		}

		json.NewEncoder(w).Encode(ImportResponse{
			SuccessCount: 1,
			ErrorCount:   1,
			Errors:       []ImportError{{Index: 1, EmployeeID: "emp-9", Error: "部门不存在"}},
		})
	}))
	defer srv.Close()

	rows := sampleRows()
	entries := []pipeline.Entry{
		{Row: rows[0], Action: pipeline.ActionInsert},
		{Row: rows[1], Action: pipeline.ActionMerge},
	}

	c := NewClient(srv.URL, 5*time.Second, pipeline.PolicySmartMerge)
	result, err := c.SubmitBatch(context.Background(), "2026-08", pipeline.PolicySmartMerge, entries)
	if err != nil {
		t.Fatalf("SubmitBatch failed: %v", err)
	}

	if result.SuccessCount != 1 || result.ErrorCount != 1 {
		t.Errorf("result = %+v", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].Message != "部门不存在" {
		t.Errorf("errors = %+v", result.Errors)
	}
}

// TestTransportFailure 连接失败返回错误而非部分结果
func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	srv.Close() // 立即关闭，模拟网络不可达

	c := NewClient(srv.URL, time.Second, pipeline.PolicyNone)
	if _, err := c.FindDuplicates(context.Background(), "2026-08", sampleRows()); err == nil {
		t.Error("expected transport error from closed server")
	}
	if _, err := c.SubmitBatch(context.Background(), "2026-08", pipeline.PolicyNone, nil); err == nil {
		t.Error("expected transport error from closed server")
	}
}

// TestRemoteErrorStatus 非 200 状态按失败处理
func TestRemoteErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, pipeline.PolicyNone)
	if _, err := c.FindDuplicates(context.Background(), "2026-08", sampleRows()); err == nil {
		t.Error("expected error on HTTP 500")
	}
}
