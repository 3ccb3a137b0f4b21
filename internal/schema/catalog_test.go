package schema

import (
	"os"
	"path/filepath"
	"testing"
)

// TestNewCatalogRejectsDuplicates 重复 key 与空 key 均拒绝
func TestNewCatalogRejectsDuplicates(t *testing.T) {
	_, err := NewCatalog([]FieldDefinition{
		{Key: "employee_no", DisplayName: "工号"},
		{Key: "employee_no", DisplayName: "编号"},
	})
	if err == nil {
		t.Error("duplicate key should be rejected")
	}

	_, err = NewCatalog([]FieldDefinition{{Key: "", DisplayName: "无名"}})
	if err == nil {
		t.Error("empty key should be rejected")
	}
}

// TestCatalogLookup Get/Order/Required/Len
func TestCatalogLookup(t *testing.T) {
	catalog, err := NewCatalog([]FieldDefinition{
		{Key: "employee_full_name", DisplayName: "姓名", Required: true},
		{Key: "department_name", DisplayName: "部门"},
		{Key: "gross_pay", DisplayName: "应发合计"},
	})
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}

	if catalog.Len() != 3 {
		t.Errorf("Len = %d, want 3", catalog.Len())
	}

	f, ok := catalog.Get("department_name")
	if !ok || f.DisplayName != "部门" {
		t.Errorf("Get(department_name) = %+v, %v", f, ok)
	}
	if _, ok := catalog.Get("missing"); ok {
		t.Error("Get should miss on unknown key")
	}

	if catalog.Order("employee_full_name") != 0 || catalog.Order("gross_pay") != 2 {
		t.Error("Order should follow definition order")
	}
	if catalog.Order("missing") != catalog.Len() {
		t.Error("unknown key should sort after all fields")
	}

	required := catalog.Required()
	if len(required) != 1 || required[0].Key != "employee_full_name" {
		t.Errorf("Required = %+v", required)
	}
}

// TestDefaultCatalog 内置目录完整性检查
func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()

	name, ok := catalog.Get("employee_full_name")
	if !ok || !name.Required {
		t.Error("built-in catalog must require employee_full_name")
	}

	for _, key := range []string{KeyIgnore, KeyComputed} {
		f, ok := catalog.Get(key)
		if !ok {
			t.Errorf("built-in catalog missing sentinel %s", key)
			continue
		}
		if !IsSentinel(f.Key) {
			t.Errorf("%s should be a sentinel", key)
		}
	}

	if idField, ok := catalog.Get("id_number"); !ok || idField.Validation == nil || idField.Validation.Pattern == "" {
		t.Error("id_number should carry a format pattern")
	}
}

// TestRegistryReload 目录文件重载
func TestRegistryReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")

	first := `[{"key":"employee_full_name","displayName":"姓名","category":"base","type":"text","required":true}]`
	if err := os.WriteFile(path, []byte(first), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	reg, err := NewRegistryFromFile(path)
	if err != nil {
		t.Fatalf("NewRegistryFromFile failed: %v", err)
	}
	if reg.Snapshot().Len() != 1 {
		t.Fatalf("initial catalog len = %d, want 1", reg.Snapshot().Len())
	}

	second := first[:len(first)-1] + `,{"key":"employee_no","displayName":"工号","category":"base","type":"text"}]`
	if err := os.WriteFile(path, []byte(second), 0o644); err != nil {
		t.Fatalf("rewrite catalog: %v", err)
	}

	if err := reg.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if reg.Snapshot().Len() != 2 {
		t.Errorf("reloaded catalog len = %d, want 2", reg.Snapshot().Len())
	}
}

// TestRegistryReloadWithoutFile 内置目录不可重载
func TestRegistryReloadWithoutFile(t *testing.T) {
	reg := NewRegistry(DefaultCatalog())
	if err := reg.Reload(); err == nil {
		t.Error("reload without a catalog file should fail")
	}
}
