package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Catalog 目标字段目录快照（一次导入会话内不可变）
type Catalog struct {
	fields []FieldDefinition
	byKey  map[string]int
}

// NewCatalog 创建目录快照，保留字段的目录顺序
func NewCatalog(fields []FieldDefinition) (*Catalog, error) {
	byKey := make(map[string]int, len(fields))
	for i, f := range fields {
		if f.Key == "" {
			return nil, fmt.Errorf("field at index %d has empty key", i)
		}
		if _, exists := byKey[f.Key]; exists {
			return nil, fmt.Errorf("duplicate field key: %s", f.Key)
		}
		byKey[f.Key] = i
	}

	copied := make([]FieldDefinition, len(fields))
	copy(copied, fields)

	return &Catalog{fields: copied, byKey: byKey}, nil
}

// Fields 按目录顺序返回全部字段定义
func (c *Catalog) Fields() []FieldDefinition {
	return c.fields
}

// Get 按 key 查找字段定义
func (c *Catalog) Get(key string) (FieldDefinition, bool) {
	idx, ok := c.byKey[key]
	if !ok {
		return FieldDefinition{}, false
	}
	return c.fields[idx], true
}

// Order 返回字段在目录中的位置（用于稳定排序）
func (c *Catalog) Order(key string) int {
	idx, ok := c.byKey[key]
	if !ok {
		return len(c.fields)
	}
	return idx
}

// Required 返回所有必填字段
func (c *Catalog) Required() []FieldDefinition {
	var required []FieldDefinition
	for _, f := range c.fields {
		if f.Required {
			required = append(required, f)
		}
	}
	return required
}

// Len 字段数量
func (c *Catalog) Len() int {
	return len(c.fields)
}

// LoadCatalog 从 JSON 文件加载字段目录
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var fields []FieldDefinition
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	return NewCatalog(fields)
}

// Registry 字段目录注册表，持有当前快照并支持显式重载
type Registry struct {
	mu      sync.RWMutex
	catalog *Catalog
	path    string // 为空时表示使用内置目录，Reload 不生效
}

// NewRegistry 使用给定快照创建注册表
func NewRegistry(catalog *Catalog) *Registry {
	return &Registry{catalog: catalog}
}

// NewRegistryFromFile 从 JSON 目录文件创建注册表
func NewRegistryFromFile(path string) (*Registry, error) {
	catalog, err := LoadCatalog(path)
	if err != nil {
		return nil, err
	}
	return &Registry{catalog: catalog, path: path}, nil
}

// Snapshot 获取当前目录快照
func (r *Registry) Snapshot() *Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.catalog
}

// Reload 重新读取目录文件并替换快照
func (r *Registry) Reload() error {
	if r.path == "" {
		return fmt.Errorf("registry has no catalog file to reload")
	}

	catalog, err := LoadCatalog(r.path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.catalog = catalog
	r.mu.Unlock()
	return nil
}
