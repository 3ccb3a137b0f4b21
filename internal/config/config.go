package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"paybridge/internal/mapping"
	"paybridge/internal/similarity"
)

// AppConfig 应用配置
type AppConfig struct {
	Server  ServerConfig  `toml:"server"`
	Data    DataConfig    `toml:"data"`
	Matcher MatcherConfig `toml:"matcher"`
	Remote  RemoteConfig  `toml:"remote"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir     string `toml:"data_dir"`
	CatalogPath string `toml:"catalog_path"` // 字段目录 JSON，空则使用内置目录
}

// MatcherConfig 字段匹配配置
// 权重与阈值是显式命名字段，加载时校验，不接受任意形状的配置。
type MatcherConfig struct {
	Weights           similarity.Weights `toml:"weights"`
	TopN              int                `toml:"top_n"`
	MinRecommend      float64            `toml:"min_recommend"`
	MediumConfidence  float64            `toml:"medium_confidence"`
	HighConfidence    float64            `toml:"high_confidence"`
	AutoApply         float64            `toml:"auto_apply"`
	CaseSensitive     bool               `toml:"case_sensitive"`
	PrefixBonus       bool               `toml:"prefix_bonus"`
	PrefixBonusWeight float64            `toml:"prefix_bonus_weight"`
	StrictCrossField  bool               `toml:"strict_cross_field"`
	Rules             []similarity.Rule  `toml:"rules"` // 追加在内置规则表之后
}

// RemoteConfig 远端薪资记录系统配置
type RemoteConfig struct {
	BaseURL        string `toml:"base_url"` // 空则指向内置服务
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout 远端调用超时
func (r RemoteConfig) Timeout() time.Duration {
	if r.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	mappingDefaults := mapping.DefaultConfig()
	return &AppConfig{
		Server: ServerConfig{
			Port:    20873,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Matcher: MatcherConfig{
			Weights:           similarity.DefaultWeights(),
			TopN:              mappingDefaults.TopN,
			MinRecommend:      mappingDefaults.MinRecommend,
			MediumConfidence:  mappingDefaults.MediumConfidence,
			HighConfidence:    mappingDefaults.HighConfidence,
			AutoApply:         mappingDefaults.AutoApply,
			PrefixBonus:       true,
			PrefixBonusWeight: 0.1,
		},
		Remote: RemoteConfig{
			TimeoutSeconds: 30,
		},
	}
}

// MappingConfig 转换为推荐器配置
func (m MatcherConfig) MappingConfig() mapping.Config {
	return mapping.Config{
		TopN:             m.TopN,
		MinRecommend:     m.MinRecommend,
		MediumConfidence: m.MediumConfidence,
		HighConfidence:   m.HighConfidence,
		AutoApply:        m.AutoApply,
	}
}

// Scorer 转换为相似度计算器
func (m MatcherConfig) Scorer() similarity.Scorer {
	return similarity.Scorer{
		CaseSensitive:     m.CaseSensitive,
		PrefixBonus:       m.PrefixBonus,
		PrefixBonusWeight: m.PrefixBonusWeight,
	}
}

// Validate 校验匹配配置
func (m MatcherConfig) Validate() error {
	if err := m.Weights.Validate(); err != nil {
		return err
	}
	if m.MinRecommend > m.MediumConfidence || m.MediumConfidence > m.HighConfidence {
		return fmt.Errorf("confidence thresholds out of order: min=%.2f medium=%.2f high=%.2f",
			m.MinRecommend, m.MediumConfidence, m.HighConfidence)
	}
	if m.AutoApply < m.HighConfidence || m.AutoApply > 1 {
		return fmt.Errorf("auto-apply threshold %.2f must be in [high, 1]", m.AutoApply)
	}
	return nil
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfigWithInfo 从 config.toml 加载配置并返回元信息
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{}
	config := DefaultConfig()

	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}

	configPath := filepath.Join(exeDir, "config.toml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 配置文件不存在，使用默认配置
			return config, info, nil
		}
		return nil, info, err
	}

	info.PortSpecified = isPortSpecifiedInToml(data)

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, info, err
	}

	// 环境变量覆盖（用于 E2E / 本地运行）
	if v := os.Getenv("PAYBRIDGE_REMOTE_URL"); v != "" {
		config.Remote.BaseURL = v
	}
	if v := os.Getenv("PAYBRIDGE_CATALOG_PATH"); v != "" {
		config.Data.CatalogPath = v
	}

	// 权重/阈值配置错误直接拒绝，避免带病运行
	if err := config.Matcher.Validate(); err != nil {
		return nil, info, fmt.Errorf("invalid matcher config: %w", err)
	}

	return config, info, nil
}

// LoadConfig 从 config.toml 加载配置
// 配置文件位于可执行文件同目录下
func LoadConfig() (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo()
	return config, err
}

// SaveConfig 保存配置到 config.toml
func SaveConfig(config *AppConfig) error {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}

	configPath := filepath.Join(exeDir, "config.toml")

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// EnsureDataDir 确保数据目录存在
// 数据目录位于可执行文件同目录下
func EnsureDataDir(config *AppConfig) (string, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}

	dataDir := filepath.Join(exeDir, config.Data.DataDir)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	// 创建子目录
	subdirs := []string{"uploads", "catalogs"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}
