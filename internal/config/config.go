// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

// 当前配置的单例实例
var (
	currentConfig *AppConfig
	configMutex   sync.RWMutex
	configFile    string
)

// AppConfig 运行期配置，随数据目录持久化为JSON
type AppConfig struct {
	Port      string `json:"port"`
	DataDir   string `json:"data_dir"`
	LogDir    string `json:"log_dir"`
	DebugMode bool   `json:"debug_mode"`
}

// Config 存储启动时从环境变量读取的应用配置
type Config struct {
	Port      string
	DataDir   string
	LogDir    string
	DebugMode bool
}

// Load 从环境变量加载配置
// .env 文件可选，缺失时静默忽略
func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		Port:      getEnv("PORT", "8080"),
		DataDir:   getEnv("DATA_DIR", "data"),
		LogDir:    getEnv("LOG_DIR", "logs"),
		DebugMode: getEnvBool("DEBUG_MODE", true),
	}

	return config, nil
}

// InitConfig 初始化运行期配置系统
// 数据目录下已有配置文件时加载，否则用环境配置落盘
func InitConfig(dataDir string) error {
	configMutex.Lock()
	defer configMutex.Unlock()

	configFile = filepath.Join(dataDir, "config.json")

	if data, err := os.ReadFile(configFile); err == nil {
		cfg := &AppConfig{}
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("解析配置文件失败: %w", err)
		}
		currentConfig = cfg
		return nil
	}

	base, err := Load()
	if err != nil {
		return err
	}

	currentConfig = &AppConfig{
		Port:      base.Port,
		DataDir:   base.DataDir,
		LogDir:    base.LogDir,
		DebugMode: base.DebugMode,
	}

	return saveCurrentConfigLocked()
}

// GetCurrentConfig 获取当前运行期配置
// 未初始化时退回环境变量配置
func GetCurrentConfig() *AppConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if currentConfig != nil {
		return currentConfig
	}

	base, _ := Load()
	return &AppConfig{
		Port:      base.Port,
		DataDir:   base.DataDir,
		LogDir:    base.LogDir,
		DebugMode: base.DebugMode,
	}
}

// UpdateConfig 更新并保存运行期配置
func UpdateConfig(update func(*AppConfig)) error {
	configMutex.Lock()
	defer configMutex.Unlock()

	if currentConfig == nil {
		return fmt.Errorf("配置系统未初始化")
	}

	update(currentConfig)
	return saveCurrentConfigLocked()
}

// saveCurrentConfigLocked 持久化当前配置，调用方必须持锁
func saveCurrentConfigLocked() error {
	if configFile == "" {
		return fmt.Errorf("配置文件路径未设置")
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	data, err := json.MarshalIndent(currentConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	return os.WriteFile(configFile, data, 0644)
}

// getEnv 获取环境变量，不存在时返回默认值
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvBool 获取布尔环境变量，解析失败时返回默认值
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
