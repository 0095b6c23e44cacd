package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// AppConfig 应用配置
type AppConfig struct {
	Server  ServerConfig  `toml:"server"`
	Data    DataConfig    `toml:"data"`
	Logging LoggingConfig `toml:"logging"`
	Engine  EngineConfig  `toml:"engine"`
	Wazuh   WazuhConfig   `toml:"wazuh"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
	DBFile  string `toml:"db_file"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level string `toml:"level"` // debug / info / warn / error
}

// EngineConfig 解析与计算引擎的阈值配置。
// 这些数字是默认策略而非固定规则，现场可按数据质量在 config.toml 里调。
type EngineConfig struct {
	// PartialMatchThreshold 列名部分匹配的接受阈值，得分必须严格大于它
	PartialMatchThreshold float64 `toml:"partial_match_threshold"`
	// RowCap 单表最大读取行数，超出截断
	RowCap int `toml:"row_cap"`
	// SyntheticDateWindowDays 缺失日期时合成日期的回溯窗口（天）
	SyntheticDateWindowDays int `toml:"synthetic_date_window_days"`
	// EnrichMinConfidence 跨表名称回填的最低匹配置信度
	EnrichMinConfidence float64 `toml:"enrich_min_confidence"`

	Score ScoreConfig `toml:"score"`
}

// ScoreConfig 综合安全评分的权重与罚则。四项权重之和应为 100。
type ScoreConfig struct {
	AvailabilityWeight float64 `toml:"availability_weight"`
	ComplianceWeight   float64 `toml:"compliance_weight"`
	ResponseWeight     float64 `toml:"response_weight"`
	SeverityWeight     float64 `toml:"severity_weight"`

	// DisconnectedPenaltyPct 失联占比超过该值后开始追加罚分
	DisconnectedPenaltyPct float64 `toml:"disconnected_penalty_pct"`
	DisconnectedPenaltyMax float64 `toml:"disconnected_penalty_max"`
	// CriticalPenaltyPct 高危威胁占比超过该值后开始追加罚分
	CriticalPenaltyPct float64 `toml:"critical_penalty_pct"`
	CriticalPenaltyMax float64 `toml:"critical_penalty_max"`
	// PenaltyCap 追加罚分总上限
	PenaltyCap float64 `toml:"penalty_cap"`
}

// WazuhConfig Wazuh 实时数据源配置，禁用时所有数据仅来自文件上传
type WazuhConfig struct {
	Enabled  bool   `toml:"enabled"`
	BaseURL  string `toml:"base_url"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Insecure bool   `toml:"insecure"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    18200,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
			DBFile:  "soccentral.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Engine: EngineConfig{
			PartialMatchThreshold:   0.5,
			RowCap:                  50000,
			SyntheticDateWindowDays: 90,
			EnrichMinConfidence:     0.45,
			Score: ScoreConfig{
				AvailabilityWeight:     30,
				ComplianceWeight:       25,
				ResponseWeight:         25,
				SeverityWeight:         20,
				DisconnectedPenaltyPct: 30,
				DisconnectedPenaltyMax: 15,
				CriticalPenaltyPct:     10,
				CriticalPenaltyMax:     20,
				PenaltyCap:             25,
			},
		},
		Wazuh: WazuhConfig{
			Enabled:  false,
			BaseURL:  "https://127.0.0.1:55000",
			Username: "wazuh",
			Password: "",
			Insecure: true,
		},
	}
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
			applyEnv(config)
			return config, info, nil
		}
		return nil, info, err
	}

	info.PortSpecified = isPortSpecifiedInToml(data)

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, info, err
	}

	applyEnv(config)

	return config, info, nil
}

// applyEnv 环境变量覆盖（容器部署与 E2E 用）
func applyEnv(config *AppConfig) {
	if v := os.Getenv("SOC_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			config.Server.Port = p
		}
	}
	if v := os.Getenv("SOC_DATA_DIR"); v != "" {
		config.Data.DataDir = v
	}
	if v := os.Getenv("SOC_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("SOC_WAZUH_URL"); v != "" {
		config.Wazuh.BaseURL = v
		config.Wazuh.Enabled = true
	}
	if v := os.Getenv("SOC_WAZUH_USER"); v != "" {
		config.Wazuh.Username = v
	}
	if v := os.Getenv("SOC_WAZUH_PASSWORD"); v != "" {
		config.Wazuh.Password = v
	}
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
	subdirs := []string{"uploads", "exports"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}

// GetDataPath 获取数据文件路径
func GetDataPath(config *AppConfig, subdir, filename string) string {
	exeDir, _ := GetExeDir()
	if exeDir == "" {
		exeDir = "."
	}
	return filepath.Join(exeDir, config.Data.DataDir, subdir, filename)
}
