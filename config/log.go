package config

// LogConfig 日志配置
//
// 环境变量 PBSYNC_LOG_LEVEL / PBSYNC_LOG_FORMAT 优先于本配置。
type LogConfig struct {
	// Level 默认日志级别 (debug/info/warn/error)
	Level string `json:"level"`

	// Format 输出格式 (text/json)
	Format string `json:"format"`
}

// DefaultLogConfig 返回默认配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "text",
	}
}
