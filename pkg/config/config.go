package config

import (
	"os"
	"strconv"
	"time"
)

// DBConfig 数据库配置
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	// 慢查询阈值，0 表示使用默认值 100ms
	SlowQueryThreshold time.Duration `yaml:"slow_query_threshold"`
}

// MQConfig 消息队列配置，URL 为空时不启用 outbox 投递
type MQConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // gin mode: debug / release / test
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level"`
}

// MailConfig 邮件发送配置
type MailConfig struct {
	Provider       string `yaml:"provider"` // smtp / sendgrid / log
	From           string `yaml:"from"`
	SMTPHost       string `yaml:"smtp_host"`
	SMTPPort       int    `yaml:"smtp_port"`
	SMTPUser       string `yaml:"smtp_user"`
	SMTPPassword   string `yaml:"smtp_password"`
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
}

// ReportConfig 周报任务配置
type ReportConfig struct {
	Schedule    string        `yaml:"schedule"`
	Timezone    string        `yaml:"timezone"`
	Workers     int           `yaml:"workers"`
	SendTimeout time.Duration `yaml:"send_timeout"`
	LockTTL     time.Duration `yaml:"lock_ttl"`
	SkipEmpty   bool          `yaml:"skip_empty"`
}

// OutboxConfig outbox 投递配置
type OutboxConfig struct {
	Interval   time.Duration `yaml:"interval"`
	BatchSize  int           `yaml:"batch_size"`
	MaxRetries int           `yaml:"max_retries"`
}

// Location 解析报表时区，空值或 "Local" 使用服务器本地时区
func (c ReportConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// OverrideDBFromEnv 从环境变量覆盖数据库配置
func OverrideDBFromEnv(cfg *DBConfig) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Name = name
	}
	if mode := os.Getenv("DB_SSLMODE"); mode != "" {
		cfg.SSLMode = mode
	}
}

// OverrideMQFromEnv 从环境变量覆盖MQ配置
func OverrideMQFromEnv(cfg *MQConfig) {
	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.URL = url
	}
}

// OverrideRedisFromEnv 从环境变量覆盖Redis配置
func OverrideRedisFromEnv(cfg *RedisConfig) {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Password = password
	}
}

// OverrideServerFromEnv 从环境变量覆盖服务器配置
func OverrideServerFromEnv(cfg *ServerConfig) {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}
}

// OverrideLogFromEnv 从环境变量覆盖日志级别
func OverrideLogFromEnv(cfg *LogConfig) {
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Level = level
	}
}

// OverrideMailFromEnv 从环境变量覆盖邮件配置
func OverrideMailFromEnv(cfg *MailConfig) {
	if provider := os.Getenv("MAIL_PROVIDER"); provider != "" {
		cfg.Provider = provider
	}
	if from := os.Getenv("MAIL_FROM"); from != "" {
		cfg.From = from
	}
	if host := os.Getenv("MAIL_SMTP_HOST"); host != "" {
		cfg.SMTPHost = host
	}
	if port := os.Getenv("MAIL_SMTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.SMTPPort = p
		}
	}
	if user := os.Getenv("MAIL_SMTP_USER"); user != "" {
		cfg.SMTPUser = user
	}
	if password := os.Getenv("MAIL_SMTP_PASSWORD"); password != "" {
		cfg.SMTPPassword = password
	}
	if key := os.Getenv("SENDGRID_API_KEY"); key != "" {
		cfg.SendGridAPIKey = key
	}
}

// OverrideReportFromEnv 从环境变量覆盖周报配置
func OverrideReportFromEnv(cfg *ReportConfig) {
	if schedule := os.Getenv("REPORT_SCHEDULE"); schedule != "" {
		cfg.Schedule = schedule
	}
	if tz := os.Getenv("REPORT_TIMEZONE"); tz != "" {
		cfg.Timezone = tz
	}
	if workers := os.Getenv("REPORT_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil {
			cfg.Workers = w
		}
	}
	if timeout := os.Getenv("REPORT_SEND_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.SendTimeout = d
		}
	}
}
