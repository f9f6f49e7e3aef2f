package config

import (
	"log"
	"time"

	"habit-tracker/pkg/config"
)

type Config struct {
	DB     config.DBConfig     `yaml:"db"`
	MQ     config.MQConfig     `yaml:"mq"`
	Redis  config.RedisConfig  `yaml:"redis"`
	Server config.ServerConfig `yaml:"server"`
	Log    config.LogConfig    `yaml:"log"`
	Mail   config.MailConfig   `yaml:"mail"`
	Report config.ReportConfig `yaml:"report"`
	Outbox config.OutboxConfig `yaml:"outbox"`
}

func Load() *Config {
	// 使用统一配置中心
	env := config.GetConfigEnv()
	configDir := config.GetEnv("CONFIG_DIR", "config")

	cfgMap, err := config.LoadConfig(env, configDir)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	cfg := Default()
	if err := config.Decode(cfgMap, cfg); err != nil {
		log.Fatalf("failed to decode config: %v", err)
	}

	// 环境变量覆盖（优先级最高）
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideLogFromEnv(&cfg.Log)
	config.OverrideMailFromEnv(&cfg.Mail)
	config.OverrideReportFromEnv(&cfg.Report)

	return cfg
}

// Default 返回未被配置文件覆盖时使用的默认值
func Default() *Config {
	return &Config{
		DB: config.DBConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		Server: config.ServerConfig{Port: ":8080", Mode: "release"},
		Log:    config.LogConfig{Level: "info"},
		Mail: config.MailConfig{
			Provider: "log",
			SMTPPort: 587,
		},
		Report: config.ReportConfig{
			Schedule:    "0 12 * * 0",
			Timezone:    "Local",
			Workers:     4,
			SendTimeout: 10 * time.Second,
			LockTTL:     5 * time.Minute,
		},
		Outbox: config.OutboxConfig{
			Interval:   time.Second,
			BatchSize:  100,
			MaxRetries: 5,
		},
	}
}
