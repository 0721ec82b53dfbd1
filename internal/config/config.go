// Package config 统一配置加载：yaml文件 + 环境变量覆盖 + 默认值 + 校验
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ServiceType 服务类型
type ServiceType string

const (
	ServiceTypeAPIServer   ServiceType = "api-server"
	ServiceTypeParseWorker ServiceType = "parse-worker"
)

// Config 全局配置
type Config struct {
	App       AppConfig       `yaml:"app"`
	APIServer APIServerConfig `yaml:"api_server"`
	Worker    WorkerConfig    `yaml:"worker"`
	Database  DatabaseConfig  `yaml:"database"`
	Queue     QueueConfig     `yaml:"queue"`
	Cache     CacheConfig     `yaml:"cache"`
	Storage   StorageConfig   `yaml:"storage"`
	LLM       LLMConfig       `yaml:"llm"`
	Match     MatchConfig     `yaml:"match"`
}

// AppConfig 应用级配置
type AppConfig struct {
	Name  string `yaml:"name" env:"APP_NAME" default:"tailorjob"`
	Debug bool   `yaml:"debug" env:"APP_DEBUG" default:"false"`
}

// APIServerConfig HTTP服务配置
type APIServerConfig struct {
	Host    string        `yaml:"host" env:"API_HOST" default:"0.0.0.0"`
	Port    int           `yaml:"port" env:"API_PORT" default:"8080" validate:"min=1,max=65535"`
	Mode    string        `yaml:"mode" env:"GIN_MODE" default:"release"`
	Timeout time.Duration `yaml:"timeout" env:"API_TIMEOUT" default:"30s"`
}

// WorkerConfig 解析工作进程配置
type WorkerConfig struct {
	QueueName    string        `yaml:"queue_name" env:"WORKER_QUEUE_NAME" default:"queue:parse"`
	DequeueWait  time.Duration `yaml:"dequeue_wait" env:"WORKER_DEQUEUE_WAIT" default:"5s"`
	JobTimeout   time.Duration `yaml:"job_timeout" env:"WORKER_JOB_TIMEOUT" default:"120s"`
	IdleInterval time.Duration `yaml:"idle_interval" env:"WORKER_IDLE_INTERVAL" default:"1s"`
}

// DatabaseConfig PostgreSQL配置
type DatabaseConfig struct {
	Host            string        `yaml:"host" env:"DB_HOST" default:"localhost" validate:"required"`
	Port            int           `yaml:"port" env:"DB_PORT" default:"5432" validate:"min=1,max=65535"`
	Database        string        `yaml:"database" env:"DB_NAME" default:"tailorjob" validate:"required"`
	Username        string        `yaml:"username" env:"DB_USER" default:"postgres" validate:"required"`
	Password        string        `yaml:"password" env:"DB_PASSWORD" default:""`
	SSLMode         string        `yaml:"ssl_mode" env:"DB_SSL_MODE" default:"disable"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" env:"DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// QueueConfig Redis队列配置
type QueueConfig struct {
	Addr     string        `yaml:"addr" env:"QUEUE_REDIS_ADDR" default:"localhost:6379"`
	Password string        `yaml:"password" env:"QUEUE_REDIS_PASSWORD" default:""`
	DB       int           `yaml:"db" env:"QUEUE_REDIS_DB" default:"0"`
	JobTTL   time.Duration `yaml:"job_ttl" env:"QUEUE_JOB_TTL" default:"24h"`
}

// CacheConfig 结果缓存配置
type CacheConfig struct {
	Addr     string        `yaml:"addr" env:"CACHE_REDIS_ADDR" default:"localhost:6379"`
	Password string        `yaml:"password" env:"CACHE_REDIS_PASSWORD" default:""`
	DB       int           `yaml:"db" env:"CACHE_REDIS_DB" default:"1"`
	TTL      time.Duration `yaml:"ttl" env:"CACHE_TTL" default:"168h"` // 7天
}

// StorageConfig MinIO对象存储配置
type StorageConfig struct {
	Endpoint        string `yaml:"endpoint" env:"STORAGE_ENDPOINT" default:"localhost:9000" validate:"required"`
	AccessKeyID     string `yaml:"access_key_id" env:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `yaml:"secret_access_key" env:"STORAGE_SECRET_KEY" default:"minioadmin"`
	UseSSL          bool   `yaml:"use_ssl" env:"STORAGE_USE_SSL" default:"false"`
	BucketName      string `yaml:"bucket_name" env:"STORAGE_BUCKET" default:"documents" validate:"required"`
}

// LLMConfig 补全服务配置（OpenAI兼容chat接口）
type LLMConfig struct {
	BaseURL     string        `yaml:"base_url" env:"LLM_BASE_URL" default:"https://api.moonshot.cn/v1" validate:"required,url"`
	APIKey      string        `yaml:"api_key" env:"LLM_API_KEY" default:""`
	Model       string        `yaml:"model" env:"LLM_MODEL" default:"kimi-k2-0711-preview"`
	Timeout     time.Duration `yaml:"timeout" env:"LLM_TIMEOUT" default:"60s"`
	MaxTokens   int           `yaml:"max_tokens" env:"LLM_MAX_TOKENS" default:"2000"`
	Temperature float64       `yaml:"temperature" env:"LLM_TEMPERATURE" default:"0.1"`
	RatePerMin  int           `yaml:"rate_per_min" env:"LLM_RATE_PER_MIN" default:"30" validate:"min=1"`
}

// MatchConfig 匹配算法配置
type MatchConfig struct {
	SkillsWeight        float64 `yaml:"skills_weight" env:"MATCH_SKILLS_WEIGHT" default:"0.4" validate:"min=0,max=1"`
	ExperienceWeight    float64 `yaml:"experience_weight" env:"MATCH_EXPERIENCE_WEIGHT" default:"0.4" validate:"min=0,max=1"`
	QualificationWeight float64 `yaml:"qualification_weight" env:"MATCH_QUALIFICATION_WEIGHT" default:"0.2" validate:"min=0,max=1"`
}

// LoadConfigForService 按服务类型加载配置。
// 优先级：默认值 < yaml文件 < 环境变量
func LoadConfigForService(serviceType ServiceType, configPath string) (*Config, error) {
	cfg := &Config{}

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("设置默认配置失败: %w", err)
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("读取配置文件失败: %w", err)
			}
			// 文件不存在时仅使用默认值与环境变量
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("解析环境变量失败: %w", err)
	}

	if err := cfg.Validate(serviceType); err != nil {
		return nil, fmt.Errorf("配置校验失败: %w", err)
	}

	return cfg, nil
}

// Validate 校验配置。权重之和必须为1
func (c *Config) Validate(serviceType ServiceType) error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}

	sum := c.Match.SkillsWeight + c.Match.ExperienceWeight + c.Match.QualificationWeight
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("匹配权重之和必须为1，实际为%.3f", sum)
	}

	if serviceType == ServiceTypeParseWorker && c.Worker.DequeueWait <= 0 {
		return fmt.Errorf("dequeue_wait必须为正值")
	}

	return nil
}
