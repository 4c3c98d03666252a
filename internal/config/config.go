package config

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，如 LISTING_DATABASE_DSN
const EnvPrefix = "LISTING"

// ==================== 配置结构 ====================

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Directory DirectoryConfig `mapstructure:"directory"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Cookie    CookieConfig    `mapstructure:"cookie"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Wizard    WizardConfig    `mapstructure:"wizard"`
	Tasks     TasksConfig     `mapstructure:"tasks"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Mode            string        `mapstructure:"mode"` // debug | release | test
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DirectoryConfig 目录后端
type DirectoryConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FetchRetries int           `mapstructure:"fetch_retries"`
	Debug        bool          `mapstructure:"debug"`
}

// AuthConfig 认证服务，base_url 为空时沿用目录后端地址
type AuthConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	Leeway    time.Duration `mapstructure:"leeway"`
}

type CookieConfig struct {
	Domain   string `mapstructure:"domain"`
	Secure   bool   `mapstructure:"secure"`
	MaxAge   int    `mapstructure:"max_age"` // 秒
	SameSite string `mapstructure:"same_site"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // postgres | sqlite
	DSN    string `mapstructure:"dsn"`
}

type StorageConfig struct {
	Provider  string `mapstructure:"provider"` // s3 | local
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Endpoint  string `mapstructure:"endpoint"`
	CDNDomain string `mapstructure:"cdn_domain"`
	BasePath  string `mapstructure:"base_path"`
}

// KafkaConfig brokers 为空时不发送提交通知
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type WizardConfig struct {
	IdleTTL        time.Duration `mapstructure:"idle_ttl"`
	SubmitCooldown time.Duration `mapstructure:"submit_cooldown"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

type TasksConfig struct {
	SweepEnabled     bool          `mapstructure:"sweep_enabled"`
	SweepSpec        string        `mapstructure:"sweep_spec"`
	RetentionEnabled bool          `mapstructure:"retention_enabled"`
	RetentionSpec    string        `mapstructure:"retention_spec"`
	Retention        time.Duration `mapstructure:"retention"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// ==================== 加载 ====================

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("directory.base_url", "http://localhost:9000")
	v.SetDefault("directory.timeout", 15*time.Second)
	v.SetDefault("directory.fetch_retries", 2)
	v.SetDefault("directory.debug", false)

	v.SetDefault("auth.base_url", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.leeway", 30*time.Second)

	v.SetDefault("cookie.domain", "")
	v.SetDefault("cookie.secure", true)
	v.SetDefault("cookie.max_age", 7*24*3600)
	v.SetDefault("cookie.same_site", "lax")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")

	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.endpoint", "/uploads")
	v.SetDefault("storage.cdn_domain", "")
	v.SetDefault("storage.base_path", "./uploads")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "listing-events")

	v.SetDefault("wizard.idle_ttl", 2*time.Hour)
	v.SetDefault("wizard.submit_cooldown", 3*time.Second)
	v.SetDefault("wizard.max_upload_bytes", 5<<20)

	v.SetDefault("tasks.sweep_enabled", true)
	v.SetDefault("tasks.sweep_spec", "0 */5 * * * *")
	v.SetDefault("tasks.retention_enabled", true)
	v.SetDefault("tasks.retention_spec", "0 30 3 * * *")
	v.SetDefault("tasks.retention", 90*24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load 读取配置：默认值 < YAML 文件 < LISTING_* 环境变量
// path 为空时只用默认值和环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ==================== 校验 ====================

// Validate 启动前的配置检查
func (c *Config) Validate() error {
	var errs []error

	if c.Directory.BaseURL == "" {
		errs = append(errs, errors.New("directory.base_url 不能为空"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret 不能为空"))
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("不支持的数据库驱动: %s", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn 不能为空"))
	}
	switch c.Storage.Provider {
	case "local":
	case "s3":
		if c.Storage.Bucket == "" || c.Storage.Region == "" {
			errs = append(errs, errors.New("s3 存储需要 bucket 和 region"))
		}
	default:
		errs = append(errs, fmt.Errorf("不支持的存储提供者: %s", c.Storage.Provider))
	}
	if c.Wizard.IdleTTL <= 0 {
		errs = append(errs, errors.New("wizard.idle_ttl 必须大于 0"))
	}
	if c.Wizard.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("wizard.max_upload_bytes 必须大于 0"))
	}
	if _, ok := sameSiteModes[strings.ToLower(c.Cookie.SameSite)]; !ok {
		errs = append(errs, fmt.Errorf("cookie.same_site 取值无效: %s", c.Cookie.SameSite))
	}

	return errors.Join(errs...)
}

var sameSiteModes = map[string]http.SameSite{
	"":       http.SameSiteDefaultMode,
	"lax":    http.SameSiteLaxMode,
	"strict": http.SameSiteStrictMode,
	"none":   http.SameSiteNoneMode,
}

// SameSiteMode Cookie 的 SameSite 取值
func (c CookieConfig) SameSiteMode() http.SameSite {
	if m, ok := sameSiteModes[strings.ToLower(c.SameSite)]; ok {
		return m
	}
	return http.SameSiteLaxMode
}

// AuthBaseURL 认证服务地址
func (c *Config) AuthBaseURL() string {
	if c.Auth.BaseURL != "" {
		return c.Auth.BaseURL
	}
	return c.Directory.BaseURL
}
