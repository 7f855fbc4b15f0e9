// Package config 加载服务配置（viper：yaml 文件 + 环境变量覆盖）
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 服务配置
type Config struct {
	Env      string         `mapstructure:"env"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Sync     SyncConfig     `mapstructure:"sync"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Crypto   CryptoConfig   `mapstructure:"crypto"`
	Tasks    TasksConfig    `mapstructure:"tasks"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	DSN      string `mapstructure:"dsn"`
	LogLevel string `mapstructure:"log_level"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	Output      string `mapstructure:"output"`
	FilePath    string `mapstructure:"file_path"`
	Development bool   `mapstructure:"development"`
}

// SyncConfig 同步触发参数
type SyncConfig struct {
	Secret         string        `mapstructure:"secret"`
	OrderInterval  time.Duration `mapstructure:"order_interval"`
	MemberInterval time.Duration `mapstructure:"member_interval"`
	SettingsTTL    time.Duration `mapstructure:"settings_ttl"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout"`
}

type JWTConfig struct {
	Secret    string        `mapstructure:"secret"`
	AccessTTL time.Duration `mapstructure:"access_ttl"`
	Issuer    string        `mapstructure:"issuer"`
}

type CryptoConfig struct {
	Key string `mapstructure:"key"`
}

// TasksConfig 进程内轮询任务（外部调度器不可用时开启）
type TasksConfig struct {
	OrderEnabled  bool   `mapstructure:"order_enabled"`
	OrderSpec     string `mapstructure:"order_spec"`
	MemberEnabled bool   `mapstructure:"member_enabled"`
	MemberSpec    string `mapstructure:"member_spec"`
}

// Load 加载配置
// 顺序: .env -> configs/{env}.yaml（可选） -> SOCIETY_* 环境变量
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SOCIETY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 部署平台惯用的变量名
	_ = v.BindEnv("sync.secret", "CRON_SECRET", "SOCIETY_SYNC_SECRET")
	_ = v.BindEnv("database.dsn", "DATABASE_URL", "SOCIETY_DATABASE_DSN")
	_ = v.BindEnv("crypto.key", "ENCRYPTION_KEY", "SOCIETY_CRYPTO_KEY")
	_ = v.BindEnv("server.port", "PORT", "SOCIETY_SERVER_PORT")

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	v.Set("env", env)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = filepath.Join("configs", env+".yaml")
	}
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	return &cfg, nil
}

// Validate 校验启动 HTTP 服务所需的配置
func (c *Config) Validate() error {
	var missing []string
	if c.Database.DSN == "" {
		missing = append(missing, "database.dsn (DATABASE_URL)")
	}
	if c.Crypto.Key == "" {
		missing = append(missing, "crypto.key (ENCRYPTION_KEY)")
	}
	if c.Sync.Secret == "" {
		missing = append(missing, "sync.secret (CRON_SECRET)")
	}
	if c.JWT.Secret == "" {
		missing = append(missing, "jwt.secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("缺少必要配置: %s", strings.Join(missing, ", "))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("sync.order_interval", 5*time.Minute)
	v.SetDefault("sync.member_interval", time.Minute)
	v.SetDefault("sync.settings_ttl", 5*time.Minute)
	v.SetDefault("sync.http_timeout", 30*time.Second)

	v.SetDefault("jwt.access_ttl", 12*time.Hour)
	v.SetDefault("jwt.issuer", "society-admin")

	v.SetDefault("tasks.order_enabled", false)
	v.SetDefault("tasks.order_spec", "0 */5 * * * *")
	v.SetDefault("tasks.member_enabled", false)
	v.SetDefault("tasks.member_spec", "30 * * * * *")
}
