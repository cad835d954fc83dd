package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "SLIDE_STREAM"

var (
	config *viper.Viper
	once   sync.Once
)

func init() {
	config = newViper()
	setDefaults()
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Init 初始化配置，配置文件不存在时使用默认值
func Init(configFiles ...string) error {
	var err error
	once.Do(func() {
		// .env 只用于本地开发，不存在时忽略
		_ = godotenv.Load()

		config = newViper()
		configFile := "config.yaml"
		if len(configFiles) > 0 && configFiles[0] != "" {
			configFile = configFiles[0]
		}
		config.SetConfigFile(configFile)

		// 设置默认值
		setDefaults()

		// 读取配置文件
		if err = config.ReadInConfig(); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				err = nil
				return
			}
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				err = nil
				return
			}
			err = fmt.Errorf("%w: read config file failed: %v", ErrInvalidConfig, err)
			return
		}

		// 监听配置文件变化
		config.WatchConfig()
	})
	return err
}

// setDefaults 设置默认值
func setDefaults() {
	config.SetDefault("server.port", 8080)
	config.SetDefault("server.app_name", "slide_stream")
	config.SetDefault("server.node_id", 1)
	config.SetDefault("server.print_routes", false)

	config.SetDefault("database.type", "sqlite")
	config.SetDefault("database.host", "localhost")
	config.SetDefault("database.port", 5432)
	config.SetDefault("database.user", "postgres")
	config.SetDefault("database.password", "postgres")
	config.SetDefault("database.dbname", "slide_stream")
	config.SetDefault("database.path", "data/slide_stream.db")
	config.SetDefault("database.max_idle_conns", 10)
	config.SetDefault("database.max_open_conns", 100)
	config.SetDefault("database.conn_max_lifetime", 3600)

	config.SetDefault("cache.redis.enabled", false)
	config.SetDefault("cache.redis.host", "localhost")
	config.SetDefault("cache.redis.port", 6379)
	config.SetDefault("cache.redis.db", 0)
	config.SetDefault("cache.redis.pool_size", 10)
	config.SetDefault("cache.redis.identity_expire", 30*24*3600)

	config.SetDefault("log.filename", "logs/app.log")
	config.SetDefault("log.level", "info")
	config.SetDefault("log.max_size", 100)
	config.SetDefault("log.max_backups", 3)
	config.SetDefault("log.max_age", 28)
	config.SetDefault("log.compress", true)
	config.SetDefault("log.console", false)

	config.SetDefault("security.allowed_origins", "*")
	config.SetDefault("security.api_keys", []string{})
	config.SetDefault("security.admin_key", "")
	config.SetDefault("security.download_secret", "change-me-download-secret")
	config.SetDefault("security.download_expire", 600)

	config.SetDefault("rate_limit.enabled", true)
	config.SetDefault("rate_limit.max_requests", 1000)
	config.SetDefault("rate_limit.duration", 3600)

	config.SetDefault("llm.base_url", "http://localhost:11434/api")
	config.SetDefault("llm.api_key", "")
	config.SetDefault("llm.model", "default")
	config.SetDefault("llm.framing", "")
	config.SetDefault("llm.timeout", 300)

	config.SetDefault("parser.max_depth", 64)
	config.SetDefault("parser.eager_force_close", false)

	config.SetDefault("export.template_path", "")
	config.SetDefault("export.thank_you_slide", true)
}

// Get 获取配置值
func Get(key string) interface{} {
	return config.Get(key)
}

// GetString 获取字符串配置值
func GetString(key string) string {
	return config.GetString(key)
}

// GetInt 获取整数配置值
func GetInt(key string) int {
	return config.GetInt(key)
}

// GetInt64 获取64位整数配置值
func GetInt64(key string) int64 {
	return config.GetInt64(key)
}

// GetUint64 获取64位无符号整数配置值
func GetUint64(key string) uint64 {
	return config.GetUint64(key)
}

// GetBool 获取布尔配置值
func GetBool(key string) bool {
	return config.GetBool(key)
}

// GetStringSlice 获取字符串切片配置值
func GetStringSlice(key string) []string {
	return config.GetStringSlice(key)
}

// GetSeconds 以秒为单位的配置值转换为 time.Duration
func GetSeconds(key string) time.Duration {
	return time.Duration(config.GetInt64(key)) * time.Second
}

// Set 设置配置值
func Set(key string, value interface{}) {
	config.Set(key, value)
}

// IsSet 检查配置值是否已设置
func IsSet(key string) bool {
	return config.IsSet(key)
}

// AllSettings 获取所有配置
func AllSettings() map[string]interface{} {
	return config.AllSettings()
}

// GetDSN 获取数据库连接字符串
func GetDSN() string {
	dbType := GetString("database.type")
	switch strings.ToLower(dbType) {
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			GetString("database.host"),
			GetInt("database.port"),
			GetString("database.user"),
			GetString("database.password"),
			GetString("database.dbname"),
		)
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			GetString("database.user"),
			GetString("database.password"),
			GetString("database.host"),
			GetInt("database.port"),
			GetString("database.dbname"),
		)
	case "sqlite":
		return GetString("database.path")
	default:
		return ""
	}
}

// GetDownloadSecret 导出下载链接的签名密钥
func GetDownloadSecret() []byte {
	return []byte(GetString("security.download_secret"))
}

// GetServerAddress 获取服务器地址
func GetServerAddress() string {
	return fmt.Sprintf(":%d", GetInt("server.port"))
}

// Validate 启动前检查关键配置
func Validate() error {
	switch strings.ToLower(GetString("database.type")) {
	case "postgres", "mysql":
		if GetString("database.host") == "" || GetString("database.dbname") == "" {
			return fmt.Errorf("%w: host and dbname are required", ErrInvalidDatabaseConfig)
		}
	case "sqlite":
		if GetString("database.path") == "" {
			return fmt.Errorf("%w: path is required", ErrInvalidDatabaseConfig)
		}
	default:
		return fmt.Errorf("%w: unsupported type %q", ErrInvalidDatabaseConfig, GetString("database.type"))
	}
	if GetString("llm.base_url") == "" {
		return fmt.Errorf("%w: llm.base_url is required", ErrInvalidConfig)
	}
	return nil
}
