package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Youtube   YoutubeConfig   `mapstructure:"youtube"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	OAuth     OAuthConfig     `mapstructure:"oauth"`
	SMS       SMSConfig       `mapstructure:"sms"`
	Prompt    PromptConfig    `mapstructure:"prompt"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	LogLevel  string          `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env      string `mapstructure:"env"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	Version  string `mapstructure:"version"`
	Name     string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig 資料庫配置
type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	LogSQL  bool   `mapstructure:"log_sql"`
	Migrate bool   `mapstructure:"migrate"`
}

// GeminiConfig Gemini API 配置
type GeminiConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	Model           string        `mapstructure:"model"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// YoutubeConfig 影片資料來源配置
type YoutubeConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxComments int           `mapstructure:"max_comments"`
	Language    string        `mapstructure:"language"`
}

// CacheConfig 萃取結果緩存配置（Redis）
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Addr    string        `mapstructure:"addr"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// JWTConfig JWT 配置
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
}

// OAuthConfig 社群登入配置
type OAuthConfig struct {
	Kakao KakaoOAuthConfig `mapstructure:"kakao"`
	Apple AppleOAuthConfig `mapstructure:"apple"`
}

// KakaoOAuthConfig 卡考 OAuth 配置
type KakaoOAuthConfig struct {
	ClientID    string `mapstructure:"client_id"`
	RedirectURI string `mapstructure:"redirect_uri"`
}

// AppleOAuthConfig 蘋果 OAuth 配置
type AppleOAuthConfig struct {
	ClientID    string `mapstructure:"client_id"`
	RedirectURI string `mapstructure:"redirect_uri"`
}

// SMSConfig 簡訊服務配置
type SMSConfig struct {
	APIKey         string `mapstructure:"api_key"`
	APISecret      string `mapstructure:"api_secret"`
	Sender         string `mapstructure:"sender"`
	OwnerPhone     string `mapstructure:"owner_phone"`
	KakaoChannelID string `mapstructure:"kakao_channel_id"`
}

// PromptConfig 提示詞設定檔位置
type PromptConfig struct {
	Path string `mapstructure:"path"`
}

// PipelineConfig 生成流程設定
type PipelineConfig struct {
	MaxConcurrent int `mapstructure:"max_concurrent"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件
	if err := godotenv.Load(); err != nil {
		if !strings.Contains(err.Error(), "no such file") {
			return nil, err
		}
	}

	// 設定預設值
	setDefaults()

	// 設定環境變數前綴
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 綁定環境變量
	viper.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	viper.BindEnv("gemini.model", "GEMINI_MODEL")
	viper.BindEnv("database.path", "DATABASE_PATH")
	viper.BindEnv("cache.enabled", "CACHE_ENABLED")
	viper.BindEnv("cache.addr", "REDIS_ADDR")
	viper.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	viper.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("oauth.kakao.client_id", "KAKAO_CLIENT_ID")
	viper.BindEnv("oauth.kakao.redirect_uri", "KAKAO_REDIRECT_URI")
	viper.BindEnv("oauth.apple.client_id", "APPLE_CLIENT_ID")
	viper.BindEnv("oauth.apple.redirect_uri", "APPLE_REDIRECT_URI")
	viper.BindEnv("sms.api_key", "SOLAPI_API_KEY")
	viper.BindEnv("sms.api_secret", "SOLAPI_API_SECRET")
	viper.BindEnv("sms.kakao_channel_id", "KAKAO_CHANNEL_ID")
	viper.BindEnv("prompt.path", "PROMPT_PATH")
	viper.BindEnv("pipeline.max_concurrent", "PIPELINE_MAX_CONCURRENT")
	viper.BindEnv("log_level", "LOG_LEVEL")

	// 設定設定檔名稱和路徑
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	// 讀取設定檔
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 添加調試日誌（logger 尚未初始化，改用 fmt.Println）
	fmt.Println("Loading configuration", "gemini_api_key:", maskAPIKey(viper.GetString("gemini.api_key")), "gemini_model:", viper.GetString("gemini.model"))

	// 解析設定
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// maskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults() {
	// 應用程式設定
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "recipe-pipeline")

	// 伺服器設定
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// 資料庫設定
	viper.SetDefault("database.path", "recipe-pipeline.db")
	viper.SetDefault("database.log_sql", false)
	viper.SetDefault("database.migrate", true)

	// Gemini 設定
	viper.SetDefault("gemini.model", "gemini-2.5-flash")
	viper.SetDefault("gemini.max_output_tokens", 8192)
	viper.SetDefault("gemini.timeout", "120s")

	// 影片資料來源設定
	viper.SetDefault("youtube.timeout", "30s")
	viper.SetDefault("youtube.max_comments", 100)
	viper.SetDefault("youtube.language", "ko")

	// 快取設定
	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.addr", "localhost:6379")
	viper.SetDefault("cache.ttl", "24h")

	// 限流設定
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests", 100)
	viper.SetDefault("rate_limit.window", "1m")

	// JWT 設定
	viper.SetDefault("jwt.access_ttl", "1h")
	viper.SetDefault("jwt.refresh_ttl", "720h")

	// 提示詞設定
	viper.SetDefault("prompt.path", "configs/recipe-extraction.yaml")

	// 生成流程預設值
	viper.SetDefault("pipeline.max_concurrent", 4)
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	// 驗證資料庫設定
	if config.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		if config.Cache.Addr == "" {
			return fmt.Errorf("invalid cache addr")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
	}

	// 驗證提示詞設定
	if config.Prompt.Path == "" {
		return fmt.Errorf("prompt config path is required")
	}

	return nil
}
