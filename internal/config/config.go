package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Redis       RedisConfig
	Cache       CacheConfig
	Bus         BusConfig
	Resolver    ResolverConfig
	Transcriber TranscriberConfig
	LLM         LLMConfig
	Admin       AdminConfig
	RateLimit   RateLimitConfig
}

type ServerConfig struct {
	Port        string
	Env         string
	FrontendURL string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CacheConfig struct {
	// TTL applies to both namespaces; per deployment, not per entry.
	TTL time.Duration
}

type BusConfig struct {
	// MaxLen caps retained entries per stream, oldest evicted first.
	MaxLen int64
}

type ResolverConfig struct {
	PodcastIndexBaseURL string
	PodcastIndexKey     string
	PodcastIndexSecret  string
	// MaxDurationSeconds rejects episodes before any download happens.
	MaxDurationSeconds int
	AudioDir           string
}

type TranscriberConfig struct {
	BaseURL string
	APIKey  string
}

type LLMConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	// MinInterval spaces out LLM calls.
	MinInterval time.Duration
}

type AdminConfig struct {
	// Token authorizes cache clear; separate from any API auth.
	Token string
}

type RateLimitConfig struct {
	SubmitPerMin int
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.frontend_url", "http://localhost:5173")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("cache.ttl_hours", 7*24)
	viper.SetDefault("bus.maxlen", 500)
	viper.SetDefault("resolver.podcast_index_base_url", "https://api.podcastindex.org/api/1.0")
	viper.SetDefault("resolver.podcast_index_key", "")
	viper.SetDefault("resolver.podcast_index_secret", "")
	viper.SetDefault("resolver.max_duration_seconds", 1800)
	viper.SetDefault("resolver.audio_dir", "audio_files")
	viper.SetDefault("transcriber.base_url", "https://api.assemblyai.com/v2")
	viper.SetDefault("transcriber.api_key", "")
	viper.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	viper.SetDefault("llm.api_key", "")
	viper.SetDefault("llm.model", "llama3-70b-8192")
	viper.SetDefault("llm.min_interval_seconds", 60)
	viper.SetDefault("admin.token", "default-admin-key")
	viper.SetDefault("ratelimit.submit_per_min", 30)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:        viper.GetString("server.port"),
			Env:         viper.GetString("server.env"),
			FrontendURL: viper.GetString("server.frontend_url"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Cache: CacheConfig{
			TTL: time.Duration(viper.GetInt("cache.ttl_hours")) * time.Hour,
		},
		Bus: BusConfig{
			MaxLen: viper.GetInt64("bus.maxlen"),
		},
		Resolver: ResolverConfig{
			PodcastIndexBaseURL: viper.GetString("resolver.podcast_index_base_url"),
			PodcastIndexKey:     viper.GetString("resolver.podcast_index_key"),
			PodcastIndexSecret:  viper.GetString("resolver.podcast_index_secret"),
			MaxDurationSeconds:  viper.GetInt("resolver.max_duration_seconds"),
			AudioDir:            viper.GetString("resolver.audio_dir"),
		},
		Transcriber: TranscriberConfig{
			BaseURL: viper.GetString("transcriber.base_url"),
			APIKey:  viper.GetString("transcriber.api_key"),
		},
		LLM: LLMConfig{
			BaseURL:     viper.GetString("llm.base_url"),
			APIKey:      viper.GetString("llm.api_key"),
			Model:       viper.GetString("llm.model"),
			MinInterval: time.Duration(viper.GetInt("llm.min_interval_seconds")) * time.Second,
		},
		Admin: AdminConfig{
			Token: viper.GetString("admin.token"),
		},
		RateLimit: RateLimitConfig{
			SubmitPerMin: viper.GetInt("ratelimit.submit_per_min"),
		},
	}

	return cfg, nil
}
