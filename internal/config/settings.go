package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "SOMNIA"

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type AudioConfig struct {
	MaxUploadMB int `mapstructure:"max_upload_mb"`
}

func (a AudioConfig) MaxUploadBytes() int64 {
	return int64(a.MaxUploadMB) << 20
}

type SessionConfig struct {
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	TokenSecret   string        `mapstructure:"token_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
}

type VisionConfig struct {
	Provider        string        `mapstructure:"provider"`
	Model           string        `mapstructure:"model"`
	CaptureInterval time.Duration `mapstructure:"capture_interval"`
	ConsumeInterval time.Duration `mapstructure:"consume_interval"`
	BatchSize       int           `mapstructure:"batch_size"`
	MaxFrames       int           `mapstructure:"max_frames"`
	QueueBytes      int           `mapstructure:"queue_bytes"`
	MaxFrameMB      int           `mapstructure:"max_frame_mb"`
}

func (v VisionConfig) MaxFrameBytes() int64 {
	return int64(v.MaxFrameMB) << 20
}

type AssistantConfig struct {
	OpenAIAPIKey  string        `mapstructure:"openai_api_key"`
	OpenAIBaseURL string        `mapstructure:"openai_base_url"`
	MaxRetries    int           `mapstructure:"max_retries"`
	Timeout       time.Duration `mapstructure:"timeout"`
	GeminiAPIKey  string        `mapstructure:"gemini_api_key"`
	GeminiModel   string        `mapstructure:"gemini_model"`
	OllamaURLs    []string      `mapstructure:"ollama_urls"`
	OllamaModel   string        `mapstructure:"ollama_model"`
	ChatProvider  string        `mapstructure:"chat_provider"`
	ChatModel     string        `mapstructure:"chat_model"`
}

type Settings struct {
	Server    ServerConfig    `mapstructure:"server"`
	Audio     AudioConfig     `mapstructure:"audio"`
	Session   SessionConfig   `mapstructure:"session"`
	Vision    VisionConfig    `mapstructure:"vision"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Env       string          `mapstructure:"env"`
	Debug     bool            `mapstructure:"debug"`
	Version   string          `mapstructure:"version"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", genEnv())
	v.SetDefault("debug", false)
	v.SetDefault("version", "0.1.0")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("audio.max_upload_mb", 25)

	v.SetDefault("session.idle_timeout", 2*time.Hour)
	v.SetDefault("session.sweep_interval", time.Minute)
	v.SetDefault("session.token_secret", "")
	v.SetDefault("session.token_ttl", 12*time.Hour)

	v.SetDefault("vision.provider", "openai")
	v.SetDefault("vision.model", "gpt-4o")
	v.SetDefault("vision.capture_interval", 20*time.Second)
	v.SetDefault("vision.consume_interval", time.Second)
	v.SetDefault("vision.batch_size", 3)
	v.SetDefault("vision.max_frames", 60)
	v.SetDefault("vision.queue_bytes", 32<<20)
	v.SetDefault("vision.max_frame_mb", 8)

	v.SetDefault("assistant.openai_api_key", "")
	v.SetDefault("assistant.openai_base_url", "")
	v.SetDefault("assistant.max_retries", 2)
	v.SetDefault("assistant.timeout", 60*time.Second)
	v.SetDefault("assistant.gemini_api_key", "")
	v.SetDefault("assistant.gemini_model", "gemini-1.5-flash-latest")
	v.SetDefault("assistant.ollama_urls", []string{})
	v.SetDefault("assistant.ollama_model", "llama3:8b")
	v.SetDefault("assistant.chat_provider", "openai")
	v.SetDefault("assistant.chat_model", "gpt-4o-mini")
}

// Load reads config_<ENV>.yaml from the working directory or ./config when
// present, then applies SOMNIA_* environment overrides
// (e.g. SOMNIA_SERVER_PORT, SOMNIA_ASSISTANT_OPENAI_API_KEY).
func Load() (*Settings, error) {
	return LoadFrom(viper.New(), ".", "./config")
}

func LoadFrom(v *viper.Viper, paths ...string) (*Settings, error) {
	setDefaults(v)

	v.SetConfigName("config_" + genEnv())
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// the OpenAI SDK convention
	if settings.Assistant.OpenAIAPIKey == "" {
		settings.Assistant.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}

	return &settings, nil
}

func genEnv() string {
	if env := os.Getenv(envPrefix + "_ENV"); env != "" {
		return env
	}
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "dev"
}
