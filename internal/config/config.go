// Package config loads service configuration from a YAML file via viper,
// with environment variable overrides and optional hot reload.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/logging"
	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/storage"
)

// Config represents the service configuration.
type Config struct {
	AppName string
	RunMode string // gin mode: debug, release, test
	Host    string
	Port    int

	Logger  *logging.Config
	Storage *storage.Config
	Redis   *Redis
	Tools   *Tools
	Convert *Convert

	Viper *viper.Viper
}

// Redis holds the optional distributed progress store settings.
// An empty Addr keeps the in-memory store.
type Redis struct {
	Addr         string
	Username     string
	Password     string
	Db           int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	DialTimeout  time.Duration
}

// Tools holds external binary settings.
type Tools struct {
	Dir         string
	AutoInstall bool
}

// Convert holds the conversion pipeline settings.
type Convert struct {
	WorkDir              string
	MaxWorkers           int
	QueueSize            int
	JobTimeout           time.Duration
	DegradeToPlaceholder bool
	SubstituteDuration   time.Duration
	ResolveTimeout       time.Duration
	FetchTimeout         time.Duration
	MetadataTimeout      time.Duration
	Retention            time.Duration
}

// LoadConfig loads the configuration from the given file, or from the
// default search paths when configPath is empty.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/youtube-mp3-converter")
	}

	v.SetEnvPrefix("YMC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine: defaults and env vars still apply.
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "youtube-mp3-converter")
	v.SetDefault("run_mode", "release")
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 3001)
	v.SetDefault("logger.format", "text")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("storage.provider", "filesystem")
	v.SetDefault("storage.bucket", "./downloads")
	v.SetDefault("tools.dir", ".")
	v.SetDefault("tools.auto_install", true)
	v.SetDefault("convert.work_dir", "")
	v.SetDefault("convert.max_workers", 10)
	v.SetDefault("convert.queue_size", 100)
	v.SetDefault("convert.job_timeout", 10*time.Minute)
	v.SetDefault("convert.degrade_to_placeholder", true)
	v.SetDefault("convert.substitute_duration", 30*time.Second)
	v.SetDefault("convert.resolve_timeout", 30*time.Second)
	v.SetDefault("convert.fetch_timeout", 60*time.Second)
	v.SetDefault("convert.metadata_timeout", 15*time.Second)
	v.SetDefault("convert.retention", time.Hour)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		AppName: v.GetString("app_name"),
		RunMode: v.GetString("run_mode"),
		Host:    v.GetString("server.host"),
		Port:    v.GetInt("server.port"),
		Logger:  getLoggerConfig(v),
		Storage: getStorageConfig(v),
		Redis:   getRedisConfig(v),
		Tools:   getToolsConfig(v),
		Convert: getConvertConfig(v),
		Viper:   v,
	}
}

func getLoggerConfig(v *viper.Viper) *logging.Config {
	return &logging.Config{
		Level:      v.GetInt("logger.level"),
		Format:     v.GetString("logger.format"),
		Output:     v.GetString("logger.output"),
		OutputFile: v.GetString("logger.output_file"),
	}
}

func getStorageConfig(v *viper.Viper) *storage.Config {
	return &storage.Config{
		Provider: v.GetString("storage.provider"),
		ID:       v.GetString("storage.id"),
		Secret:   v.GetString("storage.secret"),
		Region:   v.GetString("storage.region"),
		Bucket:   v.GetString("storage.bucket"),
		Endpoint: v.GetString("storage.endpoint"),
	}
}

func getRedisConfig(v *viper.Viper) *Redis {
	return &Redis{
		Addr:         v.GetString("data.redis.addr"),
		Username:     v.GetString("data.redis.username"),
		Password:     v.GetString("data.redis.password"),
		Db:           v.GetInt("data.redis.db"),
		ReadTimeout:  v.GetDuration("data.redis.read_timeout"),
		WriteTimeout: v.GetDuration("data.redis.write_timeout"),
		DialTimeout:  v.GetDuration("data.redis.dial_timeout"),
	}
}

func getToolsConfig(v *viper.Viper) *Tools {
	return &Tools{
		Dir:         v.GetString("tools.dir"),
		AutoInstall: v.GetBool("tools.auto_install"),
	}
}

func getConvertConfig(v *viper.Viper) *Convert {
	return &Convert{
		WorkDir:              v.GetString("convert.work_dir"),
		MaxWorkers:           v.GetInt("convert.max_workers"),
		QueueSize:            v.GetInt("convert.queue_size"),
		JobTimeout:           v.GetDuration("convert.job_timeout"),
		DegradeToPlaceholder: v.GetBool("convert.degrade_to_placeholder"),
		SubstituteDuration:   v.GetDuration("convert.substitute_duration"),
		ResolveTimeout:       v.GetDuration("convert.resolve_timeout"),
		FetchTimeout:         v.GetDuration("convert.fetch_timeout"),
		MetadataTimeout:      v.GetDuration("convert.metadata_timeout"),
		Retention:            v.GetDuration("convert.retention"),
	}
}
