package config

import (
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	configFilePathENV = "CONFIG_FILE"
	envPrefix         = "DASH"
	defaultConfigFile = "configs/values_local.yaml"
)

// Config ...
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Stream   StreamConfig   `mapstructure:"stream"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Log      LogConfig      `mapstructure:"log"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type StreamConfig struct {
	Path           string        `mapstructure:"path"`
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	BackoffInitial time.Duration `mapstructure:"backoff_initial"`
	BackoffMax     time.Duration `mapstructure:"backoff_max"`
}

type SnapshotConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Encoding    string `mapstructure:"encoding"`
	Development bool   `mapstructure:"development"`
}

type AdminConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelegramConfig struct {
	Token         string `mapstructure:"token"`
	ChatID        int64  `mapstructure:"chat_id"`
	NotifySignals bool   `mapstructure:"notify_signals"`
	Commands      bool   `mapstructure:"commands"` // бот принимает команды из chat_id
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	ServiceName string `mapstructure:"service_name"`
}

// NewConfig читает configs/<CONFIG_FILE>; файла может не быть, тогда дефолты + env.
func NewConfig() (*Config, error) {
	path := os.Getenv(configFilePathENV)
	if path == "" {
		path = defaultConfigFile
	}
	return Load(path)
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.timeout", "10s")
	v.SetDefault("stream.path", "/ws")
	v.SetDefault("stream.ping_interval", "20s")
	v.SetDefault("stream.backoff_initial", "500ms")
	v.SetDefault("stream.backoff_max", "30s")
	v.SetDefault("snapshot.interval", "30s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("admin.addr", ":8080")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("telegram.notify_signals", false)
	v.SetDefault("telegram.commands", false)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.host", "localhost")
	v.SetDefault("tracing.port", 6831)
	v.SetDefault("tracing.service_name", "strategy-dashboard")
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return errors.Wrap(err, "api.base_url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("api.base_url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("api.base_url: host is required")
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be > 0")
	}
	if c.Snapshot.Interval <= 0 {
		return errors.New("snapshot.interval must be > 0")
	}
	if c.Stream.PingInterval <= 0 {
		return errors.New("stream.ping_interval must be > 0")
	}
	if c.Stream.BackoffInitial <= 0 || c.Stream.BackoffMax <= 0 {
		return errors.New("stream backoff must be > 0")
	}
	if c.Stream.BackoffInitial > c.Stream.BackoffMax {
		return errors.New("stream.backoff_initial must be <= stream.backoff_max")
	}
	return nil
}

// StreamURL: ws(s)://host/ws из базового адреса API.
func (c *Config) StreamURL() string {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	path := c.Stream.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	u.RawQuery = ""
	return u.String()
}
