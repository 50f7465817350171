package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL     string        `env:"API_BASE_URL" env-default:"http://localhost:8080"`
	APIPrefix      string        `env:"API_PREFIX" env-default:"/api"`
	UploadPath     string        `env:"UPLOAD_PATH" env-default:"/uploads"`
	ProxyURLs      []string      `env:"API_PROXY_URLS" env-separator:","`
	TLSClientHello string        `env:"API_TLS_CLIENT_HELLO"`
	UserAgent      string        `env:"API_USER_AGENT" env-default:"ramen-directory/1.0"`
	MaxRetries     int           `env:"API_MAX_RETRIES" env-default:"3"`
	RetryBackoff   time.Duration `env:"API_RETRY_BACKOFF" env-default:"500ms"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" env-default:"30s"`
	RateLimitDelay time.Duration `env:"RATE_LIMIT_DELAY" env-default:"0s"`

	PageSizeMax      int           `env:"PAGE_SIZE_MAX" env-default:"30"`
	SearchDebounce   time.Duration `env:"SEARCH_DEBOUNCE" env-default:"500ms"`
	EventMediaLimit  int           `env:"EVENT_MEDIA_LIMIT" env-default:"5"`
	ShopMediaLimit   int           `env:"SHOP_MEDIA_LIMIT" env-default:"10"`
	ReviewMediaLimit int           `env:"REVIEW_MEDIA_LIMIT" env-default:"5"`
	MaxUploadBytes   int64         `env:"MAX_UPLOAD_BYTES" env-default:"20971520"`

	ServerPort       string        `env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout      time.Duration `env:"SERVER_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout     time.Duration `env:"SERVER_WRITE_TIMEOUT" env-default:"30s"`
	WorkspaceIdleTTL time.Duration `env:"WORKSPACE_IDLE_TTL" env-default:"30m"`
	CookieSecure     bool          `env:"COOKIE_SECURE" env-default:"false"`
	LogLevel         string        `env:"LOG_LEVEL" env-default:"info"`
}

// LoadConfig reads an optional .env file and then the environment.
func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("error reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values cleanenv cannot.
func (c *Config) Validate() error {
	base, err := url.Parse(c.APIBaseURL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return fmt.Errorf("invalid API_BASE_URL %q: must be an absolute http(s) URL", c.APIBaseURL)
	}

	if c.APIPrefix != "" && !strings.HasPrefix(c.APIPrefix, "/") {
		c.APIPrefix = "/" + c.APIPrefix
	}
	c.APIPrefix = strings.TrimRight(c.APIPrefix, "/")

	var proxies []string
	for _, proxy := range c.ProxyURLs {
		proxy = strings.TrimSpace(proxy)
		if proxy == "" {
			continue
		}
		if !strings.HasPrefix(proxy, "http://") && !strings.HasPrefix(proxy, "https://") && !strings.HasPrefix(proxy, "socks5://") {
			return fmt.Errorf("invalid proxy URL format, must start with http://, https:// or socks5://: %s", proxy)
		}
		if _, err := url.Parse(proxy); err != nil {
			return fmt.Errorf("invalid proxy URL %s: %w", proxy, err)
		}
		proxies = append(proxies, proxy)
	}
	c.ProxyURLs = proxies

	if c.PageSizeMax <= 0 {
		return fmt.Errorf("PAGE_SIZE_MAX must be positive, got %d", c.PageSizeMax)
	}
	if c.EventMediaLimit <= 0 || c.ShopMediaLimit <= 0 || c.ReviewMediaLimit <= 0 {
		return fmt.Errorf("media limits must be positive")
	}
	if c.MaxRetries < 1 {
		c.MaxRetries = 1
	}
	return nil
}
