package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ImageCacheMemory = "memory"
	ImageCacheDisk   = "disk"
	ImageCacheNone   = "none"

	OGImageSelf       = "self"
	OGImageScreenshot = "screenshot"
)

// Config holds every runtime setting. Values come from the defaults below,
// then the optional YAML file, then the environment.
type Config struct {
	Port           string `yaml:"port"`
	RedisAddr      string `yaml:"redis_addr"`
	RedisDB        int    `yaml:"redis_db"`
	RateLimitRPS   int    `yaml:"rate_limit_rps"`
	RateLimitBurst int    `yaml:"rate_limit_burst"`

	DexBaseURL         string `yaml:"dex_base_url"`
	TrendingURL        string `yaml:"trending_url"`
	UserAgent          string `yaml:"user_agent"`
	OmitUserAgent      bool   `yaml:"omit_user_agent"`
	ForceIPv4          bool   `yaml:"force_ipv4"`
	UpstreamTimeoutSec int    `yaml:"upstream_timeout_sec"`

	TokenCacheTTLSec int    `yaml:"token_cache_ttl_sec"`
	ImageCache       string `yaml:"image_cache"`
	ImageCacheDir    string `yaml:"image_cache_dir"`
	ImageCacheTTLSec int    `yaml:"image_cache_ttl_sec"`

	RasterEnabled  bool   `yaml:"raster_enabled"`
	IconEnabled    bool   `yaml:"icon_enabled"`
	IconBaseURL    string `yaml:"icon_base_url"`
	IconTimeoutSec int    `yaml:"icon_timeout_sec"`
	Brand          string `yaml:"brand"`

	PublicScheme       string `yaml:"public_scheme"`
	OGImageMode        string `yaml:"og_image_mode"`
	ScreenshotURL      string `yaml:"screenshot_url"`
	TemplatePath       string `yaml:"template_path"`
	DefaultTitle       string `yaml:"default_title"`
	DefaultDescription string `yaml:"default_description"`
	DefaultImage       string `yaml:"default_image"`
	DefaultIcon        string `yaml:"default_icon"`

	WarmIntervalSec int    `yaml:"warm_interval_sec"`
	WarmChain       string `yaml:"warm_chain"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

func Defaults() Config {
	return Config{
		Port:               "3000",
		RateLimitRPS:       5,
		RateLimitBurst:     10,
		DexBaseURL:         "https://api.dexscreener.com",
		TrendingURL:        "https://api.dexscreener.com/token-boosts/top/v1",
		UpstreamTimeoutSec: 8,
		TokenCacheTTLSec:   300,
		ImageCache:         ImageCacheMemory,
		ImageCacheDir:      "cache/og",
		ImageCacheTTLSec:   300,
		RasterEnabled:      true,
		IconEnabled:        true,
		IconBaseURL:        "https://dd.dexscreener.com/ds-data/tokens",
		IconTimeoutSec:     3,
		Brand:              "vote-preview",
		PublicScheme:       "https",
		OGImageMode:        OGImageSelf,
		DefaultTitle:       "Token Vote",
		DefaultDescription: "Vote on your favourite tokens and see what the community thinks.",
		DefaultIcon:        "/favicon.ico",
		WarmChain:          "solana",
		LogLevel:           "info",
		LogFile:            "logs/app.log",
	}
}

func get(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
func geti(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
func getb(name string, def bool) bool {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// Load builds the config from defaults, the YAML file at path (skipped when
// path is empty) and the environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	overrideWithEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func overrideWithEnv(c *Config) {
	c.Port = get("PORT", c.Port)
	c.RedisAddr = get("REDIS_ADDR", c.RedisAddr)
	c.RedisDB = geti("REDIS_DB", c.RedisDB)
	c.RateLimitRPS = geti("RATE_LIMIT_RPS", c.RateLimitRPS)
	c.RateLimitBurst = geti("RATE_LIMIT_BURST", c.RateLimitBurst)

	c.DexBaseURL = get("DEX_BASE_URL", c.DexBaseURL)
	c.TrendingURL = get("DEX_TRENDING_URL", c.TrendingURL)
	c.UserAgent = get("UPSTREAM_USER_AGENT", c.UserAgent)
	c.OmitUserAgent = getb("UPSTREAM_OMIT_USER_AGENT", c.OmitUserAgent)
	c.ForceIPv4 = getb("UPSTREAM_FORCE_IPV4", c.ForceIPv4)
	c.UpstreamTimeoutSec = geti("UPSTREAM_TIMEOUT_SEC", c.UpstreamTimeoutSec)

	c.TokenCacheTTLSec = geti("TOKEN_CACHE_TTL_SEC", c.TokenCacheTTLSec)
	c.ImageCache = strings.ToLower(get("IMAGE_CACHE", c.ImageCache))
	c.ImageCacheDir = get("IMAGE_CACHE_DIR", c.ImageCacheDir)
	c.ImageCacheTTLSec = geti("IMAGE_CACHE_TTL_SEC", c.ImageCacheTTLSec)

	c.RasterEnabled = getb("RASTER_ENABLED", c.RasterEnabled)
	c.IconEnabled = getb("ICON_ENABLED", c.IconEnabled)
	c.IconBaseURL = get("ICON_BASE_URL", c.IconBaseURL)
	c.IconTimeoutSec = geti("ICON_TIMEOUT_SEC", c.IconTimeoutSec)
	c.Brand = get("BRAND", c.Brand)

	c.PublicScheme = get("PUBLIC_SCHEME", c.PublicScheme)
	c.OGImageMode = strings.ToLower(get("OG_IMAGE_MODE", c.OGImageMode))
	c.ScreenshotURL = get("SCREENSHOT_URL", c.ScreenshotURL)
	c.TemplatePath = get("PAGE_TEMPLATE", c.TemplatePath)
	c.DefaultTitle = get("DEFAULT_TITLE", c.DefaultTitle)
	c.DefaultDescription = get("DEFAULT_DESCRIPTION", c.DefaultDescription)
	c.DefaultImage = get("DEFAULT_IMAGE", c.DefaultImage)
	c.DefaultIcon = get("DEFAULT_ICON", c.DefaultIcon)

	c.WarmIntervalSec = geti("WARM_INTERVAL_SEC", c.WarmIntervalSec)
	c.WarmChain = get("WARM_CHAIN", c.WarmChain)

	c.LogLevel = strings.ToLower(get("LOG_LEVEL", c.LogLevel))
	c.LogFile = get("LOG_FILE", c.LogFile)
}

// Validate checks URLs, enums and positive durations.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	for name, v := range map[string]string{
		"dex_base_url":  c.DexBaseURL,
		"trending_url":  c.TrendingURL,
		"icon_base_url": c.IconBaseURL,
	} {
		if !isHTTPURL(v) {
			return fmt.Errorf("invalid %s: %q", name, v)
		}
	}
	switch c.ImageCache {
	case ImageCacheMemory, ImageCacheDisk, ImageCacheNone:
	default:
		return fmt.Errorf("invalid image_cache %q (want memory|disk|none)", c.ImageCache)
	}
	if c.ImageCache == ImageCacheDisk && c.ImageCacheDir == "" {
		return fmt.Errorf("image_cache_dir is required for disk cache")
	}
	switch c.OGImageMode {
	case OGImageSelf:
	case OGImageScreenshot:
		if !strings.Contains(c.ScreenshotURL, "{url}") || !isHTTPURL(strings.ReplaceAll(c.ScreenshotURL, "{url}", "x")) {
			return fmt.Errorf("screenshot_url must be an http(s) URL containing {url}")
		}
	default:
		return fmt.Errorf("invalid og_image_mode %q (want self|screenshot)", c.OGImageMode)
	}
	if c.PublicScheme != "http" && c.PublicScheme != "https" {
		return fmt.Errorf("invalid public_scheme %q", c.PublicScheme)
	}
	if c.UpstreamTimeoutSec <= 0 || c.IconTimeoutSec <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.TokenCacheTTLSec <= 0 || c.ImageCacheTTLSec <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	if c.WarmIntervalSec < 0 {
		return fmt.Errorf("warm_interval_sec must not be negative")
	}
	return nil
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (c Config) UpstreamTimeout() time.Duration { return seconds(c.UpstreamTimeoutSec) }
func (c Config) IconTimeout() time.Duration     { return seconds(c.IconTimeoutSec) }
func (c Config) TokenCacheTTL() time.Duration   { return seconds(c.TokenCacheTTLSec) }
func (c Config) ImageCacheTTL() time.Duration   { return seconds(c.ImageCacheTTLSec) }
func (c Config) WarmInterval() time.Duration    { return seconds(c.WarmIntervalSec) }

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }
