package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"vote-preview/internal/cache"
	"vote-preview/internal/config"
	"vote-preview/internal/dexscreener"
	"vote-preview/internal/domain"
	httpSrv "vote-preview/internal/http"
	"vote-preview/internal/logging"
	"vote-preview/internal/page"
	"vote-preview/internal/poller"
	"vote-preview/internal/preview"
	"vote-preview/internal/redis"
	"vote-preview/internal/tokens"
)

func main() {
	_ = godotenv.Load()
	configPath := pflag.String("config", os.Getenv("CONFIG_FILE"), "optional YAML config file")
	port := pflag.String("port", "", "listen port (overrides PORT)")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", slog.Any("error", err))
		os.Exit(2)
	}
	if *port != "" {
		cfg.Port = *port
	}

	slog.SetDefault(logging.NewLogger(cfg.LogLevel, cfg.LogFile))

	rc := redis.NewClient(cfg)
	if rc != nil {
		defer rc.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	policy := dexscreener.RequestPolicy{
		Timeout:       cfg.UpstreamTimeout(),
		UserAgent:     cfg.UserAgent,
		OmitUserAgent: cfg.OmitUserAgent,
		ForceIPv4:     cfg.ForceIPv4,
	}
	if policy.UserAgent == "" {
		policy.UserAgent = dexscreener.DefaultUserAgent
	}
	client := dexscreener.NewClient(cfg.DexBaseURL, cfg.TrendingURL, policy)

	tokenSvc := tokens.NewService(client, tokenStore[domain.MarketData](cfg, rc, "md:"), tokenStore[json.RawMessage](cfg, rc, "trending:"))

	images, err := imageStore(cfg)
	if err != nil {
		slog.Error("Failed to open image cache", slog.Any("error", err))
		os.Exit(1)
	}
	composer := preview.NewComposer(preview.Config{
		RasterEnabled: cfg.RasterEnabled,
		IconEnabled:   cfg.IconEnabled,
		IconBaseURL:   cfg.IconBaseURL,
		IconTimeout:   cfg.IconTimeout(),
		Brand:         cfg.Brand,
		Policy:        policy,
	})
	previews := preview.NewService(tokenSvc, composer, images)

	pages, err := page.NewRenderer(tokenSvc, page.Options{
		SiteName:           cfg.Brand,
		DefaultTitle:       cfg.DefaultTitle,
		DefaultDescription: cfg.DefaultDescription,
		DefaultImage:       cfg.DefaultImage,
		DefaultIcon:        cfg.DefaultIcon,
		Scheme:             cfg.PublicScheme,
		ImageMode:          cfg.OGImageMode,
		ScreenshotURL:      cfg.ScreenshotURL,
		IconBaseURL:        cfg.IconBaseURL,
		TemplatePath:       cfg.TemplatePath,
	})
	if err != nil {
		slog.Error("Failed to load page template", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.WarmIntervalSec > 0 {
		slog.Info("Starting cache warmer", slog.String("chain", cfg.WarmChain), slog.Duration("interval", cfg.WarmInterval()))
		go func() {
			if err := poller.Run(ctx, tokenSvc, cfg.WarmChain, cfg.WarmInterval()); err != nil && ctx.Err() == nil {
				slog.Error("Cache warmer stopped", slog.Any("error", err))
			}
		}()
	}

	app := httpSrv.NewServer(cfg, httpSrv.Deps{Redis: rc, Tokens: tokenSvc, Previews: previews, Pages: pages})
	go func() {
		<-ctx.Done()
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	slog.Info("API listening",
		slog.String("port", cfg.Port),
		slog.Bool("raster", previews.CanRaster()),
		slog.String("image_cache", cfg.ImageCache),
		slog.Bool("redis", rc != nil))
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("Server error", slog.Any("error", err))
		os.Exit(1)
	}
}

// tokenStore keeps market data in redis when configured, in memory otherwise.
func tokenStore[T any](cfg config.Config, rc *goredis.Client, prefix string) cache.Cache[T] {
	if rc != nil {
		return cache.NewRedisStore[T](rc, "vp:"+prefix, cfg.TokenCacheTTL())
	}
	return cache.NewMemoryStore[T](cfg.TokenCacheTTL())
}

func imageStore(cfg config.Config) (cache.Cache[preview.Artifact], error) {
	switch cfg.ImageCache {
	case config.ImageCacheDisk:
		return cache.NewFileStore[preview.Artifact](cfg.ImageCacheDir, ".img", preview.ArtifactCodec{}, cfg.ImageCacheTTL())
	case config.ImageCacheNone:
		return cache.NoopStore[preview.Artifact]{}, nil
	}
	return cache.NewMemoryStore[preview.Artifact](cfg.ImageCacheTTL()), nil
}
