package tokens

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"vote-preview/internal/cache"
	"vote-preview/internal/domain"
)

const trendingKey = "trending"

// Service is the token data cache. A fresh entry is served without touching
// the upstream; a stale or missing one is refetched. Upstream failures are
// returned to the caller and a stale entry is never served in their place.
type Service struct {
	upstream Upstream
	docs     cache.Cache[domain.MarketData]
	trending cache.Cache[json.RawMessage]
}

func NewService(upstream Upstream, docs cache.Cache[domain.MarketData], trending cache.Cache[json.RawMessage]) *Service {
	return &Service{upstream: upstream, docs: docs, trending: trending}
}

// Get returns the market data for address. The cache key is case-insensitive
// but the upstream is queried with the address as given.
func (s *Service) Get(ctx context.Context, address string) (*domain.MarketData, error) {
	address = strings.TrimSpace(address)
	key := domain.NormalizeAddress(address)

	e, ok, err := s.docs.Get(ctx, key)
	if err != nil {
		slog.Warn("Token cache read failed", slog.String("address", address), slog.Any("error", err))
	}
	if ok && !s.docs.IsExpired(e) {
		doc := e.Value
		return &doc, nil
	}

	doc, err := s.upstream.FetchMarketData(ctx, address)
	if err != nil {
		if ok {
			slog.Warn("Refetch failed, not serving stale entry",
				slog.String("address", address), slog.Time("fetched_at", e.FetchedAt()), slog.Any("error", err))
		}
		return nil, err
	}
	if _, err := s.docs.Set(ctx, key, *doc); err != nil {
		slog.Warn("Token cache write failed", slog.String("address", address), slog.Any("error", err))
	}
	return doc, nil
}

// BestPair resolves address to its representative pair.
func (s *Service) BestPair(ctx context.Context, address string) (domain.Pair, error) {
	doc, err := s.Get(ctx, address)
	if err != nil {
		return domain.Pair{}, err
	}
	pair, ok := domain.SelectBestPair(doc)
	if !ok {
		return domain.Pair{}, &domain.NotFoundError{Address: address}
	}
	return pair, nil
}

// Trending returns the trending document under the same TTL and no-stale policy.
func (s *Service) Trending(ctx context.Context) (json.RawMessage, error) {
	e, ok, err := s.trending.Get(ctx, trendingKey)
	if err != nil {
		slog.Warn("Trending cache read failed", slog.Any("error", err))
	}
	if ok && !s.trending.IsExpired(e) {
		return e.Value, nil
	}
	raw, err := s.upstream.FetchTrending(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.trending.Set(ctx, trendingKey, raw); err != nil {
		slog.Warn("Trending cache write failed", slog.Any("error", err))
	}
	return raw, nil
}
