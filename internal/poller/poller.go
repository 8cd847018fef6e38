// Package poller keeps the token cache warm for whatever is trending.
package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"vote-preview/internal/dexscreener"
	"vote-preview/internal/domain"
)

// maxPerTick bounds upstream calls per round; the public API is rate limited.
const maxPerTick = 30

// Source is the token cache the warmer reads through.
type Source interface {
	Trending(ctx context.Context) (json.RawMessage, error)
	Get(ctx context.Context, address string) (*domain.MarketData, error)
}

// Run warms the cache every interval until ctx is cancelled. A zero
// interval disables warming and returns immediately.
func Run(ctx context.Context, src Source, chain string, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	for {
		n, err := tick(ctx, src, chain)
		if err != nil {
			slog.Warn("Cache warm failed", slog.Any("error", err))
		} else {
			slog.Debug("Cache warmed", slog.Int("tokens", n), slog.String("chain", chain))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// tick returns how many tokens were fetched successfully.
func tick(ctx context.Context, src Source, chain string) (int, error) {
	raw, err := src.Trending(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch trending: %w", err)
	}
	items, err := dexscreener.ParseTrending(raw)
	if err != nil {
		return 0, fmt.Errorf("parse trending: %w", err)
	}

	seen := make(map[string]struct{}, len(items))
	warmed := 0
	for _, it := range items {
		if len(seen) >= maxPerTick {
			break
		}
		if chain != "" && it.ChainID != chain {
			continue
		}
		key := domain.NormalizeAddress(it.TokenAddress)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if ctx.Err() != nil {
			return warmed, ctx.Err()
		}
		if _, err := src.Get(ctx, it.TokenAddress); err != nil {
			slog.Debug("Token warm failed", slog.String("address", it.TokenAddress), slog.Any("error", err))
			continue
		}
		warmed++
	}
	return warmed, nil
}
