package tokens

import (
	"context"
	"encoding/json"

	"vote-preview/internal/domain"
)

// Upstream is the market-data source behind the token cache.
type Upstream interface {
	FetchMarketData(ctx context.Context, address string) (*domain.MarketData, error)
	FetchTrending(ctx context.Context) (json.RawMessage, error)
}

// errorBody is the JSON shape of every API error.
type errorBody struct {
	Error string `json:"error"`
}
