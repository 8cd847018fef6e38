package domain

import (
	"math"
	"strconv"
)

// MarketData is the Dexscreener response for one token address.
type MarketData struct {
	SchemaVersion string `json:"schemaVersion,omitempty"`
	Pairs         []Pair `json:"pairs"`
}

// Token is the base or quote side of a pair.
type Token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type Liquidity struct {
	Usd   *float64 `json:"usd,omitempty"`
	Base  *float64 `json:"base,omitempty"`
	Quote *float64 `json:"quote,omitempty"`
}

type Volume struct {
	M5  *float64 `json:"m5,omitempty"`
	H1  *float64 `json:"h1,omitempty"`
	H6  *float64 `json:"h6,omitempty"`
	H24 *float64 `json:"h24,omitempty"`
}

type PriceChange struct {
	M5  *float64 `json:"m5,omitempty"`
	H1  *float64 `json:"h1,omitempty"`
	H6  *float64 `json:"h6,omitempty"`
	H24 *float64 `json:"h24,omitempty"`
}

// PairInfo carries the optional token branding Dexscreener attaches to a pair.
type PairInfo struct {
	ImageURL  string `json:"imageUrl,omitempty"`
	Header    string `json:"header,omitempty"`
	OpenGraph string `json:"openGraph,omitempty"`
}

// Pair is one venue's quote for a token. Every numeric field may be absent.
type Pair struct {
	ChainID     string      `json:"chainId"`
	DexID       string      `json:"dexId,omitempty"`
	URL         string      `json:"url,omitempty"`
	PairAddress string      `json:"pairAddress,omitempty"`
	BaseToken   Token       `json:"baseToken"`
	QuoteToken  Token       `json:"quoteToken"`
	PriceNative string      `json:"priceNative,omitempty"`
	PriceUsd    string      `json:"priceUsd,omitempty"`
	Liquidity   *Liquidity  `json:"liquidity,omitempty"`
	Volume      Volume      `json:"volume"`
	PriceChange PriceChange `json:"priceChange"`
	Fdv         *float64    `json:"fdv,omitempty"`
	MarketCap   *float64    `json:"marketCap,omitempty"`
	Info        *PairInfo   `json:"info,omitempty"`
}

func (p Pair) PriceUSD() float64 {
	if p.PriceUsd == "" {
		return 0
	}
	v, err := strconv.ParseFloat(p.PriceUsd, 64)
	if err != nil {
		return 0
	}
	return finite(v)
}

func (p Pair) LiquidityUSD() float64 {
	if p.Liquidity == nil {
		return 0
	}
	return val(p.Liquidity.Usd)
}

func (p Pair) Volume24h() float64 { return val(p.Volume.H24) }

// MarketCapUSD falls back to FDV when the venue reports no market cap.
func (p Pair) MarketCapUSD() float64 {
	if mc := val(p.MarketCap); mc != 0 {
		return mc
	}
	return val(p.Fdv)
}

func (p Pair) FDVUSD() float64 { return val(p.Fdv) }

// ImageURL returns the icon URL published with the pair, if any.
func (p Pair) ImageURL() string {
	if p.Info == nil {
		return ""
	}
	return p.Info.ImageURL
}

// ChangeSeries returns the m5/h1/h6/h24 price changes oldest window first.
func (p Pair) ChangeSeries() []float64 {
	return []float64{val(p.PriceChange.H24), val(p.PriceChange.H6), val(p.PriceChange.H1), val(p.PriceChange.M5)}
}

func val(f *float64) float64 {
	if f == nil {
		return 0
	}
	return finite(*f)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
