// Package preview composes the 1200x630 link-preview image for a token pair
// and caches the encoded artifacts.
package preview

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"vote-preview/internal/domain"
	"vote-preview/internal/format"
)

const (
	Width  = 1200
	Height = 630

	maxNameRunes   = 18
	maxSymbolRunes = 8
)

// Glyph circle; the icon overlay is centred on it.
const (
	glyphCX = 110
	glyphCY = 170
	glyphR  = 50
)

type Point struct{ X, Y float64 }

type Anchor int

const (
	AnchorStart Anchor = iota
	AnchorMiddle
	AnchorEnd
)

// Shape is one drawing primitive. Colors are #rrggbb; Alpha 0 means opaque.
type Shape interface{ shape() }

type Rect struct {
	X, Y, W, H, Radius float64
	Fill               string
	Alpha              float64
}

type Circle struct {
	CX, CY, R   float64
	Fill        string
	Stroke      string
	StrokeWidth float64
}

type Text struct {
	X, Y    float64
	Content string
	Size    float64
	Fill    string
	Bold    bool
	Anchor  Anchor
}

type Line struct {
	X1, Y1, X2, Y2 float64
	Stroke         string
	Width          float64
	Alpha          float64
}

type Polyline struct {
	Points []Point
	Stroke string
	Width  float64
}

func (Rect) shape()     {}
func (Circle) shape()   {}
func (Text) shape()     {}
func (Line) shape()     {}
func (Polyline) shape() {}

// Scene is a renderer-independent description of the preview. Text content
// is raw; each renderer escapes for its own output format.
type Scene struct {
	Width, Height int
	Background    string
	Shapes        []Shape
}

func (s *Scene) add(sh ...Shape) { s.Shapes = append(s.Shapes, sh...) }

const (
	colBackground = "#0b0e17"
	colPanel      = "#141a2a"
	colHeader     = "#111727"
	colText       = "#f5f7fb"
	colMuted      = "#8a94ad"
	colAccent     = "#7c5cff"
	colGreen      = "#22c55e"
	colRed        = "#ef4444"
	colTrack      = "#262f45"
)

var chainColors = map[string]string{
	"solana":    "#9945ff",
	"ethereum":  "#627eea",
	"base":      "#0052ff",
	"bsc":       "#f3ba2f",
	"arbitrum":  "#28a0f0",
	"polygon":   "#8247e5",
	"avalanche": "#e84142",
	"sui":       "#4da2ff",
	"ton":       "#0098ea",
}

func chainColor(chain string) string {
	if c, ok := chainColors[strings.ToLower(chain)]; ok {
		return c
	}
	return colAccent
}

// BuildScene lays out the preview for pair. brand is printed in the footer.
func BuildScene(pair domain.Pair, address string, votes Votes, brand string) *Scene {
	s := &Scene{Width: Width, Height: Height, Background: colBackground}

	name := format.Truncate(orDefault(pair.BaseToken.Name, "Unknown Token"), maxNameRunes)
	symbol := format.Truncate(strings.ToUpper(orDefault(pair.BaseToken.Symbol, "???")), maxSymbolRunes)
	chain := strings.ToUpper(orDefault(pair.ChainID, "unknown"))

	// header
	s.add(
		Rect{X: 0, Y: 0, W: Width, H: 80, Fill: colHeader},
		Text{X: 40, Y: 52, Content: "TOKEN VOTE", Size: 28, Fill: colText, Bold: true},
		Rect{X: 1000, Y: 20, W: 160, H: 40, Radius: 20, Fill: chainColor(pair.ChainID)},
		Text{X: 1080, Y: 48, Content: format.Truncate(chain, 10), Size: 20, Fill: colText, Bold: true, Anchor: AnchorMiddle},
	)

	// identity
	change := 0.0
	if pair.PriceChange.H24 != nil {
		change = *pair.PriceChange.H24
	}
	s.add(
		Circle{CX: glyphCX, CY: glyphCY, R: glyphR, Fill: chainColor(pair.ChainID), Stroke: colText, StrokeWidth: 3},
		Text{X: glyphCX, Y: glyphCY + 17, Content: initial(name), Size: 48, Fill: colText, Bold: true, Anchor: AnchorMiddle},
		Text{X: 185, Y: 160, Content: name, Size: 40, Fill: colText, Bold: true},
		Text{X: 185, Y: 200, Content: "$" + symbol, Size: 26, Fill: colMuted},
		Text{X: 1160, Y: 170, Content: format.Price(pair.PriceUSD()), Size: 48, Fill: colText, Bold: true, Anchor: AnchorEnd},
		Text{X: 1160, Y: 208, Content: format.Percent(change) + " 24h", Size: 22, Fill: trendColor(change), Anchor: AnchorEnd},
	)

	// metric tiles
	tiles := []struct{ label, value string }{
		{"MARKET CAP", format.Magnitude(pair.MarketCapUSD())},
		{"LIQUIDITY", format.Magnitude(pair.LiquidityUSD())},
		{"24H VOLUME", format.Magnitude(pair.Volume24h())},
	}
	for i, tile := range tiles {
		x := 40 + float64(i)*380
		s.add(
			Rect{X: x, Y: 260, W: 360, H: 120, Radius: 16, Fill: colPanel},
			Text{X: x + 24, Y: 300, Content: tile.label, Size: 20, Fill: colMuted, Bold: true},
			Text{X: x + 24, Y: 352, Content: tile.value, Size: 38, Fill: colText, Bold: true},
		)
	}

	addVotePanel(s, votes)
	addChartPanel(s, pair)

	// branding
	s.add(
		Text{X: 40, Y: 612, Content: "CA: " + format.ShortAddress(address), Size: 18, Fill: colMuted},
		Text{X: 1160, Y: 612, Content: brand, Size: 18, Fill: colMuted, Bold: true, Anchor: AnchorEnd},
	)
	return s
}

func addVotePanel(s *Scene, v Votes) {
	const x, y, w = 40.0, 400.0, 560.0
	barW := w - 48
	s.add(
		Rect{X: x, Y: y, W: w, H: 180, Radius: 16, Fill: colPanel},
		Text{X: x + 24, Y: y + 40, Content: "COMMUNITY VOTES", Size: 20, Fill: colMuted, Bold: true},
		Text{X: x + 24, Y: y + 92, Content: v.Label(), Size: 34, Fill: colText, Bold: true},
		Text{X: x + w - 24, Y: y + 92, Content: v.PercentLabel(), Size: 34, Fill: colGreen, Bold: true, Anchor: AnchorEnd},
		Rect{X: x + 24, Y: y + 120, W: barW, H: 24, Radius: 12, Fill: colTrack},
		Rect{X: x + 24, Y: y + 120, W: barW * v.Ratio(), H: 24, Radius: 12, Fill: colGreen},
		Text{X: x + 24, Y: y + 168, Content: "Vote closes when the bar fills", Size: 16, Fill: colMuted},
	)
}

func addChartPanel(s *Scene, pair domain.Pair) {
	const x, y, w, h = 620.0, 400.0, 540.0, 180.0
	s.add(
		Rect{X: x, Y: y, W: w, H: h, Radius: 16, Fill: colPanel},
		Text{X: x + 24, Y: y + 40, Content: "PRICE ACTION", Size: 20, Fill: colMuted, Bold: true},
		Line{X1: x + 24, Y1: y + h - 24, X2: x + w - 24, Y2: y + h - 24, Stroke: colMuted, Width: 1, Alpha: 0.4},
	)
	levels := priceLevels(pair)
	change := levels[len(levels)-1] - levels[0]
	s.add(Polyline{
		Points: chartPoints(levels, x+24, y+60, w-48, h-96),
		Stroke: trendColor(change),
		Width:  4,
	})
}

// priceLevels reconstructs relative price at -24h, -6h, -1h, -5m and now
// from the percentage changes.
func priceLevels(pair domain.Pair) []float64 {
	changes := pair.ChangeSeries()
	levels := make([]float64, 0, len(changes)+1)
	for _, c := range changes {
		factor := 1 + c/100
		if factor < 0.01 {
			factor = 0.01
		}
		levels = append(levels, 1/factor)
	}
	return append(levels, 1)
}

func chartPoints(levels []float64, x, y, w, h float64) []Point {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, l := range levels {
		lo = math.Min(lo, l)
		hi = math.Max(hi, l)
	}
	pts := make([]Point, len(levels))
	step := w / float64(len(levels)-1)
	for i, l := range levels {
		fy := 0.5
		if hi > lo {
			fy = (l - lo) / (hi - lo)
		}
		pts[i] = Point{X: x + float64(i)*step, Y: y + h - fy*h}
	}
	return pts
}

func trendColor(change float64) string {
	if change < 0 {
		return colRed
	}
	return colGreen
}

func initial(name string) string {
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return "?"
	}
	return string(unicode.ToUpper(r))
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
