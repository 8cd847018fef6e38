package preview

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vote-preview/internal/dexscreener"
	"vote-preview/internal/domain"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // token icons are often webp
)

const (
	DefaultIconBaseURL = "https://dd.dexscreener.com/ds-data/tokens"
	defaultIconTimeout = 3 * time.Second
	iconSize           = 96
	maxIconBytes       = 4 << 20
)

// IconOverlay fetches a token icon and stamps it, clipped to a circle, over
// the identity glyph.
type IconOverlay struct {
	baseURL string
	policy  dexscreener.RequestPolicy
	client  *http.Client
}

func NewIconOverlay(baseURL string, timeout time.Duration, policy dexscreener.RequestPolicy) *IconOverlay {
	if baseURL == "" {
		baseURL = DefaultIconBaseURL
	}
	if timeout <= 0 {
		timeout = defaultIconTimeout
	}
	policy.Timeout = timeout
	return &IconOverlay{
		baseURL: strings.TrimRight(baseURL, "/"),
		policy:  policy,
		client:  dexscreener.NewHTTPClient(policy),
	}
}

// IconURL prefers the icon published with the pair and falls back to the
// chain/address pattern of the image host.
func (o *IconOverlay) IconURL(pair domain.Pair, address string) string {
	if u := pair.ImageURL(); u != "" {
		return u
	}
	chain := pair.ChainID
	if chain == "" {
		chain = "solana"
	}
	return o.baseURL + "/" + url.PathEscape(chain) + "/" + url.PathEscape(address) + ".png"
}

// Apply returns base with the icon composited on it. On any failure it
// returns base itself, untouched, and an *domain.IconFetchError.
func (o *IconOverlay) Apply(ctx context.Context, base image.Image, pair domain.Pair, address string) (image.Image, error) {
	iconURL := o.IconURL(pair, address)
	icon, err := o.fetch(ctx, iconURL)
	if err != nil {
		return base, &domain.IconFetchError{URL: iconURL, Err: err}
	}
	square := imaging.Fill(icon, iconSize, iconSize, imaging.Center, imaging.Lanczos)

	masked := image.NewNRGBA(square.Bounds())
	draw.DrawMask(masked, masked.Bounds(), square, image.Point{}, circleMask{r: iconSize / 2}, image.Point{}, draw.Over)

	pos := image.Pt(glyphCX-iconSize/2, glyphCY-iconSize/2)
	return imaging.Overlay(base, masked, pos, 1.0), nil
}

func (o *IconOverlay) fetch(ctx context.Context, iconURL string) (image.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, o.policy.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, iconURL, nil)
	if err != nil {
		return nil, err
	}
	o.policy.Apply(req)
	req.Header.Set("Accept", "image/avif,image/webp,image/png,image/*;q=0.8")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}
	img, err := imaging.Decode(io.LimitReader(resp.Body, maxIconBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// circleMask is an alpha mask that is opaque inside a circle of radius r.
type circleMask struct{ r int }

func (c circleMask) ColorModel() color.Model { return color.AlphaModel }

func (c circleMask) Bounds() image.Rectangle { return image.Rect(0, 0, 2*c.r, 2*c.r) }

func (c circleMask) At(x, y int) color.Color {
	dx := float64(x) + 0.5 - float64(c.r)
	dy := float64(y) + 0.5 - float64(c.r)
	if dx*dx+dy*dy <= float64(c.r*c.r) {
		return color.Alpha{A: 255}
	}
	return color.Alpha{}
}
