// Package page renders the HTML shell with link-preview meta tags filled in
// for the token a request points at.
package page

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"vote-preview/internal/domain"
	"vote-preview/internal/format"
)

//go:embed web/index.html
var defaultTemplate string

// Placeholder is a literal token in the HTML template.
type Placeholder string

const (
	PagePageTitle          Placeholder = "__PAGE_TITLE__"
	PageMetaDescription    Placeholder = "__META_DESCRIPTION__"
	PageSiteName           Placeholder = "__SITE_NAME__"
	PagePageURL            Placeholder = "__PAGE_URL__"
	PageIconURL            Placeholder = "__ICON_URL__"
	PageOGTitle            Placeholder = "__OG_TITLE__"
	PageOGDescription      Placeholder = "__OG_DESCRIPTION__"
	PageOGImage            Placeholder = "__OG_IMAGE__"
	PageTwitterTitle       Placeholder = "__TWITTER_TITLE__"
	PageTwitterDescription Placeholder = "__TWITTER_DESCRIPTION__"
	PageTwitterImage       Placeholder = "__TWITTER_IMAGE__"
	PageTokenAddress       Placeholder = "__TOKEN_ADDRESS__"
)

// Placeholders lists every substitution point. Anything not listed here is
// never replaced.
var Placeholders = []Placeholder{
	PagePageTitle, PageMetaDescription, PageSiteName, PagePageURL, PageIconURL,
	PageOGTitle, PageOGDescription, PageOGImage,
	PageTwitterTitle, PageTwitterDescription, PageTwitterImage,
	PageTokenAddress,
}

const (
	ImageModeSelf       = "self"
	ImageModeScreenshot = "screenshot"
)

type Options struct {
	SiteName           string
	DefaultTitle       string
	DefaultDescription string
	DefaultImage       string
	DefaultIcon        string
	Scheme             string
	ImageMode          string
	// ScreenshotURL is an external renderer URL; {url} is replaced with the
	// query-escaped page URL.
	ScreenshotURL string
	IconBaseURL   string
	TemplatePath  string
}

// MarketSource is the token data cache as seen by the renderer.
type MarketSource interface {
	Get(ctx context.Context, address string) (*domain.MarketData, error)
}

type Renderer struct {
	opts     Options
	market   MarketSource
	template string
}

func NewRenderer(market MarketSource, opts Options) (*Renderer, error) {
	tpl := defaultTemplate
	if opts.TemplatePath != "" {
		b, err := os.ReadFile(opts.TemplatePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read page template: %w", err)
		}
		tpl = string(b)
	}
	if opts.Scheme == "" {
		opts.Scheme = "https"
	}
	if opts.ImageMode == "" {
		opts.ImageMode = ImageModeSelf
	}
	return &Renderer{opts: opts, market: market, template: tpl}, nil
}

// RenderContext is the per-request state behind one rendered page.
type RenderContext struct {
	Address     string
	Pair        *domain.Pair
	Title       string
	Description string
	ImageURL    string
	IconURL     string
	PageURL     string
	Values      map[Placeholder]string
}

// Render always returns a page: lookup failures fall back to the defaults.
func (r *Renderer) Render(ctx context.Context, path string, query url.Values, host string) []byte {
	rc := r.Resolve(ctx, path, query, host)
	return []byte(substitute(r.template, rc.Values))
}

// Resolve computes the render context without touching the template.
func (r *Renderer) Resolve(ctx context.Context, path string, query url.Values, host string) *RenderContext {
	rc := &RenderContext{
		Title:       r.opts.DefaultTitle,
		Description: r.opts.DefaultDescription,
		ImageURL:    r.opts.DefaultImage,
		IconURL:     r.opts.DefaultIcon,
		PageURL:     r.pageURL(host, path, query),
	}

	if addr, ok := ResolveAddress(path, query); ok {
		rc.Address = addr
		if pair, err := r.lookup(ctx, addr); err != nil {
			slog.Warn("Falling back to default meta", slog.String("address", addr), slog.Any("error", err))
		} else {
			rc.Pair = &pair
			r.fill(rc, host)
		}
	}
	rc.Values = r.values(rc)
	return rc
}

func (r *Renderer) lookup(ctx context.Context, addr string) (domain.Pair, error) {
	doc, err := r.market.Get(ctx, addr)
	if err != nil {
		return domain.Pair{}, err
	}
	pair, ok := domain.SelectBestPair(doc)
	if !ok {
		return domain.Pair{}, &domain.NotFoundError{Address: addr}
	}
	return pair, nil
}

func (r *Renderer) fill(rc *RenderContext, host string) {
	p := rc.Pair
	name := p.BaseToken.Name
	if name == "" {
		name = "Unknown Token"
	}
	symbol := strings.ToUpper(p.BaseToken.Symbol)

	rc.Title = fmt.Sprintf("%s ($%s) | Vote on %s", name, symbol, r.opts.SiteName)
	rc.Description = fmt.Sprintf("Price %s | MC %s | Liq %s | 24h Vol %s. Cast your vote for $%s on %s.",
		format.Price(p.PriceUSD()),
		format.Magnitude(p.MarketCapUSD()),
		format.Magnitude(p.LiquidityUSD()),
		format.Magnitude(p.Volume24h()),
		symbol, r.opts.SiteName)

	if r.opts.ImageMode == ImageModeScreenshot && r.opts.ScreenshotURL != "" {
		rc.ImageURL = strings.ReplaceAll(r.opts.ScreenshotURL, "{url}", url.QueryEscape(rc.PageURL))
	} else {
		rc.ImageURL = r.opts.Scheme + "://" + host + "/og/" + url.PathEscape(rc.Address) + ".png"
	}

	switch {
	case p.ImageURL() != "":
		rc.IconURL = p.ImageURL()
	case r.opts.IconBaseURL != "" && p.ChainID != "":
		rc.IconURL = strings.TrimRight(r.opts.IconBaseURL, "/") + "/" + url.PathEscape(p.ChainID) + "/" + url.PathEscape(rc.Address) + ".png"
	}
}

// values escapes every computed string once, at the substitution boundary.
func (r *Renderer) values(rc *RenderContext) map[Placeholder]string {
	e := format.EscapeHTML
	return map[Placeholder]string{
		PagePageTitle:          e(rc.Title),
		PageMetaDescription:    e(rc.Description),
		PageSiteName:           e(r.opts.SiteName),
		PagePageURL:            e(rc.PageURL),
		PageIconURL:            e(rc.IconURL),
		PageOGTitle:            e(rc.Title),
		PageOGDescription:      e(rc.Description),
		PageOGImage:            e(rc.ImageURL),
		PageTwitterTitle:       e(rc.Title),
		PageTwitterDescription: e(rc.Description),
		PageTwitterImage:       e(rc.ImageURL),
		PageTokenAddress:       e(rc.Address),
	}
}

func (r *Renderer) pageURL(host, path string, query url.Values) string {
	u := url.URL{Scheme: r.opts.Scheme, Host: host, Path: path}
	for _, k := range addressParams {
		if v := query.Get(k); v != "" {
			u.RawQuery = url.Values{k: {v}}.Encode()
			break
		}
	}
	return u.String()
}

func substitute(tpl string, values map[Placeholder]string) string {
	pairs := make([]string, 0, 2*len(Placeholders))
	for _, ph := range Placeholders {
		pairs = append(pairs, string(ph), values[ph])
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}
