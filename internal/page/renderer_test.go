package page

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vote-preview/internal/domain"
)

const testAddr = "So11111111111111111111111111111111111111112"

type fakeMarket struct {
	docs  map[string]*domain.MarketData
	err   error
	calls []string
}

func (f *fakeMarket) Get(_ context.Context, address string) (*domain.MarketData, error) {
	f.calls = append(f.calls, address)
	if f.err != nil {
		return nil, f.err
	}
	if d, ok := f.docs[address]; ok {
		return d, nil
	}
	return &domain.MarketData{Pairs: []domain.Pair{}}, nil
}

func ptr(v float64) *float64 { return &v }

func pairDoc(name, symbol string) *domain.MarketData {
	return &domain.MarketData{Pairs: []domain.Pair{{
		ChainID:   "solana",
		BaseToken: domain.Token{Address: testAddr, Name: name, Symbol: symbol},
		PriceUsd:  "1.5",
		Liquidity: &domain.Liquidity{Usd: ptr(250_000)},
		Volume:    domain.Volume{H24: ptr(1_200_000)},
		MarketCap: ptr(2_300_000_000),
	}}}
}

func testOptions() Options {
	return Options{
		SiteName:           "VotePreview",
		DefaultTitle:       "Vote on tokens",
		DefaultDescription: "Community sentiment for any token.",
		DefaultImage:       "https://cdn.example.com/default.png",
		DefaultIcon:        "/favicon.ico",
		IconBaseURL:        "https://icons.example.com/tokens",
	}
}

func newRenderer(t *testing.T, m MarketSource, opts Options) *Renderer {
	t.Helper()
	r, err := NewRenderer(m, opts)
	require.NoError(t, err)
	return r
}

func TestResolveAddress(t *testing.T) {
	cases := []struct {
		name  string
		path  string
		query url.Values
		want  string
		ok    bool
	}{
		{"query ca", "/", url.Values{"ca": {testAddr}}, testAddr, true},
		{"query address", "/vote", url.Values{"address": {testAddr}}, testAddr, true},
		{"ca wins over path", "/token/OtherAddress12345", url.Values{"ca": {testAddr}}, testAddr, true},
		{"path segment", "/token/" + testAddr, url.Values{}, testAddr, true},
		{"trailing slash", "/token/" + testAddr + "/", url.Values{}, testAddr, true},
		{"short segment", "/about", url.Values{}, "", false},
		{"root", "/", url.Values{}, "", false},
		{"invalid query", "/", url.Values{"ca": {"<script>"}}, "", false},
		{"invalid segment", "/how-it-works-explained", url.Values{}, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ResolveAddress(tc.path, tc.query)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRenderDefaultsWithoutAddress(t *testing.T) {
	m := &fakeMarket{}
	r := newRenderer(t, m, testOptions())

	html := string(r.Render(context.Background(), "/", url.Values{}, "vote.example.com"))

	assert.Empty(t, m.calls)
	assert.Contains(t, html, "<title>Vote on tokens</title>")
	assert.Contains(t, html, `content="Community sentiment for any token."`)
	assert.Contains(t, html, `<meta property="og:image" content="https://cdn.example.com/default.png">`)
	assert.Contains(t, html, `<link rel="icon" href="/favicon.ico">`)
	assert.NotContains(t, html, "__")
}

func TestRenderResolvedToken(t *testing.T) {
	m := &fakeMarket{docs: map[string]*domain.MarketData{testAddr: pairDoc("Wrapped SOL", "sol")}}
	r := newRenderer(t, m, testOptions())

	rc := r.Resolve(context.Background(), "/token/"+testAddr, url.Values{}, "vote.example.com")
	require.NotNil(t, rc.Pair)
	assert.Equal(t, "Wrapped SOL ($SOL) | Vote on VotePreview", rc.Title)
	assert.Equal(t, "Price $1.50 | MC $2.3B | Liq $250.0K | 24h Vol $1.2M. Cast your vote for $SOL on VotePreview.", rc.Description)
	assert.Equal(t, "https://vote.example.com/og/"+testAddr+".png", rc.ImageURL)
	assert.Equal(t, "https://icons.example.com/tokens/solana/"+testAddr+".png", rc.IconURL)
	assert.Equal(t, "https://vote.example.com/token/"+testAddr, rc.PageURL)

	html := string(r.Render(context.Background(), "/token/"+testAddr, url.Values{}, "vote.example.com"))
	assert.Contains(t, html, `<meta name="twitter:image" content="https://vote.example.com/og/`+testAddr+`.png">`)
	assert.Contains(t, html, `data-token-address="`+testAddr+`"`)
}

func TestRenderScreenshotImageMode(t *testing.T) {
	m := &fakeMarket{docs: map[string]*domain.MarketData{testAddr: pairDoc("Wrapped SOL", "SOL")}}
	opts := testOptions()
	opts.ImageMode = ImageModeScreenshot
	opts.ScreenshotURL = "https://shots.example.com/render?url={url}&w=1200"
	r := newRenderer(t, m, opts)

	rc := r.Resolve(context.Background(), "/", url.Values{"ca": {testAddr}}, "vote.example.com")
	want := "https://shots.example.com/render?url=" + url.QueryEscape("https://vote.example.com/?ca="+testAddr) + "&w=1200"
	assert.Equal(t, want, rc.ImageURL)
	assert.Equal(t, "https://shots.example.com/render?url="+url.QueryEscape("https://vote.example.com/?ca="+testAddr)+"&amp;w=1200", rc.Values[PageOGImage])
}

func TestRenderEscapesTokenText(t *testing.T) {
	m := &fakeMarket{docs: map[string]*domain.MarketData{testAddr: pairDoc(`<script>alert("x")&'</script>`, "EVIL")}}
	r := newRenderer(t, m, testOptions())

	html := string(r.Render(context.Background(), "/", url.Values{"ca": {testAddr}}, "vote.example.com"))

	assert.NotContains(t, html, "<script>alert")
	assert.Contains(t, html, "&lt;script&gt;alert(&quot;x&quot;)&amp;&#39;&lt;/script&gt;")
}

func TestRenderFallsBackOnFailure(t *testing.T) {
	cases := map[string]*fakeMarket{
		"upstream error": {err: &domain.UpstreamError{Op: "fetch market data", StatusCode: 503}},
		"other error":    {err: errors.New("boom")},
		"no pairs":       {},
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			r := newRenderer(t, m, testOptions())
			rc := r.Resolve(context.Background(), "/", url.Values{"ca": {testAddr}}, "vote.example.com")

			assert.Len(t, m.calls, 1)
			assert.Nil(t, rc.Pair)
			assert.Equal(t, testAddr, rc.Address)
			assert.Equal(t, "Vote on tokens", rc.Title)
			assert.Equal(t, "https://cdn.example.com/default.png", rc.ImageURL)
		})
	}
}

func TestRenderPrefersPairIcon(t *testing.T) {
	doc := pairDoc("Token", "TKN")
	doc.Pairs[0].Info = &domain.PairInfo{ImageURL: "https://cdn.example.com/tkn.webp"}
	r := newRenderer(t, &fakeMarket{docs: map[string]*domain.MarketData{testAddr: doc}}, testOptions())

	rc := r.Resolve(context.Background(), "/", url.Values{"ca": {testAddr}}, "vote.example.com")
	assert.Equal(t, "https://cdn.example.com/tkn.webp", rc.IconURL)
}

func TestSubstituteOnlyEnumeratedPlaceholders(t *testing.T) {
	tpl := "<p>__OG_TITLE__ __UNKNOWN__ __OG_TITLE__</p>"
	out := substitute(tpl, map[Placeholder]string{PageOGTitle: "hi"})
	assert.Equal(t, "<p>hi __UNKNOWN__ hi</p>", out)
}

func TestTemplateOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(path, []byte("<title>__PAGE_TITLE__</title>"), 0o644))

	opts := testOptions()
	opts.TemplatePath = path
	r := newRenderer(t, &fakeMarket{}, opts)

	out := string(r.Render(context.Background(), "/", url.Values{}, "h"))
	assert.Equal(t, "<title>Vote on tokens</title>", out)

	opts.TemplatePath = filepath.Join(t.TempDir(), "missing.html")
	_, err := NewRenderer(&fakeMarket{}, opts)
	assert.Error(t, err)
}

func TestEmbeddedTemplateCoversPlaceholders(t *testing.T) {
	for _, ph := range Placeholders {
		assert.True(t, strings.Contains(defaultTemplate, string(ph)), "template is missing %s", ph)
	}
}
