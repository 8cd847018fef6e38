package preview

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"vote-preview/internal/dexscreener"
	"vote-preview/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func rasterConfig(iconURL string) Config {
	cfg := Config{RasterEnabled: true, Seed: 42, Brand: "test", Policy: dexscreener.DefaultPolicy()}
	if iconURL != "" {
		cfg.IconEnabled = true
		cfg.IconBaseURL = iconURL
		cfg.IconTimeout = 200 * time.Millisecond
	}
	return cfg
}

func compose(t *testing.T, c Composer, f Format) Artifact {
	t.Helper()
	art, err := c.Compose(context.Background(), samplePair(), addr, f)
	require.NoError(t, err)
	return art
}

func TestRasterComposer_PNG(t *testing.T) {
	c := NewComposer(rasterConfig(""))
	require.True(t, c.CanRaster())

	art := compose(t, c, FormatPNG)
	assert.Equal(t, ContentTypePNG, art.ContentType)
	assert.Equal(t, addr, art.Address)

	img, err := png.Decode(bytes.NewReader(art.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, Width, Height), img.Bounds())

	jpg := compose(t, c, FormatJPEG)
	assert.Equal(t, ContentTypeJPEG, jpg.ContentType)
	assert.True(t, bytes.HasPrefix(jpg.Data, []byte{0xFF, 0xD8}))

	svg := compose(t, c, FormatSVG)
	assert.Equal(t, ContentTypeSVG, svg.ContentType)
}

func TestIconFailureIsByteIdenticalToNoIcon(t *testing.T) {
	baseline := compose(t, NewComposer(rasterConfig("")), FormatPNG)

	failing := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) },
		"decode": func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("definitely not an image")) },
		"timeout": func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		},
	}
	for name, h := range failing {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(h)
			defer server.Close()

			art := compose(t, NewComposer(rasterConfig(server.URL)), FormatPNG)
			assert.True(t, bytes.Equal(baseline.Data, art.Data))
		})
	}

	t.Run("network", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		art := compose(t, NewComposer(rasterConfig(url)), FormatPNG)
		assert.True(t, bytes.Equal(baseline.Data, art.Data))
	})
}

func TestIconOverlayApplied(t *testing.T) {
	icon := redPNG(t)
	var gotPath atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.Path)
		w.Header().Set("Content-Type", "image/png")
		w.Write(icon)
	}))
	defer server.Close()

	baseline := compose(t, NewComposer(rasterConfig("")), FormatPNG)
	art := compose(t, NewComposer(rasterConfig(server.URL)), FormatPNG)
	assert.False(t, bytes.Equal(baseline.Data, art.Data))
	assert.Equal(t, "/solana/"+addr+".png", gotPath.Load())

	img, err := png.Decode(bytes.NewReader(art.Data))
	require.NoError(t, err)
	r, g, b, _ := img.At(glyphCX, glyphCY).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Zero(t, g)
	assert.Zero(t, b)

	// corners of the icon square stay outside the circular mask
	base, err := png.Decode(bytes.NewReader(baseline.Data))
	require.NoError(t, err)
	corner := image.Pt(glyphCX-iconSize/2, glyphCY-iconSize/2)
	assert.Equal(t, base.At(corner.X, corner.Y), img.At(corner.X, corner.Y))
}

func TestIconURL(t *testing.T) {
	o := NewIconOverlay("https://img.example/tokens/", 0, dexscreener.DefaultPolicy())
	p := samplePair()
	assert.Equal(t, "https://img.example/tokens/solana/"+addr+".png", o.IconURL(p, addr))

	p.Info = &domain.PairInfo{ImageURL: "https://cdn.example/wif.webp"}
	assert.Equal(t, "https://cdn.example/wif.webp", o.IconURL(p, addr))
}

func TestVectorComposer(t *testing.T) {
	c := NewComposer(Config{Seed: 1})
	require.False(t, c.CanRaster())

	art := compose(t, c, FormatPNG)
	assert.Equal(t, ContentTypeSVG, art.ContentType)
	assert.True(t, strings.HasPrefix(string(art.Data), "<svg"))

	_, err := c.Compose(context.Background(), samplePair(), addr, FormatJPEG)
	assert.True(t, domain.IsCapability(err))
}

func TestParseFormat(t *testing.T) {
	for ext, want := range map[string]Format{"png": FormatPNG, ".SVG": FormatSVG, "jpeg": FormatJPEG, "jpg": FormatJPEG} {
		f, ok := ParseFormat(ext)
		assert.True(t, ok, ext)
		assert.Equal(t, want, f)
	}
	_, ok := ParseFormat("gif")
	assert.False(t, ok)
}
