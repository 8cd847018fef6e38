package preview

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"vote-preview/internal/dexscreener"
	"vote-preview/internal/domain"
)

type Format string

const (
	FormatPNG  Format = "png"
	FormatSVG  Format = "svg"
	FormatJPEG Format = "jpg"
)

// ParseFormat maps a file extension to a Format.
func ParseFormat(ext string) (Format, bool) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return FormatPNG, true
	case "svg":
		return FormatSVG, true
	case "jpg", "jpeg":
		return FormatJPEG, true
	}
	return "", false
}

const (
	ContentTypePNG  = "image/png"
	ContentTypeSVG  = "image/svg+xml"
	ContentTypeJPEG = "image/jpeg"
)

// Artifact is an encoded preview image.
type Artifact struct {
	Address     string `json:"address"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// Composer turns a pair into an artifact. Both the vector-only and the raster
// composer implement it; which one runs is decided once, at construction.
type Composer interface {
	Compose(ctx context.Context, pair domain.Pair, address string, f Format) (Artifact, error)
	CanRaster() bool
}

type Config struct {
	RasterEnabled bool
	IconEnabled   bool
	IconBaseURL   string
	IconTimeout   time.Duration
	Brand         string
	Seed          int64
	Policy        dexscreener.RequestPolicy
}

// NewComposer returns a raster composer when cfg.RasterEnabled and the
// rasterizer initialises, otherwise a vector-only composer.
func NewComposer(cfg Config) Composer {
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.Brand == "" {
		cfg.Brand = "vote-preview"
	}
	vector := &VectorComposer{votes: NewVoteSource(cfg.Seed), brand: cfg.Brand}
	if !cfg.RasterEnabled {
		slog.Info("Rasterizer disabled, serving SVG previews")
		return vector
	}
	rr, err := NewRasterRenderer()
	if err != nil {
		slog.Warn("Rasterizer unavailable, serving SVG previews", slog.Any("error", err))
		return vector
	}
	rc := &RasterComposer{VectorComposer: vector, raster: rr}
	if cfg.IconEnabled {
		rc.icons = NewIconOverlay(cfg.IconBaseURL, cfg.IconTimeout, cfg.Policy)
	}
	return rc
}

// VectorComposer always produces SVG. A PNG request degrades to SVG; a JPEG
// request fails with CapabilityUnavailableError.
type VectorComposer struct {
	votes *VoteSource
	brand string
}

func (v *VectorComposer) CanRaster() bool { return false }

func (v *VectorComposer) Compose(_ context.Context, pair domain.Pair, address string, f Format) (Artifact, error) {
	if f == FormatJPEG {
		return Artifact{}, &domain.CapabilityUnavailableError{Capability: "raster"}
	}
	return v.svg(v.scene(pair, address), address), nil
}

func (v *VectorComposer) scene(pair domain.Pair, address string) *Scene {
	return BuildScene(pair, address, v.votes.Next(), v.brand)
}

func (v *VectorComposer) svg(s *Scene, address string) Artifact {
	return Artifact{Address: address, ContentType: ContentTypeSVG, Data: SVGRenderer{}.Render(s)}
}

// RasterComposer paints PNG/JPEG and applies the best-effort icon overlay.
type RasterComposer struct {
	*VectorComposer
	raster *RasterRenderer
	icons  *IconOverlay
}

func (r *RasterComposer) CanRaster() bool { return true }

func (r *RasterComposer) Compose(ctx context.Context, pair domain.Pair, address string, f Format) (Artifact, error) {
	s := r.scene(pair, address)
	if f == FormatSVG {
		return r.svg(s, address), nil
	}

	img := r.raster.Paint(s)
	if r.icons != nil {
		withIcon, err := r.icons.Apply(ctx, img, pair, address)
		if err != nil {
			slog.Debug("Icon overlay skipped", slog.String("address", address), slog.Any("error", err))
		}
		img = withIcon
	}

	data, err := Encode(img, f)
	if err != nil {
		return Artifact{}, err
	}
	ct := ContentTypePNG
	if f == FormatJPEG {
		ct = ContentTypeJPEG
	}
	return Artifact{Address: address, ContentType: ct, Data: data}, nil
}
