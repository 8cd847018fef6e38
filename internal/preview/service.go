package preview

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"vote-preview/internal/cache"
	"vote-preview/internal/domain"
)

// PairSource resolves an address to its representative pair.
type PairSource interface {
	BestPair(ctx context.Context, address string) (domain.Pair, error)
}

// Service is the image cache in front of the composer.
type Service struct {
	pairs    PairSource
	composer Composer
	store    cache.Cache[Artifact]
}

func NewService(pairs PairSource, composer Composer, store cache.Cache[Artifact]) *Service {
	return &Service{pairs: pairs, composer: composer, store: store}
}

// CanRaster reports whether PNG/JPEG artifacts are real bitmaps.
func (s *Service) CanRaster() bool { return s.composer.CanRaster() }

// GetOrGenerate returns a cached artifact younger than the TTL or composes,
// stores and returns a new one.
func (s *Service) GetOrGenerate(ctx context.Context, address string, f Format) (Artifact, error) {
	if err := domain.ValidateAddress(address); err != nil {
		return Artifact{}, err
	}
	if f == FormatJPEG && !s.composer.CanRaster() {
		return Artifact{}, &domain.CapabilityUnavailableError{Capability: "raster"}
	}

	key := domain.NormalizeAddress(address) + "_" + string(f)
	art, ok, err := cache.Fresh(ctx, s.store, key)
	if err != nil {
		slog.Warn("Image cache read failed", slog.String("key", key), slog.Any("error", err))
	}
	if ok {
		return art, nil
	}

	pair, err := s.pairs.BestPair(ctx, address)
	if err != nil {
		return Artifact{}, err
	}
	art, err = s.composer.Compose(ctx, pair, address, f)
	if err != nil {
		return Artifact{}, err
	}
	if _, err := s.store.Set(ctx, key, art); err != nil {
		slog.Warn("Image cache write failed", slog.String("key", key), slog.Any("error", err))
	}
	return art, nil
}

// ArtifactCodec stores an artifact on disk as two header lines (content type
// and address) followed by the raw image bytes.
type ArtifactCodec struct{}

func (ArtifactCodec) Encode(a Artifact) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(a.ContentType) + len(a.Address) + 2 + len(a.Data))
	buf.WriteString(a.ContentType)
	buf.WriteByte('\n')
	buf.WriteString(a.Address)
	buf.WriteByte('\n')
	buf.Write(a.Data)
	return buf.Bytes(), nil
}

func (ArtifactCodec) Decode(b []byte) (Artifact, error) {
	ct, rest, ok := bytes.Cut(b, []byte{'\n'})
	if !ok {
		return Artifact{}, errors.New("artifact: missing content type")
	}
	addr, data, ok := bytes.Cut(rest, []byte{'\n'})
	if !ok || len(ct) == 0 {
		return Artifact{}, errors.New("artifact: malformed header")
	}
	return Artifact{ContentType: string(ct), Address: string(addr), Data: data}, nil
}
