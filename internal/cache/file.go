package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	maxKeyLen = 64
	hashLen   = 32
)

// Codec converts values to and from the bytes written on disk.
type Codec[T any] interface {
	Encode(T) ([]byte, error)
	Decode([]byte) (T, error)
}

// FileStore writes one file per key under dir. The file modification time
// is the fetch timestamp.
type FileStore[T any] struct {
	policy
	dir   string
	ext   string
	codec Codec[T]
}

func NewFileStore[T any](dir, ext string, codec Codec[T], ttl time.Duration, opts ...Option) (*FileStore[T], error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileStore[T]{policy: newPolicy(ttl, opts), dir: dir, ext: ext, codec: codec}, nil
}

func (f *FileStore[T]) path(key string) (string, error) {
	safe := SanitizeKey(key)
	if safe == "" {
		return "", fmt.Errorf("invalid cache key: %q", key)
	}
	return filepath.Join(f.dir, safe+f.ext), nil
}

func (f *FileStore[T]) Get(_ context.Context, key string) (Entry[T], bool, error) {
	var e Entry[T]
	p, err := f.path(key)
	if err != nil {
		return e, false, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return e, false, nil
	}
	if err != nil {
		return e, false, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return e, false, err
	}
	v, err := f.codec.Decode(data)
	if err != nil {
		return e, false, nil
	}
	return Entry[T]{Value: v, FetchedAtMillis: info.ModTime().UnixMilli()}, true, nil
}

func (f *FileStore[T]) Set(_ context.Context, key string, value T) (Entry[T], error) {
	now := f.now()
	e := Entry[T]{Value: value, FetchedAtMillis: now.UnixMilli()}
	p, err := f.path(key)
	if err != nil {
		return e, err
	}
	data, err := f.codec.Encode(value)
	if err != nil {
		return e, err
	}
	// each writer renames its own temp file, so readers never see a partial file
	tmp, err := os.CreateTemp(f.dir, filepath.Base(p)+"-*.tmp")
	if err != nil {
		return e, err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return e, err
	}
	if err := tmp.Close(); err != nil {
		return e, err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return e, err
	}
	if err := os.Chtimes(tmp.Name(), now, now); err != nil {
		return e, err
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return e, err
	}
	return e, nil
}

func (f *FileStore[T]) IsExpired(e Entry[T]) bool { return f.expired(e.FetchedAtMillis) }

// SanitizeKey maps key to a file name of at most maxKeyLen characters from
// [A-Za-z0-9_-]. Short keys that are already safe are kept as they are; any
// other key gets a sha256 suffix so distinct keys never share a file. An
// empty result means the key has no usable characters.
func SanitizeKey(key string) string {
	safe := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return -1
	}, key)
	if safe == "" {
		return ""
	}
	if safe == key && len(key) <= maxKeyLen {
		return key
	}
	sum := sha256.Sum256([]byte(key))
	if keep := maxKeyLen - hashLen - 1; len(safe) > keep {
		safe = safe[:keep]
	}
	return safe + "-" + hex.EncodeToString(sum[:])[:hashLen]
}
