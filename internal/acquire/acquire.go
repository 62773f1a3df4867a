// Package acquire fetches and decodes images from URLs or the local filesystem.
package acquire

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const (
	DefaultTimeout  = 10 * time.Second
	DefaultMaxBytes = 10 << 20
	maxRedirects    = 10
)

var (
	ErrInvalidRef    = errors.New("invalid image reference")
	ErrFetchFailed   = errors.New("image download failed")
	ErrFileRead      = errors.New("image file read failed")
	ErrImageTooLarge = errors.New("image exceeds size limit")
	ErrDecode        = errors.New("image decode failed")
)

// Source produces a decoded image for a reference string
type Source interface {
	Acquire(ctx context.Context, ref string) (image.Image, error)
}

type RefKind int

const (
	RefURL RefKind = iota + 1
	RefFile
)

// ParseRef classifies ref. http and https are fetched, file:// and bare
// paths are read from disk, everything else is rejected.
func ParseRef(ref string) (RefKind, string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, "", fmt.Errorf("%w: empty", ErrInvalidRef)
	}

	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" || isWindowsDrive(u.Scheme) {
		return RefFile, ref, nil
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return 0, "", fmt.Errorf("%w: missing host in %q", ErrInvalidRef, ref)
		}
		return RefURL, ref, nil
	case "file":
		if u.Path == "" {
			return 0, "", fmt.Errorf("%w: empty file path", ErrInvalidRef)
		}
		return RefFile, u.Path, nil
	default:
		return 0, "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidRef, u.Scheme)
	}
}

func isWindowsDrive(scheme string) bool {
	return len(scheme) == 1
}

type Config struct {
	Timeout  time.Duration
	MaxBytes int64
}

func DefaultConfig() Config {
	return Config{Timeout: DefaultTimeout, MaxBytes: DefaultMaxBytes}
}

// Fetcher implements Source. Nothing is cached between calls.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

var _ Source = (*Fetcher)(nil)

func NewFetcher(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		maxBytes: cfg.MaxBytes,
	}
}

func (f *Fetcher) Acquire(ctx context.Context, ref string) (image.Image, error) {
	kind, target, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch kind {
	case RefURL:
		data, err = f.download(ctx, target)
	default:
		data, err = f.readFile(target)
	}
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

func (f *Fetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRef, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	data, err := f.readLimited(resp.Body)
	if err != nil && !errors.Is(err, ErrImageTooLarge) {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	return data, err
}

func (f *Fetcher) readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileRead, err)
	}
	defer func() {
		_ = file.Close()
	}()

	data, err := f.readLimited(file)
	if err != nil && !errors.Is(err, ErrImageTooLarge) {
		return nil, fmt.Errorf("%w: %v", ErrFileRead, err)
	}
	return data, err
}

func (f *Fetcher) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrImageTooLarge, f.maxBytes)
	}
	return data, nil
}
