package gallery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/moby/sys/atomicwriter"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

const (
	fileVersion = 1
	versionKey  = "_version"
	// ReservedPrefix marks metadata keys in the gallery file
	ReservedPrefix = "_"
)

var ErrMalformed = errors.New("malformed gallery file")

// FileStore keeps the gallery in a single JSON object mapping person ids to
// lists of embeddings. Identity order in the file is enrolment order.
// Keys starting with ReservedPrefix hold metadata: they are not identities
// and are written back untouched on append.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	perm   os.FileMode
	logger *slog.Logger
}

// metaEntry is a reserved key kept verbatim across rewrites
type metaEntry struct {
	key   string
	value json.RawMessage
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, perm: 0o600, logger: slog.Default().With("component", "gallery")}
}

func (s *FileStore) Path() string {
	return s.path
}

// Append reads the current file, adds the sample and atomically replaces the file.
func (s *FileStore) Append(ctx context.Context, personID string, emb domain.Embedding) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, meta, err := s.read()
	if err != nil {
		return domain.ErrStoreIOFailed.WithError(err)
	}
	g.Append(personID, emb)

	data, err := encode(g, meta)
	if err != nil {
		return domain.ErrStoreIOFailed.WithError(err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return domain.ErrStoreIOFailed.WithError(fmt.Errorf("create gallery dir: %w", err))
	}
	if err := atomicwriter.WriteFile(s.path, data, s.perm); err != nil {
		return domain.ErrStoreIOFailed.WithError(fmt.Errorf("write gallery: %w", err))
	}
	return nil
}

// LoadAll returns the gallery. A missing file is an empty gallery.
func (s *FileStore) LoadAll(ctx context.Context) (*domain.Gallery, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	g, _, err := s.read()
	if err != nil {
		return nil, domain.ErrStoreIOFailed.WithError(err)
	}
	return g, nil
}

func (s *FileStore) read() (*domain.Gallery, []metaEntry, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.NewGallery(), nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open gallery: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	return decode(f, s.logger)
}

// decode walks the top-level object token by token so identity order survives.
// Reserved keys are returned as metadata; other keys whose value is not a list
// of vectors are skipped. Only broken JSON makes the file malformed.
func decode(r io.Reader, logger *slog.Logger) (*domain.Gallery, []metaEntry, error) {
	g := domain.NewGallery()
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return g, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("%w: expected object", ErrMalformed)
	}

	var meta []metaEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("%w: expected key", ErrMalformed)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, fmt.Errorf("%w: key %q: %v", ErrMalformed, key, err)
		}

		if strings.HasPrefix(key, ReservedPrefix) {
			if key != versionKey {
				meta = append(meta, metaEntry{key: key, value: raw})
			}
			continue
		}

		var samples [][]float32
		if err := json.Unmarshal(raw, &samples); err != nil {
			logger.Debug("skipping unknown gallery key", "key", key, "error", err)
			continue
		}
		for _, s := range samples {
			g.Append(key, s)
		}
	}

	if _, err := dec.Token(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return g, meta, nil
}

func encode(g *domain.Gallery, meta []metaEntry) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "{\n  %q: %d", versionKey, fileVersion)

	for _, m := range meta {
		key, err := json.Marshal(m.key)
		if err != nil {
			return nil, err
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, m.value); err != nil {
			return nil, fmt.Errorf("encode %q: %w", m.key, err)
		}
		buf.WriteString(",\n  ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(compact.Bytes())
	}

	for _, id := range g.IDs() {
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		samples, err := json.Marshal(g.Samples(id))
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", id, err)
		}
		buf.WriteString(",\n  ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(samples)
	}

	buf.WriteString("\n}\n")
	return buf.Bytes(), nil
}
