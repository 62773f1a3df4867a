package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"

	"github.com/saturnino-fabrica-de-software/facematch/internal/acquire"
	"github.com/saturnino-fabrica-de-software/facematch/internal/audit"
	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/facematch/internal/gallery"
	"github.com/saturnino-fabrica-de-software/facematch/internal/localizer"
	"github.com/saturnino-fabrica-de-software/facematch/internal/similarity"
)

type FaceLocatorInterface interface {
	Primary(ctx context.Context, img image.Image) (domain.DetectedFace, error)
}

type EmbedderInterface interface {
	Embed(ctx context.Context, crop image.Image) (domain.Embedding, error)
}

// FaceService runs the enrol, recognize and compare pipelines.
// Each call is sequential; concurrent calls share only the store and the models.
type FaceService struct {
	source    acquire.Source
	locator   FaceLocatorInterface
	embedder  EmbedderInterface
	store     gallery.Store
	strategy  similarity.Strategy
	threshold float64
	audit     audit.Logger
	logger    *slog.Logger
}

// NewFaceService wires the pipeline. embedder may be nil, in which case
// only landmark compare works.
func NewFaceService(
	source acquire.Source,
	locator FaceLocatorInterface,
	embedder EmbedderInterface,
	store gallery.Store,
	strategy similarity.Strategy,
) *FaceService {
	return &FaceService{
		source:    source,
		locator:   locator,
		embedder:  embedder,
		store:     store,
		strategy:  strategy,
		threshold: similarity.DefaultThreshold,
		audit:     &audit.NoOpLogger{},
		logger:    slog.Default(),
	}
}

func (s *FaceService) WithThreshold(threshold float64) *FaceService {
	s.threshold = threshold
	return s
}

func (s *FaceService) WithAudit(logger audit.Logger) *FaceService {
	s.audit = logger
	return s
}

func (s *FaceService) WithLogger(logger *slog.Logger) *FaceService {
	s.logger = logger.With("component", "face_service")
	return s
}

func (s *FaceService) Threshold() float64 {
	return s.threshold
}

func (s *FaceService) Strategy() string {
	return s.strategy.Name()
}

// Enrol appends the embedding of the primary face in imageRef to personID's samples
func (s *FaceService) Enrol(ctx context.Context, imageRef, personID string) (err error) {
	start := time.Now()
	personID = strings.TrimSpace(personID)
	defer func() {
		s.record(ctx, audit.Event{EventType: audit.EventFaceEnrolled, PersonID: personID}, start, nil, err)
	}()

	if err := validatePersonID(personID); err != nil {
		return err
	}
	if err := validateRef(imageRef); err != nil {
		return err
	}
	if s.embedder == nil {
		return errNoModel
	}

	emb, err := s.probe(ctx, imageRef)
	if err != nil {
		return err
	}

	if err := s.store.Append(ctx, personID, emb); err != nil {
		return asAppError(err, domain.ErrStoreIOFailed)
	}

	s.logger.DebugContext(ctx, "face enrolled", "person_id", personID, "dim", len(emb))
	return nil
}

// Recognize returns the best matching identity, or domain.UnknownPerson with
// the best score seen when nothing reaches the threshold
func (s *FaceService) Recognize(ctx context.Context, imageRef string) (result *domain.MatchResult, err error) {
	start := time.Now()
	defer func() {
		ev := audit.Event{EventType: audit.EventFaceRecognized, Strategy: similarity.StrategyEmbedding}
		if result != nil {
			ev.PersonID = result.PersonID
		}
		s.record(ctx, ev, start, scoreOf(result), err)
	}()

	if err := validateRef(imageRef); err != nil {
		return nil, err
	}
	if s.embedder == nil {
		return nil, errNoModel
	}

	probe, err := s.probe(ctx, imageRef)
	if err != nil {
		return nil, err
	}

	g, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, asAppError(err, domain.ErrStoreIOFailed)
	}

	match := bestMatch(g, probe)
	if !similarity.Decide(match.Score, s.threshold) {
		match.PersonID = domain.UnknownPerson
	}

	s.logger.DebugContext(ctx, "recognize finished",
		"person_id", match.PersonID,
		"score", match.Score,
		"gallery_samples", g.SampleCount(),
	)
	return &match, nil
}

// bestMatch scans the gallery in insertion order. Strict > keeps the
// first-seen identity on ties.
func bestMatch(g *domain.Gallery, probe domain.Embedding) domain.MatchResult {
	best := domain.MatchResult{PersonID: domain.UnknownPerson, Score: domain.NoMatchScore}
	seen := false

	g.Each(func(personID string, emb domain.Embedding) bool {
		score := similarity.CosineSimilarity(probe, emb)
		if !seen || score > best.Score {
			best = domain.MatchResult{PersonID: personID, Score: score}
			seen = true
		}
		return true
	})

	return best
}

// Compare runs both images through the pipeline independently and scores them
// with the configured strategy
func (s *FaceService) Compare(ctx context.Context, refA, refB string) (result *domain.CompareResult, err error) {
	start := time.Now()
	defer func() {
		var score *float64
		if result != nil {
			score = &result.Score
		}
		s.record(ctx, audit.Event{EventType: audit.EventFaceCompared, Strategy: s.strategy.Name()}, start, score, err)
	}()

	if err := validateRef(refA); err != nil {
		return nil, err
	}
	if err := validateRef(refB); err != nil {
		return nil, err
	}
	if s.strategy.NeedsEmbedding() && s.embedder == nil {
		return nil, errNoModel
	}

	a, err := s.signature(ctx, refA)
	if err != nil {
		return nil, fmt.Errorf("first image: %w", err)
	}
	b, err := s.signature(ctx, refB)
	if err != nil {
		return nil, fmt.Errorf("second image: %w", err)
	}

	score := s.strategy.Score(a, b)
	return &domain.CompareResult{
		IsMatch:  similarity.Decide(score, s.threshold),
		Score:    score,
		Strategy: s.strategy.Name(),
	}, nil
}

// probe acquires, localizes, crops and embeds
func (s *FaceService) probe(ctx context.Context, ref string) (domain.Embedding, error) {
	img, face, err := s.locate(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.embed(ctx, img, face)
}

func (s *FaceService) signature(ctx context.Context, ref string) (domain.FaceSignature, error) {
	img, face, err := s.locate(ctx, ref)
	if err != nil {
		return domain.FaceSignature{}, err
	}

	sig := domain.FaceSignature{Box: face.Box, Landmarks: face.Landmarks}
	if s.strategy.NeedsEmbedding() {
		if sig.Embedding, err = s.embed(ctx, img, face); err != nil {
			return domain.FaceSignature{}, err
		}
	}
	return sig, nil
}

func (s *FaceService) locate(ctx context.Context, ref string) (image.Image, domain.DetectedFace, error) {
	img, err := s.source.Acquire(ctx, ref)
	if err != nil {
		if errors.Is(err, acquire.ErrInvalidRef) {
			return nil, domain.DetectedFace{}, domain.ErrInvalidInput.WithError(err)
		}
		return nil, domain.DetectedFace{}, asAppError(err, domain.ErrImageAcquisitionFailed)
	}

	face, err := s.locator.Primary(ctx, img)
	if err != nil {
		return nil, domain.DetectedFace{}, asAppError(err, domain.ErrFaceDetectionFailed)
	}
	return img, face, nil
}

func (s *FaceService) embed(ctx context.Context, img image.Image, face domain.DetectedFace) (domain.Embedding, error) {
	emb, err := s.embedder.Embed(ctx, localizer.Crop(img, face.Box))
	if err != nil {
		return nil, asAppError(err, domain.ErrEmbeddingFailed)
	}
	return emb, nil
}

func (s *FaceService) record(ctx context.Context, ev audit.Event, start time.Time, score *float64, err error) {
	ev.Success = err == nil
	ev.Score = score
	ev.LatencyMS = time.Since(start).Milliseconds()

	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		ev.ErrorCode = appErr.Code
	} else if err != nil {
		ev.ErrorCode = domain.ErrInternal.Code
	}

	// audit failures never change the operation result
	if auditErr := s.audit.Log(ctx, ev); auditErr != nil {
		s.logger.WarnContext(ctx, "audit log failed", "error", auditErr)
	}
}

func scoreOf(r *domain.MatchResult) *float64 {
	if r == nil {
		return nil
	}
	return &r.Score
}

var errNoModel = domain.ErrEmbeddingFailed.WithMessage("No embedding model configured")

// asAppError keeps AppErrors as they are and wraps anything else in fallback
func asAppError(err error, fallback *domain.AppError) error {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return fallback.WithError(err)
}

func validatePersonID(personID string) error {
	if personID == "" {
		return domain.ErrInvalidInput.WithMessage("person_id is required")
	}
	if strings.HasPrefix(personID, "_") {
		return domain.ErrInvalidInput.WithMessage("person_id must not start with '_'")
	}
	return nil
}

func validateRef(ref string) error {
	if _, _, err := acquire.ParseRef(ref); err != nil {
		return domain.ErrInvalidInput.WithError(err).WithMessage("image_ref is not a valid URL or path")
	}
	return nil
}
