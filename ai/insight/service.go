package insight

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/hrygo/todoc/ai/core/llm"
	"github.com/hrygo/todoc/ai/metrics"
	"github.com/hrygo/todoc/store"
)

// DefaultTTL is how long a generated insight is served from the store.
const DefaultTTL = 12 * time.Hour

// windowLimit caps the records analysed per request.
const windowLimit = 500

// Store is the persistence the insight service needs.
type Store interface {
	GetLatestUserInsight(ctx context.Context, userID, kidID int32, since time.Time) (*store.UserInsight, error)
	CreateUserInsight(ctx context.Context, create *store.UserInsight) (*store.UserInsight, error)
	ListRecordsSince(ctx context.Context, kidID int32, since time.Time, limit int) ([]*store.Record, error)
}

// Config tunes the service.
type Config struct {
	Thresholds Thresholds
	TTL        time.Duration
	// MaxConcurrent bounds simultaneous LLM generations.
	MaxConcurrent int64
	Model         string
	Now           func() time.Time
	Rand          *rand.Rand
	Metrics       metrics.Recorder
}

// Service returns the cached insight or generates a new one.
type Service struct {
	store     Store
	analyzer  *Analyzer
	generator *Generator
	ttl       time.Duration
	now       func() time.Time
	metrics   metrics.Recorder

	group singleflight.Group
	sem   *semaphore.Weighted

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewService creates the insight service.
func NewService(st Store, svc llm.Service, cfg Config) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Noop{}
	}
	return &Service{
		store:     st,
		analyzer:  NewAnalyzer(cfg.Thresholds),
		generator: NewGenerator(svc, cfg.Model),
		ttl:       cfg.TTL,
		now:       cfg.Now,
		metrics:   cfg.Metrics,
		sem:       semaphore.NewWeighted(cfg.MaxConcurrent),
		rng:       cfg.Rand,
	}
}

// GetOrCreate returns the newest insight generated within the TTL, or
// analyses the recent records and generates one. It returns nil, nil when
// the child has no records in the window. Concurrent calls for the same
// (user, kid) share one generation.
func (s *Service) GetOrCreate(ctx context.Context, userID int32, kid *store.Kid) (*store.UserInsight, error) {
	if kid == nil {
		return nil, nil
	}
	key := fmt.Sprintf("%d:%d", userID, kid.ID)
	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.getOrCreate(ctx, userID, kid)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("insight: shared in-flight generation", "user_id", userID, "kid_id", kid.ID)
	}
	return v.(*store.UserInsight), nil
}

func (s *Service) getOrCreate(ctx context.Context, userID int32, kid *store.Kid) (*store.UserInsight, error) {
	now := s.now()
	cached, err := s.store.GetLatestUserInsight(ctx, userID, kid.ID, now.Add(-s.ttl))
	if err != nil {
		return nil, fmt.Errorf("load cached insight: %w", err)
	}
	if cached != nil {
		s.metrics.RecordInsight(cached.Category, "cached")
		return cached, nil
	}

	window := time.Duration(s.analyzer.Thresholds().WindowDays) * 24 * time.Hour
	records, err := s.store.ListRecordsSince(ctx, kid.ID, now.Add(-window), windowLimit)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	analysis := s.analyzer.Analyze(records)

	s.rngMu.Lock()
	category, ok := SelectCategory(analysis, s.rng)
	s.rngMu.Unlock()
	if !ok {
		s.metrics.RecordInsight("none", "no_data")
		return nil, nil
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	text, err := s.generator.Generate(ctx, kid.Name, analysis[category])
	s.sem.Release(1)
	if err != nil {
		s.metrics.RecordInsight(string(category), "error")
		return nil, err
	}

	created, err := s.store.CreateUserInsight(ctx, &store.UserInsight{
		UserID:      userID,
		KidID:       kid.ID,
		Category:    string(category),
		InsightText: text,
		GeneratedTs: now.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("save insight: %w", err)
	}
	s.metrics.RecordInsight(string(category), "generated")
	slog.Info("insight: generated",
		"user_id", userID,
		"kid_id", kid.ID,
		"category", category,
		"anomaly", analysis[category].Anomaly,
	)
	return created, nil
}
