// Package totals keeps listings' total page counts in Redis so head links
// can be emitted before the paginated markup is rendered.
package totals

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/edgecomet/pagination/internal/common/redis"
)

const (
	DefaultTTL     = time.Hour
	DefaultTimeout = 200 * time.Millisecond
)

// Cache operation outcomes passed to Recorder.
const (
	OpGet = "get"
	OpSet = "set"

	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultOK    = "ok"
	ResultError = "error"
)

// Recorder observes cache operations.
type Recorder interface {
	RecordCacheOp(op, result string)
}

// Store is a best-effort totals cache. Failures are logged and read as misses.
type Store struct {
	client   *redis.Client
	keys     *redis.KeyGenerator
	ttl      time.Duration
	timeout  time.Duration
	recorder Recorder
	logger   *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets how long a stored total stays valid.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithTimeout bounds each Redis call.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithRecorder reports cache operations to r.
func WithRecorder(r Recorder) Option {
	return func(s *Store) {
		s.recorder = r
	}
}

// NewStore creates a Store over an established Redis client.
func NewStore(client *redis.Client, keys *redis.KeyGenerator, logger *zap.Logger, opts ...Option) *Store {
	if keys == nil {
		keys = redis.NewKeyGenerator("")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		client:  client,
		keys:    keys,
		ttl:     DefaultTTL,
		timeout: DefaultTimeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetTotal returns the cached total for contentID.
func (s *Store) GetTotal(ctx context.Context, contentID string) (int, bool) {
	if contentID == "" {
		return 0, false
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	key := s.keys.PaginationTotalKey(contentID)
	raw, err := s.client.Get(ctx, key)
	if err != nil {
		s.record(OpGet, ResultError)
		s.logger.Warn("Failed to read cached pagination total",
			zap.String("content_id", contentID),
			zap.Error(err))
		return 0, false
	}
	if raw == "" {
		s.record(OpGet, ResultMiss)
		return 0, false
	}

	total, err := strconv.Atoi(raw)
	if err != nil || total < 1 {
		s.record(OpGet, ResultMiss)
		s.logger.Debug("Ignoring malformed cached pagination total",
			zap.String("key", key),
			zap.String("value", raw))
		return 0, false
	}

	s.record(OpGet, ResultHit)
	return total, true
}

// SetTotal stores total for contentID. Last writer wins.
func (s *Store) SetTotal(ctx context.Context, contentID string, total int) {
	if contentID == "" || total < 1 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Set(ctx, s.keys.PaginationTotalKey(contentID), total, s.ttl); err != nil {
		s.record(OpSet, ResultError)
		s.logger.Warn("Failed to cache pagination total",
			zap.String("content_id", contentID),
			zap.Int("total_pages", total),
			zap.Error(err))
		return
	}
	s.record(OpSet, ResultOK)
}

func (s *Store) record(op, result string) {
	if s.recorder != nil {
		s.recorder.RecordCacheOp(op, result)
	}
}
