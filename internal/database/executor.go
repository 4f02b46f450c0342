// Package database is the cached query executor: a bounded connection pool,
// transactions, per-statement timeouts and a result cache invalidated on
// committed writes.
package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/gearbooking/config"
	"github.com/Domenick1991/gearbooking/internal/cache"
	"github.com/Domenick1991/gearbooking/internal/domain"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Statement is one SQL statement plus the metadata the executor needs to
// cache, time and invalidate it.
type Statement struct {
	SQL  string
	Args []any

	// Namespace is the table the statement touches. Cached reads are keyed
	// under it and writes through Exec invalidate it.
	Namespace string
	Cache     bool

	// CacheKey replaces the derived sql+args hash when set.
	CacheKey string
	CacheTTL time.Duration

	// Timeout overrides the configured statement timeout; negative disables it.
	Timeout time.Duration

	// Invalidates lists extra namespaces a successful run makes stale.
	Invalidates []string
}

func (s Statement) cacheKey() string {
	if s.CacheKey != "" {
		return s.Namespace + ":" + s.CacheKey
	}
	h := sha256.New()
	h.Write([]byte(s.SQL))
	args, err := json.Marshal(s.Args)
	if err == nil {
		h.Write(args)
	} else {
		fmt.Fprintf(h, "%v", s.Args)
	}
	return s.Namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

// ScanFunc turns the rows of a read into a result value.
type ScanFunc[T any] func(rows Rows) (T, error)

// Querier runs statements on the pool or inside a transaction.
type Querier interface {
	// Query runs stmt and passes the rows to consume before the connection
	// is given back.
	Query(ctx context.Context, stmt Statement, consume func(Rows) error) error
	Exec(ctx context.Context, stmt Statement) (int64, error)
}

type Config struct {
	AcquireTimeout     time.Duration
	StatementTimeout   time.Duration
	SlowQueryThreshold time.Duration
	SlowQueryLogSize   int
	DefaultCacheTTL    time.Duration
}

func ConfigFrom(db config.DatabaseConfig, c config.CacheConfig) Config {
	return Config{
		AcquireTimeout:     db.AcquireTimeout(),
		StatementTimeout:   db.StatementTimeout(),
		SlowQueryThreshold: db.SlowQueryThreshold(),
		SlowQueryLogSize:   db.SlowQueryLogSize,
		DefaultCacheTTL:    c.DefaultTTL(),
	}
}

type Executor struct {
	pool  Pool
	cache cache.Cache
	cfg   Config
	log   *zap.Logger
	stats *queryStats
	now   func() time.Time
}

// New builds an executor. c may be nil, which disables result caching; reg
// may be nil, which leaves the collectors unregistered.
func New(pool Pool, c cache.Cache, cfg Config, log *zap.Logger, reg prometheus.Registerer) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{
		pool:  pool,
		cache: c,
		cfg:   cfg,
		log:   log.Named("executor"),
		stats: newQueryStats(cfg.SlowQueryThreshold, cfg.SlowQueryLogSize, reg),
		now:   time.Now,
	}
}

// Read runs a read statement. Outside a transaction a cacheable statement is
// served from the cache when possible; a hit never touches the pool.
func Read[T any](ctx context.Context, q Querier, stmt Statement, scan ScanFunc[T]) (T, error) {
	e, ok := q.(*Executor)
	if !ok || !stmt.Cache || e.cache == nil {
		return readThrough(ctx, q, stmt, scan)
	}

	key := stmt.cacheKey()
	var cached T
	if e.lookup(ctx, key, &cached) {
		return cached, nil
	}

	out, err := readThrough(ctx, q, stmt, scan)
	if err != nil {
		return out, err
	}
	ttl := stmt.CacheTTL
	if ttl <= 0 {
		ttl = e.cfg.DefaultCacheTTL
	}
	e.store(ctx, key, out, ttl)
	return out, nil
}

func readThrough[T any](ctx context.Context, q Querier, stmt Statement, scan ScanFunc[T]) (T, error) {
	var out T
	err := q.Query(ctx, stmt, func(rows Rows) error {
		v, err := scan(rows)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func (e *Executor) Query(ctx context.Context, stmt Statement, consume func(Rows) error) error {
	conn, err := e.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if err := e.runQuery(ctx, conn, stmt, consume); err != nil {
		return err
	}
	if len(stmt.Invalidates) > 0 {
		e.Invalidate(context.WithoutCancel(ctx), stmt.Invalidates...)
	}
	return nil
}

// Exec runs a write outside a transaction and invalidates the statement's
// namespaces once it has succeeded.
func (e *Executor) Exec(ctx context.Context, stmt Statement) (int64, error) {
	conn, err := e.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	n, err := e.runExec(ctx, conn, stmt)
	if err != nil {
		return 0, err
	}
	e.Invalidate(context.WithoutCancel(ctx), writeNamespaces(stmt)...)
	return n, nil
}

// Invalidate drops every cached entry of the given namespaces.
func (e *Executor) Invalidate(ctx context.Context, namespaces ...string) {
	if e.cache == nil {
		return
	}
	seen := make(map[string]struct{}, len(namespaces))
	for _, ns := range namespaces {
		if ns == "" {
			continue
		}
		if _, ok := seen[ns]; ok {
			continue
		}
		seen[ns] = struct{}{}
		if err := e.cache.DeletePattern(ctx, ns+":*"); err != nil {
			e.stats.cacheResult("error")
			e.log.Warn("cache invalidation failed", zap.String("namespace", ns), zap.Error(err))
		}
	}
}

func (e *Executor) Stats() Stats {
	return e.stats.snapshot()
}

// Close shuts down the pool and the cache.
func (e *Executor) Close() {
	e.pool.Close()
	if e.cache != nil {
		if err := e.cache.Close(); err != nil {
			e.log.Warn("failed to close cache", zap.Error(err))
		}
	}
}

func (e *Executor) acquire(ctx context.Context) (Conn, error) {
	actx, cancel := e.withTimeout(ctx, e.cfg.AcquireTimeout)
	defer cancel()

	conn, err := e.pool.Acquire(actx)
	if err == nil {
		return conn, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if isConnectionError(err) {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(actx.Err(), context.DeadlineExceeded) {
		e.log.Warn("connection acquisition timed out", zap.Duration("timeout", e.cfg.AcquireTimeout))
		return nil, fmt.Errorf("%w: waited %s", domain.ErrPoolExhausted, e.cfg.AcquireTimeout)
	}
	return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

func (e *Executor) runQuery(ctx context.Context, q queryer, stmt Statement, consume func(Rows) error) error {
	sctx, cancel := e.statementContext(ctx, stmt)
	defer cancel()

	start := e.now()
	rows, err := q.Query(sctx, stmt.SQL, stmt.Args...)
	if err == nil {
		err = consumeRows(rows, consume)
	}
	e.stats.observe("read", stmt.SQL, stmt.Namespace, e.now().Sub(start), start)
	return classify(ctx, sctx, err)
}

func (e *Executor) runExec(ctx context.Context, q queryer, stmt Statement) (int64, error) {
	sctx, cancel := e.statementContext(ctx, stmt)
	defer cancel()

	start := e.now()
	tag, err := q.Exec(sctx, stmt.SQL, stmt.Args...)
	e.stats.observe("write", stmt.SQL, stmt.Namespace, e.now().Sub(start), start)
	if err != nil {
		return 0, classify(ctx, sctx, err)
	}
	return tag.RowsAffected(), nil
}

func consumeRows(rows Rows, consume func(Rows) error) error {
	err := consume(rows)
	rows.Close()
	if err != nil {
		return err
	}
	return rows.Err()
}

func (e *Executor) statementContext(ctx context.Context, stmt Statement) (context.Context, context.CancelFunc) {
	timeout := stmt.Timeout
	if timeout == 0 {
		timeout = e.cfg.StatementTimeout
	}
	return e.withTimeout(ctx, timeout)
}

func (e *Executor) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (e *Executor) lookup(ctx context.Context, key string, dest any) bool {
	data, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		e.stats.cacheResult("error")
		e.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		e.stats.cacheResult("miss")
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		e.stats.cacheResult("error")
		e.log.Warn("cached value undecodable", zap.String("key", key), zap.Error(err))
		return false
	}
	e.stats.cacheResult("hit")
	return true
}

func (e *Executor) store(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		e.log.Warn("result not cacheable", zap.String("key", key), zap.Error(err))
		return
	}
	if err := e.cache.Set(ctx, key, data, ttl); err != nil {
		e.stats.cacheResult("error")
		e.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func writeNamespaces(stmt Statement) []string {
	out := make([]string, 0, len(stmt.Invalidates)+1)
	if stmt.Namespace != "" {
		out = append(out, stmt.Namespace)
	}
	return append(out, stmt.Invalidates...)
}

var _ Querier = (*Executor)(nil)
