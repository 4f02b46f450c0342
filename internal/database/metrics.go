package database

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SlowQuery is one entry of the slow-query log.
type SlowQuery struct {
	SQL        string        `json:"sql"`
	Namespace  string        `json:"namespace,omitempty"`
	Duration   time.Duration `json:"duration"`
	ObservedAt time.Time     `json:"observed_at"`
}

// Stats is a snapshot of the executor counters.
type Stats struct {
	TotalQueries   int64         `json:"total_queries"`
	AverageLatency time.Duration `json:"average_latency"`
	CacheHits      int64         `json:"cache_hits"`
	CacheMisses    int64         `json:"cache_misses"`
	CacheErrors    int64         `json:"cache_errors"`
	SlowQueries    []SlowQuery   `json:"slow_queries"`
}

type queryStats struct {
	mu sync.Mutex

	total        int64
	totalLatency time.Duration
	hits         int64
	misses       int64
	cacheErrors  int64

	threshold time.Duration
	slow      []SlowQuery
	next      int
	full      bool

	queries   *prometheus.CounterVec
	durations *prometheus.HistogramVec
	cache     *prometheus.CounterVec
}

func newQueryStats(threshold time.Duration, logSize int, reg prometheus.Registerer) *queryStats {
	if logSize < 1 {
		logSize = 1
	}
	s := &queryStats{
		threshold: threshold,
		slow:      make([]SlowQuery, logSize),
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gearbooking_db_queries_total",
				Help: "Statements executed against the store",
			},
			[]string{"kind"},
		),
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gearbooking_db_query_duration_seconds",
				Help:    "Statement latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		cache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gearbooking_cache_requests_total",
				Help: "Result cache lookups by outcome",
			},
			[]string{"result"},
		),
	}
	if reg != nil {
		reg.MustRegister(s.queries, s.durations, s.cache)
	}
	return s
}

func (s *queryStats) observe(kind, sql, namespace string, d time.Duration, at time.Time) {
	s.queries.WithLabelValues(kind).Inc()
	s.durations.WithLabelValues(kind).Observe(d.Seconds())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	s.totalLatency += d
	if d < s.threshold {
		return
	}
	s.slow[s.next] = SlowQuery{SQL: sql, Namespace: namespace, Duration: d, ObservedAt: at}
	s.next = (s.next + 1) % len(s.slow)
	if s.next == 0 {
		s.full = true
	}
}

func (s *queryStats) cacheResult(result string) {
	s.cache.WithLabelValues(result).Inc()

	s.mu.Lock()
	defer s.mu.Unlock()
	switch result {
	case "hit":
		s.hits++
	case "miss":
		s.misses++
	default:
		s.cacheErrors++
	}
}

func (s *queryStats) snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		TotalQueries: s.total,
		CacheHits:    s.hits,
		CacheMisses:  s.misses,
		CacheErrors:  s.cacheErrors,
	}
	if s.total > 0 {
		st.AverageLatency = s.totalLatency / time.Duration(s.total)
	}

	// oldest first
	if s.full {
		st.SlowQueries = append(st.SlowQueries, s.slow[s.next:]...)
	}
	st.SlowQueries = append(st.SlowQueries, s.slow[:s.next]...)
	return st
}
