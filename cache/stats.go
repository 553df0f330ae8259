package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Stats accumulates the counters §4.8 requires every cache in the fabric to
// expose: hits, misses, loads, evictions, and the current byte weight
// outstanding (zero for count-capped caches).
type Stats struct {
	name string

	hits       atomic.Int64
	misses     atomic.Int64
	loads      atomic.Int64
	loadErrors atomic.Int64
	evictions  atomic.Int64
	weight     atomic.Int64

	hitsVec      prometheus.Counter
	missesVec    prometheus.Counter
	loadsVec     prometheus.Counter
	loadErrsVec  prometheus.Counter
	evictionsVec prometheus.Counter
	weightGauge  prometheus.Gauge
}

// NewStats registers one cache's counters against reg, labeled by name.
// reg may be nil, in which case the counters are created unregistered
// (tests build fabrics without a Prometheus registry).
func NewStats(name string, reg prometheus.Registerer) *Stats {
	s := &Stats{name: name}
	labels := prometheus.Labels{"cache": name}

	s.hitsVec = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fpmosaic", Subsystem: "cache", Name: "hits_total",
		Help: "cache hits", ConstLabels: labels,
	})
	s.missesVec = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fpmosaic", Subsystem: "cache", Name: "misses_total",
		Help: "cache misses", ConstLabels: labels,
	})
	s.loadsVec = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fpmosaic", Subsystem: "cache", Name: "loads_total",
		Help: "loader invocations that succeeded", ConstLabels: labels,
	})
	s.loadErrsVec = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fpmosaic", Subsystem: "cache", Name: "load_errors_total",
		Help: "loader invocations that failed", ConstLabels: labels,
	})
	s.evictionsVec = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fpmosaic", Subsystem: "cache", Name: "evictions_total",
		Help: "entries evicted", ConstLabels: labels,
	})
	s.weightGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fpmosaic", Subsystem: "cache", Name: "weight_bytes",
		Help: "outstanding byte weight charged against the cap", ConstLabels: labels,
	})

	if reg != nil {
		reg.MustRegister(s.hitsVec, s.missesVec, s.loadsVec, s.loadErrsVec, s.evictionsVec, s.weightGauge)
	}
	return s
}

func (s *Stats) hit()          { s.hits.Add(1); s.hitsVec.Inc() }
func (s *Stats) miss()         { s.misses.Add(1); s.missesVec.Inc() }
func (s *Stats) load()         { s.loads.Add(1); s.loadsVec.Inc() }
func (s *Stats) loadError()    { s.loadErrors.Add(1); s.loadErrsVec.Inc() }
func (s *Stats) evict()        { s.evictions.Add(1); s.evictionsVec.Inc() }
func (s *Stats) setWeight(w int64) {
	s.weight.Store(w)
	s.weightGauge.Set(float64(w))
}

// Snapshot is a point-in-time read of a cache's counters, logged
// periodically by ReportLoop.
type Snapshot struct {
	Name       string
	Hits       int64
	Misses     int64
	Loads      int64
	LoadErrors int64
	Evictions  int64
	Weight     int64
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Name:       s.name,
		Hits:       s.hits.Load(),
		Misses:     s.misses.Load(),
		Loads:      s.loads.Load(),
		LoadErrors: s.loadErrors.Load(),
		Evictions:  s.evictions.Load(),
		Weight:     s.weight.Load(),
	}
}

// ReportLoop logs a Snapshot of every cache in the fabric every interval,
// until ctx is cancelled — the way a long-running mosaic service keeps an
// eye on cache pressure without a scrape puller attached.
func ReportLoop(ctx context.Context, log *zap.Logger, interval time.Duration, caches ...*Stats) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, c := range caches {
				snap := c.Snapshot()
				log.Info("cache stats",
					zap.String("cache", snap.Name),
					zap.Int64("hits", snap.Hits),
					zap.Int64("misses", snap.Misses),
					zap.Int64("loads", snap.Loads),
					zap.Int64("load_errors", snap.LoadErrors),
					zap.Int64("evictions", snap.Evictions),
					zap.Int64("weight_bytes", snap.Weight),
				)
			}
		}
	}
}
