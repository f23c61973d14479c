package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VotesRecorded counts applied votes by value.
	VotesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharefit_votes_recorded_total",
		Help: "Total number of votes applied, by value",
	}, []string{"value"})

	// CommentEvents counts comment posts and deletions.
	CommentEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharefit_comment_events_total",
		Help: "Total number of comment events by type",
	}, []string{"event"})

	// ProfileCascadeWrites counts documents rewritten by profile propagation.
	ProfileCascadeWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharefit_profile_cascade_writes_total",
		Help: "Documents rewritten while propagating a profile edit",
	}, []string{"target"})

	// ProfileCascadeFailures counts profile propagations that stopped on an error.
	ProfileCascadeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sharefit_profile_cascade_failures_total",
		Help: "Profile propagations that failed part way",
	})

	// ProfileCascadeDuration records how long a full propagation takes.
	ProfileCascadeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sharefit_profile_cascade_duration_seconds",
		Help:    "Duration of profile propagation",
		Buckets: prometheus.DefBuckets,
	})

	// AuthEvents counts authentication outcomes.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharefit_auth_events_total",
		Help: "Authentication events by type and outcome",
	}, []string{"event", "outcome"})

	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharefit_redis_errors_total",
		Help: "Total number of failed Redis commands",
	}, []string{"command"})

	// CacheLookups counts outfit cache hits and misses.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharefit_cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})
)

// ObserveSince records the elapsed time since start on h.
func ObserveSince(h prometheus.Observer, start time.Time) {
	h.Observe(time.Since(start).Seconds())
}
