package watcher

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pfrederiksen/screening-watch/internal/filter"
	"github.com/pfrederiksen/screening-watch/internal/logger"
	"github.com/pfrederiksen/screening-watch/internal/notifier"
	"github.com/pfrederiksen/screening-watch/internal/scraper"
	"github.com/pfrederiksen/screening-watch/internal/showing"
	"github.com/pfrederiksen/screening-watch/internal/storage"
)

// Metric names recorded by a run
const (
	MetricRunsTotal           = "runs.total"
	MetricRunsFailed          = "runs.failed"
	MetricNotificationsSent   = "notifications.sent"
	MetricNotificationsFailed = "notifications.failed"
	MetricShowingsCurrent     = "showings.current"
	MetricShowingsNew         = "showings.new"
	MetricShowingsMatched     = "showings.matched"
	MetricRunDuration         = "run.duration"
	MetricFetchDuration       = "fetch.duration"
)

// Source produces the current showings
type Source interface {
	FetchShowings(ctx context.Context) (showing.ByDate, error)
}

// Store reads and writes snapshots
type Store interface {
	LoadMostRecent() (showing.ByDate, error)
	Persist(m showing.ByDate) (string, error)
}

// Options configures a Job
type Options struct {
	// URL is cited as the source in notifications
	URL string
	// DestinationEmail receives notifications
	DestinationEmail string
	// Keywords select which new showings are worth a notification
	Keywords []string
}

// Result describes one completed run
type Result struct {
	// RunID tags every log line of the run
	RunID     string
	CheckedAt time.Time
	Current   showing.ByDate
	New       showing.ByDate
	Matched   showing.ByDate
	// SnapshotPath is empty when the snapshot could not be written
	SnapshotPath string
	Notified     bool
	// Warnings holds the failures the run recovered from
	Warnings []error
}

// Job runs the check pipeline
type Job struct {
	opts     Options
	keywords *filter.Keywords
	source   Source
	store    Store
	notifier notifier.Notifier
	log      *logger.Logger
	metrics  *logger.Metrics
	now      func() time.Time
}

// Option customizes a Job
type Option func(*Job)

// WithMetrics records metrics on m instead of the package default
func WithMetrics(m *logger.Metrics) Option {
	return func(j *Job) {
		j.metrics = m
	}
}

// WithClock sets the clock used for Result.CheckedAt and run timings
func WithClock(now func() time.Time) Option {
	return func(j *Job) {
		j.now = now
	}
}

// New creates a Job. A nil logger uses the package default.
func New(opts Options, source Source, store Store, n notifier.Notifier, log *logger.Logger, options ...Option) *Job {
	if log == nil {
		log = logger.Default()
	}

	j := &Job{
		opts:     opts,
		keywords: filter.NewKeywords(opts.Keywords),
		source:   source,
		store:    store,
		notifier: n,
		log:      log.With(logger.Fields{"component": "watcher"}),
		metrics:  logger.DefaultMetrics(),
		now:      time.Now,
	}
	for _, o := range options {
		o(j)
	}
	return j
}

// Run executes one check, discarding the result
func (j *Job) Run(ctx context.Context) error {
	_, err := j.Execute(ctx)
	return err
}

// Execute runs the pipeline once. It returns an error only when the page
// could not be fetched or parsed; nothing is persisted or sent in that case.
func (j *Job) Execute(ctx context.Context) (*Result, error) {
	start := j.now()
	j.metrics.IncrCounter(MetricRunsTotal)
	defer func() {
		j.metrics.RecordTiming(MetricRunDuration, j.now().Sub(start))
	}()

	result := &Result{RunID: uuid.NewString(), CheckedAt: start}
	log := j.log.With(logger.Fields{"run_id": result.RunID})

	current, err := j.source.FetchShowings(ctx)
	j.metrics.RecordTiming(MetricFetchDuration, j.now().Sub(start))
	if err != nil {
		j.metrics.IncrCounter(MetricRunsFailed)
		log.Error("Run aborted", logger.Fields{
			"url":        j.opts.URL,
			"error_type": classify(err),
		}, err)
		return nil, err
	}
	result.Current = current
	j.metrics.SetGauge(MetricShowingsCurrent, float64(current.Count()))

	previous, err := j.store.LoadMostRecent()
	if err != nil {
		log.WarnErr("Could not load previous snapshot, treating every showing as new", logger.Fields{
			"error_type": classify(err),
		}, err)
		result.Warnings = append(result.Warnings, err)
		previous = make(showing.ByDate)
	}

	path, err := j.store.Persist(current)
	if err != nil {
		log.WarnErr("Could not persist snapshot", logger.Fields{
			"error_type": classify(err),
		}, err)
		result.Warnings = append(result.Warnings, err)
	} else {
		result.SnapshotPath = path
		log.Debug("Snapshot persisted", logger.Fields{"path": path})
	}

	result.New = showing.Diff(current, previous)
	result.Matched = j.keywords.Apply(result.New)
	j.metrics.SetGauge(MetricShowingsNew, float64(result.New.Count()))
	j.metrics.SetGauge(MetricShowingsMatched, float64(result.Matched.Count()))

	if len(result.Matched) > 0 {
		body := notifier.FormatEmail(result.Matched, j.opts.URL)
		if err := j.notifier.Send(ctx, j.opts.DestinationEmail, notifier.Subject, body); err != nil {
			j.metrics.IncrCounter(MetricNotificationsFailed)
			log.WarnErr("Could not send notification", logger.Fields{
				"to":      j.opts.DestinationEmail,
				"matched": result.Matched.Count(),
			}, err)
			result.Warnings = append(result.Warnings, err)
		} else {
			j.metrics.IncrCounter(MetricNotificationsSent)
			result.Notified = true
		}
	}

	log.Info("Run complete", logger.Fields{
		"showings": current.Count(),
		"dates":    len(current),
		"new":      result.New.Count(),
		"matched":  result.Matched.Count(),
		"notified": result.Notified,
		"warnings": len(result.Warnings),
	})

	return result, nil
}

// classify names the kind of failure for log fields
func classify(err error) string {
	var fetchErr *scraper.FetchError
	var parseErr *scraper.ParseError

	switch {
	case errors.As(err, &fetchErr):
		return "fetch"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, storage.ErrNotFound):
		return "snapshot_not_found"
	case errors.Is(err, storage.ErrCorrupt):
		return "snapshot_corrupt"
	case errors.Is(err, storage.ErrWrite):
		return "snapshot_write"
	default:
		return "other"
	}
}
