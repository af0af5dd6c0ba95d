// Package monitoring polls grant sources on a schedule, deduplicates
// discovered listings, scores them against registered organization profiles
// and fans matches out as events and notifications.
package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/turtacn/GrantScope/internal/application/scoring"
	"github.com/turtacn/GrantScope/internal/domain/grant"
	"github.com/turtacn/GrantScope/internal/domain/organization"
	"github.com/turtacn/GrantScope/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/GrantScope/pkg/types/common"
)

const (
	defaultPollInterval = time.Hour
	defaultQueueDepth   = 256
)

// Publisher emits domain events.  *kafka.Producer satisfies it; a nil-safe
// no-op is used when messaging is not configured.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

// Notification is a match alert queued for delivery.
type Notification struct {
	GrantID          string
	GrantTitle       string
	FunderName       string
	OrganizationID   string
	OrganizationName string
	Score            float64
	Reasons          []string
	DiscoveredAt     time.Time
}

// GrantIndexer pushes discovered grants into full-text search.
// *opensearch.Indexer satisfies it.
type GrantIndexer interface {
	IndexGrant(ctx context.Context, g *grant.Grant) error
}

// Notifier delivers a single notification.  LogNotifier is the default sink.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	Logger logging.Logger
}

func (l LogNotifier) Notify(_ context.Context, n Notification) error {
	l.Logger.Info("grant match alert",
		logging.String("grant_id", n.GrantID),
		logging.String("grant", n.GrantTitle),
		logging.String("funder", n.FunderName),
		logging.String("organization", n.OrganizationName),
		logging.Float64("score", n.Score))
	return nil
}

// ServiceOptions wires the service's collaborators.  Repo, Publisher,
// Notifier and Metrics are optional; Seen and Matcher are required.
type ServiceOptions struct {
	Sources    []Source
	Seen       SeenStore
	Matcher    *scoring.Matcher
	Repo       grant.Repository
	Orgs       organization.Repository
	Indexer    GrantIndexer
	Publisher  Publisher
	Notifier   Notifier
	Metrics    *prometheus.Metrics
	MinScore   float64
	Interval   time.Duration
	QueueDepth int
	Logger     logging.Logger
}

// Service runs one polling goroutine per source plus a dispatch goroutine
// draining the notification queue.  A scrape failure is logged and skipped;
// it never stops the loop for the affected source.
type Service struct {
	opts          ServiceOptions
	logger        logging.Logger
	notifications chan Notification

	mu       sync.RWMutex
	profiles []*organization.Profile
}

func NewService(opts ServiceOptions) *Service {
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultPollInterval
	}
	if opts.QueueDepth <= 0 {
		opts.QueueDepth = defaultQueueDepth
	}
	if opts.Notifier == nil {
		opts.Notifier = LogNotifier{Logger: opts.Logger}
	}
	return &Service{
		opts:          opts,
		logger:        opts.Logger.Named("monitor"),
		notifications: make(chan Notification, opts.QueueDepth),
	}
}

// RegisterProfile adds (or replaces, keyed by ID) a profile to score new
// grants against.
func (s *Service) RegisterProfile(p *organization.Profile) {
	if p == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.profiles {
		if existing.ID == p.ID {
			s.profiles[i] = p
			return
		}
	}
	s.profiles = append(s.profiles, p)
}

// LoadProfiles replaces the registered set with every stored profile.
func (s *Service) LoadProfiles(ctx context.Context) error {
	if s.opts.Orgs == nil {
		return nil
	}
	page := common.Pagination{PageSize: 100}
	page.Normalize()
	profiles, _, err := s.opts.Orgs.List(ctx, page)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.profiles = profiles
	s.mu.Unlock()
	s.logger.Info("profiles loaded for monitoring", logging.Int("count", len(profiles)))
	return nil
}

// SetMinScore adjusts the match threshold at runtime; the config watcher
// calls it on hot-reload.
func (s *Service) SetMinScore(v float64) {
	if v < 0 || v > 1 {
		return
	}
	s.mu.Lock()
	s.opts.MinScore = v
	s.mu.Unlock()
}

func (s *Service) minScore() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts.MinScore
}

func (s *Service) snapshotProfiles() []*organization.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*organization.Profile, len(s.profiles))
	copy(out, s.profiles)
	return out
}

// Run polls every source until ctx is cancelled.  Each source polls
// immediately on startup, then on its interval.  Run returns after all
// pollers stop and the notification queue drains.
func (s *Service) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, src := range s.opts.Sources {
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()
			s.pollLoop(ctx, src)
		}(src)
	}

	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		s.dispatchLoop(ctx)
	}()

	wg.Wait()
	close(s.notifications)
	<-dispatchDone
	s.logger.Info("monitoring stopped")
	return ctx.Err()
}

func (s *Service) pollLoop(ctx context.Context, src Source) {
	log := s.logger.With(logging.String("source", src.Name()))
	log.Info("source poller started", logging.Duration("interval", s.opts.Interval))

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	s.PollOnce(ctx, src)
	for {
		select {
		case <-ctx.Done():
			log.Info("source poller stopped")
			return
		case <-ticker.C:
			s.PollOnce(ctx, src)
		}
	}
}

// PollOnce fetches a source one time and processes whatever it returns.  It
// reports how many previously unseen grants were discovered.
func (s *Service) PollOnce(ctx context.Context, src Source) int {
	log := s.logger.With(logging.String("source", src.Name()))
	if m := s.opts.Metrics; m != nil {
		m.ScrapeCyclesTotal.WithLabelValues(src.Name()).Inc()
	}

	grants, err := src.Fetch(ctx)
	if err != nil {
		if m := s.opts.Metrics; m != nil {
			m.ScrapeErrors.WithLabelValues(src.Name()).Inc()
		}
		log.Warn("scrape failed, skipping cycle", logging.Err(err))
		return 0
	}

	discovered := 0
	for _, g := range grants {
		if g == nil {
			continue
		}
		if ctx.Err() != nil {
			return discovered
		}
		key := g.SourceURL
		if key == "" {
			key = g.Title
		}
		seen, err := s.opts.Seen.Contains(ctx, key)
		if err != nil {
			log.Warn("seen-set lookup failed", logging.String("key", key), logging.Err(err))
			continue
		}
		if seen {
			continue
		}
		if err := s.opts.Seen.Add(ctx, key); err != nil {
			log.Warn("seen-set update failed", logging.String("key", key), logging.Err(err))
		}
		discovered++
		s.handleDiscovery(ctx, src.Name(), g)
	}

	if m := s.opts.Metrics; m != nil && discovered > 0 {
		m.GrantsDiscovered.WithLabelValues(src.Name()).Add(float64(discovered))
	}
	log.Info("poll cycle complete",
		logging.Int("listings", len(grants)),
		logging.Int("new", discovered))
	return discovered
}

func (s *Service) handleDiscovery(ctx context.Context, sourceName string, g *grant.Grant) {
	now := time.Now().UTC()

	if s.opts.Repo != nil {
		if err := s.opts.Repo.Upsert(ctx, g); err != nil {
			s.logger.Warn("persisting discovered grant failed",
				logging.String("title", g.Title), logging.Err(err))
		}
	}
	if s.opts.Indexer != nil {
		if err := s.opts.Indexer.IndexGrant(ctx, g); err != nil {
			s.logger.Warn("indexing discovered grant failed",
				logging.String("title", g.Title), logging.Err(err))
		}
	}

	s.publish(ctx, kafka.TopicGrantDiscovered, string(g.ID), kafka.GrantDiscoveredPayload{
		GrantID:    string(g.ID),
		Title:      g.Title,
		FunderName: g.FunderName,
		SourceName: sourceName,
		SourceURL:  g.SourceURL,
		Deadline:   g.Deadline,
		FoundAt:    now,
	})

	threshold := s.minScore()
	for _, profile := range s.snapshotProfiles() {
		matches := s.opts.Matcher.MatchGrants(profile, []*grant.Grant{g}, threshold, 0)
		if len(matches) == 0 {
			continue
		}
		m := matches[0]
		s.publish(ctx, kafka.TopicGrantMatched, string(m.ID), kafka.GrantMatchedPayload{
			GrantID:          string(m.ID),
			GrantTitle:       m.Title,
			OrganizationID:   string(profile.ID),
			OrganizationName: profile.Name,
			Score:            m.RelevanceScore,
			MatchReasons:     m.MatchReasons,
			MatchedAt:        now,
		})
		s.enqueue(Notification{
			GrantID:          string(m.ID),
			GrantTitle:       m.Title,
			FunderName:       m.FunderName,
			OrganizationID:   string(profile.ID),
			OrganizationName: profile.Name,
			Score:            m.RelevanceScore,
			Reasons:          m.MatchReasons,
			DiscoveredAt:     now,
		})
	}
}

func (s *Service) publish(ctx context.Context, topic, key string, payload interface{}) {
	if s.opts.Publisher == nil {
		return
	}
	if err := s.opts.Publisher.Publish(ctx, topic, key, payload); err != nil {
		s.logger.Warn("event publish failed",
			logging.String("topic", topic), logging.Err(err))
	}
}

// enqueue never blocks a poller: when the queue is full the notification is
// dropped with a warning.
func (s *Service) enqueue(n Notification) {
	select {
	case s.notifications <- n:
	default:
		s.logger.Warn("notification queue full, dropping alert",
			logging.String("grant", n.GrantTitle),
			logging.String("organization", n.OrganizationName))
	}
}

func (s *Service) dispatchLoop(ctx context.Context) {
	for n := range s.notifications {
		if err := s.opts.Notifier.Notify(ctx, n); err != nil {
			s.logger.Warn("notification delivery failed",
				logging.String("grant", n.GrantTitle), logging.Err(err))
		}
	}
}
