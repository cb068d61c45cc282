package compaction

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type Config struct {
	Interval time.Duration
	// Closed sessions older than this are eligible for deletion
	Retention time.Duration
	// The most recently closed sessions are kept regardless of age
	Keep int
}

func DefaultConfig() Config {
	return Config{
		Interval:  5 * time.Minute,
		Retention: 7 * 24 * time.Hour,
		Keep:      1000,
	}
}

// Pruner is the part of the journal the service needs.
type Pruner interface {
	PruneSessions(cutoff time.Time, keep int) (int64, error)
}

// Service keeps the room journal bounded by pruning it on a ticker.
type Service struct {
	journal Pruner
	config  Config
	log     *zap.Logger
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func New(journal Pruner, config Config, log *zap.Logger) *Service {
	def := DefaultConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.Retention <= 0 {
		config.Retention = def.Retention
	}
	if config.Keep < 0 {
		config.Keep = 0
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		journal: journal,
		config:  config,
		log:     log,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
}

func (s *Service) Start() {
	s.wg.Add(1)
	go s.run()
	s.log.Info("compaction service started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("retention", s.config.Retention),
		zap.Int("keep", s.config.Keep))
}

func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
		s.log.Info("compaction service stopped")
	})
}

func (s *Service) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.compactJournal()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.compactJournal()
		}
	}
}

func (s *Service) compactJournal() {
	removed, err := s.CompactNow()
	if err != nil {
		s.log.Warn("journal compaction failed", zap.Error(err))
		return
	}
	if removed > 0 {
		s.log.Info("journal compacted", zap.Int64("removed", removed))
	}
}

// CompactNow prunes once and reports how many sessions were removed.
func (s *Service) CompactNow() (int64, error) {
	cutoff := s.now().Add(-s.config.Retention)
	return s.journal.PruneSessions(cutoff, s.config.Keep)
}
