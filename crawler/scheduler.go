package crawler

import (
	"context"
	"log/slog"
	"time"
)

// SchedulerConfig drives periodic crawls over a fixed set of homepages.
type SchedulerConfig struct {
	// Homepages lists the sources to crawl each cycle.
	Homepages []string `yaml:"homepages"`
	// Interval separates cycle starts. Default: 1h.
	Interval time.Duration `yaml:"interval"`
	Logger   *slog.Logger  `yaml:"-"`
}

func (c *SchedulerConfig) defaults() {
	if c.Interval <= 0 {
		c.Interval = time.Hour
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Scheduler runs full crawls on a fixed interval until its context ends.
type Scheduler struct {
	orch *Orchestrator
	cfg  SchedulerConfig
	log  *slog.Logger
}

func NewScheduler(orch *Orchestrator, cfg SchedulerConfig) *Scheduler {
	cfg.defaults()
	return &Scheduler{orch: orch, cfg: cfg, log: cfg.Logger}
}

// Run blocks, crawling every configured homepage once per interval. The
// first cycle starts immediately. Homepages within a cycle run
// sequentially; a failed source is logged and the cycle moves on.
func (s *Scheduler) Run(ctx context.Context) {
	if len(s.cfg.Homepages) == 0 {
		s.log.Info("scheduler idle, no homepages configured")
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	for _, homepage := range s.cfg.Homepages {
		if ctx.Err() != nil {
			return
		}
		report, err := s.orch.RunFullCrawl(ctx, homepage, Options{})
		if err != nil {
			s.log.Error("scheduled crawl failed", "homepage", homepage, "error", err)
			continue
		}
		s.log.Info("scheduled crawl done",
			"homepage", homepage,
			"articles", report.Articles.Total,
			"success", report.Articles.Success,
			"duplicates", report.Articles.Duplicates,
			"failed", report.Articles.Failed)
	}
}
