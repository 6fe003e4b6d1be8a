package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/hazyhaar/presswatch/classify"
)

func TestScheduler_CycleCrawlsEachHomepage(t *testing.T) {
	// WHAT: One cycle runs a full crawl per configured homepage.
	archive := newFakeArchive()
	o := testOrchestrator(t,
		&fakeDetector{result: testDetection()},
		&fakeHarvester{},
		&fakeScraper{},
		&fakeClassifier{result: classify.Uncategorized()},
		archive,
	)
	s := NewScheduler(o, SchedulerConfig{
		Homepages: []string{"https://news.example/", "https://news.example/"},
		Interval:  time.Hour,
	})

	s.cycle(context.Background())

	if len(archive.sources) != 1 {
		t.Errorf("sources = %d, want 1 (same domain twice)", len(archive.sources))
	}
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	// WHAT: Run returns promptly once the context ends, even with no
	// homepages configured.
	s := NewScheduler(testOrchestrator(t,
		&fakeDetector{}, &fakeHarvester{}, &fakeScraper{}, &fakeClassifier{}, newFakeArchive(),
	), SchedulerConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
