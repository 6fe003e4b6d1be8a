package crawler

import (
	"sync"
	"time"

	"github.com/hazyhaar/presswatch/detect"
)

// Stage names the orchestrator's current step, surfaced via OnProgress.
type Stage string

const (
	StageDetecting      Stage = "detecting"
	StageSavingSource   Stage = "saving_source"
	StageSavingCategory Stage = "saving_category"
	StageHarvesting     Stage = "harvesting_links"
	StageScraping       Stage = "scraping"
	StageClassifying    Stage = "classifying"
	StagePersisting     Stage = "persisting"
)

// Event is one progress notification.
type Event struct {
	Stage   Stage  `json:"stage"`
	Target  string `json:"target"`
	Title   string `json:"title,omitempty"`
	Elapsed int64  `json:"elapsed_ms"`
}

// Status classifies one article's outcome in the report.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusDuplicate Status = "duplicate"
	StatusFailed    Status = "failed"
)

// Detail records one article's journey through the pipeline.
type Detail struct {
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
	Category string `json:"category,omitempty"`
	Status   Status `json:"status"`
	Error    string `json:"error,omitempty"`
}

// ArticleCounts aggregates per-article outcomes.
type ArticleCounts struct {
	Total      int `json:"total"`
	Success    int `json:"success"`
	Failed     int `json:"failed"`
	Duplicates int `json:"duplicates"`
}

// CategoryCounts aggregates per-category outcomes.
type CategoryCounts struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// Report is the structured result of one crawl run. It is returned to the
// caller and never persisted. Success reflects only the terminal states:
// contained per-category and per-article failures leave it true.
type Report struct {
	Success    bool              `json:"success"`
	Source     detect.SourceInfo `json:"source"`
	Categories CategoryCounts    `json:"categories"`
	Articles   ArticleCounts     `json:"articles"`
	Details    []Detail          `json:"details"`
	StartedAt  int64             `json:"started_at"`
	FinishedAt int64             `json:"finished_at"`
	Error      string            `json:"error,omitempty"`
}

// run carries the mutable state of one crawl.
type run struct {
	report  *Report
	opts    Options
	started time.Time
	wg      sync.WaitGroup
}

func newRun(opts Options) *run {
	now := time.Now()
	return &run{
		report:  &Report{Details: []Detail{}, StartedAt: now.UnixMilli()},
		opts:    opts,
		started: now,
	}
}

func (r *run) record(d Detail) {
	r.report.Details = append(r.report.Details, d)
	r.report.Articles.Total++
	switch d.Status {
	case StatusSuccess:
		r.report.Articles.Success++
	case StatusDuplicate:
		r.report.Articles.Duplicates++
	case StatusFailed:
		r.report.Articles.Failed++
	}
}

func (r *run) sourceBudgetLeft() int {
	return r.opts.Limits.MaxArticlesPerSource - r.report.Articles.Total
}

func (r *run) sourceBudgetSpent() bool {
	return r.sourceBudgetLeft() <= 0
}

// emit delivers a progress event without blocking the pipeline. A panicking
// callback is swallowed; progress is strictly best-effort.
func (r *run) emit(stage Stage, target, title string) {
	if r.opts.OnProgress == nil {
		return
	}
	ev := Event{Stage: stage, Target: target, Title: title, Elapsed: time.Since(r.started).Milliseconds()}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() { recover() }()
		r.opts.OnProgress(ev)
	}()
}

// finish stamps the end time and waits for in-flight progress callbacks so
// callers never race a late event.
func (r *run) finish() *Report {
	r.wg.Wait()
	r.report.Success = r.report.Error == ""
	r.report.FinishedAt = time.Now().UnixMilli()
	return r.report
}
