package harness

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Observer is notified as a run progresses. Calls are serialized and
// CaseFinished arrives in discovery order even when cases run in parallel.
type Observer interface {
	SuiteStarted(suite SuiteConfig, cases []TestCase)
	CaseFinished(suite SuiteConfig, result CaseResult)
	SuiteFinished(summary SuiteSummary)
}

type CaseResult struct {
	Case     TestCase
	Verdict  Verdict
	Duration time.Duration
}

type SuiteSummary struct {
	Kind     Kind
	Title    string
	Passed   int
	Failed   int
	Skipped  int
	Results  []CaseResult
	Err      error
	Duration time.Duration
}

// OK is true when nothing failed. Skips never affect it.
func (s SuiteSummary) OK() bool {
	return s.Failed == 0 && s.Err == nil
}

func (s SuiteSummary) Total() int {
	return s.Passed + s.Failed + s.Skipped
}

type RunSummary struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Suites    []SuiteSummary
}

// OK is the conjunction of every suite's OK.
func (r RunSummary) OK() bool {
	ok := true
	for _, s := range r.Suites {
		ok = s.OK() && ok
	}
	return ok
}

func (r RunSummary) Totals() (passed, failed, skipped int) {
	for _, s := range r.Suites {
		passed += s.Passed
		failed += s.Failed
		skipped += s.Skipped
	}
	return passed, failed, skipped
}

// Harness drives suites through the classifier.
type Harness struct {
	opts       Options
	classifier *Classifier
	observers  []Observer
}

func New(opts Options, observers ...Observer) *Harness {
	opts = opts.withDefaults()
	return &Harness{
		opts:       opts,
		classifier: NewClassifier(opts),
		observers:  observers,
	}
}

// RunAll runs every suite in order. A failing suite never stops later ones.
func (h *Harness) RunAll(ctx context.Context, suites []SuiteConfig) RunSummary {
	run := RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}

	for _, suite := range suites {
		run.Suites = append(run.Suites, h.RunSuite(ctx, suite))
	}
	run.Duration = time.Since(run.StartedAt)

	passed, failed, skipped := run.Totals()
	h.opts.Logger.Info("run finished",
		slog.String("run_id", run.RunID),
		slog.Int("passed", passed),
		slog.Int("failed", failed),
		slog.Int("skipped", skipped),
		slog.Bool("ok", run.OK()))
	return run
}

// RunSuite discovers and classifies one suite. An empty suite is OK.
func (h *Harness) RunSuite(ctx context.Context, suite SuiteConfig) SuiteSummary {
	start := time.Now()
	summary := SuiteSummary{Kind: suite.Kind, Title: suite.Title}

	cases, err := Discover(h.opts.Root, suite, h.opts.GOOS)
	h.notify(func(o Observer) { o.SuiteStarted(suite, cases) })
	if err != nil {
		h.opts.Logger.Warn("discovery failed", slog.String("suite", string(suite.Kind)), slog.Any("error", err))
		summary.Err = err
		summary.Duration = time.Since(start)
		h.notify(func(o Observer) { o.SuiteFinished(summary) })
		return summary
	}

	summary.Results = h.classifyAll(ctx, suite, cases)
	for _, r := range summary.Results {
		switch r.Verdict.Status {
		case StatusPass:
			summary.Passed++
		case StatusFail:
			summary.Failed++
		case StatusSkip:
			summary.Skipped++
		}
	}
	summary.Duration = time.Since(start)

	h.notify(func(o Observer) { o.SuiteFinished(summary) })
	return summary
}

func (h *Harness) classifyAll(ctx context.Context, suite SuiteConfig, cases []TestCase) []CaseResult {
	results := make([]CaseResult, len(cases))

	if h.opts.Jobs <= 1 || len(cases) <= 1 {
		for i, tc := range cases {
			results[i] = h.classifyOne(ctx, suite, tc)
			h.notify(func(o Observer) { o.CaseFinished(suite, results[i]) })
		}
		return results
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		done = make([]bool, len(cases))
		next int
		sem  = make(chan struct{}, h.opts.Jobs)
	)

	for i, tc := range cases {
		i, tc := i, tc
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			r := h.classifyOne(ctx, suite, tc)

			mu.Lock()
			defer mu.Unlock()
			results[i] = r
			done[i] = true
			// deliver the contiguous finished prefix in discovery order
			for next < len(cases) && done[next] {
				res := results[next]
				h.notify(func(o Observer) { o.CaseFinished(suite, res) })
				next++
			}
		}()
	}
	wg.Wait()
	return results
}

func (h *Harness) classifyOne(ctx context.Context, suite SuiteConfig, tc TestCase) CaseResult {
	start := time.Now()
	var v Verdict
	if err := ctx.Err(); err != nil {
		v = Fail(ReasonLaunchError)
		v.Err = "interrupted: " + err.Error()
	} else {
		v = h.classifier.Classify(ctx, suite, tc)
	}
	return CaseResult{Case: tc, Verdict: v, Duration: time.Since(start)}
}

func (h *Harness) notify(fn func(Observer)) {
	for _, o := range h.observers {
		fn(o)
	}
}
