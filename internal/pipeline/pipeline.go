package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"

	"github.com/dshills/postguard/internal/cache"
	"github.com/dshills/postguard/internal/gate"
	"github.com/dshills/postguard/internal/redact"
	"github.com/dshills/postguard/internal/risk"
	"github.com/dshills/postguard/internal/spans"
)

// State is the pipeline's position in the per-edit cycle.
type State int

const (
	Idle State = iota
	PendingGate
	Classifying
	Rendered
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PendingGate:
		return "pending-gate"
	case Classifying:
		return "classifying"
	case Rendered:
		return "rendered"
	default:
		return "unknown"
	}
}

// Source says where a frame's analysis came from.
type Source string

const (
	SourceNone       Source = "none"
	SourceCache      Source = "cache"
	SourceSimilar    Source = "similar"
	SourceClassifier Source = "classifier"
)

// Frame is one rendered state of the buffer.
type Frame struct {
	Text     string
	Spans    []spans.Span
	Analysis *risk.Analysis
	Source   Source
	Err      error
	At       time.Time
}

// Empty reports whether the frame carries no risk data.
func (f Frame) Empty() bool { return f.Analysis == nil }

// Classifier is the external risk classifier.
type Classifier interface {
	Classify(ctx context.Context, text string) (risk.Analysis, error)
}

// Renderer receives every frame the pipeline applies, in order.
type Renderer interface {
	Render(Frame)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(Frame)

func (f RendererFunc) Render(fr Frame) { f(fr) }

// Cache is the result cache type shared between pipelines.
type Cache = cache.Cache[string, risk.Analysis]

// NewCache creates a result cache with the given options.
func NewCache(opts ...cache.Option) *Cache {
	return cache.New[string, risk.Analysis](opts...)
}

// Stats counts pipeline activity.
type Stats struct {
	Edits      int
	APICalls   int
	StaleDrops int
	Failures   int
	Cache      cache.Stats
}

// Pipeline annotates one buffer.
type Pipeline struct {
	classifier Classifier
	cache      *Cache
	gate       gate.Gate
	renderer   Renderer
	logger     log.Interface
	now        func() time.Time

	mu           sync.Mutex
	state        State
	text         string
	lastAnalyzed string
	pending      *Task // classification of lastAnalyzed, while in flight
	frame        Frame
	stats        Stats
	inflight     sync.WaitGroup
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCache shares c with the pipeline. Without it each pipeline gets a
// private cache with default capacity and TTL.
func WithCache(c *Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithGate overrides the change gate thresholds.
func WithGate(g gate.Gate) Option {
	return func(p *Pipeline) { p.gate = g }
}

// WithRenderer sets where frames are delivered.
func WithRenderer(r Renderer) Option {
	return func(p *Pipeline) { p.renderer = r }
}

// WithLogger sets the logger.
func WithLogger(l log.Interface) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New creates a Pipeline in the Idle state.
func New(classifier Classifier, opts ...Option) *Pipeline {
	p := &Pipeline{
		classifier: classifier,
		gate:       gate.Default(),
		renderer:   RendererFunc(func(Frame) {}),
		logger:     log.Log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cache == nil {
		p.cache = NewCache()
	}
	p.frame = Frame{Source: SourceNone}
	return p
}

// Edit applies a new buffer text.
func (p *Pipeline) Edit(ctx context.Context, text string) *Task {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.text = text
	p.stats.Edits++

	if strings.TrimSpace(text) == "" {
		p.state = Idle
		p.lastAnalyzed = ""
		p.pending = nil
		f := p.apply(Frame{Text: text, Source: SourceNone})
		return doneTask(Outcome{Frame: f, Source: SourceNone})
	}

	p.state = PendingGate
	d := p.gate.Decide(text, p.lastAnalyzed, p.cache)
	p.logger.WithFields(log.Fields{
		"stage":      d.Stage,
		"similarity": d.Similarity,
		"ratio":      d.Ratio,
	}).Debug("gate")

	if !d.Reanalyze {
		a, src := p.lookup(text)
		f := p.present(text, a, src, nil)
		if a == nil && p.pending != nil {
			p.state = Classifying
			return p.follow(ctx, p.pending, text)
		}
		p.state = Rendered
		return doneTask(Outcome{Frame: f, Source: src})
	}

	// A shared cache may have been filled since the gate looked. A miss
	// here is the one counted for this edit.
	if a, ok := p.cache.Get(gate.TextKey(text)); ok {
		a = a.Clone()
		f := p.present(text, &a, SourceCache, nil)
		p.state = Rendered
		return doneTask(Outcome{Frame: f, Source: SourceCache})
	}

	p.state = Classifying
	p.lastAnalyzed = text
	p.stats.APICalls++

	task := newTask()
	p.pending = task
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		a, err := p.classifier.Classify(ctx, strings.TrimSpace(text))
		p.complete(task, text, a, err)
	}()
	return task
}

// follow serves a near duplicate of a text whose classification is still
// in flight. Once upstream finishes, text is looked up again and rendered
// if it is still the buffer's text.
func (p *Pipeline) follow(ctx context.Context, upstream *Task, text string) *Task {
	task := newTask()
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		select {
		case <-upstream.Done():
		case <-ctx.Done():
			task.finish(Outcome{Stale: true, Source: SourceNone}, ctx.Err())
			return
		}

		p.mu.Lock()
		defer p.mu.Unlock()
		if isStale(text, p.text) {
			task.finish(Outcome{Stale: true, Source: SourceNone}, nil)
			return
		}
		a, src := p.lookup(text)
		if a == nil {
			// upstream failed; the empty frame already shown stands.
			if p.pending == nil {
				p.state = Rendered
			}
			task.finish(Outcome{Frame: p.frame, Source: SourceNone}, upstream.err)
			return
		}
		f := p.present(text, a, src, nil)
		p.state = Rendered
		task.finish(Outcome{Frame: f, Source: src}, nil)
	}()
	return task
}

func (p *Pipeline) complete(task *Task, origin string, a risk.Analysis, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending == task {
		p.pending = nil
	}
	stale := isStale(origin, p.text)
	logger := p.logger.WithField("text", redact.Excerpt(origin, 40))

	if err != nil {
		p.stats.Failures++
		logger.WithError(err).Warn("classification failed")
		// The next edit of the same text gets another attempt.
		if p.lastAnalyzed == origin {
			p.lastAnalyzed = ""
		}
		if stale {
			p.stats.StaleDrops++
			task.finish(Outcome{Stale: true, Source: SourceNone}, err)
			return
		}
		f := p.present(origin, nil, SourceNone, err)
		p.state = Rendered
		task.finish(Outcome{Frame: f, Source: SourceNone}, err)
		return
	}

	p.cache.Set(gate.TextKey(origin), a)

	if stale {
		p.stats.StaleDrops++
		logger.Debug("dropping stale classification")
		task.finish(Outcome{Stale: true, Source: SourceClassifier}, nil)
		return
	}

	a = a.Clone()
	f := p.present(origin, &a, SourceClassifier, nil)
	p.state = Rendered
	task.finish(Outcome{Frame: f, Source: SourceClassifier}, nil)
}

// lookup finds the analysis to show for a text the gate let through
// without a classifier call: its own cache entry, else the entry for the
// last analyzed text it is a near duplicate of. Absent keys are not
// counted as misses. The result is a private copy.
func (p *Pipeline) lookup(text string) (*risk.Analysis, Source) {
	if a, ok := p.cached(gate.TextKey(text)); ok {
		return &a, SourceCache
	}
	if p.lastAnalyzed != "" {
		if a, ok := p.cached(gate.TextKey(p.lastAnalyzed)); ok {
			return &a, SourceSimilar
		}
	}
	return nil, SourceNone
}

func (p *Pipeline) cached(key string) (risk.Analysis, bool) {
	if !p.cache.Has(key) {
		return risk.Analysis{}, false
	}
	a, ok := p.cache.Get(key)
	if !ok {
		return risk.Analysis{}, false
	}
	return a.Clone(), true
}

func (p *Pipeline) present(text string, a *risk.Analysis, src Source, err error) Frame {
	f := Frame{Text: text, Analysis: a, Source: src, Err: err}
	if a != nil {
		f.Spans = spans.Resolve(text, a.Elements)
	}
	return p.apply(f)
}

// apply records f as the current frame and hands it to the renderer. The
// caller holds p.mu.
func (p *Pipeline) apply(f Frame) Frame {
	f.At = p.now()
	p.frame = f
	p.renderer.Render(f)
	return f
}

// isStale reports whether a result computed for origin no longer applies
// to the buffer's current text.
func isStale(origin, current string) bool {
	return origin != current
}

// State returns the current state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Frame returns the last rendered frame.
func (p *Pipeline) Frame() Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frame
}

// Text returns the current buffer text.
func (p *Pipeline) Text() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.text
}

// Stats returns activity counters and the cache statistics.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	s := p.stats
	p.mu.Unlock()
	s.Cache = p.cache.Stats()
	return s
}

// Wait blocks until every classification started so far has completed.
func (p *Pipeline) Wait() {
	p.inflight.Wait()
}
