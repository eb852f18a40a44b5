// Package resolver runs the resolution loop: it turns mount and language
// events into provider requests and publishes the newest result to a sink.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"cinestream/internal/logging"
	"cinestream/internal/media"
	"cinestream/internal/metrics"
	"cinestream/internal/playback"
	"cinestream/internal/provider"
	"cinestream/internal/registry"
)

var (
	// ErrProviderMiss is reported when the provider returned no playable stream.
	ErrProviderMiss = errors.New("provider returned no stream")
	// ErrUnknownProvider is reported when the title names no configured provider family.
	ErrUnknownProvider = errors.New("unknown provider")
)

// Providers looks up a provider family by name. provider.Set satisfies it.
type Providers interface {
	Lookup(name string) (provider.Provider, bool)
}

type eventKind int

const (
	evMount eventKind = iota
	evLanguage
	evResult
)

type event struct {
	kind eventKind

	ref media.Ref // evMount

	gen      uint64 // evResult
	provider string
	started  time.Time
	result   media.Result
}

// Controller owns the resolution state for a single mounted title.
//
// All state transitions happen on the goroutine running Run. Each dispatched
// request carries a generation number; a result is applied only if its
// generation is still the newest, so the last trigger wins. Outstanding
// requests are never cancelled, their results are discarded.
type Controller struct {
	providers Providers
	reg       *registry.Registry
	sink      playback.Sink
	logger    *zap.Logger

	qmu   sync.Mutex
	queue []event
	wake  chan struct{}

	// Loop-owned.
	ref       media.Ref
	mounted   bool
	gen       uint64
	requested media.LanguageTag

	smu     sync.RWMutex
	snap    playback.Snapshot
	changed chan struct{}
}

// New creates a Controller and subscribes it to registry changes.
// sink may be nil.
func New(providers Providers, reg *registry.Registry, sink playback.Sink, logger *zap.Logger) *Controller {
	c := &Controller{
		providers: providers,
		reg:       reg,
		sink:      sink,
		logger:    logging.Component(logger, "resolver"),
		wake:      make(chan struct{}, 1),
		snap:      playback.Snapshot{Phase: playback.Pending},
		changed:   make(chan struct{}),
	}
	reg.OnChange(func(media.Selection) { c.post(event{kind: evLanguage}) })
	return c
}

// Mount starts resolving ref. It may be called before or after Run starts.
func (c *Controller) Mount(ref media.Ref) {
	c.post(event{kind: evMount, ref: ref})
}

// Snapshot returns the latest published snapshot.
func (c *Controller) Snapshot() playback.Snapshot {
	c.smu.RLock()
	defer c.smu.RUnlock()
	return c.snap
}

// Wait blocks until the snapshot is settled or ctx is done.
func (c *Controller) Wait(ctx context.Context) (playback.Snapshot, error) {
	for {
		c.smu.RLock()
		snap, changed := c.snap, c.changed
		c.smu.RUnlock()

		if snap.Settled() {
			return snap, nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return snap, ctx.Err()
		}
	}
}

// Run processes events until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	for {
		for _, ev := range c.drain() {
			c.handle(ctx, ev)
		}

		select {
		case <-c.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Controller) post(ev event) {
	c.qmu.Lock()
	c.queue = append(c.queue, ev)
	c.qmu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Controller) drain() []event {
	c.qmu.Lock()
	defer c.qmu.Unlock()
	evs := c.queue
	c.queue = nil
	return evs
}

func (c *Controller) handle(ctx context.Context, ev event) {
	switch ev.kind {
	case evMount:
		c.ref = ev.ref
		c.mounted = true
		c.logger.Debug("mounted", zap.String("title", ev.ref.Title()), zap.String("provider", ev.ref.Provider))
		c.dispatch(ctx)

	case evLanguage:
		if !c.mounted {
			return
		}
		// The registry is authoritative; notifications may interleave.
		if c.reg.Current().Language == c.requested {
			return
		}
		c.dispatch(ctx)

	case evResult:
		c.apply(ctx, ev)
	}
}

// dispatch starts a resolution for the current language under a new generation.
func (c *Controller) dispatch(ctx context.Context) {
	c.gen++
	gen := c.gen

	lang := c.reg.Current().Language
	if lang.Unset() {
		if avail := c.reg.Available(); len(avail) > 0 {
			lang = avail[0]
		}
	}
	c.requested = lang

	p, ok := c.providers.Lookup(c.ref.Provider)
	if !ok {
		c.logger.Error("no such provider", zap.String("provider", c.ref.Provider))
		c.publish(func(s *playback.Snapshot) {
			s.Phase = playback.Error
			s.InFlight = false
			s.Err = fmt.Errorf("%w %q", ErrUnknownProvider, c.ref.Provider).Error()
		})
		return
	}

	c.logger.Debug("resolving",
		zap.Uint64("generation", gen), zap.String("provider", p.Name()), zap.String("lang", string(lang)))
	c.publish(func(s *playback.Snapshot) {
		s.InFlight = true
	})

	ref := c.ref
	started := time.Now()
	go func() {
		res := p.Resolve(ctx, ref, lang)
		c.post(event{kind: evResult, gen: gen, provider: p.Name(), started: started, result: res})
	}()
}

func (c *Controller) apply(ctx context.Context, ev event) {
	if ev.gen != c.gen {
		metrics.ObserveResolution(ev.provider, metrics.OutcomeStale, ev.started)
		c.logger.Debug("discarding stale result", zap.Uint64("generation", ev.gen), zap.Uint64("current", c.gen))
		return
	}

	res := ev.result
	if !res.OK {
		metrics.ObserveResolution(ev.provider, metrics.OutcomeMiss, ev.started)
		c.logger.Warn("resolution failed", zap.String("title", c.ref.Title()), zap.String("lang", string(c.requested)))
		c.publish(func(s *playback.Snapshot) {
			s.Phase = playback.Error
			s.InFlight = false
			s.Err = ErrProviderMiss.Error()
		})
		return
	}

	metrics.ObserveResolution(ev.provider, metrics.OutcomeOK, ev.started)
	requested := c.requested
	sel, assigned := c.reg.SetAvailable(res.Languages)

	redo := false
	if assigned {
		if requested.Unset() {
			// The stream was fetched without a language and the provider chose
			// one; keep it under the default that was just assigned.
			c.requested = sel.Language
		} else {
			redo = true
		}
	}

	c.publish(func(s *playback.Snapshot) {
		s.Phase = playback.Resolved
		s.StreamURL = res.StreamURL
		s.Subtitles = res.Subtitles
		s.Languages = res.Languages
		s.Err = ""
		s.InFlight = redo
	})
	c.logger.Info("resolved", zap.String("title", c.ref.Title()), zap.String("lang", string(sel.Language)))

	if redo {
		c.logger.Debug("selected language not offered, switching to default",
			zap.String("requested", string(requested)), zap.String("default", string(sel.Language)))
		c.dispatch(ctx)
	}
}

// publish applies mutate to a copy of the snapshot, stores it and renders it.
func (c *Controller) publish(mutate func(*playback.Snapshot)) {
	c.smu.Lock()
	next := c.snap
	mutate(&next)
	next.Ref = c.ref
	next.Title = c.ref.Title()
	next.Selection = c.reg.Current()
	next.Generation = c.gen
	c.snap = next
	close(c.changed)
	c.changed = make(chan struct{})
	c.smu.Unlock()

	if c.sink != nil {
		c.sink.Render(next)
	}
}

// UserSelection returns an observer that records sink picks in reg.
func UserSelection(reg *registry.Registry, logger *zap.Logger) playback.ObserverFunc {
	logger = logging.Component(logger, "resolver")
	return func(tag media.LanguageTag) {
		if err := reg.Select(tag, media.OriginUser); err != nil {
			logger.Warn("ignoring language pick", zap.String("lang", string(tag)), zap.Error(err))
		}
	}
}
