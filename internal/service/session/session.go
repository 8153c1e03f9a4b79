package session

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/kapu/superhero-cards-go/internal/domain"
	"github.com/kapu/superhero-cards-go/internal/service/collection"
	"github.com/kapu/superhero-cards-go/internal/service/superhero"
	"github.com/kapu/superhero-cards-go/pkg/errors"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

type Options struct {
	// QueueSize is the candidate channel buffer. Defaults to 8.
	QueueSize int
	// MaxConcurrentFetches limits bootstrap fan-out. 0 means one goroutine per id.
	MaxConcurrentFetches int
}

type candidate struct {
	hero    domain.Hero
	applied chan struct{}
}

// Session is one mounted view: a hero collection fed by a single queue of
// candidate heroes. Fetches run independently and only talk to the collection
// through Submit. After Close, late results are dropped.
type Session struct {
	fetcher superhero.HeroFetcher
	store   *collection.Store
	logger  *zap.Logger
	opts    Options

	ctx    context.Context
	cancel context.CancelFunc

	candidates   chan candidate
	consumerDone chan struct{}
	closeOnce    sync.Once

	bootstrapOnce sync.Once
	settled       chan struct{}
}

func New(fetcher superhero.HeroFetcher, logger *zap.Logger, opts Options) *Session {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 8
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		fetcher:      fetcher,
		store:        collection.NewStore(),
		logger:       logger,
		opts:         opts,
		ctx:          ctx,
		cancel:       cancel,
		candidates:   make(chan candidate, opts.QueueSize),
		consumerDone: make(chan struct{}),
		settled:      make(chan struct{}),
	}

	go s.consume()
	return s
}

func (s *Session) consume() {
	defer close(s.consumerDone)

	for {
		select {
		case <-s.ctx.Done():
			return
		case c := <-s.candidates:
			if s.ctx.Err() != nil {
				return
			}
			if _, inserted := s.store.InsertIfAbsent(c.hero); inserted {
				s.logger.Debug("Hero added to collection", zap.String("name", c.hero.Name))
			} else {
				s.logger.Debug("Hero already in collection", zap.String("name", c.hero.Name))
			}
			if c.applied != nil {
				close(c.applied)
			}
		}
	}
}

// Submit queues hero for insert-if-absent. false means the session is closed
// and the hero was discarded. true only means the hero was queued: a Close
// racing with the queue can still drop it before it is applied.
func (s *Session) Submit(hero domain.Hero) bool {
	return s.submit(candidate{hero: hero})
}

func (s *Session) submit(c candidate) bool {
	if s.ctx.Err() != nil {
		return false
	}
	select {
	case <-s.ctx.Done():
		return false
	case s.candidates <- c:
		return true
	}
}

// Bootstrap starts one fetch per id and returns immediately. Only the first
// call has an effect. Settled is closed once every fetch has finished and its
// hero, if any, has been applied.
func (s *Session) Bootstrap(ids []int) {
	s.bootstrapOnce.Do(func() {
		p := pool.New()
		if s.opts.MaxConcurrentFetches > 0 {
			p = p.WithMaxGoroutines(s.opts.MaxConcurrentFetches)
		}

		s.logger.Debug("Bootstrapping heroes", zap.Ints("hero_ids", ids))

		go func() {
			defer close(s.settled)
			for _, id := range ids {
				id := id
				p.Go(func() {
					s.load(id)
				})
			}
			p.Wait()
		}()
	})
}

func (s *Session) load(id int) {
	hero, err := s.fetcher.FetchHero(s.ctx, id)
	if err != nil {
		s.logSoftFailure(id, err)
		return
	}

	c := candidate{hero: *hero, applied: make(chan struct{})}
	if !s.submit(c) {
		s.logger.Debug("Session closed, discarding hero", zap.Int("hero_id", id))
		return
	}

	select {
	case <-c.applied:
	case <-s.ctx.Done():
	}
}

func (s *Session) logSoftFailure(id int, err error) {
	if s.ctx.Err() != nil && stderrors.Is(err, context.Canceled) {
		s.logger.Debug("Hero fetch abandoned, session closed", zap.Int("hero_id", id))
		return
	}

	var incomplete *errors.IncompleteResponseError
	if stderrors.As(err, &incomplete) {
		s.logger.Warn("Incomplete hero data, skipping",
			zap.Int("hero_id", id),
			zap.String("missing_field", incomplete.Field),
		)
		return
	}

	s.logger.Warn("Failed to fetch hero",
		zap.Int("hero_id", id),
		zap.Error(err),
	)
}

// Settled is closed when the bootstrap batch has finished. It never closes if
// Bootstrap was not called.
func (s *Session) Settled() <-chan struct{} {
	return s.settled
}

func (s *Session) Snapshot() []domain.Hero {
	return s.store.Snapshot()
}

func (s *Session) Subscribe() (<-chan []domain.Hero, func()) {
	return s.store.Subscribe()
}

// Close cancels in-flight fetches and stops the consumer. Once it returns the
// collection no longer changes.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.consumerDone
	})
}
