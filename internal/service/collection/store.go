package collection

import (
	"sync"

	"github.com/kapu/superhero-cards-go/internal/domain"
)

// Store is an append-only, insertion-ordered hero collection unique by name.
// InsertIfAbsent is the only mutator and the single synchronization point.
type Store struct {
	mu     sync.Mutex
	heroes []domain.Hero
	names  map[string]struct{}

	subscribers map[int]chan []domain.Hero
	nextSubID   int
}

func NewStore() *Store {
	return &Store{
		heroes:      make([]domain.Hero, 0),
		names:       make(map[string]struct{}),
		subscribers: make(map[int]chan []domain.Hero),
	}
}

// InsertIfAbsent appends hero unless one with the same name exists. It returns
// the resulting snapshot and whether the collection changed. The first record
// for a name wins.
func (s *Store) InsertIfAbsent(hero domain.Hero) ([]domain.Hero, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.names[hero.Name]; exists {
		return s.snapshotLocked(), false
	}

	s.names[hero.Name] = struct{}{}
	s.heroes = append(s.heroes, hero)

	snapshot := s.snapshotLocked()
	for _, ch := range s.subscribers {
		publishLatest(ch, snapshot)
	}
	return snapshot, true
}

func (s *Store) Snapshot() []domain.Hero {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.heroes)
}

// Subscribe returns a channel receiving the snapshot after every insert. The
// channel holds only the latest snapshot, so a slow reader skips intermediate
// states but never blocks writers. cancel closes the channel.
func (s *Store) Subscribe() (<-chan []domain.Hero, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan []domain.Hero, 1)
	s.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subscribers, id)
			close(ch)
		})
	}
}

func (s *Store) snapshotLocked() []domain.Hero {
	out := make([]domain.Hero, len(s.heroes))
	copy(out, s.heroes)
	return out
}

// publishLatest must be called with the store lock held; it is the only
// sender, so draining then sending cannot block.
func publishLatest(ch chan []domain.Hero, snapshot []domain.Hero) {
	select {
	case <-ch:
	default:
	}
	ch <- snapshot
}
