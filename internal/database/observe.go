package database

import (
	"sync"

	"gorm.io/gorm"
)

// Subscription is a live query handle. C delivers the initial result set and
// a fresh result set after every commit that touches one of the observed
// tables. Consecutive commits may coalesce into a single re-emission when the
// consumer lags; every emission reflects all commits before it.
type Subscription[T any] struct {
	C <-chan []T

	once   sync.Once
	cancel func()
}

// Close detaches the subscription. C is closed afterwards.
func (s *Subscription[T]) Close() {
	s.once.Do(s.cancel)
}

// Observe registers a live query over the given tables. The query function
// runs once immediately and again after each matching commit, in commit
// order.
func Observe[T any](d *Database, tables []string, query func(db *gorm.DB) ([]T, error)) *Subscription[T] {
	out := make(chan []T, 8)
	sub := d.hub.add(tables)

	go func() {
		defer close(out)

		emit := func() bool {
			rows, err := query(d.DB)
			if err != nil {
				d.log.Warn().Err(err).Strs("tables", tables).Msg("live query failed")
				return true
			}
			select {
			case out <- rows:
				return true
			case <-sub.done:
				return false
			}
		}

		if !emit() {
			return
		}
		for {
			select {
			case <-sub.done:
				return
			case <-sub.trigger:
				if !emit() {
					return
				}
			}
		}
	}()

	return &Subscription[T]{
		C:      out,
		cancel: func() { d.hub.remove(sub) },
	}
}

type hub struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	tables  map[string]struct{} // empty means every table
	trigger chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newHub() *hub {
	return &hub{subs: make(map[*subscriber]struct{})}
}

func (h *hub) add(tables []string) *subscriber {
	sub := &subscriber{
		tables:  make(map[string]struct{}, len(tables)),
		trigger: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	for _, t := range tables {
		sub.tables[t] = struct{}{}
	}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *hub) remove(sub *subscriber) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
	sub.close()
}

func (h *hub) notify(tables []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		if !sub.matches(tables) {
			continue
		}
		select {
		case sub.trigger <- struct{}{}:
		default: // already pending, coalesce
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		sub.close()
		delete(h.subs, sub)
	}
}

func (s *subscriber) matches(tables []string) bool {
	if len(s.tables) == 0 {
		return true
	}
	for _, t := range tables {
		if _, ok := s.tables[t]; ok {
			return true
		}
	}
	return false
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.done) })
}
