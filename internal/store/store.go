package store

import (
	"sync"
	"sync/atomic"
)

// DispatchFunc sends an action into a store.
type DispatchFunc func(Action)

// API is the part of a Store handed to middleware.
type API interface {
	State() State
	Dispatch(Action)
}

// Middleware wraps the dispatch chain. It sees every action before the
// reducer does and decides when (and whether) to call next.
//
//	func(api API) func(next DispatchFunc) DispatchFunc {
//	    return func(next DispatchFunc) DispatchFunc {
//	        return func(a Action) {
//	            // before the reducer
//	            next(a)
//	            // after the reducer: api.State() is the new state
//	        }
//	    }
//	}
type Middleware func(api API) func(next DispatchFunc) DispatchFunc

// Listener is notified after every dispatch with the state it produced.
type Listener func(State)

var storeIDs atomic.Uint64

// Store holds the state of one application instance (one browser session,
// one CLI lookup). It is safe for concurrent use: the reducer runs under a
// mutex, so writes from request goroutines and from loader goroutines are
// applied one at a time.
type Store struct {
	// exclusive serializes Exclusive sections; it is never held by plain
	// dispatches.
	exclusive sync.Mutex

	mu        sync.Mutex
	id        uint64
	state     State
	reducer   Reducer
	listeners []subscription
	nextSubID int

	dispatch DispatchFunc
}

type subscription struct {
	id int
	fn Listener
}

// New creates a Store with an initial state. Middleware is applied in order:
// the first one listed is the outermost and sees each action first.
func New(reducer Reducer, initial State, middleware ...Middleware) *Store {
	s := &Store{
		id:      storeIDs.Add(1),
		reducer: reducer,
	}
	s.state = initial
	s.state.rev = revision{store: s.id}

	dispatch := s.reduce
	for i := len(middleware) - 1; i >= 0; i-- {
		dispatch = middleware[i](s)(dispatch)
	}
	s.dispatch = dispatch

	return s
}

// State returns the current state snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch runs an action through the middleware chain and the reducer.
func (s *Store) Dispatch(a Action) {
	if a == nil {
		return
	}
	s.dispatch(a)
}

// Exclusive runs fn while no other Exclusive section of this store runs.
// fn may read State and Dispatch freely.
//
// Hosts use it for read-then-dispatch steps that must not interleave, such
// as "where was the session before this route change".
func (s *Store) Exclusive(fn func()) {
	s.exclusive.Lock()
	defer s.exclusive.Unlock()
	fn()
}

// Subscribe registers fn to be called after every dispatch. The returned
// function removes the subscription; calling it more than once is harmless.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// reduce is the innermost link of the dispatch chain.
//
// Listeners run outside the lock so they may read State() or dispatch again.
func (s *Store) reduce(a Action) {
	s.mu.Lock()
	next := s.reducer(s.state, a)
	next.rev = revision{store: s.id, version: s.state.rev.version + 1}
	s.state = next
	listeners := make([]subscription, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, sub := range listeners {
		sub.fn(next)
	}
}
