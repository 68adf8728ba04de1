package service

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Subscription is a handle on a stream of snapshots of one record or query.
// Every change notification re-reads the current state, so the same snapshot
// may arrive more than once and ordering always reflects the store.
type Subscription[T any] struct {
	name    string
	fetch   func(ctx context.Context) (T, error)
	updates chan T
	notify  chan struct{}

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	stopOnce    sync.Once
	done        chan struct{}

	mu      sync.Mutex
	lastErr error
}

func newSubscription[T any](ctx context.Context, name string, fetch func(ctx context.Context) (T, error)) *Subscription[T] {
	subCtx, cancel := context.WithCancel(ctx)
	return &Subscription[T]{
		name:        name,
		fetch:       fetch,
		updates:     make(chan T),
		notify:      make(chan struct{}, 1),
		ctx:         subCtx,
		cancel:      cancel,
		unsubscribe: func() {},
		done:        make(chan struct{}),
	}
}

// start begins delivery with an initial snapshot. unsubscribe detaches the
// change feed and runs once on Cancel.
func (s *Subscription[T]) start(unsubscribe func()) {
	if unsubscribe != nil {
		s.unsubscribe = unsubscribe
	}
	s.trigger()
	go s.run()

	// A cancelled parent context ends the subscription like Cancel would
	go func() {
		<-s.ctx.Done()
		s.stop()
	}()
}

func (s *Subscription[T]) run() {
	defer close(s.done)
	defer close(s.updates)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.notify:
		}

		snapshot, err := s.fetch(s.ctx)
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.setErr(err)
			log.WithFields(log.Fields{
				"subscription": s.name,
				"error":        err,
			}).Warn("Failed to refresh subscription snapshot")
			continue
		}
		s.setErr(nil)

		select {
		case s.updates <- snapshot:
		case <-s.ctx.Done():
			return
		}
	}
}

// trigger asks for a refresh; pending requests coalesce into one
func (s *Subscription[T]) trigger() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription[T]) stop() {
	s.stopOnce.Do(func() {
		s.unsubscribe()
		s.cancel()
	})
}

// Updates returns the snapshot channel. It is closed after Cancel.
func (s *Subscription[T]) Updates() <-chan T {
	return s.updates
}

// Next blocks for the next snapshot
func (s *Subscription[T]) Next(ctx context.Context) (T, error) {
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case snapshot, ok := <-s.updates:
		if !ok {
			return zero, ErrSubscriptionClosed
		}
		return snapshot, nil
	}
}

// Restart re-emits the current snapshot
func (s *Subscription[T]) Restart() error {
	select {
	case <-s.done:
		return ErrSubscriptionClosed
	default:
	}
	s.trigger()
	return nil
}

// Cancel detaches from the change feed and waits until no further snapshot
// can be delivered. It is safe to call more than once.
func (s *Subscription[T]) Cancel() {
	s.stop()
	<-s.done
}

// Err returns the error of the most recent failed refresh, if the refresh
// after it has not succeeded yet
func (s *Subscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Subscription[T]) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}
