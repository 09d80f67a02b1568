// Package broker hands a producer's stream to the first consumer that asks for it.
//
// It exists for streaming hints over SSE. The producer is a goroutine spawned by the POST that requests the hint, and
// the first consumer is the handler serving the SSE stream. Later consumers are usually reconnects. They wait for the
// producer to finish and then fall back to whatever the producer persisted.
package broker

import (
	"context"

	"github.com/myrjola/casefile/internal/errors"
)

var ErrStopped = errors.NewSentinel("broker stopped")

type publication[K comparable, V any] struct {
	key    K
	stream <-chan V
}

type subscription[K comparable, V any] struct {
	key   K
	reply chan (<-chan V)
}

type Broker[K comparable, V any] struct {
	publish   chan publication[K, V]
	unpublish chan publication[K, V]
	subscribe chan subscription[K, V]
	done      chan struct{}
}

func New[K comparable, V any]() *Broker[K, V] {
	return &Broker[K, V]{
		publish:   make(chan publication[K, V]),
		unpublish: make(chan publication[K, V]),
		subscribe: make(chan subscription[K, V]),
		done:      make(chan struct{}),
	}
}

// Run serves the broker until ctx is done. Subscribers still waiting at that point are released.
func (b *Broker[K, V]) Run(ctx context.Context) {
	published := map[K]<-chan V{}
	taken := map[K]bool{}
	waiting := map[K][]chan (<-chan V){}
	defer func() {
		close(b.done)
		for _, replies := range waiting {
			for _, reply := range replies {
				close(reply)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case sub := <-b.subscribe:
			stream, ok := published[sub.key]
			switch {
			case !ok:
				// Nothing is being produced.
				close(sub.reply)
			case !taken[sub.key]:
				taken[sub.key] = true
				sub.reply <- stream
			default:
				waiting[sub.key] = append(waiting[sub.key], sub.reply)
			}

		case pub := <-b.publish:
			published[pub.key] = pub.stream
			delete(taken, pub.key)

		case pub := <-b.unpublish:
			key := pub.key
			if published[key] != pub.stream {
				// A newer stream replaced this one. Its producer unpublishes it.
				continue
			}
			for _, reply := range waiting[key] {
				close(reply)
			}
			delete(waiting, key)
			delete(published, key)
			delete(taken, key)
		}
	}
}

// Publish makes stream available under key, replacing any earlier stream.
func (b *Broker[K, V]) Publish(ctx context.Context, key K, stream <-chan V) error {
	select {
	case b.publish <- publication[K, V]{key: key, stream: stream}:
		return nil
	case <-b.done:
		return ErrStopped
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "publish")
	}
}

// Unpublish removes stream from key and releases the subscribers waiting for it. Producers call it once they are
// finished. It does nothing when stream has already been replaced under key.
func (b *Broker[K, V]) Unpublish(ctx context.Context, key K, stream <-chan V) error {
	select {
	case b.unpublish <- publication[K, V]{key: key, stream: stream}:
		return nil
	case <-b.done:
		return ErrStopped
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "unpublish")
	}
}

// Subscribe returns the stream under key. ok is true only for the first subscriber. Later subscribers block until
// the stream is unpublished and then get ok false, as does anyone subscribing to a key with no stream.
func (b *Broker[K, V]) Subscribe(ctx context.Context, key K) (<-chan V, bool, error) {
	reply := make(chan (<-chan V), 1)
	select {
	case b.subscribe <- subscription[K, V]{key: key, reply: reply}:
	case <-b.done:
		return nil, false, ErrStopped
	case <-ctx.Done():
		return nil, false, errors.Wrap(ctx.Err(), "subscribe")
	}
	select {
	case stream, ok := <-reply:
		return stream, ok, nil
	case <-ctx.Done():
		return nil, false, errors.Wrap(ctx.Err(), "wait for stream")
	}
}
